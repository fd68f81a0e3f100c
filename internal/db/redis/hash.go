package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/linksmith/matchlab/internal/db"
)

// HSet stores fields on a hash key.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	fv := s.b().Hset().Key(key).FieldValue()
	for f, v := range fields {
		fv = fv.FieldValue(f, v)
	}
	if err := s.do(ctx, fv.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HGetAll retrieves all fields of a hash key. A missing key yields an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	cmd := s.b().Hgetall().Key(key).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return m, nil
}

// HGetAllMulti retrieves all fields of multiple hash keys in one pipelined
// round trip, preserving input order.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, 0, len(keys))
	for _, key := range keys {
		cmds = append(cmds, s.b().Hgetall().Key(key).Build())
	}

	out := make([]map[string]string, 0, len(keys))
	for _, res := range s.client.DoMulti(ctx, cmds...) {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: err}
		}
		out = append(out, m)
	}
	return out, nil
}
