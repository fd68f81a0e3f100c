package redis

import (
	"context"

	"github.com/linksmith/matchlab/internal/db"
)

// RPush appends values to a list.
func (s *Store) RPush(ctx context.Context, key string, values ...[]byte) error {
	el := s.b().Rpush().Key(key).Element()
	for _, v := range values {
		el = el.Element(string(v))
	}
	if err := s.do(ctx, el.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpRPush, Err: err}
	}
	return nil
}

// LRange returns list elements in [start, stop]; -1 means the last element.
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	cmd := s.b().Lrange().Key(key).Start(start).Stop(stop).Build()
	items, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	out := make([][]byte, 0, len(items))
	for _, it := range items {
		out = append(out, []byte(it))
	}
	return out, nil
}

// LLen returns the length of a list; 0 for a missing key.
func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Llen().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpLLen, Err: err}
	}
	return n, nil
}
