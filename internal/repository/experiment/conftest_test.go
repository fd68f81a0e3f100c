package experiment

import (
	"context"
	"testing"

	"github.com/linksmith/matchlab/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn    func(ctx context.Context, key string) ([]byte, error)
	setFn    func(ctx context.Context, key string, value []byte) error
	setNXFn  func(ctx context.Context, key string, value []byte) (bool, error)
	scanFn   func(ctx context.Context, pattern string) ([]string, error)
	rpushFn  func(ctx context.Context, key string, values ...[]byte) error
	lrangeFn func(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	llenFn   func(ctx context.Context, key string) (int64, error)
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockStore) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	if m.setNXFn != nil {
		return m.setNXFn(ctx, key, value)
	}
	return true, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) RPush(ctx context.Context, key string, values ...[]byte) error {
	if m.rpushFn != nil {
		return m.rpushFn(ctx, key, values...)
	}
	return nil
}

func (m *mockStore) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	if m.lrangeFn != nil {
		return m.lrangeFn(ctx, key, start, stop)
	}
	return nil, nil
}

func (m *mockStore) LLen(ctx context.Context, key string) (int64, error) {
	if m.llenFn != nil {
		return m.llenFn(ctx, key)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}
