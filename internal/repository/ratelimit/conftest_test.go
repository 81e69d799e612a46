package ratelimit

import (
	"context"
	"time"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	incrFn   func(ctx context.Context, key string) (int64, error)
	expireFn func(ctx context.Context, key string, ttl time.Duration, nx bool) error
	pttlFn   func(ctx context.Context, key string) (time.Duration, error)
}

func (m *mockStore) Incr(ctx context.Context, key string) (int64, error) {
	if m.incrFn != nil {
		return m.incrFn(ctx, key)
	}
	return 1, nil
}

func (m *mockStore) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	if m.expireFn != nil {
		return m.expireFn(ctx, key, ttl, nx)
	}
	return nil
}

func (m *mockStore) PTTL(ctx context.Context, key string) (time.Duration, error) {
	if m.pttlFn != nil {
		return m.pttlFn(ctx, key)
	}
	return 0, nil
}
