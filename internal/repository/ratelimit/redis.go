package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// DefaultKeyPrefix namespaces counter keys in Redis.
const DefaultKeyPrefix = "ccdb:throttle:"

// store is the consumer interface for counter operations (ISP).
type store interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	PTTL(ctx context.Context, key string) (time.Duration, error)
}

// Redis keeps counters in Redis so every replica shares one window per key.
type Redis struct {
	store  store
	prefix string
}

// NewRedis creates a Redis counter table.
func NewRedis(s store, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{store: s, prefix: prefix}
}

// Incr counts one request with INCR and opens the window with EXPIRE NX,
// so later increments never extend it.
func (r *Redis) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := r.prefix + key

	n, err := r.store.Incr(ctx, k)
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit INCR %s: %w", k, err)
	}

	if err := r.store.Expire(ctx, k, window, true); err != nil {
		return 0, 0, fmt.Errorf("ratelimit EXPIRE %s: %w", k, err)
	}

	ttl, err := r.store.PTTL(ctx, k)
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit PTTL %s: %w", k, err)
	}
	if ttl <= 0 || ttl > window {
		ttl = window
	}

	return n, ttl, nil
}
