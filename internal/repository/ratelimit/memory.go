// Package ratelimit stores fixed-window request counters.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is the number of new keys between sweeps of expired buckets.
const sweepEvery = 4096

type bucket struct {
	mu     sync.Mutex
	count  int64
	start  time.Time
	window time.Duration
	// swept is set once the bucket left the table; it must not count again.
	swept bool
}

// Memory keeps counters in process memory. Increments on one key are
// serialized by that key's lock; distinct keys do not contend.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	calls   int
	now     func() time.Time
}

// NewMemory creates an in-memory counter table.
func NewMemory() *Memory {
	return &Memory{buckets: make(map[string]*bucket), now: time.Now}
}

// Incr counts one request in the current window of key and returns the new
// count and the time left until the window resets. A window starts with
// the first request after the previous one expired.
func (m *Memory) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := m.now()
	for {
		if n, ttl, ok := m.bucket(key, now).incr(now, window); ok {
			return n, ttl, nil
		}
	}
}

// incr counts one request. It reports false when the bucket was swept
// after the caller looked it up.
func (b *bucket) incr(now time.Time, window time.Duration) (int64, time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.swept {
		return 0, 0, false
	}
	b.window = window
	if now.Sub(b.start) >= window {
		b.start = now
		b.count = 0
	}
	b.count++

	return b.count, b.start.Add(window).Sub(now), true
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.buckets)
}

func (m *Memory) bucket(key string, now time.Time) *bucket {
	m.mu.RLock()
	b, ok := m.buckets[key]
	m.mu.RUnlock()
	if ok {
		return b
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.calls%sweepEvery == 0 {
		m.sweep(now)
	}

	if b, ok = m.buckets[key]; !ok {
		b = &bucket{start: now}
		m.buckets[key] = b
	}
	return b
}

// sweep drops buckets whose window ended. Caller holds m.mu.
func (m *Memory) sweep(now time.Time) {
	for key, b := range m.buckets {
		b.mu.Lock()
		if b.window > 0 && now.Sub(b.start) >= b.window {
			b.swept = true
			delete(m.buckets, key)
		}
		b.mu.Unlock()
	}
}
