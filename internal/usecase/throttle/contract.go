package throttle

import (
	"context"
	"time"
)

// Counter counts requests per key in fixed windows.
type Counter interface {
	// Incr counts one request and returns the window count and the time
	// until the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}
