package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// AllowView claims the throttle window for a (viewer, product) key.
	// It returns false while a previous claim is still live.
	AllowView(ctx context.Context, key string, window time.Duration) (bool, error)

	// Ping reports cache reachability.
	Ping(ctx context.Context) error
}
