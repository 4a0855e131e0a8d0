package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const viewKeyPrefix = "throttle:"

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

// AllowView claims the throttle window via SET NX with the window as TTL.
// The first caller for a key wins; everyone else is throttled until expiry.
func (r *RedisAdapter) AllowView(ctx context.Context, key string, window time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, viewKeyPrefix+key, 1, window).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
