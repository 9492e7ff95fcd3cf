package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
)

type redisCache struct {
	client redis.UniversalClient
}

// NewRedisCache returns a ports.Cache backed by Redis. Expiration is
// delegated to Redis key TTLs.
func NewRedisCache(client redis.UniversalClient) (ports.Cache, error) {
	if client == nil {
		return nil, errors.New("missing redis client")
	}
	return &redisCache{client}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (c *redisCache) Set(
	ctx context.Context, key string, value []byte, ttl time.Duration,
) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}
