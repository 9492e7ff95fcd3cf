package cache

import (
	"context"
	"time"

	"github.com/tdex-network/barter-daemon/internal/core/ports"
)

type namespacedCache struct {
	prefix string
	cache  ports.Cache
}

// WithNamespace returns a view of the given cache where every key is
// prefixed, so that different components can share the same backend.
func WithNamespace(cache ports.Cache, namespace string) ports.Cache {
	return &namespacedCache{namespace + ":", cache}
}

func (c *namespacedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.cache.Get(ctx, c.prefix+key)
}

func (c *namespacedCache) Set(
	ctx context.Context, key string, value []byte, ttl time.Duration,
) error {
	return c.cache.Set(ctx, c.prefix+key, value, ttl)
}
