package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tdex-network/barter-daemon/internal/core/ports"
)

type item struct {
	value     []byte
	expiresAt time.Time
}

type inmemoryCache struct {
	lock  *sync.RWMutex
	items map[string]item
	now   func() time.Time
}

// Option customizes an in-memory cache.
type Option func(*inmemoryCache)

// WithClock makes the cache use the given function to get the current time.
func WithClock(now func() time.Time) Option {
	return func(c *inmemoryCache) {
		c.now = now
	}
}

// NewInmemoryCache returns a ports.Cache that keeps values in a map guarded
// by a lock. Expired values are dropped on read and by Purge.
func NewInmemoryCache(opts ...Option) ports.Cache {
	c := &inmemoryCache{
		lock:  &sync.RWMutex{},
		items: make(map[string]item),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *inmemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.lock.RLock()
	it, ok := c.items[key]
	c.lock.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(it.expiresAt) {
		c.lock.Lock()
		if current, ok := c.items[key]; ok && current.expiresAt.Equal(it.expiresAt) {
			delete(c.items, key)
		}
		c.lock.Unlock()
		return nil, false, nil
	}

	value := make([]byte, len(it.value))
	copy(value, it.value)
	return value, true, nil
}

func (c *inmemoryCache) Set(
	_ context.Context, key string, value []byte, ttl time.Duration,
) error {
	buf := make([]byte, len(value))
	copy(buf, value)

	c.lock.Lock()
	defer c.lock.Unlock()

	c.items[key] = item{buf, c.now().Add(ttl)}
	return nil
}

// Purge drops all expired values from the given in-memory cache and returns
// how many were removed. It is a no-op for other implementations.
func Purge(cache ports.Cache) int {
	c, ok := cache.(*inmemoryCache)
	if !ok {
		return 0
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	now := c.now()
	count := 0
	for key, it := range c.items {
		if !now.Before(it.expiresAt) {
			delete(c.items, key)
			count++
		}
	}
	return count
}
