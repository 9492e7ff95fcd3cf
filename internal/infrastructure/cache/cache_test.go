package cache_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/cache"
)

type clock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *clock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

func TestInmemoryCacheExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := &clock{now: time.Now()}
	c := cache.NewInmemoryCache(cache.WithClock(clk.Now))

	err := c.Set(ctx, "bitcoin", []byte("65000"), 10*time.Minute)
	require.NoError(t, err)

	value, ok, err := c.Get(ctx, "bitcoin")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("65000"), value)

	clk.Advance(9 * time.Minute)
	_, ok, _ = c.Get(ctx, "bitcoin")
	require.True(t, ok)

	clk.Advance(time.Minute)
	value, ok, err = c.Get(ctx, "bitcoin")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, value)
}

func TestInmemoryCachePurge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := &clock{now: time.Now()}
	c := cache.NewInmemoryCache(cache.WithClock(clk.Now))

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Hour))

	clk.Advance(2 * time.Minute)
	require.Equal(t, 1, cache.Purge(c))

	_, ok, _ := c.Get(ctx, "b")
	require.True(t, ok)
}

func TestInmemoryCacheReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := cache.NewInmemoryCache()

	value := []byte("original")
	require.NoError(t, c.Set(ctx, "key", value, time.Minute))
	value[0] = 'X'

	got, ok, _ := c.Get(ctx, "key")
	require.True(t, ok)
	got[1] = 'Y'

	got, _, _ = c.Get(ctx, "key")
	require.Equal(t, "original", string(got))
}

func TestNamespacedCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := cache.NewInmemoryCache()
	quotes := cache.WithNamespace(backend, "quotes")
	estimates := cache.WithNamespace(backend, "estimates")

	require.NoError(t, quotes.Set(ctx, "bitcoin", []byte("1"), time.Minute))

	_, ok, _ := estimates.Get(ctx, "bitcoin")
	require.False(t, ok)
	_, ok, _ = backend.Get(ctx, "quotes:bitcoin")
	require.True(t, ok)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	var c ports.Cache
	c, err := cache.NewRedisCache(client)
	require.NoError(t, err)

	ctx := context.Background()
	key := "barterd-test:" + time.Now().Format(time.RFC3339Nano)

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte("value"), time.Second))
	value, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("value"), value)
}
