package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetAdd(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, 0)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := c.Add(ctx, "k", "first")
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = c.Add(ctx, "k", "second")
	require.NoError(t, err)
	assert.False(t, stored)

	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "first", val)
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(50*time.Millisecond, 0)

	_, err := c.Add(ctx, "k", "v")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_MaxEntries(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, 2)

	for _, k := range []string{"a", "b", "c"} {
		_, err := c.Add(ctx, k, k)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.Len())
	_, ok, _ := c.Get(ctx, "c")
	assert.False(t, ok)
	val, ok, _ := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "a", val)
}

func TestMemoryCache_ConcurrentAddFirstWins(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	stores := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stored, err := c.Add(ctx, "k", "v")
			assert.NoError(t, err)
			if stored {
				mu.Lock()
				stores++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, stores)
}

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), &redis.Options{Addr: mr.Addr()}, "test:", ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_GetAdd(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t, time.Hour)

	_, ok, err := c.Get(ctx, `{"label":"P1"}`)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := c.Add(ctx, `{"label":"P1"}`, "advice")
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = c.Add(ctx, `{"label":"P1"}`, "other")
	require.NoError(t, err)
	assert.False(t, stored)

	val, ok, err := c.Get(ctx, `{"label":"P1"}`)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "advice", val)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Regexp(t, `^test:[0-9a-f]{64}$`, keys[0])
	assert.Equal(t, time.Hour, mr.TTL(keys[0]))
}

func TestRedisCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t, time.Minute)

	_, err := c.Add(ctx, "k", "v")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_Unavailable(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t, 0)
	mr.Close()

	_, _, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.Ping(ctx))
}

func TestNewRedisCache_ConnectFailure(t *testing.T) {
	_, err := NewRedisCache(context.Background(), &redis.Options{Addr: "127.0.0.1:1"}, "p:", 0)

	assert.Error(t, err)
}
