package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const memoryCleanupInterval = 10 * time.Minute

// MemoryCache is a process-local cache with a TTL and an entry bound.
// go-cache locks internally, so it is safe for concurrent use.
type MemoryCache struct {
	items      *cache.Cache
	maxEntries int
}

// NewMemoryCache creates a cache whose entries expire after ttl (0 = never)
// and that holds at most maxEntries items (0 = unbounded).
func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	expiration := ttl
	cleanup := memoryCleanupInterval
	if ttl <= 0 {
		expiration = cache.NoExpiration
		cleanup = 0
	}
	return &MemoryCache{
		items:      cache.New(expiration, cleanup),
		maxEntries: maxEntries,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	val, ok := m.items.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := val.(string)
	return s, ok, nil
}

// Add stores value if key is absent. When the cache is full the value is not
// stored; the count may include expired items not yet swept.
func (m *MemoryCache) Add(_ context.Context, key string, value string) (bool, error) {
	if m.maxEntries > 0 && m.items.ItemCount() >= m.maxEntries {
		m.items.DeleteExpired()
		if m.items.ItemCount() >= m.maxEntries {
			return false, nil
		}
	}
	if err := m.items.Add(key, value, cache.DefaultExpiration); err != nil {
		// already present
		return false, nil
	}
	return true, nil
}

// Len returns the number of stored entries.
func (m *MemoryCache) Len() int {
	return m.items.ItemCount()
}
