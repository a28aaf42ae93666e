package repository

import "context"

// CacheRepository stores generated recommendation text by cache key.
// Entries are immutable: Add never overwrites, so the first writer wins.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// Add stores value unless key is already present and reports whether it stored.
	Add(ctx context.Context, key string, value string) (bool, error)
}
