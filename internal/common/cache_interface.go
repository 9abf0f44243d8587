package common

import (
	"context"
	"time"

	"dwdcdc/internal/constants"
)

// CacheInterface caches remote directory listings keyed by directory
type CacheInterface interface {
	// Set stores a listing with the given time to live
	Set(ctx context.Context, key string, names []string, ttl time.Duration)

	// Get returns the cached listing and true if present
	Get(ctx context.Context, key string) ([]string, bool)

	// Delete drops a cached listing
	Delete(ctx context.Context, key string)

	// GetOrSet returns the cached listing or loads and stores it
	GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]string, error)) ([]string, error)

	// Close closes any underlying connections (for Redis, etc.)
	Close() error
}

// ListingKey is the cache key of a remote directory listing
func ListingKey(dir string) string {
	return string(constants.CachePrefixListing) + dir
}
