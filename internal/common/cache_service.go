package common

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheService keeps listings in process memory
type CacheService struct {
	cache *cache.Cache
}

// Ensure CacheService implements CacheInterface
var _ CacheInterface = (*CacheService)(nil)

func NewCacheService(defaultExpiration, cleanUpInterval time.Duration) *CacheService {
	return &CacheService{cache: cache.New(defaultExpiration, cleanUpInterval)}
}

func (cs *CacheService) Set(_ context.Context, key string, names []string, ttl time.Duration) {
	cs.cache.Set(key, names, ttl)
}

func (cs *CacheService) Get(_ context.Context, key string) ([]string, bool) {
	v, ok := cs.cache.Get(key)
	if !ok {
		return nil, false
	}
	names, ok := v.([]string)
	return names, ok
}

func (cs *CacheService) Delete(_ context.Context, key string) {
	cs.cache.Delete(key)
}

func (cs *CacheService) GetOrSet(
	ctx context.Context,
	key string,
	ttl time.Duration,
	loader func(context.Context) ([]string, error)) ([]string, error) {
	if names, found := cs.Get(ctx, key); found {
		return names, nil
	}

	names, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	cs.Set(ctx, key, names, ttl)
	return names, nil
}

// Close closes the cache (no-op for in-memory cache)
func (cs *CacheService) Close() error {
	return nil
}
