package common

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dwdcdc/internal/logging"
)

// RedisCacheService shares listings between processes through Redis
type RedisCacheService struct {
	client *redis.Client
}

// Ensure RedisCacheService implements CacheInterface
var _ CacheInterface = (*RedisCacheService)(nil)

// NewRedisCacheService connects to Redis at host:port
func NewRedisCacheService(ctx context.Context, host, port, password string) (*RedisCacheService, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheServiceWithClient(client), nil
}

// NewRedisCacheServiceWithClient wraps an existing client
func NewRedisCacheServiceWithClient(client *redis.Client) *RedisCacheService {
	return &RedisCacheService{client: client}
}

func (r *RedisCacheService) Set(ctx context.Context, key string, names []string, ttl time.Duration) {
	data, err := json.Marshal(names)
	if err != nil {
		logging.Warn("Redis cache: failed to marshal listing", "key", key, "error", err)
		return
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logging.Warn("Redis cache: failed to set key", "key", key, "error", err)
	}
}

func (r *RedisCacheService) Get(ctx context.Context, key string) ([]string, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logging.Warn("Redis cache: failed to get key", "key", key, "error", err)
		return nil, false
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		logging.Warn("Redis cache: failed to unmarshal listing", "key", key, "error", err)
		return nil, false
	}
	return names, true
}

func (r *RedisCacheService) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		logging.Warn("Redis cache: failed to delete key", "key", key, "error", err)
	}
}

func (r *RedisCacheService) GetOrSet(
	ctx context.Context,
	key string,
	ttl time.Duration,
	loader func(context.Context) ([]string, error),
) ([]string, error) {
	if names, found := r.Get(ctx, key); found {
		return names, nil
	}

	names, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	r.Set(ctx, key, names, ttl)
	return names, nil
}

// Close closes the Redis connection
func (r *RedisCacheService) Close() error {
	return r.client.Close()
}
