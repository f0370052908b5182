package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"skyscraper-platform/internal/config"
	"skyscraper-platform/pkg/metrics"
)

// Cache stores JSON-encodable values under string keys
type Cache interface {
	// Get decodes the cached value into dest and reports whether it was found
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Ping(ctx context.Context) error
	Close() error
}

// redisClient is the part of *redis.Client the cache uses
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

const keyPrefix = "skyscraper:"

// RedisCache is a Cache backed by redis with a fixed TTL per entry
type RedisCache struct {
	client  redisClient
	ttl     time.Duration
	metrics *metrics.Collector
}

// NewRedisCache connects to the configured redis server
func NewRedisCache(cfg config.RedisConfig, metricsCollector *metrics.Collector) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newRedisCache(client, cfg.CacheTTL, metricsCollector)
}

func newRedisCache(client redisClient, ttl time.Duration, metricsCollector *metrics.Collector) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, metrics: metricsCollector}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.RecordCacheResult("miss")
		return false, nil
	}
	if err != nil {
		c.metrics.RecordCacheResult("error")
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.metrics.RecordCacheResult("error")
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	c.metrics.RecordCacheResult("hit")
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache key %s: %w", key, err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Noop never stores anything; every Get is a miss
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }

func (Noop) Set(context.Context, string, interface{}) error { return nil }

func (Noop) Ping(context.Context) error { return nil }

func (Noop) Close() error { return nil }
