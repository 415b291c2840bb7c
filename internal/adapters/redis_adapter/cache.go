// internal/adapters/redis_adapter/cache.go
package redis_adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/fieldservice-be/internal/core/ports"
)

// CacheKeyPrefix namespaces cache keys by what they hold
type CacheKeyPrefix string

const (
	PrefixMinStock      CacheKeyPrefix = "minstock"
	PrefixStockingScore CacheKeyPrefix = "score"
	PrefixSnapshot      CacheKeyPrefix = "snapshot"
	PrefixLock          CacheKeyPrefix = "lock"
)

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = errors.New("cache miss")

// Cache provides caching functionality with Redis
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.CacheRepository = (*Cache)(nil)

// NewCache creates a new cache instance. ttl is used when a caller passes a zero TTL.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "cache")),
	}
}

// SetWithTTL stores a JSON encoded value
func (c *Cache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(value)
	if err != nil {
		return &CacheError{Op: "marshal", Key: key, Err: err}
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to set cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return &CacheError{Op: "set", Key: key, Err: err}
	}

	c.logger.DebugContext(ctx, "cache set",
		slog.String("key", key),
		slog.Duration("ttl", ttl))
	return nil
}

// Get decodes the value stored at key into dest
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.DebugContext(ctx, "cache miss", slog.String("key", key))
			return ErrCacheMiss
		}
		c.logger.ErrorContext(ctx, "failed to get cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return &CacheError{Op: "get", Key: key, Err: err}
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return &CacheError{Op: "unmarshal", Key: key, Err: err}
	}

	c.logger.DebugContext(ctx, "cache hit", slog.String("key", key))
	return nil
}

// Delete removes keys from cache
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to delete cache",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
		return &CacheError{Op: "del", Key: strings.Join(keys, ","), Err: err}
	}

	c.logger.DebugContext(ctx, "cache deleted", slog.Int("count", len(keys)))
	return nil
}

// DeletePattern removes all keys matching a glob pattern
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to scan keys",
			slog.String("pattern", pattern),
			slog.String("error", err.Error()))
		return &CacheError{Op: "scan", Key: pattern, Err: err}
	}

	return c.Delete(ctx, keys...)
}

// GetOrSet reads key into dest. On a miss it calls fetch, caches the result
// and decodes it into dest. A failed cache write does not fail the call.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{},
	fetch func() (interface{}, error), ttl time.Duration) error {

	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		// redis is down; serve from source
		c.logger.WarnContext(ctx, "cache read failed, fetching from source",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	value, err := fetch()
	if err != nil {
		return fmt.Errorf("fetch error: %w", err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return &CacheError{Op: "marshal", Key: key, Err: err}
	}

	if ttl <= 0 {
		ttl = c.ttl
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to cache value after fetch",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return &CacheError{Op: "unmarshal", Key: key, Err: err}
	}
	return nil
}

// SetNX sets a key only if it doesn't exist
func (c *Cache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, &CacheError{Op: "marshal", Key: key, Err: err}
	}

	ok, err := c.client.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to setnx",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false, &CacheError{Op: "setnx", Key: key, Err: err}
	}

	return ok, nil
}

// Ping checks if Redis is accessible
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.ErrorContext(ctx, "redis ping failed", slog.String("error", err.Error()))
		return &CacheError{Op: "ping", Err: err}
	}

	return nil
}

// BuildKey creates a cache key with prefix
func BuildKey(prefix CacheKeyPrefix, parts ...string) string {
	if len(parts) == 0 {
		return string(prefix)
	}
	return string(prefix) + ":" + strings.Join(parts, ":")
}

// CacheError represents cache-specific errors
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s operation failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// Invalidator drops cached part analytics after the batch jobs rewrite them
type Invalidator struct {
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewInvalidator creates a new invalidator
func NewInvalidator(cache ports.CacheRepository, logger *slog.Logger) *Invalidator {
	return &Invalidator{
		cache:  cache,
		logger: logger.With(slog.String("component", "cache_invalidator")),
	}
}

// InvalidatePart removes the cached analytics of a single part
func (m *Invalidator) InvalidatePart(ctx context.Context, partNumber string) error {
	return m.cache.Delete(ctx,
		BuildKey(PrefixMinStock, partNumber),
		BuildKey(PrefixStockingScore, partNumber),
		BuildKey(PrefixSnapshot),
	)
}

// InvalidateAll removes every cached part analytic. Failures are logged and
// the remaining patterns are still attempted.
func (m *Invalidator) InvalidateAll(ctx context.Context) error {
	patterns := []string{
		BuildKey(PrefixMinStock, "*"),
		BuildKey(PrefixStockingScore, "*"),
		BuildKey(PrefixSnapshot),
	}

	var errs []error
	for _, pattern := range patterns {
		if err := m.cache.DeletePattern(ctx, pattern); err != nil {
			m.logger.WarnContext(ctx, "failed to invalidate cache pattern",
				slog.String("pattern", pattern),
				slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
