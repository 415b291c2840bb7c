// internal/core/ports/cache.go
package ports

import (
	"context"
	"time"
)

// CacheRepository defines the interface for cache operations
type CacheRepository interface {
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error

	// GetOrSet reads key into dest, calling fetch and caching its result on a miss
	GetOrSet(ctx context.Context, key string, dest interface{},
		fetch func() (interface{}, error), ttl time.Duration) error

	// SetNX is used as a best-effort lock around batch runs
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	Ping(ctx context.Context) error
}
