package redis_adapter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/fieldservice-be/internal/adapters/redis_adapter"
	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/test/helpers"
	"github.com/ammerola/fieldservice-be/test/mocks"
)

func newTestCache(t *testing.T) (*redis_adapter.Cache, *helpers.TestRedis) {
	t.Helper()
	r := helpers.SetupTestRedis(t)
	return redis_adapter.NewCache(r.Client, 5*time.Minute, helpers.TestLogger()), r
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	t.Run("stores_and_retrieves_struct", func(t *testing.T) {
		rec := domain.MinStockRecommendation{Value: 3, Confidence: domain.ConfidenceHigh}
		require.NoError(t, cache.SetWithTTL(ctx, "minstock:WPW10348269", rec, time.Minute))

		var got domain.MinStockRecommendation
		require.NoError(t, cache.Get(ctx, "minstock:WPW10348269", &got))
		assert.Equal(t, rec, got)
	})

	t.Run("stores_and_retrieves_slice", func(t *testing.T) {
		require.NoError(t, cache.SetWithTTL(ctx, "test:slice", []string{"a", "b"}, 0))

		var got []string
		require.NoError(t, cache.Get(ctx, "test:slice", &got))
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("missing_key_is_a_miss", func(t *testing.T) {
		var got string
		err := cache.Get(ctx, "nope", &got)
		assert.ErrorIs(t, err, redis_adapter.ErrCacheMiss)
	})
}

func TestCache_SetWithTTL(t *testing.T) {
	ctx := context.Background()
	cache, r := newTestCache(t)

	require.NoError(t, cache.SetWithTTL(ctx, "ttl:test", "value", 100*time.Millisecond))

	var result string
	require.NoError(t, cache.Get(ctx, "ttl:test", &result))
	assert.Equal(t, "value", result)

	r.Server.FastForward(200 * time.Millisecond)

	err := cache.Get(ctx, "ttl:test", &result)
	assert.ErrorIs(t, err, redis_adapter.ErrCacheMiss)

	// zero ttl falls back to the cache default
	require.NoError(t, cache.SetWithTTL(ctx, "ttl:default", "value", 0))
	assert.Equal(t, 5*time.Minute, r.Server.TTL("ttl:default"))
}

func TestCache_DeleteAndDeletePattern(t *testing.T) {
	ctx := context.Background()
	cache, r := newTestCache(t)

	for _, key := range []string{"minstock:A", "minstock:B", "score:A", "other"} {
		require.NoError(t, cache.SetWithTTL(ctx, key, 1, time.Minute))
	}

	require.NoError(t, cache.Delete(ctx))
	require.NoError(t, cache.Delete(ctx, "other"))
	assert.False(t, r.Server.Exists("other"))

	require.NoError(t, cache.DeletePattern(ctx, "minstock:*"))
	assert.False(t, r.Server.Exists("minstock:A"))
	assert.False(t, r.Server.Exists("minstock:B"))
	assert.True(t, r.Server.Exists("score:A"))

	// nothing matches
	require.NoError(t, cache.DeletePattern(ctx, "snapshot:*"))
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return domain.StockingScoreResult{Score: 7.5, Recommendation: domain.StockingHighValue}, nil
	}

	var first domain.StockingScoreResult
	require.NoError(t, cache.GetOrSet(ctx, "score:X", &first, fetch, time.Minute))
	assert.Equal(t, 7.5, first.Score)

	var second domain.StockingScoreResult
	require.NoError(t, cache.GetOrSet(ctx, "score:X", &second, fetch, time.Minute))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	var failed domain.StockingScoreResult
	err := cache.GetOrSet(ctx, "score:Y", &failed, func() (interface{}, error) {
		return nil, errors.New("db down")
	}, time.Minute)
	assert.ErrorContains(t, err, "db down")
}

func TestCache_GetOrSet_RedisDown(t *testing.T) {
	ctx := context.Background()
	cache, r := newTestCache(t)
	r.Server.Close()

	var got string
	err := cache.GetOrSet(ctx, "k", &got, func() (interface{}, error) {
		return "from-source", nil
	}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "from-source", got)
}

func TestCache_Locks(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	lock := redis_adapter.BuildKey(redis_adapter.PrefixLock, "min_stock")
	ok, err := cache.SetNX(ctx, lock, "worker-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, lock, "worker-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Ping(ctx))
}

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix redis_adapter.CacheKeyPrefix
		parts  []string
		want   string
	}{
		{name: "prefix_only", prefix: redis_adapter.PrefixSnapshot, want: "snapshot"},
		{name: "single_part", prefix: redis_adapter.PrefixMinStock, parts: []string{"WPW10348269"}, want: "minstock:WPW10348269"},
		{name: "multiple_parts", prefix: redis_adapter.PrefixLock, parts: []string{"replenishment", "score"}, want: "lock:replenishment:score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, redis_adapter.BuildKey(tt.prefix, tt.parts...))
		})
	}
}

func TestInvalidator(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidate_all_clears_part_analytics", func(t *testing.T) {
		cache, r := newTestCache(t)
		for _, key := range []string{"minstock:A", "score:A", "snapshot", "lock:min_stock"} {
			require.NoError(t, cache.SetWithTTL(ctx, key, 1, time.Minute))
		}

		inv := redis_adapter.NewInvalidator(cache, helpers.TestLogger())
		require.NoError(t, inv.InvalidateAll(ctx))

		assert.False(t, r.Server.Exists("minstock:A"))
		assert.False(t, r.Server.Exists("score:A"))
		assert.False(t, r.Server.Exists("snapshot"))
		assert.True(t, r.Server.Exists("lock:min_stock"))
	})

	t.Run("invalidate_part", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockCacheRepository(ctrl)
		cache.EXPECT().Delete(gomock.Any(), "minstock:A", "score:A", "snapshot").Return(nil)

		inv := redis_adapter.NewInvalidator(cache, helpers.TestLogger())
		require.NoError(t, inv.InvalidatePart(ctx, "A"))
	})

	t.Run("keeps_going_after_a_failed_pattern", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockCacheRepository(ctrl)
		cache.EXPECT().DeletePattern(gomock.Any(), "minstock:*").Return(errors.New("boom"))
		cache.EXPECT().DeletePattern(gomock.Any(), "score:*").Return(nil)
		cache.EXPECT().DeletePattern(gomock.Any(), "snapshot").Return(nil)

		inv := redis_adapter.NewInvalidator(cache, helpers.TestLogger())
		assert.ErrorContains(t, inv.InvalidateAll(ctx), "boom")
	})
}
