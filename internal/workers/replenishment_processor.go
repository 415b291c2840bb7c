// internal/workers/replenishment_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/fieldservice-be/internal/adapters/redis_adapter"
	"github.com/ammerola/fieldservice-be/internal/core/ports"
	"github.com/ammerola/fieldservice-be/internal/pkg/logger"
)

// CacheInvalidator drops cached part analytics
type CacheInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

// ReplenishmentProcessor runs the nightly min stock and stocking score batches
type ReplenishmentProcessor struct {
	service     ports.ReplenishmentService
	cache       ports.CacheRepository
	invalidator CacheInvalidator
	lockTTL     time.Duration
	logger      *slog.Logger
}

// NewReplenishmentProcessor creates a new replenishment processor
func NewReplenishmentProcessor(
	service ports.ReplenishmentService,
	cache ports.CacheRepository,
	invalidator CacheInvalidator,
	lockTTL time.Duration,
	logger *slog.Logger,
) *ReplenishmentProcessor {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Minute
	}
	return &ReplenishmentProcessor{
		service:     service,
		cache:       cache,
		invalidator: invalidator,
		lockTTL:     lockTTL,
		logger:      logger.With(slog.String("processor", "replenishment")),
	}
}

// ProcessMinStock handles TypeMinStockUpdate
func (p *ReplenishmentProcessor) ProcessMinStock(ctx context.Context, t *asynq.Task) error {
	return p.runBatch(ctx, t, "min_stock", p.service.UpdateAllMinStockLevels)
}

// ProcessStockingScore handles TypeStockingScoreUpdate
func (p *ReplenishmentProcessor) ProcessStockingScore(ctx context.Context, t *asynq.Task) error {
	return p.runBatch(ctx, t, "stocking_score", p.service.UpdateAllStockingScores)
}

// runBatch holds a redis lock for the duration of the batch so overlapping
// workers skip instead of racing. Redis being unavailable does not block the run.
func (p *ReplenishmentProcessor) runBatch(ctx context.Context, t *asynq.Task, batch string,
	run func(context.Context) (int, error)) error {
	payload, err := decodeBatchPayload(t)
	if err != nil {
		return err
	}

	ctx = logger.WithValue(ctx, logger.ContextKeyBatch, batch)
	owner, _ := asynq.GetTaskID(ctx)

	lockKey := redis_adapter.BuildKey(redis_adapter.PrefixLock, "replenishment", batch)
	acquired, err := p.cache.SetNX(ctx, lockKey, owner, p.lockTTL)
	switch {
	case err != nil:
		p.logger.WarnContext(ctx, "batch lock unavailable, running unlocked",
			slog.String("error", err.Error()))
	case !acquired:
		p.logger.InfoContext(ctx, "batch already running elsewhere, skipping")
		return nil
	default:
		defer func() {
			// release on a fresh context; ctx may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := p.cache.Delete(releaseCtx, lockKey); err != nil {
				p.logger.WarnContext(ctx, "failed to release batch lock",
					slog.String("error", err.Error()))
			}
		}()
	}

	p.logger.InfoContext(ctx, "batch started",
		slog.String("requested_by", payload.RequestedBy))

	updated, err := run(ctx)
	if err != nil {
		return fmt.Errorf("%s batch failed after %d updates: %w", batch, updated, err)
	}

	if err := p.invalidator.InvalidateAll(ctx); err != nil {
		p.logger.WarnContext(ctx, "failed to invalidate part caches",
			slog.String("error", err.Error()))
	}

	p.logger.InfoContext(ctx, "batch finished", slog.Int("updated", updated))
	return nil
}
