// internal/core/services/replenishment.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/core/ports"
	"github.com/ammerola/fieldservice-be/internal/pkg/metrics"
)

// Batch names used in logs and metrics
const (
	BatchMinStock      = "min_stock"
	BatchStockingScore = "stocking_score"
)

const defaultBatchConcurrency = 8

// ReplenishmentService computes min stock levels and stocking scores
type ReplenishmentService struct {
	repo        ports.PartRepository
	policy      domain.ReplenishmentPolicy
	scoring     domain.ScoringPolicy
	concurrency int
	limiter     *rate.Limiter
	metrics     *metrics.Metrics
	now         func() time.Time
	logger      *slog.Logger
}

// Statically assert that *ReplenishmentService implements the ReplenishmentService interface.
var _ ports.ReplenishmentService = (*ReplenishmentService)(nil)

// ReplenishmentOption configures a ReplenishmentService
type ReplenishmentOption func(*ReplenishmentService)

// WithConcurrency bounds how many parts a batch processes at once
func WithConcurrency(n int) ReplenishmentOption {
	return func(s *ReplenishmentService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRateLimit caps how many parts per second a batch starts
func WithRateLimit(perSecond float64, burst int) ReplenishmentOption {
	return func(s *ReplenishmentService) {
		if perSecond > 0 {
			if burst < 1 {
				burst = 1
			}
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithMetrics records batch outcomes
func WithMetrics(m *metrics.Metrics) ReplenishmentOption {
	return func(s *ReplenishmentService) {
		s.metrics = m
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) ReplenishmentOption {
	return func(s *ReplenishmentService) {
		s.now = now
	}
}

// NewReplenishmentService creates a new replenishment service
func NewReplenishmentService(
	repo ports.PartRepository,
	policy domain.ReplenishmentPolicy,
	scoring domain.ScoringPolicy,
	logger *slog.Logger,
	opts ...ReplenishmentOption,
) *ReplenishmentService {
	s := &ReplenishmentService{
		repo:        repo,
		policy:      policy,
		scoring:     scoring,
		concurrency: defaultBatchConcurrency,
		now:         time.Now,
		logger:      logger.With(slog.String("service", "replenishment")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculateRecommendedMinStock returns the min stock recommendation for a part.
// Data access failures are logged and degrade to a value of 1 at Low confidence.
func (s *ReplenishmentService) CalculateRecommendedMinStock(ctx context.Context, partNumber string) domain.MinStockRecommendation {
	rec, err := s.recommendMinStock(ctx, partNumber)
	if err != nil {
		s.logger.WarnContext(ctx, "min stock recommendation degraded to default",
			slog.String("part_number", partNumber),
			slog.String("error", err.Error()))
		return domain.FallbackMinStock()
	}
	return rec
}

// CalculateStockingScore returns the stocking score for a part.
// Data access failures are logged and degrade to a zero score.
func (s *ReplenishmentService) CalculateStockingScore(ctx context.Context, partNumber string) domain.StockingScoreResult {
	result, err := s.scoreStocking(ctx, partNumber)
	if err != nil {
		s.logger.WarnContext(ctx, "stocking score degraded to default",
			slog.String("part_number", partNumber),
			slog.String("error", err.Error()))
		return domain.UnavailableStockingScore()
	}
	return result
}

func (s *ReplenishmentService) recommendMinStock(ctx context.Context, partNumber string) (domain.MinStockRecommendation, error) {
	since := s.now().AddDate(0, 0, -s.policy.WindowDays)

	txs, err := s.repo.GetUsageTransactions(ctx, partNumber, since)
	if err != nil {
		return domain.MinStockRecommendation{}, fmt.Errorf("failed to get usage transactions: %w", err)
	}

	leadTime, err := s.repo.GetPreferredSupplierLeadTime(ctx, partNumber)
	if err != nil {
		return domain.MinStockRecommendation{}, fmt.Errorf("failed to get supplier lead time: %w", err)
	}

	callbacks, err := s.repo.GetCallbackLinkedUsageCount(ctx, partNumber)
	if err != nil {
		return domain.MinStockRecommendation{}, fmt.Errorf("failed to get callback usage count: %w", err)
	}

	return domain.RecommendMinStock(domain.MinStockInput{
		UsageCount:    len(txs),
		LeadTimeDays:  leadTime,
		CallbackCount: callbacks,
	}, s.policy), nil
}

func (s *ReplenishmentService) scoreStocking(ctx context.Context, partNumber string) (domain.StockingScoreResult, error) {
	part, err := s.repo.GetPartRecord(ctx, partNumber)
	if err != nil {
		return domain.StockingScoreResult{}, fmt.Errorf("failed to get part record: %w", err)
	}
	if part == nil {
		return domain.StockingScoreResult{}, fmt.Errorf("%w: %s", domain.ErrPartNotFound, partNumber)
	}

	// full history; recency and frequency need uses older than the min stock window
	txs, err := s.repo.GetUsageTransactions(ctx, partNumber, time.Time{})
	if err != nil {
		return domain.StockingScoreResult{}, fmt.Errorf("failed to get usage transactions: %w", err)
	}

	callbacks, err := s.repo.GetCallbackLinkedUsageCount(ctx, partNumber)
	if err != nil {
		return domain.StockingScoreResult{}, fmt.Errorf("failed to get callback usage count: %w", err)
	}

	profile := domain.BuildUsageProfile(part, txs, nil, callbacks)
	return domain.ScoreStocking(domain.StockingInputFromProfile(profile), s.scoring, s.now()), nil
}

// UpdateAllMinStockLevels recomputes min stock for every auto-replenish part
// without a manual override and persists High and Medium confidence values.
// It returns the number of parts updated.
func (s *ReplenishmentService) UpdateAllMinStockLevels(ctx context.Context) (int, error) {
	start := time.Now()

	parts, err := s.repo.ListAutoReplenishParts(ctx)
	if err != nil {
		s.metrics.RecordBatchRun(BatchMinStock, err, time.Since(start))
		return 0, fmt.Errorf("failed to list auto-replenish parts: %w", err)
	}

	updated, err := s.fanOut(ctx, BatchMinStock, parts, func(ctx context.Context, part domain.Part) (string, error) {
		if part.HasManualOverride() {
			return "manual_override", nil
		}

		rec, err := s.recommendMinStock(ctx, part.PartNumber)
		if err != nil {
			return "", err
		}
		if !rec.AutoApplicable() {
			return "low_confidence", nil
		}

		if err := s.repo.UpdateMinStock(ctx, part.PartNumber, rec.Value); err != nil {
			return "", fmt.Errorf("failed to update min stock: %w", err)
		}
		return outcomeUpdated, nil
	})

	s.metrics.RecordBatchRun(BatchMinStock, err, time.Since(start))
	s.logger.InfoContext(ctx, "min stock levels updated",
		slog.Int("parts", len(parts)),
		slog.Int("updated", updated),
		slog.Duration("duration", time.Since(start)))

	return updated, err
}

// UpdateAllStockingScores recomputes and persists the stocking score of every part.
// It returns the number of parts updated.
func (s *ReplenishmentService) UpdateAllStockingScores(ctx context.Context) (int, error) {
	start := time.Now()

	parts, err := s.repo.ListParts(ctx, ports.PartFilter{})
	if err != nil {
		s.metrics.RecordBatchRun(BatchStockingScore, err, time.Since(start))
		return 0, fmt.Errorf("failed to list parts: %w", err)
	}

	updated, err := s.fanOut(ctx, BatchStockingScore, parts, func(ctx context.Context, part domain.Part) (string, error) {
		result, err := s.scoreStocking(ctx, part.PartNumber)
		if err != nil {
			return "", err
		}

		if err := s.repo.UpdateStockingScore(ctx, part.PartNumber, result.Score, result.Recommendation); err != nil {
			return "", fmt.Errorf("failed to update stocking score: %w", err)
		}
		return outcomeUpdated, nil
	})

	s.metrics.RecordBatchRun(BatchStockingScore, err, time.Since(start))
	s.logger.InfoContext(ctx, "stocking scores updated",
		slog.Int("parts", len(parts)),
		slog.Int("updated", updated),
		slog.Duration("duration", time.Since(start)))

	return updated, err
}

// StockingSnapshot computes current analytics for every part, highest score first
func (s *ReplenishmentService) StockingSnapshot(ctx context.Context) ([]ports.PartStockingRow, error) {
	parts, err := s.repo.ListParts(ctx, ports.PartFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list parts: %w", err)
	}

	rows := make([]ports.PartStockingRow, len(parts))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range parts {
		i := i
		g.Go(func() error {
			rows[i] = ports.PartStockingRow{
				Part:     parts[i],
				MinStock: s.CalculateRecommendedMinStock(ctx, parts[i].PartNumber),
				Score:    s.CalculateStockingScore(ctx, parts[i].PartNumber),
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].Score.Score > rows[b].Score.Score
	})
	return rows, nil
}

const outcomeUpdated = "updated"

type partFunc func(ctx context.Context, part domain.Part) (outcome string, err error)

// fanOut runs fn for each part with bounded concurrency. A failing part is
// logged and skipped; only cancellation of ctx fails the batch.
func (s *ReplenishmentService) fanOut(ctx context.Context, batch string, parts []domain.Part, fn partFunc) (int, error) {
	var (
		updated atomic.Int64
		failed  atomic.Int64
		g       errgroup.Group
		stopErr error
	)
	g.SetLimit(s.concurrency)

	for _, part := range parts {
		if err := s.wait(ctx); err != nil {
			stopErr = err
			break
		}

		part := part
		g.Go(func() error {
			outcome, err := fn(ctx, part)
			if err != nil {
				failed.Add(1)
				s.metrics.RecordPartOutcome(batch, "failed")
				s.logger.ErrorContext(ctx, "part skipped",
					slog.String("batch", batch),
					slog.String("part_number", part.PartNumber),
					slog.String("error", err.Error()))
				return nil
			}

			if outcome == outcomeUpdated {
				updated.Add(1)
			}
			s.metrics.RecordPartOutcome(batch, outcome)
			return nil
		})
	}
	_ = g.Wait()

	if f := failed.Load(); f > 0 {
		s.logger.WarnContext(ctx, "batch completed with failures",
			slog.String("batch", batch),
			slog.Int64("failed", f))
	}

	if err := ctx.Err(); err != nil {
		stopErr = err
	}
	if stopErr != nil {
		return int(updated.Load()), fmt.Errorf("%s batch interrupted: %w", batch, stopErr)
	}
	return int(updated.Load()), nil
}

func (s *ReplenishmentService) wait(ctx context.Context) error {
	if s.limiter != nil {
		return s.limiter.Wait(ctx)
	}
	return ctx.Err()
}
