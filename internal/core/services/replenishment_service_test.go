package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/core/ports"
	"github.com/ammerola/fieldservice-be/internal/core/services"
	"github.com/ammerola/fieldservice-be/internal/pkg/metrics"
	"github.com/ammerola/fieldservice-be/test/helpers"
	"github.com/ammerola/fieldservice-be/test/mocks"
)

var replenishmentNow = time.Date(2026, 10, 12, 12, 0, 0, 0, time.UTC)

func newReplenishmentService(repo ports.PartRepository, opts ...services.ReplenishmentOption) *services.ReplenishmentService {
	opts = append([]services.ReplenishmentOption{
		services.WithClock(func() time.Time { return replenishmentNow }),
		services.WithConcurrency(4),
	}, opts...)
	return services.NewReplenishmentService(repo,
		domain.DefaultReplenishmentPolicy(),
		domain.DefaultScoringPolicy(),
		helpers.TestLogger(),
		opts...)
}

func usage(partNumber string, n int) []domain.UsageTransaction {
	return helpers.CreateUsageHistory(partNumber, n, 3*24*time.Hour, replenishmentNow, "")
}

func TestReplenishmentService_CalculateRecommendedMinStock(t *testing.T) {
	lead := 5
	windowStart := replenishmentNow.AddDate(0, 0, -90)

	tests := []struct {
		name           string
		setupMocks     func(*mocks.MockPartRepository)
		wantValue      int
		wantConfidence domain.Confidence
	}{
		{
			name: "high_usage_default_lead_time",
			setupMocks: func(m *mocks.MockPartRepository) {
				m.EXPECT().GetUsageTransactions(gomock.Any(), "P1", windowStart).Return(usage("P1", 12), nil)
				m.EXPECT().GetPreferredSupplierLeadTime(gomock.Any(), "P1").Return(nil, nil)
				m.EXPECT().GetCallbackLinkedUsageCount(gomock.Any(), "P1").Return(0, nil)
			},
			// 12 * (3+7) * 1.2 / 90 = 1.6
			wantValue:      2,
			wantConfidence: domain.ConfidenceHigh,
		},
		{
			name: "supplier_lead_time_and_callback_heavy_part",
			setupMocks: func(m *mocks.MockPartRepository) {
				m.EXPECT().GetUsageTransactions(gomock.Any(), "P1", windowStart).Return(usage("P1", 12), nil)
				m.EXPECT().GetPreferredSupplierLeadTime(gomock.Any(), "P1").Return(&lead, nil)
				m.EXPECT().GetCallbackLinkedUsageCount(gomock.Any(), "P1").Return(3, nil)
			},
			// 12 * (5+7) * 1.5 / 90 = 2.4
			wantValue:      3,
			wantConfidence: domain.ConfidenceHigh,
		},
		{
			name: "sparse_usage_is_low_confidence",
			setupMocks: func(m *mocks.MockPartRepository) {
				m.EXPECT().GetUsageTransactions(gomock.Any(), "P1", windowStart).Return(usage("P1", 2), nil)
				m.EXPECT().GetPreferredSupplierLeadTime(gomock.Any(), "P1").Return(nil, nil)
				m.EXPECT().GetCallbackLinkedUsageCount(gomock.Any(), "P1").Return(0, nil)
			},
			wantValue:      1,
			wantConfidence: domain.ConfidenceLow,
		},
		{
			name: "usage_read_error_degrades_to_default",
			setupMocks: func(m *mocks.MockPartRepository) {
				m.EXPECT().GetUsageTransactions(gomock.Any(), "P1", windowStart).Return(nil, errors.New("connection reset"))
			},
			wantValue:      1,
			wantConfidence: domain.ConfidenceLow,
		},
		{
			name: "lead_time_error_degrades_to_default",
			setupMocks: func(m *mocks.MockPartRepository) {
				m.EXPECT().GetUsageTransactions(gomock.Any(), "P1", windowStart).Return(usage("P1", 20), nil)
				m.EXPECT().GetPreferredSupplierLeadTime(gomock.Any(), "P1").Return(nil, errors.New("timeout"))
			},
			wantValue:      1,
			wantConfidence: domain.ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockPartRepository(ctrl)
			tt.setupMocks(repo)

			got := newReplenishmentService(repo).CalculateRecommendedMinStock(context.Background(), "P1")
			assert.Equal(t, tt.wantValue, got.Value)
			assert.Equal(t, tt.wantConfidence, got.Confidence)
		})
	}
}

func TestReplenishmentService_CalculateStockingScore(t *testing.T) {
	part := helpers.CreateTestPart()

	tests := []struct {
		name               string
		setupMocks         func(*mocks.MockPartRepository)
		wantScore          float64
		wantRecommendation string
	}{
		{
			name: "frequent_recent_cheap_part",
			setupMocks: func(m *mocks.MockPartRepository) {
				m.EXPECT().GetPartRecord(gomock.Any(), part.PartNumber).Return(part, nil)
				m.EXPECT().GetUsageTransactions(gomock.Any(), part.PartNumber, time.Time{}).Return(usage(part.PartNumber, 10), nil)
				m.EXPECT().GetCallbackLinkedUsageCount(gomock.Any(), part.PartNumber).Return(2, nil)
			},
			// frequency 4 + recency 2 + callbacks 1 + cost 1
			wantScore:          8,
			wantRecommendation: domain.StockingHighValue,
		},
		{
			name: "never_used",
			setupMocks: func(m *mocks.MockPartRepository) {
				m.EXPECT().GetPartRecord(gomock.Any(), part.PartNumber).Return(part, nil)
				m.EXPECT().GetUsageTransactions(gomock.Any(), part.PartNumber, time.Time{}).Return(nil, nil)
				m.EXPECT().GetCallbackLinkedUsageCount(gomock.Any(), part.PartNumber).Return(0, nil)
			},
			wantScore:          0,
			wantRecommendation: domain.StockingNoData,
		},
		{
			name: "unknown_part",
			setupMocks: func(m *mocks.MockPartRepository) {
				m.EXPECT().GetPartRecord(gomock.Any(), part.PartNumber).Return(nil, nil)
			},
			wantScore:          0,
			wantRecommendation: domain.StockingUnavailable,
		},
		{
			name: "repository_error",
			setupMocks: func(m *mocks.MockPartRepository) {
				m.EXPECT().GetPartRecord(gomock.Any(), part.PartNumber).Return(nil, errors.New("db down"))
			},
			wantScore:          0,
			wantRecommendation: domain.StockingUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockPartRepository(ctrl)
			tt.setupMocks(repo)

			got := newReplenishmentService(repo).CalculateStockingScore(context.Background(), part.PartNumber)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.Equal(t, tt.wantRecommendation, got.Recommendation)
		})
	}
}

// expectMinStockInputs wires the three reads the min stock recommender makes
func expectMinStockInputs(m *mocks.MockPartRepository, usageByPart map[string]int, failing ...string) {
	fail := make(map[string]bool)
	for _, pn := range failing {
		fail[pn] = true
	}

	m.EXPECT().GetUsageTransactions(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, pn string, _ time.Time) ([]domain.UsageTransaction, error) {
			if fail[pn] {
				return nil, errors.New("read failed")
			}
			return usage(pn, usageByPart[pn]), nil
		}).AnyTimes()
	m.EXPECT().GetPreferredSupplierLeadTime(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	m.EXPECT().GetCallbackLinkedUsageCount(gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()
}

func TestReplenishmentService_UpdateAllMinStockLevels(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPartRepository(ctrl)

	manual := 6
	parts := []domain.Part{
		{PartNumber: "MANUAL", AutoReplenish: true, ManualMinStock: &manual},
		{PartNumber: "BUSY", AutoReplenish: true},
		{PartNumber: "STEADY", AutoReplenish: true},
		{PartNumber: "SPARSE", AutoReplenish: true},
		{PartNumber: "BROKEN", AutoReplenish: true},
		{PartNumber: "GONE", AutoReplenish: true},
	}
	repo.EXPECT().ListAutoReplenishParts(ctx).Return(parts, nil)
	expectMinStockInputs(repo, map[string]int{
		"BUSY":   45, // 45 * 10 * 1.2 / 90 = 6
		"STEADY": 5,  // medium confidence
		"SPARSE": 2,
		"GONE":   20,
	}, "BROKEN")

	repo.EXPECT().UpdateMinStock(gomock.Any(), "BUSY", 6).Return(nil)
	repo.EXPECT().UpdateMinStock(gomock.Any(), "STEADY", 1).Return(nil)
	repo.EXPECT().UpdateMinStock(gomock.Any(), "GONE", 3).Return(domain.ErrPartNotFound)

	m := metrics.New(&metrics.Config{ServiceName: "worker", Namespace: "test"})
	svc := newReplenishmentService(repo, services.WithMetrics(m))

	updated, err := svc.UpdateAllMinStockLevels(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PartsProcessedTotal.WithLabelValues("worker", services.BatchMinStock, "updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PartsProcessedTotal.WithLabelValues("worker", services.BatchMinStock, "manual_override")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PartsProcessedTotal.WithLabelValues("worker", services.BatchMinStock, "low_confidence")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PartsProcessedTotal.WithLabelValues("worker", services.BatchMinStock, "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchRunsTotal.WithLabelValues("worker", services.BatchMinStock, "success")))
}

func TestReplenishmentService_UpdateAllMinStockLevels_Idempotent(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPartRepository(ctrl)

	parts := []domain.Part{{PartNumber: "BUSY", AutoReplenish: true}}
	repo.EXPECT().ListAutoReplenishParts(ctx).Return(parts, nil).Times(2)
	expectMinStockInputs(repo, map[string]int{"BUSY": 45})
	repo.EXPECT().UpdateMinStock(gomock.Any(), "BUSY", 6).Return(nil).Times(2)

	svc := newReplenishmentService(repo)
	for i := 0; i < 2; i++ {
		updated, err := svc.UpdateAllMinStockLevels(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, updated)
	}
}

func TestReplenishmentService_UpdateAllMinStockLevels_Errors(t *testing.T) {
	t.Run("list_error_fails_the_batch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockPartRepository(ctrl)
		repo.EXPECT().ListAutoReplenishParts(gomock.Any()).Return(nil, errors.New("db down"))

		updated, err := newReplenishmentService(repo).UpdateAllMinStockLevels(context.Background())
		assert.Zero(t, updated)
		assert.ErrorContains(t, err, "failed to list auto-replenish parts")
	})

	t.Run("cancelled_context_stops_the_batch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockPartRepository(ctrl)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		repo.EXPECT().ListAutoReplenishParts(gomock.Any()).Return(helpers.CreateTestParts(3), nil)

		updated, err := newReplenishmentService(repo).UpdateAllMinStockLevels(ctx)
		assert.Zero(t, updated)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("rate_limited_batch_completes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockPartRepository(ctrl)

		parts := helpers.CreateTestParts(3)
		repo.EXPECT().ListAutoReplenishParts(gomock.Any()).Return(parts, nil)
		expectMinStockInputs(repo, map[string]int{})

		svc := newReplenishmentService(repo, services.WithRateLimit(1000, 1))
		updated, err := svc.UpdateAllMinStockLevels(context.Background())
		require.NoError(t, err)
		assert.Zero(t, updated)
	})
}

func TestReplenishmentService_UpdateAllStockingScores(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPartRepository(ctrl)

	cheap := domain.Part{PartNumber: "CHEAP", AvgCost: decimal.NewFromInt(12)}
	unused := domain.Part{PartNumber: "UNUSED", AvgCost: decimal.NewFromInt(300)}
	repo.EXPECT().ListParts(ctx, ports.PartFilter{}).Return([]domain.Part{cheap, unused, {PartNumber: "VANISHED"}}, nil)

	repo.EXPECT().GetPartRecord(gomock.Any(), "CHEAP").Return(&cheap, nil)
	repo.EXPECT().GetPartRecord(gomock.Any(), "UNUSED").Return(&unused, nil)
	repo.EXPECT().GetPartRecord(gomock.Any(), "VANISHED").Return(nil, nil)

	repo.EXPECT().GetUsageTransactions(gomock.Any(), "CHEAP", time.Time{}).Return(usage("CHEAP", 10), nil)
	repo.EXPECT().GetUsageTransactions(gomock.Any(), "UNUSED", time.Time{}).Return(nil, nil)
	repo.EXPECT().GetCallbackLinkedUsageCount(gomock.Any(), gomock.Any()).Return(0, nil).Times(2)

	repo.EXPECT().UpdateStockingScore(gomock.Any(), "CHEAP", 7.0, domain.StockingHighValue).Return(nil)
	repo.EXPECT().UpdateStockingScore(gomock.Any(), "UNUSED", 0.0, domain.StockingNoData).Return(nil)

	updated, err := newReplenishmentService(repo).UpdateAllStockingScores(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
}

func TestReplenishmentService_StockingSnapshot(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPartRepository(ctrl)

	idle := domain.Part{PartNumber: "IDLE", AvgCost: decimal.NewFromInt(80)}
	busy := domain.Part{PartNumber: "BUSY", AvgCost: decimal.NewFromInt(10)}
	repo.EXPECT().ListParts(ctx, ports.PartFilter{}).Return([]domain.Part{idle, busy}, nil)

	repo.EXPECT().GetPartRecord(gomock.Any(), "IDLE").Return(&idle, nil)
	repo.EXPECT().GetPartRecord(gomock.Any(), "BUSY").Return(&busy, nil)
	repo.EXPECT().GetUsageTransactions(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, pn string, _ time.Time) ([]domain.UsageTransaction, error) {
			if pn == "BUSY" {
				return usage(pn, 12), nil
			}
			return nil, nil
		}).Times(4)
	repo.EXPECT().GetPreferredSupplierLeadTime(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)
	repo.EXPECT().GetCallbackLinkedUsageCount(gomock.Any(), gomock.Any()).Return(0, nil).Times(4)

	rows, err := newReplenishmentService(repo).StockingSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "BUSY", rows[0].Part.PartNumber)
	assert.Equal(t, domain.ConfidenceHigh, rows[0].MinStock.Confidence)
	assert.Equal(t, "IDLE", rows[1].Part.PartNumber)
	assert.Equal(t, domain.StockingNoData, rows[1].Score.Recommendation)
}
