package benchmarks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/core/ports"
	"github.com/ammerola/fieldservice-be/internal/core/services"
	"github.com/ammerola/fieldservice-be/test/helpers"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func BenchmarkPricing(b *testing.B) {
	items := helpers.CreateTestLineItems()
	discount := domain.PercentDiscount(decimal.NewFromInt(10))
	rate := decimal.NewFromInt(4)

	b.Run("CalculatePricing", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_, _ = domain.CalculatePricing(items, discount, rate)
		}
	})

	b.Run("PriceInvoice", func(b *testing.B) {
		svc := services.NewPricingService(nil, nil, discardLogger())
		req := ports.InvoiceRequest{
			Items:          items,
			Discount:       discount,
			Jurisdiction:   domain.Jurisdiction{State: "WY"},
			ApplianceBrand: "Sub-Zero",
		}
		ctx := context.Background()

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = svc.PriceInvoice(ctx, req)
		}
	})

	b.Run("CallbackThenPricing", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			adj, err := domain.ApplyCallbackPricing(items, domain.CallbackNewIssue, decimal.NewFromInt(200))
			if err != nil {
				b.Fatal(err)
			}
			_, _ = domain.CalculatePricing(adj.AdjustedItems, domain.NoDiscount(), rate)
		}
	})
}

func BenchmarkRecommenders(b *testing.B) {
	lead := 3
	first := time.Now().AddDate(-1, 0, 0)
	last := time.Now().AddDate(0, 0, -2)

	b.Run("RecommendMinStock", func(b *testing.B) {
		policy := domain.DefaultReplenishmentPolicy()
		in := domain.MinStockInput{UsageCount: 14, LeadTimeDays: &lead, CallbackCount: 1}
		for i := 0; i < b.N; i++ {
			_ = domain.RecommendMinStock(in, policy)
		}
	})

	b.Run("ScoreStocking", func(b *testing.B) {
		policy := domain.DefaultScoringPolicy()
		in := domain.StockingInput{
			TimesUsed:   40,
			FirstUsedAt: &first,
			LastUsedAt:  &last,
			AvgCost:     decimal.NewFromInt(55),
		}
		now := time.Now()
		for i := 0; i < b.N; i++ {
			_ = domain.ScoreStocking(in, policy, now)
		}
	})
}

func BenchmarkBatchUpdates(b *testing.B) {
	for _, concurrency := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("MinStock/concurrency=%d", concurrency), func(b *testing.B) {
			repo := newMemoryRepository(500, 24)
			svc := services.NewReplenishmentService(repo, domain.DefaultReplenishmentPolicy(),
				domain.DefaultScoringPolicy(), discardLogger(), services.WithConcurrency(concurrency))
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := svc.UpdateAllMinStockLevels(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(fmt.Sprintf("StockingScore/concurrency=%d", concurrency), func(b *testing.B) {
			repo := newMemoryRepository(500, 24)
			svc := services.NewReplenishmentService(repo, domain.DefaultReplenishmentPolicy(),
				domain.DefaultScoringPolicy(), discardLogger(), services.WithConcurrency(concurrency))
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := svc.UpdateAllStockingScores(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
