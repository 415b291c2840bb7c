// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/core/ports"
)

// memoryRepository is an in-memory part repository so batch benchmarks
// measure the recommenders rather than postgres
type memoryRepository struct {
	mu    sync.Mutex
	parts map[string]*domain.Part
	usage map[string][]domain.UsageTransaction
}

var _ ports.PartRepository = (*memoryRepository)(nil)

// newMemoryRepository seeds count parts, each used usesPerPart times over the last year
func newMemoryRepository(count, usesPerPart int) *memoryRepository {
	r := &memoryRepository{
		parts: make(map[string]*domain.Part, count),
		usage: make(map[string][]domain.UsageTransaction, count),
	}

	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		pn := fmt.Sprintf("BENCH-%05d", i)
		r.parts[pn] = &domain.Part{
			PartNumber:    pn,
			Description:   "Benchmark part",
			AvgCost:       decimal.NewFromInt(int64(5 + i%200)),
			MinStock:      1,
			AutoReplenish: true,
		}

		txs := make([]domain.UsageTransaction, usesPerPart)
		for j := range txs {
			txs[j] = domain.UsageTransaction{
				ID:         uuid.New(),
				PartNumber: pn,
				Quantity:   1,
				UnitCost:   r.parts[pn].AvgCost,
				UsedAt:     now.Add(-time.Duration(usesPerPart-j) * 365 * 24 * time.Hour / time.Duration(usesPerPart)),
			}
		}
		r.usage[pn] = txs
	}
	return r
}

func (r *memoryRepository) GetUsageTransactions(_ context.Context, partNumber string, since time.Time) ([]domain.UsageTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.UsageTransaction
	for _, tx := range r.usage[partNumber] {
		if !tx.UsedAt.Before(since) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memoryRepository) GetPreferredSupplierLeadTime(context.Context, string) (*int, error) {
	lead := 3
	return &lead, nil
}

func (r *memoryRepository) GetCallbackLinkedUsageCount(context.Context, string) (int, error) {
	return 0, nil
}

func (r *memoryRepository) GetPartRecord(_ context.Context, partNumber string) (*domain.Part, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.parts[partNumber]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepository) ListAutoReplenishParts(ctx context.Context) ([]domain.Part, error) {
	return r.ListParts(ctx, ports.PartFilter{})
}

func (r *memoryRepository) ListParts(context.Context, ports.PartFilter) ([]domain.Part, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Part, 0, len(r.parts))
	for _, p := range r.parts {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memoryRepository) UpdateMinStock(_ context.Context, partNumber string, value int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.parts[partNumber]
	if !ok {
		return domain.ErrPartNotFound
	}
	p.MinStock = value
	return nil
}

func (r *memoryRepository) UpdateStockingScore(_ context.Context, partNumber string, score float64, recommendation string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.parts[partNumber]
	if !ok {
		return domain.ErrPartNotFound
	}
	p.StockingScore = &score
	p.StockingRecommendation = recommendation
	return nil
}

func (r *memoryRepository) UpsertPart(context.Context, *domain.Part) error { return nil }

func (r *memoryRepository) RecordUsage(context.Context, []domain.UsageTransaction) error { return nil }

func (r *memoryRepository) UpsertSupplier(context.Context, domain.PartSupplier) error { return nil }

func (r *memoryRepository) SaveJob(context.Context, domain.Job) error { return nil }

func (r *memoryRepository) CompleteJob(context.Context, domain.Job, []domain.UsageTransaction) error {
	return nil
}
