// internal/core/ports/part_repository.go
package ports

import (
	"context"
	"time"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
)

// PartRepository defines the persistence port for parts and their usage history.
// This interface is implemented by the database adapter.
type PartRepository interface {
	GetUsageTransactions(ctx context.Context, partNumber string, since time.Time) ([]domain.UsageTransaction, error)
	// GetPreferredSupplierLeadTime returns nil when no preferred supplier is on file
	GetPreferredSupplierLeadTime(ctx context.Context, partNumber string) (*int, error)
	GetCallbackLinkedUsageCount(ctx context.Context, partNumber string) (int, error)
	// GetPartRecord returns nil, nil when the part does not exist
	GetPartRecord(ctx context.Context, partNumber string) (*domain.Part, error)
	ListAutoReplenishParts(ctx context.Context) ([]domain.Part, error)
	ListParts(ctx context.Context, filter PartFilter) ([]domain.Part, error)
	UpdateMinStock(ctx context.Context, partNumber string, value int) error
	UpdateStockingScore(ctx context.Context, partNumber string, score float64, recommendation string) error

	// Write side used by seeding and job completion
	UpsertPart(ctx context.Context, part *domain.Part) error
	RecordUsage(ctx context.Context, txs []domain.UsageTransaction) error
	UpsertSupplier(ctx context.Context, supplier domain.PartSupplier) error
	SaveJob(ctx context.Context, job domain.Job) error
	// CompleteJob saves the job and replaces any usage already recorded for it
	CompleteJob(ctx context.Context, job domain.Job, txs []domain.UsageTransaction) error
}

// PartFilter narrows ListParts. Zero values mean no filter.
type PartFilter struct {
	Search        string
	AutoReplenish *bool
	MinScore      *float64
	SortBy        string
	SortOrder     string
	Limit         int
	Offset        int
}
