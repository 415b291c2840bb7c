// internal/core/ports/replenishment_service.go
package ports

import (
	"context"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
)

// ReplenishmentService defines the application service port for stocking analytics.
// Single-part calculations never fail; they degrade to documented defaults.
type ReplenishmentService interface {
	CalculateRecommendedMinStock(ctx context.Context, partNumber string) domain.MinStockRecommendation
	CalculateStockingScore(ctx context.Context, partNumber string) domain.StockingScoreResult
	UpdateAllMinStockLevels(ctx context.Context) (int, error)
	UpdateAllStockingScores(ctx context.Context) (int, error)
	StockingSnapshot(ctx context.Context) ([]PartStockingRow, error)
}

// PartStockingRow is one part's current stocking analytics
type PartStockingRow struct {
	Part     domain.Part                   `json:"part"`
	MinStock domain.MinStockRecommendation `json:"min_stock"`
	Score    domain.StockingScoreResult    `json:"score"`
}
