package report_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/core/ports"
	"github.com/ammerola/fieldservice-be/internal/report"
)

func stockingRows() []ports.PartStockingRow {
	manual := 4
	return []ports.PartStockingRow{
		{
			Part: domain.Part{
				PartNumber:     "WPW10348269",
				Description:    "Dryer thermal fuse",
				AvgCost:        decimal.RequireFromString("18.50"),
				QuantityOnHand: 3,
				MinStock:       2,
				AutoReplenish:  true,
			},
			MinStock: domain.MinStockRecommendation{
				Value:      3,
				Confidence: domain.ConfidenceHigh,
				Reasoning:  domain.MinStockReasoning{UsageRate: 4.333, LeadTime: 3},
			},
			Score: domain.StockingScoreResult{
				Score:          9.5,
				Breakdown:      domain.ScoreBreakdown{Frequency: 4, Recency: 2, FCCImpact: 2.5, Cost: 1},
				Recommendation: domain.StockingCritical,
			},
		},
		{
			Part: domain.Part{
				PartNumber:     "W10295370A",
				Description:    "Refrigerator water filter",
				AvgCost:        decimal.RequireFromString("42"),
				ManualMinStock: &manual,
			},
			MinStock: domain.FallbackMinStock(),
			Score:    domain.NoDataStockingScore(),
		},
	}
}

func TestBuildStockingWorkbook(t *testing.T) {
	generatedAt := time.Date(2026, 10, 12, 6, 0, 0, 0, time.UTC)

	data, err := report.BuildStockingWorkbook(stockingRows(), generatedAt)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	file, err := xlsx.OpenBinary(data)
	require.NoError(t, err)

	sheet, ok := file.Sheet[report.StockingSheet]
	require.True(t, ok)
	assert.Equal(t, 3, sheet.MaxRow)

	header, err := sheet.Row(0)
	require.NoError(t, err)
	assert.Equal(t, "Part Number", header.GetCell(0).String())
	assert.Equal(t, "Recommendation", header.GetCell(16).String())

	first, err := sheet.Row(1)
	require.NoError(t, err)
	assert.Equal(t, "WPW10348269", first.GetCell(0).String())
	cost, err := first.GetCell(2).Float()
	require.NoError(t, err)
	assert.InDelta(t, 18.5, cost, 1e-9)
	recommended, err := first.GetCell(7).Int()
	require.NoError(t, err)
	assert.Equal(t, 3, recommended)
	assert.Equal(t, "High", first.GetCell(8).String())
	usage, err := first.GetCell(9).Float()
	require.NoError(t, err)
	assert.InDelta(t, 4.33, usage, 1e-9)
	assert.Equal(t, domain.StockingCritical, first.GetCell(16).String())

	second, err := sheet.Row(2)
	require.NoError(t, err)
	manual, err := second.GetCell(5).Int()
	require.NoError(t, err)
	assert.Equal(t, 4, manual)
	assert.Equal(t, domain.StockingNoData, second.GetCell(16).String())

	info, ok := file.Sheet["Info"]
	require.True(t, ok)
	meta, err := info.Row(0)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-12T06:00:00Z", meta.GetCell(1).String())
}

func TestBuildStockingWorkbook_Empty(t *testing.T) {
	data, err := report.BuildStockingWorkbook(nil, time.Now())
	require.NoError(t, err)

	file, err := xlsx.OpenBinary(data)
	require.NoError(t, err)
	assert.Equal(t, 1, file.Sheet[report.StockingSheet].MaxRow)
}
