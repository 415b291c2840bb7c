// internal/report/stocking.go
package report

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/fieldservice-be/internal/core/ports"
)

// ContentTypeXLSX is the MIME type of generated workbooks
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StockingSheet is the name of the worksheet holding one row per part
const StockingSheet = "Stocking"

var stockingHeaders = []string{
	"Part Number", "Description", "Avg Cost", "On Hand", "Current Min",
	"Manual Min", "Auto Replenish", "Recommended Min", "Confidence",
	"Usage / Month", "Lead Time", "Score", "Frequency", "Recency",
	"Callback Impact", "Cost Points", "Recommendation",
}

// BuildStockingWorkbook renders stocking rows as an xlsx workbook
func BuildStockingWorkbook(rows []ports.PartStockingRow, generatedAt time.Time) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet(StockingSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, header := range stockingHeaders {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	for _, r := range rows {
		row := sheet.AddRow()
		p := r.Part

		row.AddCell().SetString(p.PartNumber)
		row.AddCell().SetString(p.Description)
		cost, _ := p.AvgCost.Round(2).Float64()
		row.AddCell().SetFloat(cost)
		row.AddCell().SetInt(p.QuantityOnHand)
		row.AddCell().SetInt(p.MinStock)
		if p.ManualMinStock != nil {
			row.AddCell().SetInt(*p.ManualMinStock)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetBool(p.AutoReplenish)
		row.AddCell().SetInt(r.MinStock.Value)
		row.AddCell().SetString(string(r.MinStock.Confidence))
		row.AddCell().SetFloat(round2(r.MinStock.Reasoning.UsageRate))
		row.AddCell().SetInt(r.MinStock.Reasoning.LeadTime)
		row.AddCell().SetFloat(r.Score.Score)
		row.AddCell().SetFloat(r.Score.Breakdown.Frequency)
		row.AddCell().SetFloat(r.Score.Breakdown.Recency)
		row.AddCell().SetFloat(r.Score.Breakdown.FCCImpact)
		row.AddCell().SetFloat(r.Score.Breakdown.Cost)
		row.AddCell().SetString(r.Score.Recommendation)
	}

	// column indexes are 1-based
	last := len(stockingHeaders)
	sheet.SetColWidth(1, 1, 16)
	sheet.SetColWidth(2, 2, 32)
	sheet.SetColWidth(3, last-1, 14)
	sheet.SetColWidth(last, last, 30)

	info, err := file.AddSheet("Info")
	if err != nil {
		return nil, fmt.Errorf("failed to add info worksheet: %w", err)
	}
	meta := info.AddRow()
	meta.AddCell().SetString("Generated At")
	meta.AddCell().SetString(generatedAt.UTC().Format(time.RFC3339))
	count := info.AddRow()
	count.AddCell().SetString("Parts")
	count.AddCell().SetInt(len(rows))

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write workbook to buffer: %w", err)
	}

	return buffer.Bytes(), nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
