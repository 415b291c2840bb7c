// internal/report/catalog.go
package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
)

// ErrMissingColumn is returned when a catalog sheet lacks a required header
var ErrMissingColumn = errors.New("missing required column")

// CatalogEntry is one row of a parts catalog workbook
type CatalogEntry struct {
	Part     domain.Part
	Supplier *domain.PartSupplier
}

// RowError describes a catalog row that could not be parsed
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

// Catalog columns, matched case-insensitively against the header row
const (
	colPartNumber    = "part number"
	colDescription   = "description"
	colAvgCost       = "avg cost"
	colOnHand        = "on hand"
	colMinStock      = "min stock"
	colManualMin     = "manual min"
	colAutoReplenish = "auto replenish"
	colSupplier      = "supplier"
	colLeadTime      = "lead time days"
	colPreferred     = "preferred"
)

// ParseCatalog reads parts from the first sheet of an xlsx workbook.
// Rows without a part number are skipped; rows that fail to parse are
// returned as RowErrors and do not stop the import.
func ParseCatalog(data []byte) ([]CatalogEntry, []RowError, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	var (
		entries []CatalogEntry
		rowErrs []RowError
		columns map[string]int
	)

	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		if columns == nil {
			columns = headerIndex(r)
			if _, ok := columns[colPartNumber]; !ok {
				return fmt.Errorf("%w: %s", ErrMissingColumn, colPartNumber)
			}
			return nil
		}

		entry, ok, err := parseCatalogRow(r, columns)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: r.GetCoordinate() + 1, Err: err.Error()})
			return nil
		}
		if ok {
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to process catalog rows: %w", err)
	}

	return entries, rowErrs, nil
}

func headerIndex(r *xlsx.Row) map[string]int {
	columns := make(map[string]int)
	_ = r.ForEachCell(func(c *xlsx.Cell) error {
		name := strings.ToLower(strings.TrimSpace(c.String()))
		if name != "" {
			col, _ := c.GetCoordinates()
			columns[name] = col
		}
		return nil
	})
	return columns
}

func parseCatalogRow(r *xlsx.Row, columns map[string]int) (CatalogEntry, bool, error) {
	get := func(name string) string {
		i, ok := columns[name]
		if !ok {
			return ""
		}
		c := r.GetCell(i)
		if c == nil {
			return ""
		}
		return strings.TrimSpace(c.String())
	}

	partNumber := get(colPartNumber)
	if partNumber == "" {
		return CatalogEntry{}, false, nil
	}

	part := domain.Part{
		PartNumber:  partNumber,
		Description: get(colDescription),
		MinStock:    1,
	}

	if s := get(colAvgCost); s != "" {
		cost, err := decimal.NewFromString(strings.TrimPrefix(s, "$"))
		if err != nil {
			return CatalogEntry{}, false, fmt.Errorf("invalid avg cost %q", s)
		}
		part.AvgCost = cost
	}

	var err error
	if part.QuantityOnHand, err = optionalInt(get(colOnHand), 0); err != nil {
		return CatalogEntry{}, false, fmt.Errorf("invalid on hand: %w", err)
	}
	if part.MinStock, err = optionalInt(get(colMinStock), 1); err != nil {
		return CatalogEntry{}, false, fmt.Errorf("invalid min stock: %w", err)
	}
	if s := get(colManualMin); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return CatalogEntry{}, false, fmt.Errorf("invalid manual min %q", s)
		}
		part.ManualMinStock = &v
	}
	part.AutoReplenish = parseYes(get(colAutoReplenish), true)

	if err := part.Validate(); err != nil {
		return CatalogEntry{}, false, err
	}

	entry := CatalogEntry{Part: part}
	if name := get(colSupplier); name != "" {
		lead, err := optionalInt(get(colLeadTime), 0)
		if err != nil {
			return CatalogEntry{}, false, fmt.Errorf("invalid lead time: %w", err)
		}
		entry.Supplier = &domain.PartSupplier{
			PartNumber:   partNumber,
			SupplierName: name,
			LeadTimeDays: lead,
			IsPreferred:  parseYes(get(colPreferred), true),
		}
	}

	return entry, true, nil
}

func optionalInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	// numeric cells may come back as "3.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return int(f), nil
}

func parseYes(s string, def bool) bool {
	switch strings.ToLower(s) {
	case "":
		return def
	case "y", "yes", "true", "1", "x":
		return true
	default:
		return false
	}
}
