// internal/core/domain/tax.go
package domain

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// TaxBreakdown is the result of applying a discount and tax rate to a subtotal
type TaxBreakdown struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Total         decimal.Decimal `json:"total"`
}

// Jurisdiction identifies where a job was performed for tax purposes
type Jurisdiction struct {
	State  string `json:"state" yaml:"state"`
	County string `json:"county,omitempty" yaml:"county,omitempty"`
	City   string `json:"city,omitempty" yaml:"city,omitempty"`
}

// TaxResolver maps a jurisdiction to a tax rate in percent
type TaxResolver interface {
	Rate(j Jurisdiction) decimal.Decimal
}

// wyomingRate is the flat local rate applied to Wyoming jobs
var wyomingRate = decimal.NewFromInt(4)

// WyomingResolver applies the flat Wyoming rate and zero everywhere else
type WyomingResolver struct{}

// Rate implements TaxResolver
func (WyomingResolver) Rate(j Jurisdiction) decimal.Decimal {
	state := strings.TrimSpace(j.State)
	if strings.EqualFold(state, "WY") || strings.EqualFold(state, "Wyoming") {
		return wyomingRate
	}
	return decimal.Zero
}

// DefaultTaxResolver is used by GetTaxRate
var DefaultTaxResolver TaxResolver = WyomingResolver{}

// GetTaxRate returns the tax rate percent for a location using DefaultTaxResolver
func GetTaxRate(state, county, city string) decimal.Decimal {
	return DefaultTaxResolver.Rate(Jurisdiction{State: state, County: county, City: city})
}

// CalculateTax applies discountAmount and ratePercent to subtotal
func CalculateTax(subtotal, discountAmount, ratePercent decimal.Decimal) (TaxBreakdown, error) {
	if subtotal.IsNegative() {
		return TaxBreakdown{}, fmt.Errorf("subtotal: %w", ErrNegativeAmount)
	}
	if discountAmount.IsNegative() {
		return TaxBreakdown{}, fmt.Errorf("discount: %w", ErrNegativeAmount)
	}
	if ratePercent.IsNegative() {
		return TaxBreakdown{}, fmt.Errorf("tax rate: %w", ErrNegativeAmount)
	}
	if discountAmount.GreaterThan(subtotal) {
		return TaxBreakdown{}, fmt.Errorf("%w: %s > %s", ErrDiscountExceedsSubtotal, discountAmount, subtotal)
	}
	return ApplyDiscountAndTax(subtotal, discountAmount, ratePercent), nil
}

// CalculateWyomingTax is CalculateTax at the Wyoming rate
func CalculateWyomingTax(subtotal, discountAmount decimal.Decimal) (TaxBreakdown, error) {
	return CalculateTax(subtotal, discountAmount, wyomingRate)
}

// TaxRule is one row of a jurisdiction rate table. Empty County/City match any.
type TaxRule struct {
	Jurisdiction
	Rate decimal.Decimal
}

// TaxTable is the on-disk rate table format
type TaxTable struct {
	DefaultRate decimal.Decimal
	Rules       []TaxRule
}

// TableResolver resolves rates from a table, preferring the most specific rule
type TableResolver struct {
	table TaxTable
}

// NewTableResolver creates a resolver over table
func NewTableResolver(table TaxTable) *TableResolver {
	return &TableResolver{table: table}
}

// Rate implements TaxResolver. City rules beat county rules beat state rules.
func (r *TableResolver) Rate(j Jurisdiction) decimal.Decimal {
	best := -1
	rate := r.table.DefaultRate

	for _, rule := range r.table.Rules {
		if !strings.EqualFold(rule.State, j.State) {
			continue
		}
		if rule.County != "" && !strings.EqualFold(rule.County, j.County) {
			continue
		}
		if rule.City != "" && !strings.EqualFold(rule.City, j.City) {
			continue
		}

		specificity := 0
		if rule.County != "" {
			specificity++
		}
		if rule.City != "" {
			specificity += 2
		}
		if specificity > best {
			best = specificity
			rate = rule.Rate
		}
	}
	return rate
}

// LoadTaxTable reads a YAML rate table from path
func LoadTaxTable(path string) (TaxTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TaxTable{}, fmt.Errorf("failed to read tax table: %w", err)
	}
	return ParseTaxTable(data)
}

// ParseTaxTable decodes a YAML rate table
func ParseTaxTable(data []byte) (TaxTable, error) {
	var raw struct {
		DefaultRate string `yaml:"default_rate"`
		Rules       []struct {
			Jurisdiction `yaml:",inline"`
			Rate         string `yaml:"rate"`
		} `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return TaxTable{}, fmt.Errorf("failed to parse tax table: %w", err)
	}

	table := TaxTable{DefaultRate: decimal.Zero}
	if raw.DefaultRate != "" {
		d, err := decimal.NewFromString(raw.DefaultRate)
		if err != nil {
			return TaxTable{}, fmt.Errorf("invalid default_rate %q: %w", raw.DefaultRate, err)
		}
		table.DefaultRate = d
	}

	for i, r := range raw.Rules {
		if r.State == "" {
			return TaxTable{}, fmt.Errorf("rule %d: state is required", i)
		}
		d, err := decimal.NewFromString(r.Rate)
		if err != nil {
			return TaxTable{}, fmt.Errorf("rule %d: invalid rate %q: %w", i, r.Rate, err)
		}
		if d.IsNegative() {
			return TaxTable{}, fmt.Errorf("rule %d: rate: %w", i, ErrNegativeAmount)
		}
		table.Rules = append(table.Rules, TaxRule{Jurisdiction: r.Jurisdiction, Rate: d})
	}
	return table, nil
}
