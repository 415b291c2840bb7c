package domain_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
)

func TestGetTaxRate(t *testing.T) {
	tests := []struct {
		state string
		want  string
	}{
		{"WY", "4"},
		{"wy", "4"},
		{"Wyoming", "4"},
		{" WY ", "4"},
		{"CO", "0"},
		{"", "0"},
	}

	for _, tt := range tests {
		t.Run("state_"+tt.state, func(t *testing.T) {
			assertDecimal(t, tt.want, domain.GetTaxRate(tt.state, "", ""))
		})
	}
}

func TestCalculateWyomingTax(t *testing.T) {
	got, err := domain.CalculateWyomingTax(dec("100"), decimal.Zero)
	require.NoError(t, err)

	assertDecimal(t, "100", got.Subtotal)
	assertDecimal(t, "100", got.TaxableAmount)
	assertDecimal(t, "4", got.TaxRate)
	assertDecimal(t, "4", got.TaxAmount)
	assertDecimal(t, "104", got.Total)
}

func TestCalculateTax_MatchesPricing(t *testing.T) {
	calc, err := domain.CalculatePricing(standardInvoice(), domain.AmountDiscount(dec("27.10")), dec("4"))
	require.NoError(t, err)

	tax, err := domain.CalculateTax(calc.Subtotal, calc.DiscountAmount, dec("4"))
	require.NoError(t, err)

	assert.True(t, calc.TaxAmount.Equal(tax.TaxAmount))
	assert.True(t, calc.Total.Equal(tax.Total))
	assertDecimal(t, "312", tax.Total)
}

func TestCalculateTax_Errors(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		discount string
		rate     string
		wantErr  error
	}{
		{"negative_subtotal", "-1", "0", "4", domain.ErrNegativeAmount},
		{"negative_discount", "10", "-1", "4", domain.ErrNegativeAmount},
		{"negative_rate", "10", "0", "-4", domain.ErrNegativeAmount},
		{"discount_exceeds_subtotal", "10", "11", "4", domain.ErrDiscountExceedsSubtotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.CalculateTax(dec(tt.subtotal), dec(tt.discount), dec(tt.rate))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

const sampleTaxTable = `
default_rate: "0"
rules:
  - state: WY
    rate: "4"
  - state: WY
    county: Laramie
    rate: "6"
  - state: WY
    county: Laramie
    city: Cheyenne
    rate: "6.5"
  - state: CO
    rate: "2.9"
`

func TestTableResolver(t *testing.T) {
	table, err := domain.ParseTaxTable([]byte(sampleTaxTable))
	require.NoError(t, err)
	resolver := domain.NewTableResolver(table)

	tests := []struct {
		name string
		j    domain.Jurisdiction
		want string
	}{
		{"state_only", domain.Jurisdiction{State: "WY"}, "4"},
		{"county_match", domain.Jurisdiction{State: "WY", County: "laramie"}, "6"},
		{"city_match", domain.Jurisdiction{State: "WY", County: "Laramie", City: "Cheyenne"}, "6.5"},
		{"unknown_city_falls_back_to_county", domain.Jurisdiction{State: "WY", County: "Laramie", City: "Burns"}, "6"},
		{"other_state", domain.Jurisdiction{State: "CO", County: "Denver"}, "2.9"},
		{"no_rule", domain.Jurisdiction{State: "MT"}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.want, resolver.Rate(tt.j))
		})
	}
}

func TestLoadTaxTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tax.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTaxTable), 0o600))

	table, err := domain.LoadTaxTable(path)
	require.NoError(t, err)
	assert.Len(t, table.Rules, 4)

	_, err = domain.LoadTaxTable(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read tax table")
}

func TestParseTaxTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"bad_yaml", "rules: [", "failed to parse tax table"},
		{"missing_state", "rules:\n  - rate: \"1\"\n", "state is required"},
		{"bad_rate", "rules:\n  - state: WY\n    rate: abc\n", "invalid rate"},
		{"negative_rate", "rules:\n  - state: WY\n    rate: \"-1\"\n", "amount cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParseTaxTable([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
