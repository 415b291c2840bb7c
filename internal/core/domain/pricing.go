// internal/core/domain/pricing.go
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DiscountType represents how a discount value is interpreted
type DiscountType string

// Discount type constants
const (
	DiscountNone    DiscountType = ""
	DiscountPercent DiscountType = "percent"
	DiscountAmount  DiscountType = "amount"
)

var hundred = decimal.NewFromInt(100)

// Discount is a discount instruction applied to an invoice subtotal
type Discount struct {
	Type  DiscountType    `json:"type,omitempty"`
	Value decimal.Decimal `json:"value"`
}

// NoDiscount returns an empty discount
func NoDiscount() Discount {
	return Discount{}
}

// PercentDiscount returns a percentage discount
func PercentDiscount(percent decimal.Decimal) Discount {
	return Discount{Type: DiscountPercent, Value: percent}
}

// AmountDiscount returns a fixed amount discount
func AmountDiscount(amount decimal.Decimal) Discount {
	return Discount{Type: DiscountAmount, Value: amount}
}

// IsZero reports whether the discount has no effect
func (d Discount) IsZero() bool {
	return d.Type == DiscountNone || d.Value.IsZero()
}

// amountFor returns the discount for subtotal, clamped to [0, subtotal]
func (d Discount) amountFor(subtotal decimal.Decimal) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch d.Type {
	case DiscountNone:
		return decimal.Zero, nil
	case DiscountPercent:
		amount = subtotal.Mul(d.Value).Div(hundred)
	case DiscountAmount:
		amount = d.Value
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownDiscountType, d.Type)
	}

	if amount.IsNegative() {
		return decimal.Zero, nil
	}
	if amount.GreaterThan(subtotal) {
		return subtotal, nil
	}
	return amount, nil
}

// PricingCalculation is the auditable breakdown of an invoice total
type PricingCalculation struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxableAmount   decimal.Decimal `json:"taxable_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
	LaborTotal      decimal.Decimal `json:"labor_total"`
	PartsTotal      decimal.Decimal `json:"parts_total"`
	ServiceFeeTotal decimal.Decimal `json:"service_fee_total"`
}

// CalculatePricing aggregates line items into a subtotal, discount, tax and total.
// This is the only place invoice totals are computed.
func CalculatePricing(items []LineItem, discount Discount, taxRatePercent decimal.Decimal) (PricingCalculation, error) {
	if err := ValidateLineItems(items); err != nil {
		return PricingCalculation{}, err
	}
	if taxRatePercent.IsNegative() {
		return PricingCalculation{}, fmt.Errorf("tax rate: %w", ErrNegativeAmount)
	}

	var calc PricingCalculation
	for _, item := range items {
		switch item.Type {
		case LineItemServiceFee:
			calc.ServiceFeeTotal = calc.ServiceFeeTotal.Add(item.Subtotal)
		case LineItemLabor:
			calc.LaborTotal = calc.LaborTotal.Add(item.Subtotal)
		case LineItemPart:
			calc.PartsTotal = calc.PartsTotal.Add(item.Subtotal)
		}
	}
	subtotal := calc.ServiceFeeTotal.Add(calc.LaborTotal).Add(calc.PartsTotal)

	discountAmount, err := discount.amountFor(subtotal)
	if err != nil {
		return PricingCalculation{}, err
	}

	tax := ApplyDiscountAndTax(subtotal, discountAmount, taxRatePercent)
	calc.Subtotal = tax.Subtotal
	calc.DiscountAmount = discountAmount
	calc.TaxableAmount = tax.TaxableAmount
	calc.TaxAmount = tax.TaxAmount
	calc.Total = tax.Total

	return calc, nil
}

// ApplyDiscountAndTax subtracts discountAmount from subtotal and applies the tax
// rate to the remainder. Callers are responsible for bounding the discount.
func ApplyDiscountAndTax(subtotal, discountAmount, taxRatePercent decimal.Decimal) TaxBreakdown {
	taxable := subtotal.Sub(discountAmount)
	taxAmount := taxable.Mul(taxRatePercent).Div(hundred)

	return TaxBreakdown{
		Subtotal:      subtotal,
		TaxableAmount: taxable,
		TaxRate:       taxRatePercent,
		TaxAmount:     taxAmount,
		Total:         taxable.Add(taxAmount),
	}
}
