// internal/core/domain/callback.go
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CallbackReason classifies why a follow-up (callback) job was needed
type CallbackReason string

// Callback reason constants
const (
	CallbackSameIssueOurFault CallbackReason = "Same Issue - Our Fault"
	CallbackNewIssue          CallbackReason = "New Issue"
	CallbackCustomerError     CallbackReason = "Customer Error"
	CallbackWearAndTear       CallbackReason = "Wear & Tear"
)

// newIssueDiscountPercent is the courtesy discount for a new issue found on a callback
var newIssueDiscountPercent = decimal.NewFromInt(10)

// CallbackAdjustment is the outcome of applying callback policy to a line item set
type CallbackAdjustment struct {
	AdjustedItems   []LineItem      `json:"adjusted_items"`
	CreditAmount    decimal.Decimal `json:"credit_amount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	WaiveServiceFee bool            `json:"waive_service_fee"`
}

// Discount returns the discount instruction the invoice must be priced with.
// The policy never applies DiscountPercent to AdjustedItems itself.
func (a CallbackAdjustment) Discount() Discount {
	if a.DiscountPercent.IsZero() {
		return NoDiscount()
	}
	return PercentDiscount(a.DiscountPercent)
}

// ApplyCallbackPricing rewrites items according to the warranty policy for reason.
// The input slice is never modified.
func ApplyCallbackPricing(items []LineItem, reason CallbackReason, previousPaymentAmount decimal.Decimal) (CallbackAdjustment, error) {
	if err := ValidateLineItems(items); err != nil {
		return CallbackAdjustment{}, err
	}
	if previousPaymentAmount.IsNegative() {
		return CallbackAdjustment{}, fmt.Errorf("previous payment: %w", ErrNegativeAmount)
	}

	switch reason {
	case CallbackSameIssueOurFault:
		adjusted := cloneLineItems(items)
		for i := range adjusted {
			adjusted[i].UnitPrice = decimal.Zero
			adjusted[i].Subtotal = decimal.Zero
		}
		return CallbackAdjustment{
			AdjustedItems:   adjusted,
			CreditAmount:    previousPaymentAmount,
			DiscountPercent: hundred,
			WaiveServiceFee: true,
		}, nil

	case CallbackNewIssue:
		adjusted := make([]LineItem, 0, len(items))
		for _, item := range cloneLineItems(items) {
			if item.Type == LineItemServiceFee {
				continue
			}
			adjusted = append(adjusted, item)
		}
		return CallbackAdjustment{
			AdjustedItems:   adjusted,
			CreditAmount:    decimal.Zero,
			DiscountPercent: newIssueDiscountPercent,
			WaiveServiceFee: true,
		}, nil

	default:
		return CallbackAdjustment{
			AdjustedItems:   cloneLineItems(items),
			CreditAmount:    decimal.Zero,
			DiscountPercent: decimal.Zero,
			WaiveServiceFee: false,
		}, nil
	}
}
