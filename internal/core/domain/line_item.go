// internal/core/domain/line_item.go
package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItemType represents the billing category of a line item
type LineItemType string

// Line item type constants
const (
	LineItemServiceFee LineItemType = "service_fee"
	LineItemLabor      LineItemType = "labor"
	LineItemPart       LineItemType = "part"
)

// Errors returned by the pricing functions. Bad input here means an upstream bug,
// so nothing is masked.
var (
	ErrInvalidLineItem         = errors.New("invalid line item")
	ErrUnknownLineItemType     = errors.New("unknown line item type")
	ErrNegativeAmount          = errors.New("amount cannot be negative")
	ErrUnknownDiscountType     = errors.New("unknown discount type")
	ErrUnknownTier             = errors.New("unknown appliance tier")
	ErrDiscountExceedsSubtotal = errors.New("discount exceeds subtotal")
)

// IsValid reports whether t is one of the known line item types
func (t LineItemType) IsValid() bool {
	switch t {
	case LineItemServiceFee, LineItemLabor, LineItemPart:
		return true
	}
	return false
}

// LineItem is one billable entry on a quote or invoice.
// Subtotal is owned by the caller and is expected to equal Quantity*UnitPrice.
type LineItem struct {
	ID            string           `json:"id"`
	Type          LineItemType     `json:"type"`
	Description   string           `json:"description"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	PartNumber    string           `json:"part_number,omitempty"`
	PartCost      *decimal.Decimal `json:"part_cost,omitempty"`
	MarkupPercent *decimal.Decimal `json:"markup_percent,omitempty"`
	LaborHours    *decimal.Decimal `json:"labor_hours,omitempty"`
	LaborRate     *decimal.Decimal `json:"labor_rate,omitempty"`
}

// Validate performs domain validation on the line item
func (li LineItem) Validate() error {
	if !li.Type.IsValid() {
		return fmt.Errorf("%w: %w %q (item %s)", ErrInvalidLineItem, ErrUnknownLineItemType, li.Type, li.ID)
	}
	if li.Quantity.IsNegative() {
		return fmt.Errorf("%w: quantity: %w (item %s)", ErrInvalidLineItem, ErrNegativeAmount, li.ID)
	}
	if li.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit_price: %w (item %s)", ErrInvalidLineItem, ErrNegativeAmount, li.ID)
	}
	if li.Subtotal.IsNegative() {
		return fmt.Errorf("%w: subtotal: %w (item %s)", ErrInvalidLineItem, ErrNegativeAmount, li.ID)
	}
	if li.LaborHours != nil && li.LaborHours.IsNegative() {
		return fmt.Errorf("%w: labor_hours: %w (item %s)", ErrInvalidLineItem, ErrNegativeAmount, li.ID)
	}
	if li.LaborRate != nil && li.LaborRate.IsNegative() {
		return fmt.Errorf("%w: labor_rate: %w (item %s)", ErrInvalidLineItem, ErrNegativeAmount, li.ID)
	}
	return nil
}

// ValidateLineItems validates every item and returns the first failure
func ValidateLineItems(items []LineItem) error {
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// cloneLineItems returns a copy of items that shares no pointers with the input
func cloneLineItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = item
		out[i].PartCost = cloneDecimal(item.PartCost)
		out[i].MarkupPercent = cloneDecimal(item.MarkupPercent)
		out[i].LaborHours = cloneDecimal(item.LaborHours)
		out[i].LaborRate = cloneDecimal(item.LaborRate)
	}
	return out
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
