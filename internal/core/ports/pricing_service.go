// internal/core/ports/pricing_service.go
package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
)

// PricingService defines the application service port for invoice pricing
type PricingService interface {
	PriceInvoice(ctx context.Context, req InvoiceRequest) (*InvoicePricing, error)
	ApplyCallback(ctx context.Context, req CallbackRequest) (*domain.CallbackAdjustment, error)
	TaxRate(ctx context.Context, j domain.Jurisdiction) decimal.Decimal
	ClassifyAppliance(ctx context.Context, brand string) domain.TierClassification
}

// InvoiceRequest is everything needed to price a quote or invoice
type InvoiceRequest struct {
	Items          []domain.LineItem   `json:"items"`
	Discount       domain.Discount     `json:"discount"`
	Jurisdiction   domain.Jurisdiction `json:"jurisdiction"`
	ApplianceBrand string              `json:"appliance_brand,omitempty"`
	Callback       *CallbackRequest    `json:"callback,omitempty"`
	TaxRate        *decimal.Decimal    `json:"tax_rate,omitempty"`
}

// CallbackRequest describes a callback job being priced
type CallbackRequest struct {
	Items           []domain.LineItem     `json:"items,omitempty"`
	Reason          domain.CallbackReason `json:"reason"`
	PreviousPayment decimal.Decimal       `json:"previous_payment"`
}

// InvoicePricing is the priced invoice with the policy decisions that shaped it
type InvoicePricing struct {
	Items        []domain.LineItem          `json:"items"`
	Calculation  domain.PricingCalculation  `json:"calculation"`
	TaxRate      decimal.Decimal            `json:"tax_rate"`
	Tier         *domain.TierClassification `json:"tier,omitempty"`
	Callback     *domain.CallbackAdjustment `json:"callback,omitempty"`
	CreditAmount decimal.Decimal            `json:"credit_amount"`
}
