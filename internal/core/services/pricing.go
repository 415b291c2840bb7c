// internal/core/services/pricing.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/core/ports"
	"github.com/ammerola/fieldservice-be/internal/pkg/metrics"
)

// PricingService runs the quote/invoice pricing workflow
type PricingService struct {
	resolver     domain.TaxResolver
	defaultState string
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// PricingOption configures a PricingService
type PricingOption func(*PricingService)

// WithDefaultState sets the state used for jurisdictions that name none
func WithDefaultState(state string) PricingOption {
	return func(s *PricingService) {
		s.defaultState = strings.TrimSpace(state)
	}
}

// Statically assert that *PricingService implements the PricingService interface.
var _ ports.PricingService = (*PricingService)(nil)

// NewPricingService creates a new pricing service. A nil resolver uses the
// package default.
func NewPricingService(resolver domain.TaxResolver, m *metrics.Metrics, logger *slog.Logger, opts ...PricingOption) *PricingService {
	if resolver == nil {
		resolver = domain.DefaultTaxResolver
	}
	s := &PricingService{
		resolver: resolver,
		metrics:  m,
		logger:   logger.With(slog.String("service", "pricing")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PriceInvoice prices a set of line items. The brand tier is applied to labor
// first, then callback policy, and the callback's discount instruction (when it
// has one) replaces the requested discount before totals are calculated.
func (s *PricingService) PriceInvoice(ctx context.Context, req ports.InvoiceRequest) (*ports.InvoicePricing, error) {
	result, err := s.priceInvoice(ctx, req)
	s.metrics.RecordInvoicePriced(req.Callback != nil, err)
	return result, err
}

func (s *PricingService) priceInvoice(ctx context.Context, req ports.InvoiceRequest) (*ports.InvoicePricing, error) {
	if err := domain.ValidateLineItems(req.Items); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	out := &ports.InvoicePricing{
		Items:        req.Items,
		CreditAmount: decimal.Zero,
	}
	discount := req.Discount

	if req.ApplianceBrand != "" {
		class := domain.GetApplianceTier(req.ApplianceBrand)
		items, err := domain.ApplyTierToLabor(out.Items, class.Tier)
		if err != nil {
			return nil, fmt.Errorf("failed to apply appliance tier: %w", err)
		}
		out.Items = items
		out.Tier = &class
	}

	if req.Callback != nil {
		adj, err := domain.ApplyCallbackPricing(out.Items, req.Callback.Reason, req.Callback.PreviousPayment)
		if err != nil {
			return nil, fmt.Errorf("failed to apply callback policy: %w", err)
		}
		out.Items = adj.AdjustedItems
		out.Callback = &adj
		out.CreditAmount = adj.CreditAmount
		if d := adj.Discount(); !d.IsZero() {
			discount = d
		}
	}

	out.TaxRate = s.TaxRate(ctx, req.Jurisdiction)
	if req.TaxRate != nil {
		out.TaxRate = *req.TaxRate
	}

	calc, err := domain.CalculatePricing(out.Items, discount, out.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate pricing: %w", err)
	}
	out.Calculation = calc

	attrs := []any{
		slog.Int("items", len(out.Items)),
		slog.String("subtotal", calc.Subtotal.String()),
		slog.String("discount", calc.DiscountAmount.String()),
		slog.String("tax_rate", out.TaxRate.String()),
		slog.String("total", calc.Total.String()),
	}
	if out.Tier != nil {
		attrs = append(attrs, slog.String("tier", string(out.Tier.Tier)))
	}
	if req.Callback != nil {
		attrs = append(attrs, slog.String("callback_reason", string(req.Callback.Reason)))
	}
	s.logger.InfoContext(ctx, "invoice priced", attrs...)

	return out, nil
}

// ApplyCallback evaluates callback policy without pricing the result
func (s *PricingService) ApplyCallback(ctx context.Context, req ports.CallbackRequest) (*domain.CallbackAdjustment, error) {
	adj, err := domain.ApplyCallbackPricing(req.Items, req.Reason, req.PreviousPayment)
	if err != nil {
		return nil, fmt.Errorf("failed to apply callback policy: %w", err)
	}

	s.logger.DebugContext(ctx, "callback policy applied",
		slog.String("reason", string(req.Reason)),
		slog.String("credit", adj.CreditAmount.String()),
		slog.Bool("waive_service_fee", adj.WaiveServiceFee))

	return &adj, nil
}

// TaxRate resolves the tax rate for a jurisdiction. A jurisdiction without a
// state falls back to the configured default state.
func (s *PricingService) TaxRate(ctx context.Context, j domain.Jurisdiction) decimal.Decimal {
	if strings.TrimSpace(j.State) == "" && s.defaultState != "" {
		j.State = s.defaultState
	}
	return s.resolver.Rate(j)
}

// ClassifyAppliance returns the labor tier for a brand
func (s *PricingService) ClassifyAppliance(ctx context.Context, brand string) domain.TierClassification {
	return domain.GetApplianceTier(brand)
}
