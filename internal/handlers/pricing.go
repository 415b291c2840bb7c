// internal/handlers/pricing.go
package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/core/ports"
)

// PricingHandler serves invoice pricing, callback policy, tax and tier lookups
type PricingHandler struct {
	responder
	service ports.PricingService
	logger  *slog.Logger
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler(service ports.PricingService, logger *slog.Logger) *PricingHandler {
	l := logger.With(slog.String("handler", "pricing"))
	return &PricingHandler{
		responder: responder{logger: l},
		service:   service,
		logger:    l,
	}
}

// Calculate handles POST /api/v1/pricing/calculate
func (h *PricingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ports.InvoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondErrorDetails(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Items) == 0 {
		h.respondError(w, http.StatusBadRequest, "items are required")
		return
	}
	if req.Callback != nil && !hasCallbackReason(req.Callback.Reason) {
		h.respondError(w, http.StatusBadRequest, "Callback reason is required")
		return
	}

	result, err := h.service.PriceInvoice(ctx, req)
	if err != nil {
		if isInputError(err) {
			h.respondErrorDetails(w, http.StatusUnprocessableEntity, "Invoice could not be priced", err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to price invoice",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to price invoice")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// Callback handles POST /api/v1/pricing/callback
func (h *PricingHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ports.CallbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondErrorDetails(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !hasCallbackReason(req.Reason) {
		h.respondError(w, http.StatusBadRequest, "Callback reason is required")
		return
	}

	adj, err := h.service.ApplyCallback(ctx, req)
	if err != nil {
		if isInputError(err) {
			h.respondErrorDetails(w, http.StatusUnprocessableEntity, "Callback policy could not be applied", err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to apply callback policy",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to apply callback policy")
		return
	}

	h.respondJSON(w, http.StatusOK, adj)
}

// TaxRateResponse is the body of GET /api/v1/tax/rate
type TaxRateResponse struct {
	Jurisdiction domain.Jurisdiction  `json:"jurisdiction"`
	Rate         decimal.Decimal      `json:"rate"`
	Breakdown    *domain.TaxBreakdown `json:"breakdown,omitempty"`
}

// TaxRate handles GET /api/v1/tax/rate?state=WY&county=&city=&amount=&discount=
func (h *PricingHandler) TaxRate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	j := domain.Jurisdiction{
		State:  strings.TrimSpace(q.Get("state")),
		County: strings.TrimSpace(q.Get("county")),
		City:   strings.TrimSpace(q.Get("city")),
	}
	if j.State == "" {
		h.respondError(w, http.StatusBadRequest, "state is required")
		return
	}

	resp := TaxRateResponse{
		Jurisdiction: j,
		Rate:         h.service.TaxRate(r.Context(), j),
	}

	if s := q.Get("amount"); s != "" {
		amount, err := decimal.NewFromString(s)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "amount must be a number")
			return
		}
		discount := decimal.Zero
		if d := q.Get("discount"); d != "" {
			if discount, err = decimal.NewFromString(d); err != nil {
				h.respondError(w, http.StatusBadRequest, "discount must be a number")
				return
			}
		}

		breakdown, err := domain.CalculateTax(amount, discount, resp.Rate)
		if err != nil {
			h.respondErrorDetails(w, http.StatusUnprocessableEntity, "Tax could not be calculated", err)
			return
		}
		resp.Breakdown = &breakdown
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// ApplianceTier handles GET /api/v1/appliances/tier?brand=
func (h *PricingHandler) ApplianceTier(w http.ResponseWriter, r *http.Request) {
	brand := r.URL.Query().Get("brand")
	class := h.service.ClassifyAppliance(r.Context(), brand)

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"brand":      brand,
		"tier":       class.Tier,
		"multiplier": class.Multiplier,
	})
}

// hasCallbackReason accepts any reason; ones without a policy row bill normally
func hasCallbackReason(r domain.CallbackReason) bool {
	return strings.TrimSpace(string(r)) != ""
}
