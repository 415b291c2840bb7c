// internal/handlers/parts.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/fieldservice-be/internal/adapters/redis_adapter"
	"github.com/ammerola/fieldservice-be/internal/core/domain"
	"github.com/ammerola/fieldservice-be/internal/core/ports"
)

// PartInvalidator drops cached analytics for one part
type PartInvalidator interface {
	InvalidatePart(ctx context.Context, partNumber string) error
}

// PartsHandler serves part listings, per-part stocking analytics and job
// completion, which is where usage history comes from.
type PartsHandler struct {
	responder
	replenishment ports.ReplenishmentService
	repo          ports.PartRepository
	cache         ports.CacheRepository
	invalidator   PartInvalidator
	ttl           time.Duration
	logger        *slog.Logger
}

// NewPartsHandler creates a new parts handler. Analytics are cached for ttl.
func NewPartsHandler(
	replenishment ports.ReplenishmentService,
	repo ports.PartRepository,
	cache ports.CacheRepository,
	invalidator PartInvalidator,
	ttl time.Duration,
	logger *slog.Logger,
) *PartsHandler {
	l := logger.With(slog.String("handler", "parts"))
	return &PartsHandler{
		responder:     responder{logger: l},
		replenishment: replenishment,
		repo:          repo,
		cache:         cache,
		invalidator:   invalidator,
		ttl:           ttl,
		logger:        l,
	}
}

// MinStockResponse is the body of GET /api/v1/parts/{partNumber}/min-stock
type MinStockResponse struct {
	PartNumber     string                        `json:"part_number"`
	CurrentMin     int                           `json:"current_min_stock"`
	ManualMinStock *int                          `json:"manual_min_stock,omitempty"`
	Recommendation domain.MinStockRecommendation `json:"recommendation"`
}

// StockingScoreResponse is the body of GET /api/v1/parts/{partNumber}/stocking-score
type StockingScoreResponse struct {
	PartNumber string                     `json:"part_number"`
	Result     domain.StockingScoreResult `json:"result"`
}

// MinStock handles GET /api/v1/parts/{partNumber}/min-stock
func (h *PartsHandler) MinStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partNumber := strings.TrimSpace(r.PathValue("partNumber"))
	if partNumber == "" {
		h.respondError(w, http.StatusBadRequest, "part number is required")
		return
	}

	var resp MinStockResponse
	key := redis_adapter.BuildKey(redis_adapter.PrefixMinStock, partNumber)
	err := h.cache.GetOrSet(ctx, key, &resp, func() (interface{}, error) {
		part, err := h.lookupPart(ctx, partNumber)
		if err != nil {
			return nil, err
		}
		return MinStockResponse{
			PartNumber:     part.PartNumber,
			CurrentMin:     part.MinStock,
			ManualMinStock: part.ManualMinStock,
			Recommendation: h.replenishment.CalculateRecommendedMinStock(ctx, partNumber),
		}, nil
	}, h.ttl)
	if err != nil {
		h.handleLookupError(ctx, w, partNumber, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// StockingScore handles GET /api/v1/parts/{partNumber}/stocking-score
func (h *PartsHandler) StockingScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partNumber := strings.TrimSpace(r.PathValue("partNumber"))
	if partNumber == "" {
		h.respondError(w, http.StatusBadRequest, "part number is required")
		return
	}

	var resp StockingScoreResponse
	key := redis_adapter.BuildKey(redis_adapter.PrefixStockingScore, partNumber)
	err := h.cache.GetOrSet(ctx, key, &resp, func() (interface{}, error) {
		part, err := h.lookupPart(ctx, partNumber)
		if err != nil {
			return nil, err
		}
		return StockingScoreResponse{
			PartNumber: part.PartNumber,
			Result:     h.replenishment.CalculateStockingScore(ctx, partNumber),
		}, nil
	}, h.ttl)
	if err != nil {
		h.handleLookupError(ctx, w, partNumber, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// ListParts handles GET /api/v1/parts
func (h *PartsHandler) ListParts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parsePartFilter(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	parts, err := h.repo.ListParts(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list parts",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to list parts")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"parts":  parts,
		"count":  len(parts),
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// Snapshot handles GET /api/v1/replenishment/snapshot
func (h *PartsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rows []ports.PartStockingRow
	key := redis_adapter.BuildKey(redis_adapter.PrefixSnapshot)
	err := h.cache.GetOrSet(ctx, key, &rows, func() (interface{}, error) {
		return h.replenishment.StockingSnapshot(ctx)
	}, h.ttl)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build stocking snapshot",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to build stocking snapshot")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"parts": rows,
		"count": len(rows),
	})
}

// CompleteJobRequest is the body of POST /api/v1/jobs
type CompleteJobRequest struct {
	ID             string                `json:"id"`
	CompletedAt    *time.Time            `json:"completed_at,omitempty"`
	ApplianceBrand string                `json:"appliance_brand,omitempty"`
	IsCallback     bool                  `json:"is_callback"`
	CallbackReason domain.CallbackReason `json:"callback_reason,omitempty"`
	PartsUsed      []PartUsed            `json:"parts_used"`
}

// PartUsed is one part consumed on a completed job
type PartUsed struct {
	PartNumber string          `json:"part_number"`
	Quantity   int             `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
}

// Validate validates the complete job request
func (req *CompleteJobRequest) Validate() error {
	if strings.TrimSpace(req.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if req.IsCallback && !hasCallbackReason(req.CallbackReason) {
		return fmt.Errorf("callback jobs need a callback_reason")
	}
	if !req.IsCallback && req.CallbackReason != "" {
		return fmt.Errorf("callback_reason is only valid on callback jobs")
	}
	for i, p := range req.PartsUsed {
		if strings.TrimSpace(p.PartNumber) == "" {
			return fmt.Errorf("parts_used[%d]: part_number is required", i)
		}
		if p.Quantity < 0 || p.UnitCost.IsNegative() {
			return fmt.Errorf("parts_used[%d]: %w", i, domain.ErrNegativeAmount)
		}
	}
	return nil
}

// CompleteJob handles POST /api/v1/jobs. It records the job and its part
// usage, then drops the cached analytics of every part touched. Posting the
// same job again replaces its usage.
func (h *PartsHandler) CompleteJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CompleteJobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondErrorDetails(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := domain.Job{
		ID:             req.ID,
		IsCallback:     req.IsCallback,
		CallbackReason: req.CallbackReason,
		ApplianceBrand: req.ApplianceBrand,
		CompletedAt:    time.Now().UTC(),
	}
	if req.CompletedAt != nil {
		job.CompletedAt = req.CompletedAt.UTC()
	}

	txs := make([]domain.UsageTransaction, 0, len(req.PartsUsed))
	for _, p := range req.PartsUsed {
		txs = append(txs, domain.UsageTransaction{
			PartNumber: p.PartNumber,
			JobID:      job.ID,
			Quantity:   p.Quantity,
			UnitCost:   p.UnitCost,
			UsedAt:     job.CompletedAt,
		})
	}

	if err := h.repo.CompleteJob(ctx, job, txs); err != nil {
		h.logger.ErrorContext(ctx, "failed to complete job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to save job")
		return
	}

	seen := make(map[string]bool, len(txs))
	for _, tx := range txs {
		if seen[tx.PartNumber] {
			continue
		}
		seen[tx.PartNumber] = true
		if err := h.invalidator.InvalidatePart(ctx, tx.PartNumber); err != nil {
			h.logger.WarnContext(ctx, "failed to invalidate part cache",
				slog.String("part_number", tx.PartNumber),
				slog.String("error", err.Error()))
		}
	}

	h.logger.InfoContext(ctx, "job completed",
		slog.String("job_id", job.ID),
		slog.Bool("is_callback", job.IsCallback),
		slog.Int("parts_used", len(txs)))

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"job_id":     job.ID,
		"parts_used": len(txs),
	})
}

func (h *PartsHandler) lookupPart(ctx context.Context, partNumber string) (*domain.Part, error) {
	part, err := h.repo.GetPartRecord(ctx, partNumber)
	if err != nil {
		return nil, err
	}
	if part == nil {
		return nil, domain.ErrPartNotFound
	}
	return part, nil
}

func (h *PartsHandler) handleLookupError(ctx context.Context, w http.ResponseWriter, partNumber string, err error) {
	if errors.Is(err, domain.ErrPartNotFound) {
		h.respondError(w, http.StatusNotFound, "Part not found")
		return
	}
	h.logger.ErrorContext(ctx, "failed to load part analytics",
		slog.String("part_number", partNumber),
		slog.String("error", err.Error()))
	h.respondError(w, http.StatusInternalServerError, "Failed to load part analytics")
}

// partSortColumns are the sort_by values the repository knows how to order by
var partSortColumns = []string{"part_number", "score", "cost", "updated"}

func parsePartFilter(r *http.Request) (ports.PartFilter, error) {
	q := r.URL.Query()
	filter := ports.PartFilter{
		Search:    q.Get("search"),
		SortBy:    "part_number",
		SortOrder: "asc",
		Limit:     50,
	}

	if v := q.Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 {
			return filter, fmt.Errorf("limit must be a positive integer")
		}
		filter.Limit = min(l, 500)
	}
	if v := q.Get("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil || o < 0 {
			return filter, fmt.Errorf("offset must be a non-negative integer")
		}
		filter.Offset = o
	}
	if v := q.Get("auto_replenish"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("auto_replenish must be true or false")
		}
		filter.AutoReplenish = &b
	}
	if v := q.Get("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, fmt.Errorf("min_score must be a number")
		}
		filter.MinScore = &f
	}
	if v := q.Get("sort_by"); v != "" {
		if !slices.Contains(partSortColumns, v) {
			return filter, fmt.Errorf("sort_by must be one of %s", strings.Join(partSortColumns, ", "))
		}
		filter.SortBy = v
	}
	if v := q.Get("sort_order"); v != "" {
		if v != "asc" && v != "desc" {
			return filter, fmt.Errorf("sort_order must be asc or desc")
		}
		filter.SortOrder = v
	}

	return filter, nil
}
