// internal/handlers/replenishment.go
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/fieldservice-be/internal/core/ports"
	"github.com/ammerola/fieldservice-be/internal/pkg/logger"
	"github.com/ammerola/fieldservice-be/internal/workers"
)

// Batches accepted by POST /api/v1/replenishment/run
const (
	RunMinStock      = "min_stock"
	RunStockingScore = "stocking_score"
	RunReport        = "report"
	RunAll           = "all"
)

// ReportLocator finds the newest published stocking report
type ReportLocator interface {
	Latest(ctx context.Context) (string, error)
}

// ReplenishmentHandler queues batch runs and hands out report links
type ReplenishmentHandler struct {
	responder
	queue   ports.TaskQueue
	reports ReportLocator
	storage ports.ObjectStorage
	linkTTL time.Duration
	logger  *slog.Logger
}

// NewReplenishmentHandler creates a new replenishment handler
func NewReplenishmentHandler(
	queue ports.TaskQueue,
	reports ReportLocator,
	storage ports.ObjectStorage,
	linkTTL time.Duration,
	logger *slog.Logger,
) *ReplenishmentHandler {
	l := logger.With(slog.String("handler", "replenishment"))
	return &ReplenishmentHandler{
		responder: responder{logger: l},
		queue:     queue,
		reports:   reports,
		storage:   storage,
		linkTTL:   linkTTL,
		logger:    l,
	}
}

// RunRequest is the body of POST /api/v1/replenishment/run
type RunRequest struct {
	Batch string `json:"batch"`
}

// QueuedTask describes one enqueued batch
type QueuedTask struct {
	Type   string `json:"type"`
	TaskID string `json:"task_id,omitempty"`
	Queue  string `json:"queue,omitempty"`
	Status string `json:"status"`
}

// Run handles POST /api/v1/replenishment/run. A batch that is already queued
// or running is reported as such rather than queued twice.
func (h *ReplenishmentHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := RunRequest{Batch: RunAll}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			h.respondErrorDetails(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	payload := workers.BatchPayload{
		RequestedBy: "api",
		RequestID:   logger.RequestID(ctx),
	}

	var builders []func(workers.BatchPayload) (*asynq.Task, error)
	switch req.Batch {
	case RunMinStock:
		builders = append(builders, workers.NewMinStockTask)
	case RunStockingScore:
		builders = append(builders, workers.NewStockingScoreTask)
	case RunReport:
		builders = append(builders, workers.NewStockingReportTask)
	case RunAll, "":
		builders = append(builders, workers.NewMinStockTask, workers.NewStockingScoreTask)
	default:
		h.respondError(w, http.StatusBadRequest, "batch must be one of min_stock, stocking_score, report, all")
		return
	}

	queued := make([]QueuedTask, 0, len(builders))
	for _, build := range builders {
		task, err := build(payload)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to create task",
				slog.String("error", err.Error()))
			h.respondError(w, http.StatusInternalServerError, "Failed to queue batch")
			return
		}

		info, err := h.queue.EnqueueContext(ctx, task)
		switch {
		case errors.Is(err, asynq.ErrDuplicateTask), errors.Is(err, asynq.ErrTaskIDConflict):
			queued = append(queued, QueuedTask{Type: task.Type(), Status: "already_queued"})
		case err != nil:
			h.logger.ErrorContext(ctx, "failed to enqueue task",
				slog.String("type", task.Type()),
				slog.String("error", err.Error()))
			h.respondError(w, http.StatusServiceUnavailable, "Failed to queue batch")
			return
		default:
			queued = append(queued, QueuedTask{Type: task.Type(), TaskID: info.ID, Queue: info.Queue, Status: "queued"})
			h.logger.InfoContext(ctx, "batch queued",
				slog.String("type", task.Type()),
				slog.String("task_id", info.ID))
		}
	}

	h.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"batch": req.Batch,
		"tasks": queued,
	})
}

// LatestReport handles GET /api/v1/reports/stocking/latest
func (h *ReplenishmentHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, err := h.reports.Latest(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to find latest report",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to find latest report")
		return
	}
	if key == "" {
		h.respondError(w, http.StatusNotFound, "No stocking report has been published yet")
		return
	}

	url, err := h.storage.GetPresignedURL(ctx, key, h.linkTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to presign report",
			slog.String("key", key),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to create report link")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"key":        key,
		"url":        url,
		"expires_at": time.Now().Add(h.linkTTL).UTC(),
	})
}
