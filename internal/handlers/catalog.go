// internal/handlers/catalog.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/fieldservice-be/internal/core/ports"
	"github.com/ammerola/fieldservice-be/internal/report"
	"github.com/ammerola/fieldservice-be/internal/workers"
)

// TaskInspector reads the state of a queued task; satisfied by *asynq.Inspector
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// CatalogHandler accepts parts catalog workbooks and queues them for import
type CatalogHandler struct {
	responder
	queue       ports.TaskQueue
	inspector   TaskInspector
	maxFileSize int64
	uploadDir   string
	logger      *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(queue ports.TaskQueue, inspector TaskInspector, maxFileSize int64, uploadDir string, logger *slog.Logger) *CatalogHandler {
	l := logger.With(slog.String("handler", "catalog"))
	return &CatalogHandler{
		responder:   responder{logger: l},
		queue:       queue,
		inspector:   inspector,
		maxFileSize: maxFileSize,
		uploadDir:   uploadDir,
		logger:      l,
	}
}

// Import handles POST /api/v1/catalog/import
func (h *CatalogHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		h.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	ct := header.Header.Get("Content-Type")
	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") ||
		(ct != report.ContentTypeXLSX && ct != "application/octet-stream") {
		h.respondError(w, http.StatusBadRequest, "Only .xlsx workbooks are allowed")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.ErrorContext(ctx, "failed to create upload directory",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to prepare upload")
		return
	}

	jobID := uuid.New().String()
	path := filepath.Join(h.uploadDir, jobID+".xlsx")
	if err := saveUpload(path, file); err != nil {
		h.logger.ErrorContext(ctx, "failed to save upload",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	task, err := workers.NewCatalogImportTask(workers.CatalogImportPayload{JobID: jobID, FilePath: path})
	if err != nil {
		_ = os.Remove(path)
		h.respondError(w, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	info, err := h.queue.EnqueueContext(ctx, task, asynq.TaskID(jobID))
	if err != nil {
		_ = os.Remove(path)
		h.logger.ErrorContext(ctx, "failed to enqueue catalog import",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusServiceUnavailable, "Failed to queue import job")
		return
	}

	h.logger.InfoContext(ctx, "catalog import queued",
		slog.String("job_id", jobID),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	h.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  jobID,
		"queue":   info.Queue,
		"status":  "queued",
		"message": "Catalog import has been queued for processing",
	})
}

// ImportStatus handles GET /api/v1/catalog/import/{jobId}
func (h *CatalogHandler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := r.PathValue("jobId")
	if _, err := uuid.Parse(jobID); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	info, err := h.inspector.GetTaskInfo(workers.QueueDefault, jobID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			h.respondError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get job status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to get job status")
		return
	}

	status := map[string]interface{}{
		"job_id":  jobID,
		"status":  info.State.String(),
		"retried": info.Retried,
	}
	if info.LastErr != "" {
		status["last_error"] = info.LastErr
	}
	if !info.CompletedAt.IsZero() {
		status["completed_at"] = info.CompletedAt.UTC().Format(time.RFC3339)
	}
	if len(info.Result) > 0 {
		var result workers.CatalogImportResult
		if err := json.Unmarshal(info.Result, &result); err == nil {
			status["result"] = result
		}
	}

	h.respondJSON(w, http.StatusOK, status)
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return dst.Close()
}
