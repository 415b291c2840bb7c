// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task types
const (
	TypeMinStockUpdate      = "replenishment:min_stock"
	TypeStockingScoreUpdate = "replenishment:stocking_score"
	TypeStockingReport      = "report:stocking"
	TypeCatalogImport       = "catalog:import"
)

// Queue names, matching the asynq server's queue weights
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// BatchPayload is carried by the replenishment and report tasks. Scheduled
// runs leave it empty.
type BatchPayload struct {
	RequestedBy string `json:"requested_by,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// CatalogImportPayload points at an uploaded parts catalog workbook
type CatalogImportPayload struct {
	JobID    string `json:"job_id"`
	FilePath string `json:"file_path"`
}

// CatalogImportResult is written to the task result when an import finishes
type CatalogImportResult struct {
	PartsUpserted     int    `json:"parts_upserted"`
	SuppliersUpserted int    `json:"suppliers_upserted"`
	RowErrors         int    `json:"row_errors"`
	FailedParts       int    `json:"failed_parts"`
	ProcessingTime    string `json:"processing_time"`
}

// NewMinStockTask creates a task that recomputes min stock levels
func NewMinStockTask(p BatchPayload) (*asynq.Task, error) {
	return newBatchTask(TypeMinStockUpdate, p)
}

// NewStockingScoreTask creates a task that recomputes stocking scores
func NewStockingScoreTask(p BatchPayload) (*asynq.Task, error) {
	return newBatchTask(TypeStockingScoreUpdate, p)
}

// NewStockingReportTask creates a task that publishes the stocking report
func NewStockingReportTask(p BatchPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeStockingReport, b,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(3),
		asynq.Timeout(15*time.Minute)), nil
}

// NewCatalogImportTask creates a task that imports a parts catalog
func NewCatalogImportTask(p CatalogImportPayload) (*asynq.Task, error) {
	if p.FilePath == "" {
		return nil, fmt.Errorf("file_path is required")
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeCatalogImport, b,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour)), nil
}

// Batch tasks are unique for their timeout so a manual trigger cannot
// queue behind a scheduled run of the same batch.
func newBatchTask(taskType string, p BatchPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(taskType, b,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(2),
		asynq.Timeout(30*time.Minute),
		asynq.Unique(30*time.Minute)), nil
}

func decodeBatchPayload(t *asynq.Task) (BatchPayload, error) {
	var p BatchPayload
	if len(t.Payload()) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("failed to unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	return p, nil
}
