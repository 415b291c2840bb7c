// internal/workers/report_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/fieldservice-be/internal/report"
)

// StockingPublisher publishes the stocking report
type StockingPublisher interface {
	PublishStocking(ctx context.Context) (*report.Published, error)
}

// ReportProcessor handles report generation tasks
type ReportProcessor struct {
	publisher StockingPublisher
	logger    *slog.Logger
}

// NewReportProcessor creates a new report processor
func NewReportProcessor(publisher StockingPublisher, logger *slog.Logger) *ReportProcessor {
	return &ReportProcessor{
		publisher: publisher,
		logger:    logger.With(slog.String("processor", "report")),
	}
}

// ProcessStockingReport handles TypeStockingReport
func (p *ReportProcessor) ProcessStockingReport(ctx context.Context, t *asynq.Task) error {
	if _, err := decodeBatchPayload(t); err != nil {
		return err
	}

	published, err := p.publisher.PublishStocking(ctx)
	if err != nil {
		return fmt.Errorf("failed to publish stocking report: %w", err)
	}

	if w := t.ResultWriter(); w != nil {
		if b, err := json.Marshal(published); err == nil {
			if _, err := w.Write(b); err != nil {
				p.logger.WarnContext(ctx, "failed to write task result",
					slog.String("error", err.Error()))
			}
		}
	}

	return nil
}
