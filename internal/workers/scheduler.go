// internal/workers/scheduler.go
package workers

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/fieldservice-be/internal/pkg/config"
)

// PeriodicRegistrar registers cron tasks; satisfied by *asynq.Scheduler
type PeriodicRegistrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

// RegisterPeriodicTasks schedules the replenishment batches and the weekly
// report. An empty cron expression disables that task.
func RegisterPeriodicTasks(s PeriodicRegistrar, cfg config.ReplenishmentConfig, logger *slog.Logger) ([]string, error) {
	minStock, err := NewMinStockTask(BatchPayload{RequestedBy: "scheduler"})
	if err != nil {
		return nil, err
	}
	score, err := NewStockingScoreTask(BatchPayload{RequestedBy: "scheduler"})
	if err != nil {
		return nil, err
	}
	stockingReport, err := NewStockingReportTask(BatchPayload{RequestedBy: "scheduler"})
	if err != nil {
		return nil, err
	}

	entries := []struct {
		cron string
		task *asynq.Task
	}{
		{cfg.MinStockCron, minStock},
		{cfg.StockingScoreCron, score},
		{cfg.ReportCron, stockingReport},
	}

	var ids []string
	for _, e := range entries {
		if e.cron == "" {
			logger.Info("periodic task disabled", slog.String("type", e.task.Type()))
			continue
		}

		id, err := s.Register(e.cron, e.task)
		if err != nil {
			return ids, fmt.Errorf("failed to schedule %s at %q: %w", e.task.Type(), e.cron, err)
		}
		ids = append(ids, id)

		logger.Info("periodic task scheduled",
			slog.String("type", e.task.Type()),
			slog.String("cron", e.cron),
			slog.String("entry_id", id))
	}

	return ids, nil
}
