package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/fieldservice-be/internal/pkg/config"
	"github.com/ammerola/fieldservice-be/internal/pkg/metrics"
	"github.com/ammerola/fieldservice-be/internal/workers"
	"github.com/ammerola/fieldservice-be/test/helpers"
)

func TestNewTasks(t *testing.T) {
	tests := []struct {
		name     string
		build    func() (*asynq.Task, error)
		wantType string
	}{
		{
			name:     "min_stock",
			build:    func() (*asynq.Task, error) { return workers.NewMinStockTask(workers.BatchPayload{RequestedBy: "api"}) },
			wantType: workers.TypeMinStockUpdate,
		},
		{
			name:     "stocking_score",
			build:    func() (*asynq.Task, error) { return workers.NewStockingScoreTask(workers.BatchPayload{}) },
			wantType: workers.TypeStockingScoreUpdate,
		},
		{
			name:     "stocking_report",
			build:    func() (*asynq.Task, error) { return workers.NewStockingReportTask(workers.BatchPayload{}) },
			wantType: workers.TypeStockingReport,
		},
		{
			name: "catalog_import",
			build: func() (*asynq.Task, error) {
				return workers.NewCatalogImportTask(workers.CatalogImportPayload{JobID: "j", FilePath: "/tmp/c.xlsx"})
			},
			wantType: workers.TypeCatalogImport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, task.Type())
			assert.True(t, json.Valid(task.Payload()))
		})
	}
}

func TestNewCatalogImportTask_RequiresFile(t *testing.T) {
	_, err := workers.NewCatalogImportTask(workers.CatalogImportPayload{JobID: "j"})
	assert.EqualError(t, err, "file_path is required")
}

type fakeRegistrar struct {
	specs []string
	types []string
	err   error
}

func (f *fakeRegistrar) Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.specs = append(f.specs, cronspec)
	f.types = append(f.types, task.Type())
	return "entry-" + task.Type(), nil
}

func TestRegisterPeriodicTasks(t *testing.T) {
	cfg := config.ReplenishmentConfig{
		MinStockCron:      "0 2 * * *",
		StockingScoreCron: "",
		ReportCron:        "0 6 * * 1",
	}

	reg := &fakeRegistrar{}
	ids, err := workers.RegisterPeriodicTasks(reg, cfg, helpers.TestLogger())
	require.NoError(t, err)

	assert.Len(t, ids, 2)
	assert.Equal(t, []string{"0 2 * * *", "0 6 * * 1"}, reg.specs)
	assert.Equal(t, []string{workers.TypeMinStockUpdate, workers.TypeStockingReport}, reg.types)

	_, err = workers.RegisterPeriodicTasks(&fakeRegistrar{err: errors.New("bad cron expression")}, cfg, helpers.TestLogger())
	assert.ErrorContains(t, err, "failed to schedule replenishment:min_stock")
}

func TestTaskMiddleware(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("worker"))
	mw := workers.TaskMiddleware(helpers.TestLogger(), m)

	ok := mw(asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error { return nil }))
	failing := mw(asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error { return errors.New("boom") }))

	task := asynq.NewTask(workers.TypeStockingReport, nil)
	require.NoError(t, ok.ProcessTask(context.Background(), task))
	require.NoError(t, ok.ProcessTask(context.Background(), task))
	assert.EqualError(t, failing.ProcessTask(context.Background(), task), "boom")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TasksProcessedTotal.WithLabelValues("worker", workers.TypeStockingReport, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksProcessedTotal.WithLabelValues("worker", workers.TypeStockingReport, "error")))
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want time.Duration
	}{
		{name: "first_retry", n: 0, want: time.Second},
		{name: "third_retry", n: 3, want: 8 * time.Second},
		{name: "capped", n: 12, want: 10 * time.Minute},
		{name: "huge", n: 100, want: 10 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, workers.RetryDelay(tt.n, nil, nil))
		})
	}
}
