package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/fieldservice-be/internal/pkg/logger"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(logger.LogConfig{Level: "debug", Format: "json", Output: &buf})

	ctx := logger.WithRequestID(context.Background(), "req-123")
	ctx = logger.WithValue(ctx, logger.ContextKeyTaskType, "replenishment:min_stock")
	log.InfoContext(ctx, "batch started", slog.String("batch", "min_stock"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "batch started", entry["msg"])
	assert.Equal(t, "INFO", entry["severity"])
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "replenishment:min_stock", entry["task_type"])
	assert.Equal(t, "req-123", logger.RequestID(ctx))
}

func TestNewLogger_Redaction(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		key     string
		notWant string
	}{
		{
			name:    "sensitive_key",
			attr:    slog.String("db_password", "hunter2"),
			key:     "db_password",
			notWant: "hunter2",
		},
		{
			name:    "customer_email",
			attr:    slog.String("customer", "jane.doe@example.com"),
			key:     "customer",
			notWant: "jane.doe@example.com",
		},
		{
			name:    "database_url",
			attr:    slog.String("dsn", "postgresql://fieldservice:s3cret@db:5432/fieldservice"),
			key:     "dsn",
			notWant: "s3cret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewLogger(logger.LogConfig{Format: "json", Output: &buf})

			log.Info("connecting", tt.attr)

			entry := decodeLine(t, &buf)
			value, ok := entry[tt.key].(string)
			require.True(t, ok)
			assert.NotContains(t, value, tt.notWant)
			assert.Contains(t, value, "REDACTED")
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(logger.LogConfig{Level: "warn", Format: "text", Output: &buf})

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown", slog.String("part_number", "WPW10348269"))
	assert.Contains(t, buf.String(), "part_number=WPW10348269")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel(""))
}
