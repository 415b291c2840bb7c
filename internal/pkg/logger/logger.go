// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ContextKey represents keys for context values
type ContextKey string

const (
	// Context keys for logging
	ContextKeyRequestID  ContextKey = "request_id"
	ContextKeyTaskID     ContextKey = "task_id"
	ContextKeyTaskType   ContextKey = "task_type"
	ContextKeyBatch      ContextKey = "batch"
	ContextKeyPartNumber ContextKey = "part_number"
	ContextKeyClientIP   ContextKey = "client_ip"
	ContextKeyMethod     ContextKey = "method"
	ContextKeyPath       ContextKey = "path"
)

// LogConfig holds logger configuration
type LogConfig struct {
	Level          string
	Format         string // json, text
	Output         io.Writer
	AddSource      bool
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// SetupLogger builds the process logger from level and format and installs it
// as the slog default.
func SetupLogger(level string, format string) *slog.Logger {
	logger := NewLogger(LogConfig{
		Level:          level,
		Format:         format,
		AddSource:      strings.EqualFold(level, "debug"),
		ServiceName:    os.Getenv("SERVICE_NAME"),
		ServiceVersion: os.Getenv("SERVICE_VERSION"),
		Environment:    os.Getenv("APP_ENV"),
	})
	slog.SetDefault(logger)
	return logger
}

// NewLogger creates a logger that lifts request and task identifiers from the
// context and redacts sensitive attributes.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return replaceAttr(cfg.Format, groups, a)
		},
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	handler = NewContextHandler(handler)
	handler = NewSanitizationHandler(handler)

	var attrs []slog.Attr
	if cfg.ServiceName != "" {
		attrs = append(attrs, slog.String("app", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, slog.String("version", cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, slog.String("env", cfg.Environment))
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	return slog.New(handler)
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithValue stores a logging field in the context
func WithValue(ctx context.Context, key ContextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// WithRequestID stores the request ID in the context
func WithRequestID(ctx context.Context, id string) context.Context {
	return WithValue(ctx, ContextKeyRequestID, id)
}

// RequestID returns the request ID stored in the context, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

func contextKeys() []ContextKey {
	return []ContextKey{
		ContextKeyRequestID,
		ContextKeyTaskID,
		ContextKeyTaskType,
		ContextKeyBatch,
		ContextKeyPartNumber,
		ContextKeyClientIP,
		ContextKeyMethod,
		ContextKeyPath,
	}
}

func extractContextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	for _, key := range contextKeys() {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	return attrs
}

func replaceAttr(format string, _ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
		}
	}

	// Rename level key for log aggregators
	if a.Key == slog.LevelKey && format != "text" {
		a.Key = "severity"
	}

	if strings.HasSuffix(a.Key, "_ms") {
		if d, ok := a.Value.Any().(time.Duration); ok {
			a.Value = slog.Float64Value(float64(d.Milliseconds()))
		}
	}

	return a
}
