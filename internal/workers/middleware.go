// internal/workers/middleware.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/fieldservice-be/internal/pkg/logger"
	"github.com/ammerola/fieldservice-be/internal/pkg/metrics"
)

// TaskMiddleware tags the context with the task id and type, then logs and
// records the outcome of every task.
func TaskMiddleware(log *slog.Logger, m *metrics.Metrics) asynq.MiddlewareFunc {
	log = log.With(slog.String("component", "tasks"))

	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()

			ctx = logger.WithValue(ctx, logger.ContextKeyTaskType, t.Type())
			if id, ok := asynq.GetTaskID(ctx); ok {
				ctx = logger.WithValue(ctx, logger.ContextKeyTaskID, id)
			}
			retry, _ := asynq.GetRetryCount(ctx)

			err := next.ProcessTask(ctx, t)
			m.RecordTask(t.Type(), err)

			if err != nil {
				log.ErrorContext(ctx, "task failed",
					slog.Int("retry", retry),
					slog.Duration("duration", time.Since(start)),
					slog.String("error", err.Error()))
				return err
			}

			log.InfoContext(ctx, "task completed",
				slog.Int("retry", retry),
				slog.Duration("duration", time.Since(start)))
			return nil
		})
	}
}

// RetryDelay backs off exponentially from one second up to ten minutes
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	const (
		baseDelay = time.Second
		maxDelay  = 10 * time.Minute
	)
	if n > 20 {
		return maxDelay
	}
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// AsynqLogger adapts slog for asynq servers and schedulers
type AsynqLogger struct {
	logger *slog.Logger
}

// NewAsynqLogger creates a new asynq logger
func NewAsynqLogger(logger *slog.Logger) *AsynqLogger {
	return &AsynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *AsynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *AsynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *AsynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *AsynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
