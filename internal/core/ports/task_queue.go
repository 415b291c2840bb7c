// internal/core/ports/task_queue.go
package ports

import (
	"context"

	"github.com/hibiken/asynq"
)

// TaskQueue enqueues background tasks; satisfied by *asynq.Client
type TaskQueue interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
