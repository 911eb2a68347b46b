package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var tasksEnqueuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tasks_enqueued_total",
		Help: "Total number of background tasks handed to the queue",
	},
	[]string{"type", "result"},
)

// TaskClient is the part of asynq.Client the enqueuer uses
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer hands jobs to the asynq queue. It never sends anything itself.
type Enqueuer struct {
	client TaskClient
}

// NewEnqueuer creates a new enqueuer
func NewEnqueuer(client TaskClient) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueEmail queues an email on the immediate queue
func (e *Enqueuer) EnqueueEmail(ctx context.Context, p EmailPayload) error {
	task, err := NewEmailTask(p)
	if err != nil {
		tasksEnqueuedTotal.WithLabelValues(TypeEmailDelivery, "invalid").Inc()
		return err
	}
	return e.enqueue(ctx, task,
		asynq.Queue(QueueImmediate),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
}

// EnqueueMaintenance queues a maintenance call on the default queue.
// uniqueFor suppresses duplicates of the same job while one is pending.
func (e *Enqueuer) EnqueueMaintenance(ctx context.Context, p MaintenancePayload, uniqueFor time.Duration) error {
	task, err := NewMaintenanceTask(p)
	if err != nil {
		tasksEnqueuedTotal.WithLabelValues(TypeMaintenanceCall, "invalid").Inc()
		return err
	}
	return e.enqueue(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
		asynq.Unique(uniqueFor),
	)
}

func (e *Enqueuer) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	if _, err := e.client.EnqueueContext(ctx, task, opts...); err != nil {
		tasksEnqueuedTotal.WithLabelValues(task.Type(), "error").Inc()
		return fmt.Errorf("failed to enqueue %s task: %w", task.Type(), err)
	}
	tasksEnqueuedTotal.WithLabelValues(task.Type(), "ok").Inc()
	return nil
}
