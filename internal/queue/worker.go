// internal/queue/worker.go
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"fintx-engine/internal/util"
)

// HandlerFunc consumes one job. Returning util.ErrResourceLocked (wrapped or
// not) marks the job retryable; any other error drops it after logging. The
// handler owns idempotency: redelivery of an already-handled job must be a
// no-op.
type HandlerFunc func(ctx context.Context, job *Job) error

// Worker drains a Queue with a bounded pool of goroutines, dispatching each
// job to the handler registered for its type.
type Worker struct {
	queue    Queue
	handlers map[JobType]HandlerFunc
	logger   *slog.Logger
	count    int
	wg       sync.WaitGroup
}

// NewWorker creates a worker pool of the given size over the queue.
func NewWorker(q Queue, count int, logger *slog.Logger) *Worker {
	if count <= 0 {
		count = 4
	}
	return &Worker{
		queue:    q,
		handlers: make(map[JobType]HandlerFunc),
		logger:   logger,
		count:    count,
	}
}

// Register installs the handler for a job type. Must be called before Start.
func (w *Worker) Register(jobType JobType, fn HandlerFunc) {
	w.handlers[jobType] = fn
}

// Start launches the pool. Workers exit when the context is cancelled or the
// queue is closed and drained.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.count; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.run(ctx, id)
		}(i)
	}
}

// Wait blocks until every worker goroutine has exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, id int) {
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, ErrQueueClosed) {
				w.logger.Error("Worker failed to dequeue", "worker", id, "error", err)
			}
			return
		}
		w.handle(ctx, id, job)
	}
}

func (w *Worker) handle(ctx context.Context, id int, job *Job) {
	handler, ok := w.handlers[job.Type]
	if !ok {
		w.logger.Warn("No handler registered for job type", "worker", id, "job_type", job.Type, "job_id", job.ID)
		w.queue.Nack(job, false)
		return
	}

	err := handler(ctx, job)
	switch {
	case err == nil:
		w.queue.Ack(job)
	case util.IsError(err, util.ErrResourceLocked):
		// Conflict with a concurrent holder; let the queue retry.
		w.logger.Info("Job hit a lock conflict, retrying", "worker", id, "job_id", job.ID, "attempt", job.Attempts)
		w.queue.Nack(job, true)
	default:
		// The engine has already recorded the failure on the transaction;
		// the job itself is surfaced as failed and not re-thrown.
		w.logger.Error("Job failed", "worker", id, "job_id", job.ID, "job_type", job.Type, "error", err)
		w.queue.Nack(job, false)
	}
}
