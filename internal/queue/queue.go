// internal/queue/queue.go
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintx-engine/internal/metrics"

	"github.com/google/uuid"
)

// JobType identifies the kind of work a job carries.
type JobType string

const (
	JobTypeProcessTransaction  JobType = "process-transaction"
	JobTypeWebhookConfirmation JobType = "webhook-confirmation"
	JobTypeVerifyDeposit       JobType = "verify-deposit"
	JobTypeVerifyWithdrawal    JobType = "verify-withdrawal"
)

// ErrQueueClosed is returned by Dequeue once the queue has been closed and
// drained.
var ErrQueueClosed = errors.New("queue closed")

// Job is one unit of asynchronous work. Delivery is at-least-once; consumers
// must be idempotent.
type Job struct {
	ID         string          `json:"id"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// ProcessTransactionPayload is the payload schema for process-transaction,
// verify-deposit and verify-withdrawal jobs.
type ProcessTransactionPayload struct {
	TransactionID string `json:"transactionId"`
}

// WebhookConfirmationPayload is the payload schema for webhook-confirmation jobs.
type WebhookConfirmationPayload struct {
	TransactionID string         `json:"transactionId"`
	WebhookData   map[string]any `json:"webhookData"`
}

// DecodePayload unmarshals the job payload into the given schema.
func DecodePayload[T any](job *Job) (T, error) {
	var payload T
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to decode %s payload: %w", job.Type, err)
	}
	return payload, nil
}

// Queue decouples transaction creation from transaction processing. Each
// enqueued job is delivered to at least one worker invocation.
type Queue interface {
	Enqueue(ctx context.Context, jobType JobType, payload any) error
	Dequeue(ctx context.Context) (*Job, error)
	Ack(job *Job)
	Nack(job *Job, retryable bool)
}

// MemoryQueue is the in-process Queue implementation backed by a buffered
// channel.
type MemoryQueue struct {
	jobs        chan *Job
	maxAttempts int
}

// NewMemoryQueue creates a MemoryQueue with the given buffer capacity and
// per-job attempt budget.
func NewMemoryQueue(capacity, maxAttempts int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 128
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &MemoryQueue{
		jobs:        make(chan *Job, capacity),
		maxAttempts: maxAttempts,
	}
}

// Enqueue serializes the payload and places a new job on the queue.
func (q *MemoryQueue) Enqueue(ctx context.Context, jobType JobType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode job payload: %w", err)
	}
	job := &Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Payload:    data,
		Attempts:   1,
		EnqueuedAt: time.Now().UTC(),
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a job is available, the queue is closed, or the
// context is cancelled.
func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	select {
	case job, open := <-q.jobs:
		if !open {
			return nil, ErrQueueClosed
		}
		return job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ack marks the job as done. Nothing to do for the in-memory queue: the job
// left the channel when it was dequeued.
func (q *MemoryQueue) Ack(job *Job) {}

// Nack returns a failed job. Retryable failures are re-enqueued until the
// attempt budget is spent; everything else is dropped.
func (q *MemoryQueue) Nack(job *Job, retryable bool) {
	if !retryable || job.Attempts >= q.maxAttempts {
		metrics.JobsDropped.Inc()
		return
	}
	job.Attempts++
	metrics.JobsRetried.Inc()
	select {
	case q.jobs <- job:
	default:
		// Queue full; dropping beats blocking the worker that nacked.
		metrics.JobsDropped.Inc()
	}
}

// Len returns the number of jobs currently buffered.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}

// Close stops the queue. Pending jobs can still be drained by Dequeue.
func (q *MemoryQueue) Close() {
	close(q.jobs)
}

// Compile-time check: MemoryQueue implements Queue.
var _ Queue = (*MemoryQueue)(nil)
