package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrQueueClosed is returned by Dequeue when the queue has shut down
var ErrQueueClosed = errors.New("report queue closed")

// ReportJob asks the worker to generate one report
type ReportJob struct {
	IssueUUID string `json:"issue_uuid"`
	BrandID   string `json:"brand_id"`
	Attempt   int    `json:"attempt"`
}

// Queue is the outbox handoff between ticket processing and report
// generation. Enqueue must not block ticket processing.
type Queue interface {
	Enqueue(ctx context.Context, job ReportJob) error
	Dequeue(ctx context.Context) (*ReportJob, error)
	Close() error
}

// ========== In-memory queue ==========

// MemoryQueue is a channel-backed queue for tests and single-process
// deployments.
type MemoryQueue struct {
	jobs chan ReportJob
	done chan struct{}
}

// NewMemoryQueue creates an in-memory queue with the given capacity
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryQueue{
		jobs: make(chan ReportJob, capacity),
		done: make(chan struct{}),
	}
}

// Enqueue adds a job without blocking; a full queue is an error the caller
// logs and moves on from.
func (q *MemoryQueue) Enqueue(ctx context.Context, job ReportJob) error {
	select {
	case q.jobs <- job:
		return nil
	case <-q.done:
		return ErrQueueClosed
	default:
		return fmt.Errorf("report queue full, dropping job for issue %s brand %s", job.IssueUUID, job.BrandID)
	}
}

// Dequeue blocks until a job arrives, the context ends, or the queue closes
func (q *MemoryQueue) Dequeue(ctx context.Context) (*ReportJob, error) {
	select {
	case job := <-q.jobs:
		return &job, nil
	case <-q.done:
		return nil, ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of queued jobs (used by tests)
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}

// Close shuts the queue down
func (q *MemoryQueue) Close() error {
	close(q.done)
	return nil
}

// ========== Redis queue ==========

const defaultRedisKey = "triagehub:report_jobs"

// RedisQueue is a Redis-list-backed queue for multi-process deployments
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue creates a Redis-backed report queue
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisQueue{client: client, key: key}
}

// Enqueue pushes the job onto the list
func (q *RedisQueue) Enqueue(ctx context.Context, job ReportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal report job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue report job: %w", err)
	}
	return nil
}

// Dequeue blocks on the list until a job arrives or the context ends
func (q *RedisQueue) Dequeue(ctx context.Context) (*ReportJob, error) {
	res, err := q.client.BRPop(ctx, 0, q.key).Result()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to dequeue report job: %w", err)
	}
	// BRPop returns [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply length %d", len(res))
	}

	var job ReportJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report job: %w", err)
	}
	return &job, nil
}

// Close closes the underlying Redis connection
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
