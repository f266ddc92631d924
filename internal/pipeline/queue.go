package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Job asks the worker to analyze one completed call and apply the result.
//
// Delivery is at-least-once: a worker crash between dequeue and completion
// loses no more than the in-flight job on a clean queue, and a re-enqueued
// job is safe to replay because the applier's customer writes are idempotent.
type Job struct {
	ID         string    `json:"id"`
	MerchantID string    `json:"merchant_id"`
	CallID     string    `json:"call_id"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`

	// NotBefore defers a retried job without blocking a consumer: a worker
	// that pops the job early pushes it straight back. Zero means run now.
	NotBefore time.Time `json:"not_before,omitempty"`
}

var ErrInvalidJob = errors.New("pipeline: invalid job")

// Queue is the dispatch contract between webhook handlers and the analysis
// worker. Enqueue must be cheap; callers fire and forget.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks up to timeout. ok is false when the wait expired with
	// nothing to do.
	Dequeue(ctx context.Context, timeout time.Duration) (job Job, ok bool, err error)
}

// analysisQueueKey is the Redis list backing the analysis queue.
const analysisQueueKey = "convohub:analysis:queue"

// RedisQueue is a Redis-list queue: LPUSH to enqueue, BRPOP to consume.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: analysisQueueKey}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	if err := normalizeJob(&job); err != nil {
		return err
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.key, payload).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (Job, bool, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Job{}, false, nil
		}
		return Job{}, false, err
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return Job{}, false, fmt.Errorf("pipeline: unexpected BRPOP reply of length %d", len(res))
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return Job{}, false, fmt.Errorf("pipeline: decode job: %w", err)
	}
	return job, true, nil
}

// MemoryQueue is a buffered in-process queue for tests and local runs
// without Redis.
type MemoryQueue struct {
	ch chan Job
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 64
	}
	return &MemoryQueue{ch: make(chan Job, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	if err := normalizeJob(&job); err != nil {
		return err
	}
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (Job, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case job := <-q.ch:
		return job, true, nil
	case <-timer.C:
		return Job{}, false, nil
	case <-ctx.Done():
		return Job{}, false, ctx.Err()
	}
}

func normalizeJob(job *Job) error {
	if job.MerchantID == "" || job.CallID == "" {
		return ErrInvalidJob
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	return nil
}
