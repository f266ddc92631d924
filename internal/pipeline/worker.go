package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"convohub-platform/internal/analysis"
	"convohub-platform/internal/calls"
	"convohub-platform/pkg/utils"
)

const (
	// maxAttempts bounds job retries. A job past the limit is dropped with
	// an error log; the applier is idempotent enough that partial earlier
	// attempts are safe to leave behind.
	maxAttempts = 5

	dequeueWait = 5 * time.Second

	// capTTL bounds a leaked per-merchant slot when a worker dies mid-job.
	capTTL = 5 * time.Minute
)

// Worker consumes analysis jobs and runs them through analyzer + applier.
//
// Per-merchant concurrency is capped in Redis so one tenant's webhook burst
// cannot monopolize the provider budget; a job that cannot acquire a slot is
// re-enqueued rather than waited on.
type Worker struct {
	Queue    Queue
	Calls    calls.Repository
	Analyzer *analysis.Analyzer
	Applier  *Applier
	Logger   *slog.Logger

	// Rdb enables the per-merchant cap. Nil disables capping (tests,
	// single-tenant local runs).
	Rdb         *redis.Client
	MerchantCap int

	// Concurrency is the number of consumer goroutines. Zero means 1.
	Concurrency int

	// Now is injectable for tests. Nil means time.Now.
	Now func() time.Time
}

// Run consumes jobs until ctx is canceled. Blocks.
func (w *Worker) Run(ctx context.Context) {
	log := w.logger()
	n := w.Concurrency
	if n <= 0 {
		n = 1
	}
	log.Info("analysis worker starting", "concurrency", n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.consume(ctx)
		}()
	}
	wg.Wait()
	log.Info("analysis worker stopped")
}

func (w *Worker) consume(ctx context.Context) {
	log := w.logger()
	for {
		if ctx.Err() != nil {
			return
		}
		job, ok, err := w.Queue.Dequeue(ctx, dequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("dequeue failed", "error", err)
			sleepCtx(ctx, time.Second)
			continue
		}
		if !ok {
			continue
		}
		if w.deferNotReady(ctx, job) {
			continue
		}
		w.handle(ctx, job)
	}
}

// deferNotReady pushes a job whose retry delay has not elapsed back onto the
// queue and reports true. The short pause keeps a consumer from spinning on a
// queue that holds only deferred jobs; it never waits out the full delay, so
// ready jobs from other merchants are picked up promptly.
func (w *Worker) deferNotReady(ctx context.Context, job Job) bool {
	if job.NotBefore.IsZero() {
		return false
	}
	remaining := job.NotBefore.Sub(w.now())
	if remaining <= 0 {
		return false
	}
	if err := w.Queue.Enqueue(context.WithoutCancel(ctx), job); err != nil {
		w.logger().Error("defer requeue failed", "job_id", job.ID, "error", err)
	}
	pause := remaining
	if pause > time.Second {
		pause = time.Second
	}
	sleepCtx(ctx, pause)
	return true
}

func (w *Worker) handle(ctx context.Context, job Job) {
	log := w.logger().With("job_id", job.ID, "merchant_id", job.MerchantID, "call_id", job.CallID, "attempt", job.Attempt)

	if w.Rdb != nil && w.MerchantCap > 0 {
		key := "convohub:analysis:cap:" + job.MerchantID
		acquired, err := utils.AcquireConcurrencyCap(ctx, w.Rdb, key, w.MerchantCap, capTTL)
		if err != nil {
			log.Error("cap acquire failed", "error", err)
		} else if !acquired {
			log.Info("merchant analysis cap reached, deferring job")
			w.requeue(ctx, job, log)
			return
		} else {
			defer func() {
				if err := utils.ReleaseConcurrencyCap(context.WithoutCancel(ctx), w.Rdb, key); err != nil {
					log.Warn("cap release failed", "error", err)
				}
			}()
		}
	}

	if err := w.process(ctx, job); err != nil {
		log.Error("job failed", "error", err)
		w.requeue(ctx, job, log)
		return
	}
	log.Info("job done")
}

// process loads the call, analyzes its transcript, and applies the result.
// Only the call fetch can fail; analysis and application degrade internally.
func (w *Worker) process(ctx context.Context, job Job) error {
	var call calls.CallRecord
	operation := func() error {
		var err error
		call, err = w.Calls.GetByID(ctx, job.MerchantID, job.CallID)
		return err
	}
	// The call row may lag the webhook that enqueued the job; ride out
	// short replication gaps before declaring the attempt failed.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("load call: %w", err)
	}

	result := w.Analyzer.Analyze(ctx, analysis.NewTranscript(call.Transcript))
	out := w.Applier.Apply(ctx, job.MerchantID, call, result)
	if len(out.FailedSteps) > 0 {
		w.logger().Warn("applier degraded", "job_id", job.ID, "failed_steps", out.FailedSteps)
	}
	return nil
}

// requeue pushes the job back immediately with a not-before deadline instead
// of sleeping; a failing job must not stall the consumer for other merchants.
func (w *Worker) requeue(ctx context.Context, job Job, log *slog.Logger) {
	job.Attempt++
	if job.Attempt >= maxAttempts {
		log.Error("job dropped after max attempts")
		return
	}
	job.NotBefore = w.now().Add(retryDelay(job.Attempt))
	if err := w.Queue.Enqueue(context.WithoutCancel(ctx), job); err != nil {
		log.Error("requeue failed", "error", err)
	}
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now().UTC()
}

// retryDelay grows exponentially with the attempt count, capped at 30s.
func retryDelay(attempt int) time.Duration {
	d := time.Second << uint(attempt)
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
