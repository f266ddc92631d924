package pipeline

import (
	"context"
	"testing"
	"time"

	"convohub-platform/internal/analysis"
	"convohub-platform/internal/calls"
)

const workerCompletion = `{
  "rating": 9,
  "summary": "Booked an oil change",
  "next_actions": ["Send confirmation text"],
  "tags": ["oil-change"],
  "customer_info": {"first_name": "Sam", "confidence": "high"},
  "pipeline": {"status": "booked", "title": "Oil change", "deal_value": 8000, "priority": "low", "confidence": 90},
  "confidence": "high"
}`

func newWorkerFixture(t *testing.T) (*Worker, applierFixture, *calls.MemoryRepo) {
	t.Helper()
	f := newApplierFixture()
	callRepo := calls.NewMemoryRepo()
	w := &Worker{
		Queue:    NewMemoryQueue(8),
		Calls:    callRepo,
		Analyzer: analysis.NewAnalyzer(&analysis.MockProvider{Response: workerCompletion}, nil),
		Applier:  f.applier,
	}
	return w, f, callRepo
}

func TestWorker_ProcessAppliesAnalysis(t *testing.T) {
	ctx := context.Background()
	w, f, callRepo := newWorkerFixture(t)

	err := callRepo.Upsert(ctx, calls.CallRecord{
		ID: "CA1", MerchantID: "m1", CustomerPhone: "+15550001111",
		Status:     calls.CallStatusCompleted,
		Transcript: "customer: can I get an oil change Saturday?\nagent: sure, 10am works",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := w.process(ctx, Job{ID: "j1", MerchantID: "m1", CallID: "CA1"}); err != nil {
		t.Fatalf("process: %v", err)
	}

	c, err := f.customers.GetByPhone(ctx, "m1", "+15550001111")
	if err != nil {
		t.Fatalf("GetByPhone: %v", err)
	}
	if c.FirstName != "Sam" {
		t.Fatalf("FirstName = %q", c.FirstName)
	}
	dls, _ := f.deals.ListByMerchant(ctx, "m1")
	if len(dls) != 1 || dls[0].Title != "Oil change" {
		t.Fatalf("deals = %+v", dls)
	}
	acts, _ := f.actions.ListByMerchant(ctx, "m1")
	if len(acts) != 1 {
		t.Fatalf("actions = %+v", acts)
	}
}

func TestWorker_RequeueIncrementsAttemptWithoutBlocking(t *testing.T) {
	w, _, _ := newWorkerFixture(t)
	now := time.Unix(1_700_000_000, 0).UTC()
	w.Now = func() time.Time { return now }

	w.requeue(context.Background(), Job{ID: "j1", MerchantID: "m1", CallID: "CA1", Attempt: 0}, w.logger())

	job, ok, err := w.Queue.Dequeue(context.Background(), time.Second)
	if err != nil || !ok {
		t.Fatalf("Dequeue: ok=%v err=%v", ok, err)
	}
	if job.Attempt != 1 {
		t.Fatalf("Attempt = %d, want 1", job.Attempt)
	}
	// The retry delay lives on the job, not in a consumer sleep.
	if want := now.Add(retryDelay(1)); !job.NotBefore.Equal(want) {
		t.Fatalf("NotBefore = %v, want %v", job.NotBefore, want)
	}
}

func TestWorker_DeferNotReady(t *testing.T) {
	w, _, _ := newWorkerFixture(t)
	now := time.Unix(1_700_000_000, 0).UTC()
	w.Now = func() time.Time { return now }

	// Canceled context skips the anti-spin pause; the re-push still lands.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	early := Job{ID: "j1", MerchantID: "m1", CallID: "CA1", Attempt: 2, NotBefore: now.Add(10 * time.Second)}
	if !w.deferNotReady(ctx, early) {
		t.Fatal("job ahead of its NotBefore must be deferred")
	}
	job, ok, err := w.Queue.Dequeue(context.Background(), time.Second)
	if err != nil || !ok {
		t.Fatalf("Dequeue: ok=%v err=%v", ok, err)
	}
	if job.Attempt != 2 || !job.NotBefore.Equal(early.NotBefore) {
		t.Fatalf("deferred job mutated: %+v", job)
	}

	due := Job{ID: "j2", MerchantID: "m1", CallID: "CA2", NotBefore: now.Add(-time.Second)}
	if w.deferNotReady(ctx, due) {
		t.Fatal("job past its NotBefore must run")
	}
	if w.deferNotReady(ctx, Job{ID: "j3", MerchantID: "m1", CallID: "CA3"}) {
		t.Fatal("job without NotBefore must run")
	}
	if _, ok, _ := w.Queue.Dequeue(context.Background(), 20*time.Millisecond); ok {
		t.Fatal("ready jobs must not be re-enqueued")
	}
}

func TestWorker_DropsJobAfterMaxAttempts(t *testing.T) {
	w, _, _ := newWorkerFixture(t)

	w.requeue(context.Background(), Job{ID: "j1", MerchantID: "m1", CallID: "CA1", Attempt: maxAttempts - 1}, w.logger())

	_, ok, err := w.Queue.Dequeue(context.Background(), 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if ok {
		t.Fatal("exhausted job must not be re-enqueued")
	}
}

func TestWorker_HandleRequeuesMissingCall(t *testing.T) {
	w, _, _ := newWorkerFixture(t)

	// No call row seeded: the fetch retries then fails, and handle defers
	// the job. Canceled context keeps the backoff loop short.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w.handle(ctx, Job{ID: "j1", MerchantID: "m1", CallID: "missing", Attempt: 0})

	job, ok, err := w.Queue.Dequeue(context.Background(), time.Second)
	if err != nil || !ok {
		t.Fatalf("Dequeue: ok=%v err=%v", ok, err)
	}
	if job.Attempt != 1 {
		t.Fatalf("Attempt = %d", job.Attempt)
	}
}
