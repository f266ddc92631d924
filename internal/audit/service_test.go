package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresMerchantAndType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: EventTypeAnalysisApplied}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{MerchantID: "m"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogAnalysisApplied(context.Background(), "m1", "CA1", "c1", "{}"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.LogStepFailure(context.Background(), "m1", "CA1", "deal_creation", "insert failed"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events")
	}
	if evs[0].Type != EventTypeAnalysisApplied || evs[0].CallID != "CA1" {
		t.Fatalf("unexpected first event: %+v", evs[0])
	}
	if evs[1].Step != "deal_creation" {
		t.Fatalf("expected step captured")
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp assigned")
	}
}
