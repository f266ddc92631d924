package calls

import (
	"context"
	"testing"
)

func testCtx() context.Context { return context.Background() }

func TestHasArtifacts(t *testing.T) {
	cases := []struct {
		name string
		c    CallRecord
		want bool
	}{
		{"empty", CallRecord{}, false},
		{"whitespace only", CallRecord{Summary: "  ", Transcript: "\n"}, false},
		{"summary only", CallRecord{Summary: "Brake noise"}, true},
		{"transcript only", CallRecord{Transcript: "customer: hello"}, true},
	}
	for _, tc := range cases {
		if got := tc.c.HasArtifacts(); got != tc.want {
			t.Fatalf("%s: HasArtifacts() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMemoryRepo_UpsertReplacesByID(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := testCtx()

	first := CallRecord{ID: "c1", MerchantID: "m1", CustomerPhone: "+15550001111", Status: CallStatusInProgress}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	completed := first
	completed.Status = CallStatusCompleted
	completed.Summary = "Brake noise"
	if err := repo.Upsert(ctx, completed); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := repo.GetByID(ctx, "m1", "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != CallStatusCompleted || got.Summary != "Brake noise" {
		t.Fatalf("expected completed record, got %+v", got)
	}
}

func TestMemoryRepo_MerchantIsolation(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := testCtx()

	_ = repo.Upsert(ctx, CallRecord{ID: "c1", MerchantID: "m1", CustomerPhone: "+15550001111"})
	if _, err := repo.GetByID(ctx, "m2", "c1"); err == nil {
		t.Fatalf("expected not found across merchants")
	}
}
