package actions

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepo_InsertBatchValidatesBeforeWriting(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	now := time.Unix(1_700_000_000, 0).UTC()

	batch := []Action{
		{ID: "a1", MerchantID: "m1", Title: "Call back", Status: StatusPending, CreatedAt: now},
		{ID: "a2", MerchantID: "m1", Title: "", Status: StatusPending, CreatedAt: now},
	}
	if err := repo.InsertBatch(ctx, batch); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("InsertBatch = %v, want ErrInvalidArgument", err)
	}

	rows, err := repo.ListByMerchant(ctx, "m1")
	if err != nil {
		t.Fatalf("ListByMerchant: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %+v, invalid batch must write nothing", rows)
	}

	batch[1].Title = "Order brake pads"
	if err := repo.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	rows, _ = repo.ListByMerchant(ctx, "m1")
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
}
