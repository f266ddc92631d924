package actions

import (
	"context"
	"errors"
	"sync"
)

var ErrInvalidArgument = errors.New("actions: invalid argument")

// Repository is the persistence contract for follow-up actions.
//
// InsertBatch is all-or-nothing: a replayed analysis job must not duplicate
// the actions a half-failed earlier attempt already wrote.
type Repository interface {
	Insert(ctx context.Context, a Action) error
	InsertBatch(ctx context.Context, batch []Action) error
	ListByMerchant(ctx context.Context, merchantID string) ([]Action, error)
}

// MemoryRepo is an in-memory action store for tests and early development.
type MemoryRepo struct {
	mu   sync.Mutex
	rows []Action
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(ctx context.Context, a Action) error {
	if a.ID == "" || a.MerchantID == "" || a.Title == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, a)
	return nil
}

func (r *MemoryRepo) InsertBatch(ctx context.Context, batch []Action) error {
	// Validate everything before writing anything.
	for _, a := range batch {
		if a.ID == "" || a.MerchantID == "" || a.Title == "" {
			return ErrInvalidArgument
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, batch...)
	return nil
}

func (r *MemoryRepo) ListByMerchant(ctx context.Context, merchantID string) ([]Action, error) {
	if merchantID == "" {
		return nil, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Action, 0)
	for _, a := range r.rows {
		if a.MerchantID == merchantID {
			out = append(out, a)
		}
	}
	return out, nil
}
