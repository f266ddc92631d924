package deals

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrInvalidArgument = errors.New("deals: invalid argument")

// Repository is the persistence contract for deals. Insert-only from this
// pipeline's perspective; reads serve the conversation assembler.
type Repository interface {
	Insert(ctx context.Context, d Deal) error
	ListByMerchant(ctx context.Context, merchantID string) ([]Deal, error)
}

// MemoryRepo is an in-memory deal store for tests and early development.
type MemoryRepo struct {
	mu   sync.Mutex
	rows []Deal
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(ctx context.Context, d Deal) error {
	if d.ID == "" || d.MerchantID == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, d)
	return nil
}

func (r *MemoryRepo) ListByMerchant(ctx context.Context, merchantID string) ([]Deal, error) {
	if merchantID == "" {
		return nil, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Deal, 0)
	for _, d := range r.rows {
		if d.MerchantID == merchantID {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}
