package interactions

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrInvalidArgument = errors.New("interactions: invalid argument")
	ErrAlreadyExists   = errors.New("interactions: interaction already exists")
)

// Repository is the persistence contract for the unified interaction feed.
// Rows are append-only; there is deliberately no update or delete.
type Repository interface {
	Append(ctx context.Context, i RawInteraction) error
	ListByMerchant(ctx context.Context, merchantID string) ([]RawInteraction, error)
	ListByContactPoint(ctx context.Context, merchantID, contactPoint string) ([]RawInteraction, error)
}

// MemoryRepo is an in-memory interaction feed for tests and early development.
type MemoryRepo struct {
	mu   sync.Mutex
	rows []RawInteraction
	ids  map[string]struct{}
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{ids: map[string]struct{}{}} }

func (r *MemoryRepo) Append(ctx context.Context, i RawInteraction) error {
	if i.ID == "" || i.MerchantID == "" || i.ContactPoint == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.ids[i.ID]; dup {
		return ErrAlreadyExists
	}
	r.ids[i.ID] = struct{}{}
	r.rows = append(r.rows, i)
	return nil
}

func (r *MemoryRepo) ListByMerchant(ctx context.Context, merchantID string) ([]RawInteraction, error) {
	if merchantID == "" {
		return nil, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RawInteraction, 0)
	for _, row := range r.rows {
		if row.MerchantID == merchantID {
			out = append(out, row)
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func (r *MemoryRepo) ListByContactPoint(ctx context.Context, merchantID, contactPoint string) ([]RawInteraction, error) {
	if merchantID == "" || contactPoint == "" {
		return nil, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RawInteraction, 0)
	for _, row := range r.rows {
		if row.MerchantID == merchantID && row.ContactPoint == contactPoint {
			out = append(out, row)
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func sortByCreatedAt(rows []RawInteraction) {
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].CreatedAt.Before(rows[b].CreatedAt)
	})
}
