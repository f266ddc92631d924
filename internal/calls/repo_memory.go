package calls

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrNotFound        = errors.New("calls: not found")
	ErrInvalidArgument = errors.New("calls: invalid argument")
	ErrAlreadyExists   = errors.New("calls: call record already exists")
)

// Repository is the persistence contract for call records.
type Repository interface {
	Upsert(ctx context.Context, c CallRecord) error
	GetByID(ctx context.Context, merchantID, id string) (CallRecord, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]CallRecord, error)
	ListByContactPoint(ctx context.Context, merchantID, contactPoint string) ([]CallRecord, error)
}

// MemoryRepo is an in-memory call record store for tests and early development.
type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]CallRecord // keyed by id
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{rows: map[string]CallRecord{}} }

// Upsert inserts or replaces a call record. Provider webhooks deliver status
// transitions for the same call id, so the last write for an id wins.
func (r *MemoryRepo) Upsert(ctx context.Context, c CallRecord) error {
	if c.ID == "" || c.MerchantID == "" || c.CustomerPhone == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.rows[c.ID]; ok && old.MerchantID != c.MerchantID {
		return ErrAlreadyExists
	}
	r.rows[c.ID] = c
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, merchantID, id string) (CallRecord, error) {
	if merchantID == "" || id == "" {
		return CallRecord{}, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok || c.MerchantID != merchantID {
		return CallRecord{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) ListByMerchant(ctx context.Context, merchantID string) ([]CallRecord, error) {
	if merchantID == "" {
		return nil, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, 0)
	for _, c := range r.rows {
		if c.MerchantID == merchantID {
			out = append(out, c)
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func (r *MemoryRepo) ListByContactPoint(ctx context.Context, merchantID, contactPoint string) ([]CallRecord, error) {
	if merchantID == "" || contactPoint == "" {
		return nil, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, 0)
	for _, c := range r.rows {
		if c.MerchantID == merchantID && c.CustomerPhone == contactPoint {
			out = append(out, c)
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func sortByCreatedAt(rows []CallRecord) {
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].CreatedAt.Before(rows[b].CreatedAt)
	})
}
