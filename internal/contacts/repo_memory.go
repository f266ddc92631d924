package contacts

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory customer repository for tests and early development.
// It enforces merchant isolation and the (merchant_id, phone) uniqueness the
// resolver depends on.
type MemoryRepo struct {
	mu        sync.Mutex
	byID      map[string]Customer
	phoneIdx  map[string]string // merchant|phone -> id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]Customer{}, phoneIdx: map[string]string{}}
}

func phoneKey(merchantID, phone string) string { return merchantID + "|" + phone }

func (r *MemoryRepo) GetByPhone(ctx context.Context, merchantID, phone string) (Customer, error) {
	if merchantID == "" || phone == "" {
		return Customer{}, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.phoneIdx[phoneKey(merchantID, phone)]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, merchantID, id string) (Customer, error) {
	if merchantID == "" || id == "" {
		return Customer{}, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok || c.MerchantID != merchantID {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) ListByMerchant(ctx context.Context, merchantID string) ([]Customer, error) {
	if merchantID == "" {
		return nil, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Customer, 0)
	for _, c := range r.byID {
		if c.MerchantID == merchantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) Insert(ctx context.Context, c Customer) error {
	if c.MerchantID == "" || c.ID == "" || c.Phone == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := phoneKey(c.MerchantID, c.Phone)
	if _, taken := r.phoneIdx[key]; taken {
		return ErrAlreadyExists
	}
	r.byID[c.ID] = c
	r.phoneIdx[key] = c.ID
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, c Customer) error {
	if c.MerchantID == "" || c.ID == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byID[c.ID]
	if !ok || old.MerchantID != c.MerchantID {
		return ErrNotFound
	}
	if old.Phone != c.Phone {
		delete(r.phoneIdx, phoneKey(old.MerchantID, old.Phone))
		r.phoneIdx[phoneKey(c.MerchantID, c.Phone)] = c.ID
	}
	r.byID[c.ID] = c
	return nil
}
