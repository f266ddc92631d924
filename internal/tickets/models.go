package tickets

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Ticket is a merchant-scoped support/work ticket. This pipeline only reads
// tickets; it attaches the first matching open ticket to a conversation view.
type Ticket struct {
	ID         string `json:"id" db:"id"`
	MerchantID string `json:"merchant_id" db:"merchant_id"`
	CustomerID string `json:"customer_id" db:"customer_id"`

	Status   Status `json:"status" db:"status"`
	Priority string `json:"priority,omitempty" db:"priority"`
	Title    string `json:"title" db:"title"`

	VehicleMake  string `json:"vehicle_make,omitempty" db:"vehicle_make"`
	VehicleModel string `json:"vehicle_model,omitempty" db:"vehicle_model"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

// IsOpen reports whether the ticket should surface on an active conversation.
func (t Ticket) IsOpen() bool {
	return t.Status == StatusOpen || t.Status == StatusInProgress
}

var ErrInvalidArgument = errors.New("tickets: invalid argument")

// Repository is the read-only lookup contract this pipeline needs.
type Repository interface {
	ListByMerchant(ctx context.Context, merchantID string) ([]Ticket, error)
}

// MemoryRepo is an in-memory ticket lookup for tests and early development.
type MemoryRepo struct {
	mu      sync.Mutex
	Tickets []Ticket
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListByMerchant(ctx context.Context, merchantID string) ([]Ticket, error) {
	if merchantID == "" {
		return nil, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Ticket, 0)
	for _, t := range r.Tickets {
		if t.MerchantID == merchantID {
			out = append(out, t)
		}
	}
	return out, nil
}
