package conversation

import (
	"time"

	"convohub-platform/internal/deals"
	"convohub-platform/internal/interactions"
	"convohub-platform/internal/tickets"
	"convohub-platform/internal/timeline"
)

// Thread is the externally consumed conversation view for one contact point.
//
// Invariants:
// - exactly one Thread per contact point per merchant
// - Messages are sorted ascending by created_at
// - no two messages represent the same underlying call record
//
// Threads are assembled fresh per read and are immutable once returned.
type Thread struct {
	ID           string `json:"id"`
	MerchantID   string `json:"merchant_id"`
	ContactPoint string `json:"contact_point"`

	CustomerID    string `json:"customer_id,omitempty"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Vehicle       string `json:"vehicle,omitempty"`

	Messages []timeline.Entry `json:"messages"`

	Channels       []interactions.Channel `json:"channels"`
	PrimaryChannel interactions.Channel   `json:"primary_channel"`

	Ticket *tickets.Ticket `json:"ticket,omitempty"`
	Deal   *deals.Deal     `json:"deal,omitempty"`

	Tags []string `json:"tags"`

	LastMessageAt time.Time `json:"last_message_at"`
	Unread        bool      `json:"unread"`
}

// UnknownCallerLabel is rendered when customer resolution degraded.
const UnknownCallerLabel = "Unknown Caller"
