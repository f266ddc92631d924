package actions

import "time"

// Action is a follow-up task created from transcript analysis, one per
// recommended next step, linked to the resolved customer.
type Action struct {
	ID         string `json:"id" db:"id"`
	MerchantID string `json:"merchant_id" db:"merchant_id"`
	CustomerID string `json:"customer_id,omitempty" db:"customer_id"`

	Title string `json:"title" db:"title"`

	// Context carries the call summary the action was derived from.
	Context string `json:"context,omitempty" db:"context"`

	// Tags are seeded with "AI" plus the analysis tags.
	Tags []string `json:"tags" db:"tags"`

	Status Status `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)
