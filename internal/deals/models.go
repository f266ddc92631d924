package deals

import "time"

// Deal is a sales-pipeline record created when transcript analysis reports a
// sufficiently confident deal signal.
//
// Deals are append-only in this pipeline: the applier never searches for or
// updates an existing deal. The value is stored in minor units.
type Deal struct {
	ID         string `json:"id" db:"id"`
	MerchantID string `json:"merchant_id" db:"merchant_id"`
	CustomerID string `json:"customer_id" db:"customer_id"`

	// CustomerPhone keeps the deal joinable to a conversation even when
	// customer resolution degraded to an empty customer id.
	CustomerPhone string `json:"customer_phone" db:"customer_phone"`

	Status   Status `json:"status" db:"status"`
	Title    string `json:"title" db:"title"`
	Priority string `json:"priority,omitempty" db:"priority"`

	ValueMinor int64 `json:"value_minor" db:"value_minor"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Status is the closed set of pipeline stages a deal can carry.
type Status string

const (
	StatusNewInquiry Status = "new_inquiry"
	StatusQuoteSent  Status = "quote_sent"
	StatusFollowUp   Status = "follow_up"
	StatusBooked     Status = "booked"
	StatusLost       Status = "lost"
)

// ValidStatus reports whether s is one of the fixed pipeline stages.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNewInquiry, StatusQuoteSent, StatusFollowUp, StatusBooked, StatusLost:
		return true
	default:
		return false
	}
}
