package calls

import (
	"strings"
	"time"
)

// CallRecord represents a merchant-scoped phone call with its post-call
// artifacts (summary, transcript).
//
// Multi-tenant invariant: MerchantID is required on every row.
//
// Rows are immutable once Status is completed; the reconciliation pipeline
// only reads them. A call may or may not have a matching row in the
// interaction feed; the two stores are independently eventually-consistent,
// which is why the timeline builder reconciles from both directions.
type CallRecord struct {
	ID         string `json:"id" db:"id"`
	MerchantID string `json:"merchant_id" db:"merchant_id"`

	// CustomerPhone is the normalized contact point for this call.
	CustomerPhone string `json:"customer_phone" db:"customer_phone"`

	Direction string     `json:"direction" db:"direction"`
	Status    CallStatus `json:"status" db:"status"`

	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	Summary string `json:"summary,omitempty" db:"summary"`

	// Transcript is the normalized plain-text transcript
	// ("speaker: utterance" lines). Turn-list payloads are flattened at
	// ingest time.
	Transcript string `json:"transcript,omitempty" db:"transcript"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no_answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCanceled   CallStatus = "canceled"
)

// HasArtifacts reports whether the call carries anything worth rendering.
// A record with neither summary nor transcript is never synthesized into a
// standalone timeline entry.
func (c CallRecord) HasArtifacts() bool {
	return strings.TrimSpace(c.Summary) != "" || strings.TrimSpace(c.Transcript) != ""
}
