package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r TimeRange) valid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.To.After(r.From)
}

func (r TimeRange) contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

// CallsSummaryRequest requests aggregated call metrics.
// Tenant isolation: MerchantID is required.

type CallsSummaryRequest struct {
	MerchantID string    `json:"merchant_id"`
	Range      TimeRange `json:"range"`
}

type CallsSummary struct {
	MerchantID string `json:"merchant_id"`

	TotalCalls      int `json:"total_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`
	NoAnswerCalls   int `json:"no_answer_calls"`
	BusyCalls       int `json:"busy_calls"`
	CanceledCalls   int `json:"canceled_calls"`
	InProgressCalls int `json:"in_progress_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	TranscribedCalls int `json:"transcribed_calls"`
}

// EngagementSummaryRequest requests cross-channel activity metrics.

type EngagementSummaryRequest struct {
	MerchantID string    `json:"merchant_id"`
	Range      TimeRange `json:"range"`
}

type EngagementSummary struct {
	MerchantID string `json:"merchant_id"`

	TotalInteractions   int `json:"total_interactions"`
	InboundMessages     int `json:"inbound_messages"`
	OutboundMessages    int `json:"outbound_messages"`
	PhoneInteractions   int `json:"phone_interactions"`
	UniqueContactPoints int `json:"unique_contact_points"`
}

// PipelineSummaryRequest requests deal-creation metrics, i.e. what the
// analysis pipeline actually produced for the merchant.

type PipelineSummaryRequest struct {
	MerchantID string    `json:"merchant_id"`
	Range      TimeRange `json:"range"`
}

type PipelineSummary struct {
	MerchantID string `json:"merchant_id"`

	DealsCreated    int   `json:"deals_created"`
	TotalValueMinor int64 `json:"total_value_minor"`

	DealsByStatus map[string]int `json:"deals_by_status"`
}
