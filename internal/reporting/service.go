package reporting

import (
	"context"
	"errors"

	"convohub-platform/internal/calls"
	"convohub-platform/internal/deals"
	"convohub-platform/internal/interactions"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Service aggregates read-only metrics over the merchant's stores.
//
// All queries are merchant-scoped; range filtering happens in memory over the
// per-merchant list, which stays small at the volumes this pipeline handles.
type Service struct {
	Calls        calls.Repository
	Interactions interactions.Repository
	Deals        deals.Repository
}

func NewService(callRepo calls.Repository, interRepo interactions.Repository, dealRepo deals.Repository) *Service {
	return &Service{Calls: callRepo, Interactions: interRepo, Deals: dealRepo}
}

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.MerchantID == "" || !req.Range.valid() {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.Calls == nil {
		return CallsSummary{}, errors.New("reporting: calls repository not configured")
	}

	rows, err := s.Calls.ListByMerchant(ctx, req.MerchantID)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{MerchantID: req.MerchantID}
	for _, c := range rows {
		if !req.Range.contains(c.CreatedAt) {
			continue
		}
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		if c.Transcript != "" {
			out.TranscribedCalls++
		}
		switch c.Status {
		case calls.CallStatusCompleted:
			out.CompletedCalls++
		case calls.CallStatusFailed:
			out.FailedCalls++
		case calls.CallStatusNoAnswer:
			out.NoAnswerCalls++
		case calls.CallStatusBusy:
			out.BusyCalls++
		case calls.CallStatusCanceled:
			out.CanceledCalls++
		case calls.CallStatusInProgress:
			out.InProgressCalls++
		case calls.CallStatusRinging, calls.CallStatusQueued:
			// not counted separately
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}

func (s *Service) EngagementSummary(ctx context.Context, req EngagementSummaryRequest) (EngagementSummary, error) {
	if req.MerchantID == "" || !req.Range.valid() {
		return EngagementSummary{}, ErrInvalidRequest
	}
	if s.Interactions == nil {
		return EngagementSummary{}, errors.New("reporting: interactions repository not configured")
	}

	rows, err := s.Interactions.ListByMerchant(ctx, req.MerchantID)
	if err != nil {
		return EngagementSummary{}, err
	}

	out := EngagementSummary{MerchantID: req.MerchantID}
	seen := map[string]bool{}
	for _, row := range rows {
		if !req.Range.contains(row.CreatedAt) {
			continue
		}
		out.TotalInteractions++
		if !seen[row.ContactPoint] {
			seen[row.ContactPoint] = true
			out.UniqueContactPoints++
		}
		if row.Channel == interactions.ChannelPhone {
			out.PhoneInteractions++
			continue
		}
		switch row.Direction {
		case interactions.DirectionInbound:
			out.InboundMessages++
		case interactions.DirectionOutbound:
			out.OutboundMessages++
		}
	}
	return out, nil
}

func (s *Service) PipelineSummary(ctx context.Context, req PipelineSummaryRequest) (PipelineSummary, error) {
	if req.MerchantID == "" || !req.Range.valid() {
		return PipelineSummary{}, ErrInvalidRequest
	}
	if s.Deals == nil {
		return PipelineSummary{}, errors.New("reporting: deals repository not configured")
	}

	rows, err := s.Deals.ListByMerchant(ctx, req.MerchantID)
	if err != nil {
		return PipelineSummary{}, err
	}

	out := PipelineSummary{MerchantID: req.MerchantID, DealsByStatus: map[string]int{}}
	for _, d := range rows {
		if !req.Range.contains(d.CreatedAt) {
			continue
		}
		out.DealsCreated++
		out.TotalValueMinor += d.ValueMinor
		out.DealsByStatus[string(d.Status)]++
	}
	return out, nil
}
