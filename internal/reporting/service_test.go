package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"convohub-platform/internal/calls"
	"convohub-platform/internal/deals"
	"convohub-platform/internal/interactions"
)

func fullDayRange(t0 time.Time) TimeRange {
	return TimeRange{From: t0.Add(-time.Hour), To: t0.Add(23 * time.Hour)}
}

func TestCallsSummary(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := calls.NewMemoryRepo()
	svc := NewService(repo, nil, nil)

	seed := []calls.CallRecord{
		{ID: "c1", MerchantID: "m1", CustomerPhone: "+1555", Status: calls.CallStatusCompleted, DurationSeconds: 100, Transcript: "customer: hi", CreatedAt: t0},
		{ID: "c2", MerchantID: "m1", CustomerPhone: "+1555", Status: calls.CallStatusNoAnswer, CreatedAt: t0.Add(time.Minute)},
		{ID: "c3", MerchantID: "m1", CustomerPhone: "+1777", Status: calls.CallStatusCompleted, DurationSeconds: 50, CreatedAt: t0.Add(2 * time.Minute)},
		// Outside the requested range.
		{ID: "c4", MerchantID: "m1", CustomerPhone: "+1777", Status: calls.CallStatusCompleted, CreatedAt: t0.Add(48 * time.Hour)},
		// Different tenant.
		{ID: "c5", MerchantID: "m2", CustomerPhone: "+1555", Status: calls.CallStatusCompleted, CreatedAt: t0},
	}
	for _, c := range seed {
		if err := repo.Upsert(ctx, c); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	out, err := svc.CallsSummary(ctx, CallsSummaryRequest{MerchantID: "m1", Range: fullDayRange(t0)})
	if err != nil {
		t.Fatalf("CallsSummary: %v", err)
	}
	if out.TotalCalls != 3 || out.CompletedCalls != 2 || out.NoAnswerCalls != 1 {
		t.Fatalf("summary = %+v", out)
	}
	if out.TotalDurationSeconds != 150 || out.AverageDurationSeconds != 50 {
		t.Fatalf("durations = %+v", out)
	}
	if out.TranscribedCalls != 1 {
		t.Fatalf("TranscribedCalls = %d", out.TranscribedCalls)
	}
}

func TestEngagementSummary(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := interactions.NewMemoryRepo()
	svc := NewService(nil, repo, nil)

	seed := []interactions.RawInteraction{
		{ID: "i1", MerchantID: "m1", ContactPoint: "+1555", Channel: interactions.ChannelSMS, Direction: interactions.DirectionInbound, CreatedAt: t0},
		{ID: "i2", MerchantID: "m1", ContactPoint: "+1555", Channel: interactions.ChannelSMS, Direction: interactions.DirectionOutbound, CreatedAt: t0},
		{ID: "i3", MerchantID: "m1", ContactPoint: "+1777", Channel: interactions.ChannelPhone, Direction: interactions.DirectionInbound, CreatedAt: t0},
	}
	for _, row := range seed {
		if err := repo.Append(ctx, row); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	out, err := svc.EngagementSummary(ctx, EngagementSummaryRequest{MerchantID: "m1", Range: fullDayRange(t0)})
	if err != nil {
		t.Fatalf("EngagementSummary: %v", err)
	}
	if out.TotalInteractions != 3 || out.InboundMessages != 1 || out.OutboundMessages != 1 || out.PhoneInteractions != 1 {
		t.Fatalf("summary = %+v", out)
	}
	if out.UniqueContactPoints != 2 {
		t.Fatalf("UniqueContactPoints = %d", out.UniqueContactPoints)
	}
}

func TestPipelineSummary(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := deals.NewMemoryRepo()
	svc := NewService(nil, nil, repo)

	seed := []deals.Deal{
		{ID: "d1", MerchantID: "m1", Status: deals.StatusNewInquiry, ValueMinor: 10000, CreatedAt: t0},
		{ID: "d2", MerchantID: "m1", Status: deals.StatusBooked, ValueMinor: 25000, CreatedAt: t0},
		{ID: "d3", MerchantID: "m1", Status: deals.StatusNewInquiry, ValueMinor: 5000, CreatedAt: t0.Add(72 * time.Hour)},
	}
	for _, d := range seed {
		if err := repo.Insert(ctx, d); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	out, err := svc.PipelineSummary(ctx, PipelineSummaryRequest{MerchantID: "m1", Range: fullDayRange(t0)})
	if err != nil {
		t.Fatalf("PipelineSummary: %v", err)
	}
	if out.DealsCreated != 2 || out.TotalValueMinor != 35000 {
		t.Fatalf("summary = %+v", out)
	}
	if out.DealsByStatus["new_inquiry"] != 1 || out.DealsByStatus["booked"] != 1 {
		t.Fatalf("by status = %+v", out.DealsByStatus)
	}
}

func TestSummaries_InvalidRequests(t *testing.T) {
	svc := NewService(calls.NewMemoryRepo(), interactions.NewMemoryRepo(), deals.NewMemoryRepo())
	badRange := TimeRange{From: time.Now(), To: time.Now().Add(-time.Hour)}

	if _, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{MerchantID: "", Range: fullDayRange(time.Now())}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.EngagementSummary(context.Background(), EngagementSummaryRequest{MerchantID: "m1", Range: badRange}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.PipelineSummary(context.Background(), PipelineSummaryRequest{MerchantID: "m1"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v", err)
	}
}
