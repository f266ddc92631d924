package timeline

import (
	"testing"
	"time"

	"convohub-platform/internal/calls"
	"convohub-platform/internal/interactions"
)

var t0 = time.Unix(1700000000, 0).UTC()

func phoneRow(id string, at time.Time) interactions.RawInteraction {
	return interactions.RawInteraction{
		ID:           id,
		MerchantID:   "m1",
		ContactPoint: "+15550001111",
		Channel:      interactions.ChannelPhone,
		Direction:    interactions.DirectionInbound,
		CreatedAt:    at,
	}
}

func smsRow(id, content string, dir interactions.Direction, at time.Time) interactions.RawInteraction {
	return interactions.RawInteraction{
		ID:           id,
		MerchantID:   "m1",
		ContactPoint: "+15550001111",
		Channel:      interactions.ChannelSMS,
		Direction:    dir,
		Content:      content,
		CreatedAt:    at,
	}
}

func callRec(id, summary string, at time.Time) calls.CallRecord {
	return calls.CallRecord{
		ID:            id,
		MerchantID:    "m1",
		CustomerPhone: "+15550001111",
		Status:        calls.CallStatusCompleted,
		Summary:       summary,
		CreatedAt:     at,
	}
}

func TestBuild_ExactIDMatchIsAuthoritative(t *testing.T) {
	rows := []interactions.RawInteraction{phoneRow("c1", t0)}
	// A closer-in-time decoy must lose to the exact id match.
	recs := []calls.CallRecord{
		callRec("decoy", "Decoy", t0.Add(1*time.Minute)),
		callRec("c1", "Brake noise", t0.Add(8*time.Minute)),
	}

	entries := Build(rows, recs)
	if len(entries) != 1 {
		// The decoy sits inside the window of the (now enriched) phone
		// entry, so the synthesis pass also suppresses it.
		t.Fatalf("expected a single enriched entry, got %d", len(entries))
	}
	enriched := entries[0]
	if enriched.ID != "c1" {
		t.Fatalf("expected the interaction entry, got %q", enriched.ID)
	}
	if enriched.CallSummary != "Brake noise" || enriched.Kind != KindSystem {
		t.Fatalf("expected exact-id enrichment, got %+v", enriched)
	}
}

func TestBuild_WindowBoundary(t *testing.T) {
	cases := []struct {
		name      string
		delta     time.Duration
		wantMatch bool
	}{
		{"600s apart matches", 600 * time.Second, true},
		{"601s apart does not", 601 * time.Second, false},
		{"9min apart matches", 9 * time.Minute, true},
		{"11min apart does not", 11 * time.Minute, false},
	}
	for _, tc := range cases {
		rows := []interactions.RawInteraction{phoneRow("i1", t0)}
		recs := []calls.CallRecord{callRec("c1", "Brake noise", t0.Add(tc.delta))}

		entries := Build(rows, recs)
		if tc.wantMatch {
			if len(entries) != 1 {
				t.Fatalf("%s: expected 1 merged entry, got %d", tc.name, len(entries))
			}
			if entries[0].CallSummary != "Brake noise" {
				t.Fatalf("%s: expected enrichment, got %+v", tc.name, entries[0])
			}
		} else {
			if len(entries) != 2 {
				t.Fatalf("%s: expected separate entries, got %d", tc.name, len(entries))
			}
		}
	}
}

func TestBuild_PrefersClosestCandidate(t *testing.T) {
	rows := []interactions.RawInteraction{phoneRow("i1", t0)}
	recs := []calls.CallRecord{
		callRec("far", "Far call", t0.Add(9*time.Minute)),
		callRec("near", "Near call", t0.Add(2*time.Minute)),
	}

	entries := Build(rows, recs)
	var merged Entry
	for _, e := range entries {
		if e.ID == "i1" {
			merged = e
		}
	}
	if merged.CallSummary != "Near call" {
		t.Fatalf("expected closest record to win, got %q", merged.CallSummary)
	}
}

func TestBuild_NoDuplicateCalls(t *testing.T) {
	// One real call visible in both stores without a shared id: the
	// interaction is enriched and the record must not be synthesized again.
	rows := []interactions.RawInteraction{phoneRow("i1", t0)}
	recs := []calls.CallRecord{callRec("c1", "Brake noise", t0.Add(4*time.Minute))}

	entries := Build(rows, recs)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry for one real call, got %d", len(entries))
	}
	e := entries[0]
	if e.ID != "i1" || e.CallSummary != "Brake noise" || e.Channel != interactions.ChannelPhone {
		t.Fatalf("unexpected merged entry: %+v", e)
	}
	if !e.CreatedAt.Equal(t0) {
		t.Fatalf("merged entry must keep the interaction timestamp, got %v", e.CreatedAt)
	}
}

func TestBuild_SynthesizesUnseenCallRecords(t *testing.T) {
	rows := []interactions.RawInteraction{
		smsRow("s1", "Hi, do you do brake jobs?", interactions.DirectionInbound, t0),
	}
	recs := []calls.CallRecord{callRec("c9", "Asked about pricing", t0.Add(2*time.Hour))}

	entries := Build(rows, recs)
	if len(entries) != 2 {
		t.Fatalf("expected sms + synthesized call, got %d", len(entries))
	}
	synth := entries[1]
	if synth.ID != "call-c9" {
		t.Fatalf("expected prefixed synthetic id, got %q", synth.ID)
	}
	if synth.Kind != KindSystem || synth.CallSummary != "Asked about pricing" {
		t.Fatalf("unexpected synthesized entry: %+v", synth)
	}
}

func TestBuild_SkipsArtifactlessCallRecords(t *testing.T) {
	recs := []calls.CallRecord{callRec("c1", "", t0)}
	if entries := Build(nil, recs); len(entries) != 0 {
		t.Fatalf("expected no entry for artifactless record, got %d", len(entries))
	}
}

func TestBuild_OrderingAscending(t *testing.T) {
	rows := []interactions.RawInteraction{
		smsRow("s2", "second", interactions.DirectionOutbound, t0.Add(time.Hour)),
		smsRow("s1", "first", interactions.DirectionInbound, t0),
		smsRow("s3", "third", interactions.DirectionInbound, t0.Add(2*time.Hour)),
	}
	recs := []calls.CallRecord{callRec("c1", "call between", t0.Add(90*time.Minute))}

	entries := Build(rows, recs)
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.Before(entries[i-1].CreatedAt) {
			t.Fatalf("entries out of order at %d: %v after %v", i, entries[i].CreatedAt, entries[i-1].CreatedAt)
		}
	}
}

func TestBuild_KindFixedAtConstruction(t *testing.T) {
	rows := []interactions.RawInteraction{
		smsRow("s1", "inbound", interactions.DirectionInbound, t0),
		smsRow("s2", "outbound", interactions.DirectionOutbound, t0.Add(time.Minute)),
		{
			ID: "n1", MerchantID: "m1", ContactPoint: "+15550001111",
			Channel: interactions.ChannelSystem, Direction: interactions.DirectionOutbound,
			Content: "note", CreatedAt: t0.Add(2 * time.Minute),
		},
	}

	entries := Build(rows, nil)
	want := []Kind{KindCustomer, KindAgent, KindSystem}
	for i, e := range entries {
		if e.Kind != want[i] {
			t.Fatalf("entry %d: kind = %q, want %q", i, e.Kind, want[i])
		}
	}
}

func TestBuild_EndToEndScenario(t *testing.T) {
	// RawInteraction i1 (phone, at T) with CallRecord c1 (T+4m, "Brake
	// noise") and no shared id: one enriched entry at T.
	rows := []interactions.RawInteraction{phoneRow("i1", t0)}
	recs := []calls.CallRecord{callRec("c1", "Brake noise", t0.Add(4*time.Minute))}

	entries := Build(rows, recs)
	if len(entries) != 1 {
		t.Fatalf("expected a single enriched entry, got %d", len(entries))
	}
	e := entries[0]
	if e.CallSummary != "Brake noise" || e.Channel != interactions.ChannelPhone || !e.CreatedAt.Equal(t0) {
		t.Fatalf("unexpected entry: %+v", e)
	}
}
