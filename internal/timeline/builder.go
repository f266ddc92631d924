package timeline

import (
	"sort"
	"strings"
	"time"

	"convohub-platform/internal/calls"
	"convohub-platform/internal/interactions"
)

// ReconciliationWindow is the tolerance used to match an interaction row to a
// call record lacking a shared identifier. The boundary is inclusive: records
// exactly 600 seconds apart match, 601 seconds apart do not.
//
// The constant is a fixed heuristic; keep it stable for behavioral
// compatibility across channel handlers.
const ReconciliationWindow = 10 * time.Minute

// syntheticIDPrefix guarantees synthesized entry ids never collide with
// interaction ids.
const syntheticIDPrefix = "call-"

// Kind classifies a timeline entry. It is decided once at construction from
// direction + channel and never re-derived.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindAgent    Kind = "agent"
	KindSystem   Kind = "system"
)

// Entry is one rendered unit of a conversation. Entries are derived, never
// persisted independently; Build constructs them fresh per read.
type Entry struct {
	ID         string               `json:"id"`
	Kind       Kind                 `json:"type"`
	Content    string               `json:"content"`
	SenderName string               `json:"sender_name,omitempty"`
	Channel    interactions.Channel `json:"channel"`

	CallSummary    string `json:"call_summary,omitempty"`
	CallTranscript string `json:"call_transcript,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Build merges one contact point's interaction rows and call records into a
// single ordered, duplicate-free entry sequence.
//
// The two stores are independently eventually-consistent: the feed may carry
// a call the record store never saw, and vice versa. Reconciliation therefore
// runs in both directions: phone interactions are enriched from matching
// call records, then call records invisible to the feed are synthesized as
// standalone entries, without ever emitting the same call twice.
//
// Matching per phone interaction:
//  1. Exact-ID match (CallRecord.ID == RawInteraction.ID) is authoritative.
//  2. Otherwise the closest call record within ReconciliationWindow wins.
//
// A call record consumed by either rule is excluded from synthesis. Records
// with neither summary nor transcript are never synthesized (nothing to show).
func Build(rows []interactions.RawInteraction, callRecords []calls.CallRecord) []Entry {
	entries := make([]Entry, 0, len(rows))
	consumed := make(map[string]bool, len(callRecords))
	interactionIDs := make(map[string]bool, len(rows))

	for _, row := range rows {
		interactionIDs[row.ID] = true
		e := Entry{
			ID:        row.ID,
			Kind:      kindFor(row.Direction, row.Channel),
			Content:   row.Content,
			Channel:   row.Channel,
			CreatedAt: row.CreatedAt,
		}

		if row.Channel == interactions.ChannelPhone {
			if rec, ok := matchCallRecord(row, callRecords, consumed); ok {
				consumed[rec.ID] = true
				e.Kind = KindSystem
				e.CallSummary = rec.Summary
				e.CallTranscript = rec.Transcript
				if strings.TrimSpace(e.Content) == "" && rec.Summary != "" {
					e.Content = rec.Summary
				}
			}
		}

		entries = append(entries, e)
	}

	for _, rec := range callRecords {
		if consumed[rec.ID] || !rec.HasArtifacts() {
			continue
		}
		// The consumption test is re-run against the assembled entries: an
		// id collision with any interaction, or temporal proximity to any
		// phone entry, means this call is already represented.
		if interactionIDs[rec.ID] || nearAnyPhoneEntry(rec, entries) {
			continue
		}
		content := rec.Summary
		if strings.TrimSpace(content) == "" {
			content = "Phone call"
		}
		entries = append(entries, Entry{
			ID:             syntheticIDPrefix + rec.ID,
			Kind:           KindSystem,
			Content:        content,
			Channel:        interactions.ChannelPhone,
			CallSummary:    rec.Summary,
			CallTranscript: rec.Transcript,
			CreatedAt:      rec.CreatedAt,
		})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].CreatedAt.Before(entries[b].CreatedAt)
	})
	return entries
}

// matchCallRecord finds the call record backing a phone interaction.
// Exact-ID match is authoritative; otherwise the unconsumed record with the
// smallest timestamp delta inside ReconciliationWindow is chosen.
func matchCallRecord(row interactions.RawInteraction, callRecords []calls.CallRecord, consumed map[string]bool) (calls.CallRecord, bool) {
	for _, rec := range callRecords {
		if rec.ID == row.ID {
			return rec, true
		}
	}

	best := -1
	var bestDelta time.Duration
	for i, rec := range callRecords {
		if consumed[rec.ID] {
			continue
		}
		delta := absDelta(row.CreatedAt, rec.CreatedAt)
		if delta > ReconciliationWindow {
			continue
		}
		if best == -1 || delta < bestDelta {
			best = i
			bestDelta = delta
		}
	}
	if best == -1 {
		return calls.CallRecord{}, false
	}
	return callRecords[best], true
}

func nearAnyPhoneEntry(rec calls.CallRecord, entries []Entry) bool {
	for _, e := range entries {
		if e.Channel != interactions.ChannelPhone {
			continue
		}
		if absDelta(e.CreatedAt, rec.CreatedAt) <= ReconciliationWindow {
			return true
		}
	}
	return false
}

func kindFor(direction interactions.Direction, channel interactions.Channel) Kind {
	if channel == interactions.ChannelSystem {
		return KindSystem
	}
	if direction == interactions.DirectionInbound {
		return KindCustomer
	}
	return KindAgent
}

func absDelta(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
