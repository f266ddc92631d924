package analysis

import (
	"encoding/json"
	"strings"
)

// Confidence is the analyzer's coarse self-assessment of the whole result.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// CustomerInfo carries identity fields extracted from a transcript, plus the
// extractor's confidence for this block specifically. Low-confidence blocks
// never overwrite stored customer data.
type CustomerInfo struct {
	FirstName        string     `json:"first_name,omitempty"`
	LastName         string     `json:"last_name,omitempty"`
	VehicleMake      string     `json:"vehicle_make,omitempty"`
	VehicleModel     string     `json:"vehicle_model,omitempty"`
	VehicleYear      string     `json:"vehicle_year,omitempty"`
	ServiceRequested string     `json:"service_requested,omitempty"`
	Confidence       Confidence `json:"confidence"`
}

// PipelineSignal is the extractor's judgement on whether the call carries a
// sales opportunity. Confidence is a 0-100 percentage; the applier creates a
// deal only for strictly greater than 50.
type PipelineSignal struct {
	Status     string `json:"status,omitempty"`
	Title      string `json:"title,omitempty"`
	DealValue  int64  `json:"deal_value"`
	Priority   string `json:"priority,omitempty"`
	Confidence int    `json:"confidence"`
}

// Result is the structured output of one transcript analysis.
//
// Results are ephemeral: produced per analysis call, returned to the trigger,
// and partially persisted by the applier. Rating is 0-10, higher meaning a
// more successful call.
type Result struct {
	Rating       int            `json:"rating"`
	Summary      string         `json:"summary"`
	NextActions  []string       `json:"next_actions"`
	Tags         []string       `json:"tags"`
	CustomerInfo CustomerInfo   `json:"customer_info"`
	Pipeline     PipelineSignal `json:"pipeline"`
	Confidence   Confidence     `json:"confidence"`
}

// emptyResult returns the zero-signal result shell so list fields always
// serialize as [] instead of null.
func emptyResult(summary string) Result {
	return Result{
		Summary:     summary,
		NextActions: []string{},
		Tags:        []string{},
		CustomerInfo: CustomerInfo{
			Confidence: ConfidenceLow,
		},
		Confidence: ConfidenceLow,
	}
}

// Turn is one speaker-tagged utterance of a structured transcript payload.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// TranscriptInput accepts either wire shape of a transcript: a plain string,
// or a list of speaker-tagged turns.
type TranscriptInput struct {
	raw   string
	turns []Turn
}

// NewTranscript wraps an already-plain transcript string.
func NewTranscript(s string) TranscriptInput { return TranscriptInput{raw: s} }

// NewTurnTranscript wraps a structured turn list.
func NewTurnTranscript(turns []Turn) TranscriptInput { return TranscriptInput{turns: turns} }

func (t *TranscriptInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TranscriptInput{raw: s}
		return nil
	}
	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return err
	}
	*t = TranscriptInput{turns: turns}
	return nil
}

// Text normalizes the input into a single block: turn lists become
// "speaker: utterance" lines in original order.
func (t TranscriptInput) Text() string {
	if t.turns == nil {
		return t.raw
	}
	lines := make([]string, 0, len(t.turns))
	for _, turn := range t.turns {
		speaker := turn.Speaker
		if speaker == "" {
			speaker = "unknown"
		}
		lines = append(lines, speaker+": "+turn.Text)
	}
	return strings.Join(lines, "\n")
}
