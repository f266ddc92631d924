package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// minTranscriptLen short-circuits analysis of noise: hangups, voicemail
// stubs, single-word transcripts.
const minTranscriptLen = 20

const shortTranscriptSummary = "Call too short to analyze"

// maxServiceLen caps the free-text service field before persistence.
const maxServiceLen = 100

const promptTemplate = `You are a call-analysis engine for an auto service business.
Analyze the phone call transcript below and return a single JSON object, nothing else.

SCHEMA (STRICT - RETURN ONLY JSON):
{
  "rating": 0,
  "summary": "",
  "next_actions": [],
  "tags": [],
  "customer_info": {
    "first_name": "",
    "last_name": "",
    "vehicle_make": "",
    "vehicle_model": "",
    "vehicle_year": "",
    "service_requested": "",
    "confidence": "low"
  },
  "pipeline": {
    "status": "",
    "title": "",
    "deal_value": 0,
    "priority": "",
    "confidence": 0
  },
  "confidence": "low"
}

RULES:
1. rating is 0-10; higher means a more successful call.
2. pipeline.confidence is 0-100: your percentage certainty that a real sales
   opportunity exists. pipeline.status must be one of new_inquiry, quote_sent,
   follow_up, booked, lost. deal_value is in cents.
3. customer_info.confidence and the top-level confidence are one of high,
   medium, low. Leave fields empty rather than guessing.
4. Do not invent details absent from the transcript.
5. Do not wrap the JSON in backticks or add commentary.

TRANSCRIPT:
%s`

// Analyzer extracts structured signals from call transcripts.
//
// Analyze never fails its caller: provider errors and malformed completions
// degrade to a low-confidence zero result carrying the error in the summary.
type Analyzer struct {
	Provider Provider
	Logger   *slog.Logger
}

func NewAnalyzer(provider Provider, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{Provider: provider, Logger: logger}
}

// Analyze runs one transcript through the provider and post-processes the
// extraction.
func (a *Analyzer) Analyze(ctx context.Context, input TranscriptInput) Result {
	text := strings.TrimSpace(input.Text())
	if len(text) < minTranscriptLen {
		return emptyResult(shortTranscriptSummary)
	}

	completion, err := a.Provider.Complete(ctx, fmt.Sprintf(promptTemplate, text))
	if err != nil {
		a.Logger.Warn("transcript analysis degraded", "error", err)
		return emptyResult("Analysis failed: " + err.Error())
	}

	var res Result
	if err := json.Unmarshal([]byte(stripCodeFence(completion)), &res); err != nil {
		a.Logger.Warn("transcript analysis returned malformed JSON", "error", err)
		return emptyResult("Analysis failed: " + err.Error())
	}

	sanitize(&res)
	return res
}

// stripCodeFence removes a markdown code-fence wrapper (```json ... ```)
// some models insist on despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 && !strings.HasPrefix(s, "{") {
		// drop the language hint line ("json")
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var yearRe = regexp.MustCompile(`\b(\d{4})\b`)

// sanitize normalizes a parsed extraction in place: clamps numeric ranges,
// coerces junk free-text values to absent, validates the vehicle year, and
// truncates over-long service text.
func sanitize(r *Result) {
	r.Rating = clamp(r.Rating, 0, 10)
	r.Pipeline.Confidence = clamp(r.Pipeline.Confidence, 0, 100)
	r.Confidence = normalizeConfidence(r.Confidence)
	r.CustomerInfo.Confidence = normalizeConfidence(r.CustomerInfo.Confidence)

	if r.NextActions == nil {
		r.NextActions = []string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}

	r.CustomerInfo.FirstName = cleanText(r.CustomerInfo.FirstName)
	r.CustomerInfo.LastName = cleanText(r.CustomerInfo.LastName)
	r.CustomerInfo.VehicleMake = cleanText(r.CustomerInfo.VehicleMake)
	r.CustomerInfo.VehicleModel = cleanText(r.CustomerInfo.VehicleModel)
	r.CustomerInfo.VehicleYear = cleanYear(r.CustomerInfo.VehicleYear)

	// Truncate on rune boundaries; a byte slice could split a multi-byte
	// rune and persist invalid UTF-8.
	service := cleanText(r.CustomerInfo.ServiceRequested)
	if runes := []rune(service); len(runes) > maxServiceLen {
		service = string(runes[:maxServiceLen])
	}
	r.CustomerInfo.ServiceRequested = service
}

// cleanText coerces the literal junk values models emit for absent data.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "undefined":
		return ""
	}
	return s
}

// cleanYear accepts a vehicle year only when a plausible 4-digit year is
// found in the raw value.
func cleanYear(s string) string {
	m := yearRe.FindString(cleanText(s))
	if m == "" {
		return ""
	}
	year, err := strconv.Atoi(m)
	if err != nil || year < 1980 || year > 2030 {
		return ""
	}
	return m
}

func normalizeConfidence(c Confidence) Confidence {
	switch Confidence(strings.ToLower(string(c))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
