package telephony

import (
	"net/http"
	"strings"

	"convohub-platform/internal/calls"
)

// TwilioSMSForm captures the subset of inbound-message webhook fields we
// care about. Twilio sends application/x-www-form-urlencoded by default.
// Ref: https://www.twilio.com/docs/messaging/guides/webhook-request
//
// Keep it minimal and provider-adapter-only.
// Business logic (reconciliation, analysis) is not made here.

type TwilioSMSForm struct {
	MessageSid string
	AccountSid string
	From       string
	To         string
	Body       string
}

func ParseTwilioSMS(r *http.Request) (TwilioSMSForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioSMSForm{}, err
	}
	f := TwilioSMSForm{
		MessageSid: r.PostFormValue("MessageSid"),
		AccountSid: r.PostFormValue("AccountSid"),
		From:       trimField(r.PostFormValue("From")),
		To:         trimField(r.PostFormValue("To")),
		Body:       r.PostFormValue("Body"),
	}
	return f, nil
}

// TwilioVoiceForm captures the voice status-callback fields this pipeline
// consumes. TranscriptionText arrives on transcription callbacks only.

type TwilioVoiceForm struct {
	CallSid           string
	AccountSid        string
	From              string
	To                string
	Direction         string
	CallStatus        string
	CallDuration      string
	CallerName        string
	TranscriptionText string
}

func ParseTwilioVoice(r *http.Request) (TwilioVoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioVoiceForm{}, err
	}
	f := TwilioVoiceForm{
		CallSid:           r.PostFormValue("CallSid"),
		AccountSid:        r.PostFormValue("AccountSid"),
		From:              trimField(r.PostFormValue("From")),
		To:                trimField(r.PostFormValue("To")),
		Direction:         r.PostFormValue("Direction"),
		CallStatus:        r.PostFormValue("CallStatus"),
		CallDuration:      r.PostFormValue("CallDuration"),
		CallerName:        r.PostFormValue("CallerName"),
		TranscriptionText: r.PostFormValue("TranscriptionText"),
	}
	return f, nil
}

func trimField(s string) string {
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return strings.TrimSpace(s)
}

// CallStatusFromTwilio maps Twilio call statuses onto the internal set.
// Unknown values map to queued rather than failing the webhook.
func CallStatusFromTwilio(s string) calls.CallStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ringing":
		return calls.CallStatusRinging
	case "in-progress":
		return calls.CallStatusInProgress
	case "completed":
		return calls.CallStatusCompleted
	case "busy":
		return calls.CallStatusBusy
	case "failed":
		return calls.CallStatusFailed
	case "no-answer":
		return calls.CallStatusNoAnswer
	case "canceled":
		return calls.CallStatusCanceled
	default:
		return calls.CallStatusQueued
	}
}
