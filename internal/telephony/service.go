package telephony

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"convohub-platform/internal/calls"
	"convohub-platform/internal/contacts"
	"convohub-platform/internal/interactions"
	"convohub-platform/internal/pipeline"
)

var ErrInvalidWebhook = errors.New("telephony: invalid webhook payload")

// Ingestor turns provider webhooks into interaction-feed rows and call
// records, and dispatches completed transcribed calls to the analysis queue.
//
// Customer resolution is best-effort: a resolver failure degrades to an
// empty customer id, it never fails the webhook.
type Ingestor struct {
	Interactions interactions.Repository
	Calls        calls.Repository
	Resolver     *contacts.Resolver

	// Queue is optional; nil disables analysis dispatch.
	Queue pipeline.Queue

	Logger *slog.Logger
	Now    func() time.Time
}

// IngestSMS records one inbound message on the interaction feed.
func (s *Ingestor) IngestSMS(ctx context.Context, merchantID string, form TwilioSMSForm) (interactions.RawInteraction, error) {
	if merchantID == "" || form.MessageSid == "" || form.From == "" {
		return interactions.RawInteraction{}, ErrInvalidWebhook
	}
	log := s.logger().With("merchant_id", merchantID, "message_sid", form.MessageSid)
	contactPoint := contacts.NormalizePhone(form.From)

	var customerID string
	if s.Resolver != nil {
		customer, err := s.Resolver.ResolveOrCreate(ctx, merchantID, contactPoint, "", "sms")
		if err != nil {
			log.Warn("customer resolution degraded", "error", err)
		} else {
			customerID = customer.ID
		}
	}

	row := interactions.RawInteraction{
		ID:           form.MessageSid,
		MerchantID:   merchantID,
		ContactPoint: contactPoint,
		Channel:      interactions.ChannelSMS,
		Direction:    interactions.DirectionInbound,
		Content:      form.Body,
		CustomerID:   customerID,
		CreatedAt:    s.now(),
	}
	if err := s.Interactions.Append(ctx, row); err != nil {
		if errors.Is(err, interactions.ErrAlreadyExists) {
			// Webhook redelivery; the first write stands.
			return row, nil
		}
		return interactions.RawInteraction{}, err
	}
	return row, nil
}

// IngestVoiceEvent upserts the call record for a status or transcription
// callback. A completed call with a transcript is handed to the analysis
// queue; dispatch is fire-and-forget relative to the webhook.
func (s *Ingestor) IngestVoiceEvent(ctx context.Context, merchantID string, form TwilioVoiceForm) (calls.CallRecord, error) {
	if merchantID == "" || form.CallSid == "" {
		return calls.CallRecord{}, ErrInvalidWebhook
	}
	log := s.logger().With("merchant_id", merchantID, "call_sid", form.CallSid)

	rec := calls.CallRecord{
		ID:            form.CallSid,
		MerchantID:    merchantID,
		CustomerPhone: contacts.NormalizePhone(customerNumber(form)),
		Direction:     form.Direction,
		Status:        CallStatusFromTwilio(form.CallStatus),
		Transcript:    form.TranscriptionText,
		CreatedAt:     s.now(),
	}
	if d, err := strconv.Atoi(form.CallDuration); err == nil {
		rec.DurationSeconds = d
	}

	// Status and transcription callbacks arrive independently; keep data
	// already written by the other one.
	if existing, err := s.Calls.GetByID(ctx, merchantID, form.CallSid); err == nil {
		rec.CreatedAt = existing.CreatedAt
		if rec.Transcript == "" {
			rec.Transcript = existing.Transcript
		}
		if rec.Summary == "" {
			rec.Summary = existing.Summary
		}
		if rec.DurationSeconds == 0 {
			rec.DurationSeconds = existing.DurationSeconds
		}
	}

	if err := s.Calls.Upsert(ctx, rec); err != nil {
		return calls.CallRecord{}, err
	}

	if rec.Status == calls.CallStatusCompleted && rec.Transcript != "" {
		s.dispatchAnalysis(ctx, log, merchantID, rec.ID)
	}
	return rec, nil
}

func (s *Ingestor) dispatchAnalysis(ctx context.Context, log *slog.Logger, merchantID, callID string) {
	if s.Queue == nil {
		return
	}
	job := pipeline.Job{MerchantID: merchantID, CallID: callID}
	if err := s.Queue.Enqueue(ctx, job); err != nil {
		// Analysis is best-effort; the call record itself is saved.
		log.Error("analysis dispatch failed", "error", err)
		return
	}
	log.Info("analysis job enqueued")
}

// customerNumber picks the customer-side leg of the call.
func customerNumber(form TwilioVoiceForm) string {
	if form.Direction != "" && form.Direction != "inbound" {
		return form.To
	}
	return form.From
}

func (s *Ingestor) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Ingestor) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
