package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only; no Update/Delete methods exist.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.MerchantID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogAnalysisApplied records a completed applier pass for a call.
func (s *Service) LogAnalysisApplied(ctx context.Context, merchantID, callID, customerID, metadata string) error {
	return s.Append(ctx, Event{
		MerchantID: merchantID,
		Type:       EventTypeAnalysisApplied,
		CallID:     callID,
		CustomerID: customerID,
		Message:    "analysis applied",
		Metadata:   metadata,
	})
}

// LogStepFailure records a fault-isolated applier step that failed.
func (s *Service) LogStepFailure(ctx context.Context, merchantID, callID, step, message string) error {
	return s.Append(ctx, Event{
		MerchantID: merchantID,
		Type:       EventTypeStepFailed,
		CallID:     callID,
		Step:       step,
		Message:    message,
	})
}
