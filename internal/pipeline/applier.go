package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"convohub-platform/internal/actions"
	"convohub-platform/internal/analysis"
	"convohub-platform/internal/audit"
	"convohub-platform/internal/calls"
	"convohub-platform/internal/contacts"
	"convohub-platform/internal/deals"
)

// dealConfidenceThreshold gates deal creation. Strictly greater-than:
// a pipeline confidence of exactly 50 does not create a deal.
const dealConfidenceThreshold = 50

// actionTag marks follow-up actions produced from an analysis rather than
// entered by a human.
const actionTag = "AI"

// Step names used in logs and audit events.
const (
	stepCustomer = "customer_reconciliation"
	stepDeal     = "deal_creation"
	stepActions  = "action_creation"
)

// Outcome reports what one applier pass actually wrote.
type Outcome struct {
	CustomerID     string `json:"customer_id,omitempty"`
	DealID         string `json:"deal_id,omitempty"`
	ActionsCreated int    `json:"actions_created"`

	// FailedSteps lists steps that errored. Each step runs regardless of
	// earlier failures.
	FailedSteps []string `json:"failed_steps,omitempty"`
}

// Applier persists the signals of one analysis result.
//
// The three steps (customer reconciliation, deal creation, action creation)
// are each fault-isolated: a failure is logged and audited, the remaining
// steps still run, and the caller never receives an error. Writes are
// idempotent where re-delivery can occur: tag merges are set unions and name
// overwrites are placeholder-guarded, so re-applying the same result is safe.
// Deals and actions are append-only; re-applying duplicates those, which the
// queue consumer tolerates as at-least-once delivery.
type Applier struct {
	resolver  *contacts.Resolver
	customers contacts.Repository
	deals     deals.Repository
	actions   actions.Repository
	audit     *audit.Service
	logger    *slog.Logger
	clock     func() time.Time
}

func NewApplier(resolver *contacts.Resolver, customers contacts.Repository, dealRepo deals.Repository, actionRepo actions.Repository, auditSvc *audit.Service, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{
		resolver:  resolver,
		customers: customers,
		deals:     dealRepo,
		actions:   actionRepo,
		audit:     auditSvc,
		logger:    logger,
		clock:     time.Now,
	}
}

// Apply writes an analysis result against the customer behind the call.
func (a *Applier) Apply(ctx context.Context, merchantID string, call calls.CallRecord, res analysis.Result) Outcome {
	log := a.logger.With("merchant_id", merchantID, "call_id", call.ID)
	out := Outcome{}

	customer, err := a.reconcileCustomer(ctx, merchantID, call, res)
	if err != nil {
		a.stepFailed(ctx, log, &out, merchantID, call.ID, stepCustomer, err)
	} else {
		out.CustomerID = customer.ID
	}

	if dealID, err := a.createDeal(ctx, merchantID, call, res, out.CustomerID); err != nil {
		a.stepFailed(ctx, log, &out, merchantID, call.ID, stepDeal, err)
	} else {
		out.DealID = dealID
	}

	created, err := a.createActions(ctx, merchantID, res, out.CustomerID)
	out.ActionsCreated = created
	if err != nil {
		a.stepFailed(ctx, log, &out, merchantID, call.ID, stepActions, err)
	}

	if a.audit != nil {
		if err := a.audit.LogAnalysisApplied(ctx, merchantID, call.ID, out.CustomerID, ""); err != nil {
			log.Warn("audit append failed", "error", err)
		}
	}
	return out
}

// reconcileCustomer resolves the customer behind the call and merges
// extracted identity data under the placeholder guard.
func (a *Applier) reconcileCustomer(ctx context.Context, merchantID string, call calls.CallRecord, res analysis.Result) (contacts.Customer, error) {
	customer, err := a.resolver.ResolveOrCreate(ctx, merchantID, call.CustomerPhone, "", "analysis")
	if err != nil {
		return contacts.Customer{}, err
	}

	before := customer
	customer.MergeTags(res.Tags)
	mergeIdentity(&customer, res.CustomerInfo)

	if !changed(before, customer) {
		return customer, nil
	}
	customer.UpdatedAt = a.clock().UTC()
	if err := a.customers.Update(ctx, customer); err != nil {
		return customer, err
	}
	return customer, nil
}

// mergeIdentity applies the non-destructive merge rules: an extracted value
// lands only on a placeholder or empty stored field, and never from a
// low-confidence extraction. Verified customer data is never clobbered.
func mergeIdentity(c *contacts.Customer, info analysis.CustomerInfo) {
	if info.Confidence == analysis.ConfidenceLow {
		return
	}
	if c.HasPlaceholderName() && info.FirstName != "" {
		c.FirstName = info.FirstName
		if info.LastName != "" {
			c.LastName = info.LastName
		} else if strings.TrimSpace(c.LastName) == contacts.PlaceholderLastName {
			c.LastName = ""
		}
	}
	if c.VehicleMake == "" && info.VehicleMake != "" {
		c.VehicleMake = info.VehicleMake
	}
	if c.VehicleModel == "" && info.VehicleModel != "" {
		c.VehicleModel = info.VehicleModel
	}
	if c.VehicleYear == "" && info.VehicleYear != "" {
		c.VehicleYear = info.VehicleYear
	}
	if c.ServiceRequested == "" && info.ServiceRequested != "" {
		c.ServiceRequested = info.ServiceRequested
	}
}

func (a *Applier) createDeal(ctx context.Context, merchantID string, call calls.CallRecord, res analysis.Result, customerID string) (string, error) {
	if res.Pipeline.Confidence <= dealConfidenceThreshold {
		return "", nil
	}

	status := deals.Status(res.Pipeline.Status)
	if !deals.ValidStatus(status) {
		status = deals.StatusNewInquiry
	}
	title := res.Pipeline.Title
	if title == "" {
		title = res.Summary
	}

	d := deals.Deal{
		ID:            uuid.NewString(),
		MerchantID:    merchantID,
		CustomerID:    customerID,
		CustomerPhone: contacts.NormalizePhone(call.CustomerPhone),
		Status:        status,
		Title:         title,
		Priority:      res.Pipeline.Priority,
		ValueMinor:    res.Pipeline.DealValue,
		CreatedAt:     a.clock().UTC(),
	}
	if err := a.deals.Insert(ctx, d); err != nil {
		return "", err
	}
	return d.ID, nil
}

// createActions builds one follow-up action per suggested next step and
// writes them as a single batch. All-or-nothing: a replayed job after a
// failed attempt must not find half the set already persisted.
func (a *Applier) createActions(ctx context.Context, merchantID string, res analysis.Result, customerID string) (int, error) {
	tags := append([]string{actionTag}, res.Tags...)
	batch := make([]actions.Action, 0, len(res.NextActions))
	for _, next := range res.NextActions {
		next = strings.TrimSpace(next)
		if next == "" {
			continue
		}
		batch = append(batch, actions.Action{
			ID:         uuid.NewString(),
			MerchantID: merchantID,
			CustomerID: customerID,
			Title:      next,
			Context:    res.Summary,
			Tags:       tags,
			Status:     actions.StatusPending,
			CreatedAt:  a.clock().UTC(),
		})
	}
	if len(batch) == 0 {
		return 0, nil
	}
	if err := a.actions.InsertBatch(ctx, batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}

func (a *Applier) stepFailed(ctx context.Context, log *slog.Logger, out *Outcome, merchantID, callID, step string, err error) {
	out.FailedSteps = append(out.FailedSteps, step)
	log.Error("applier step failed", "step", step, "error", err)
	if a.audit != nil {
		if auditErr := a.audit.LogStepFailure(ctx, merchantID, callID, step, err.Error()); auditErr != nil {
			log.Warn("audit append failed", "error", auditErr)
		}
	}
}

func changed(before, after contacts.Customer) bool {
	if len(before.Tags) != len(after.Tags) {
		return true
	}
	return before.FirstName != after.FirstName ||
		before.LastName != after.LastName ||
		before.VehicleMake != after.VehicleMake ||
		before.VehicleModel != after.VehicleModel ||
		before.VehicleYear != after.VehicleYear ||
		before.ServiceRequested != after.ServiceRequested
}
