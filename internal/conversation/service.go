package conversation

import (
	"context"
	"errors"
	"sort"

	"convohub-platform/internal/calls"
	"convohub-platform/internal/contacts"
	"convohub-platform/internal/deals"
	"convohub-platform/internal/interactions"
	"convohub-platform/internal/tickets"
	"convohub-platform/internal/timeline"
)

var (
	ErrInvalidRequest = errors.New("conversation: invalid request")
	ErrNotFound       = errors.New("conversation: not found")
)

// Service produces conversation views for a merchant.
//
// Reads are a small fixed set of independent per-merchant queries joined in
// memory; aggregation happens in mutable builder structs keyed by contact
// point and is finalized into immutable Thread values before returning.
type Service struct {
	Interactions interactions.Repository
	Calls        calls.Repository
	Customers    contacts.Repository
	Tickets      tickets.Repository
	Deals        deals.Repository
}

// threadBuilder accumulates one contact point's raw material during grouping.
// Never exposed to callers.
type threadBuilder struct {
	contactPoint string
	rows         []interactions.RawInteraction
	callRecords  []calls.CallRecord
}

// ListThreads returns every conversation for the merchant, most recent first.
func (s *Service) ListThreads(ctx context.Context, merchantID string) ([]Thread, error) {
	if merchantID == "" {
		return nil, ErrInvalidRequest
	}

	rows, err := s.Interactions.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	callRecords, err := s.Calls.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	builders := map[string]*threadBuilder{}
	order := []string{}
	get := func(cp string) *threadBuilder {
		b, ok := builders[cp]
		if !ok {
			b = &threadBuilder{contactPoint: cp}
			builders[cp] = b
			order = append(order, cp)
		}
		return b
	}

	for _, row := range rows {
		b := get(row.ContactPoint)
		b.rows = append(b.rows, row)
	}
	// Call records invisible to the interaction feed still open a thread.
	for _, rec := range callRecords {
		b := get(rec.CustomerPhone)
		b.callRecords = append(b.callRecords, rec)
	}

	lookups, err := s.loadLookups(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	threads := make([]Thread, 0, len(builders))
	for _, cp := range order {
		b := builders[cp]
		th := s.finalize(merchantID, b, lookups)
		if len(th.Messages) == 0 {
			// Nothing renderable (e.g. only artifactless call records).
			continue
		}
		threads = append(threads, th)
	}

	sort.SliceStable(threads, func(a, b int) bool {
		return threads[a].LastMessageAt.After(threads[b].LastMessageAt)
	})
	return threads, nil
}

// GetThread returns the conversation for one contact point.
func (s *Service) GetThread(ctx context.Context, merchantID, contactPoint string) (Thread, error) {
	if merchantID == "" || contactPoint == "" {
		return Thread{}, ErrInvalidRequest
	}
	contactPoint = contacts.NormalizePhone(contactPoint)

	rows, err := s.Interactions.ListByContactPoint(ctx, merchantID, contactPoint)
	if err != nil {
		return Thread{}, err
	}
	callRecords, err := s.Calls.ListByContactPoint(ctx, merchantID, contactPoint)
	if err != nil {
		return Thread{}, err
	}
	if len(rows) == 0 && len(callRecords) == 0 {
		return Thread{}, ErrNotFound
	}

	lookups, err := s.loadLookups(ctx, merchantID)
	if err != nil {
		return Thread{}, err
	}

	b := &threadBuilder{contactPoint: contactPoint, rows: rows, callRecords: callRecords}
	return s.finalize(merchantID, b, lookups), nil
}

type lookupTables struct {
	customersByPhone map[string]contacts.Customer
	tickets          []tickets.Ticket
	deals            []deals.Deal
}

func (s *Service) loadLookups(ctx context.Context, merchantID string) (lookupTables, error) {
	out := lookupTables{customersByPhone: map[string]contacts.Customer{}}

	if s.Customers != nil {
		customers, err := s.Customers.ListByMerchant(ctx, merchantID)
		if err != nil {
			return lookupTables{}, err
		}
		for _, c := range customers {
			out.customersByPhone[c.Phone] = c
		}
	}
	if s.Tickets != nil {
		tix, err := s.Tickets.ListByMerchant(ctx, merchantID)
		if err != nil {
			return lookupTables{}, err
		}
		out.tickets = tix
	}
	if s.Deals != nil {
		dls, err := s.Deals.ListByMerchant(ctx, merchantID)
		if err != nil {
			return lookupTables{}, err
		}
		out.deals = dls
	}
	return out, nil
}

func (s *Service) finalize(merchantID string, b *threadBuilder, lookups lookupTables) Thread {
	entries := timeline.Build(b.rows, b.callRecords)

	var customer *contacts.Customer
	if c, ok := lookups.customersByPhone[b.contactPoint]; ok {
		customer = &c
	}

	return Assemble(merchantID, b.contactPoint, entries, customer, lookups.tickets, lookups.deals)
}
