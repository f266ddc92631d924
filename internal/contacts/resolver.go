package contacts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("contacts: not found")
	ErrAlreadyExists   = errors.New("contacts: customer already exists")
	ErrInvalidArgument = errors.New("contacts: invalid argument")
)

// Repository is the persistence contract for customers.
//
// Insert must fail with ErrAlreadyExists when (merchant_id, phone) is taken;
// the resolver relies on that to settle first-contact races.
type Repository interface {
	GetByPhone(ctx context.Context, merchantID, phone string) (Customer, error)
	GetByID(ctx context.Context, merchantID, id string) (Customer, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]Customer, error)
	Insert(ctx context.Context, c Customer) error
	Update(ctx context.Context, c Customer) error
}

// Resolver maps a contact point (phone number) to a customer identity,
// creating a placeholder customer on first contact.
//
// Callers whose primary operation must not fail should treat resolver errors
// as degradation signals: proceed with an empty customer id and render
// entries under the "Unknown Caller" label.
type Resolver struct {
	repo  Repository
	clock func() time.Time
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo, clock: time.Now}
}

// ResolveOrCreate looks up a customer by exact normalized-phone match within
// the merchant scope, creating a placeholder record when none exists.
// displayName is optional; when present it seeds the placeholder name fields.
func (r *Resolver) ResolveOrCreate(ctx context.Context, merchantID, phone, displayName, source string) (Customer, error) {
	if merchantID == "" {
		return Customer{}, ErrInvalidArgument
	}
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return Customer{}, ErrInvalidArgument
	}
	if r.repo == nil {
		return Customer{}, errors.New("contacts: repository not configured")
	}

	existing, err := r.repo.GetByPhone(ctx, merchantID, normalized)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Customer{}, err
	}

	first, last := splitDisplayName(displayName)
	now := r.clock().UTC()
	c := Customer{
		ID:         uuid.NewString(),
		MerchantID: merchantID,
		FirstName:  first,
		LastName:   last,
		Phone:      normalized,
		Source:     source,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := r.repo.Insert(ctx, c); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			// Lost a first-contact race; the winner's row is the customer.
			return r.repo.GetByPhone(ctx, merchantID, normalized)
		}
		return Customer{}, err
	}
	return c, nil
}

func splitDisplayName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return PlaceholderFirstName, PlaceholderLastName
	}
	parts := strings.Fields(name)
	if len(parts) == 1 {
		return parts[0], PlaceholderLastName
	}
	return parts[0], strings.Join(parts[1:], " ")
}
