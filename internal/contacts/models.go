package contacts

import (
	"strings"
	"time"
)

// Customer is a merchant-scoped identity record keyed by normalized phone.
//
// Multi-tenant invariant: MerchantID is required on every row, and
// (merchant_id, phone) is unique. Concurrent first-contact events race on
// read-then-insert; the unique constraint is the arbiter and insert conflicts
// are treated as "customer already exists, re-fetch".
//
// Customers are never deleted by this pipeline. Identity fields start as
// placeholders and are only overwritten under the placeholder-guarded rules
// in internal/pipeline.
type Customer struct {
	ID         string `json:"id" db:"id"`
	MerchantID string `json:"merchant_id" db:"merchant_id"`

	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Phone     string `json:"phone" db:"phone"`

	// Tags behave as a set; merges are unions and re-applying the same
	// tags is a no-op.
	Tags []string `json:"tags" db:"tags"`

	VehicleMake      string `json:"vehicle_make,omitempty" db:"vehicle_make"`
	VehicleModel     string `json:"vehicle_model,omitempty" db:"vehicle_model"`
	VehicleYear      string `json:"vehicle_year,omitempty" db:"vehicle_year"`
	ServiceRequested string `json:"service_requested,omitempty" db:"service_requested"`

	TotalSpendMinor int64 `json:"total_spend_minor" db:"total_spend_minor"`

	// Source records provenance of the record ("sms", "call", "analysis", ...).
	Source string `json:"source,omitempty" db:"source"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Placeholder identity values for customers created lazily on first contact.
const (
	PlaceholderFirstName = "Unknown"
	PlaceholderLastName  = "Caller"
)

// DisplayName renders the customer name for conversation views.
func (c Customer) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return PlaceholderFirstName + " " + PlaceholderLastName
	}
	return name
}

// HasPlaceholderName reports whether the first name is still unverified.
// Empty counts as placeholder; extraction may fill it in.
func (c Customer) HasPlaceholderName() bool {
	fn := strings.TrimSpace(c.FirstName)
	return fn == "" || fn == PlaceholderFirstName
}

// HasTag reports set membership.
func (c Customer) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MergeTags unions new tags into the customer's tag set, preserving order of
// first appearance. Idempotent: merging the same tags twice changes nothing.
func (c *Customer) MergeTags(tags []string) {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || c.HasTag(t) {
			continue
		}
		c.Tags = append(c.Tags, t)
	}
}

// NormalizePhone canonicalizes a phone number into a contact point key.
// Formatting characters are stripped; an international 00 prefix becomes +.
// Anything non-numeric (e.g. "anonymous") is passed through trimmed so the
// caller can still key on it consistently.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// formatting noise
		default:
			// Not a phone number at all; keep the raw trimmed value.
			return s
		}
	}

	out := b.String()
	if strings.HasPrefix(out, "00") {
		out = "+" + out[2:]
	}
	return out
}
