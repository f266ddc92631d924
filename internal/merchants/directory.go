package merchants

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"convohub-platform/internal/contacts"
)

var (
	ErrUnknownNumber   = errors.New("merchants: unknown number")
	ErrInvalidArgument = errors.New("merchants: invalid argument")
)

// Directory resolves which merchant owns a provisioned phone number.
// Webhook handlers use it to scope inbound traffic to a tenant.
type Directory interface {
	ResolveNumber(ctx context.Context, number string) (merchantID string, err error)
}

// MemoryDirectory is an in-memory number directory for tests and
// single-tenant local runs.
type MemoryDirectory struct {
	mu      sync.Mutex
	numbers map[string]string
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{numbers: map[string]string{}}
}

func (d *MemoryDirectory) Assign(number, merchantID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.numbers[contacts.NormalizePhone(number)] = merchantID
}

func (d *MemoryDirectory) ResolveNumber(ctx context.Context, number string) (string, error) {
	normalized := contacts.NormalizePhone(number)
	if normalized == "" {
		return "", ErrInvalidArgument
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if mid, ok := d.numbers[normalized]; ok {
		return mid, nil
	}
	return "", ErrUnknownNumber
}

// PostgresDirectory resolves numbers from persistent assignments.
//
// Assumed schema:
//
//	CREATE TABLE merchant_numbers (
//	  number TEXT PRIMARY KEY,
//	  merchant_id TEXT NOT NULL
//	);
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory { return &PostgresDirectory{db: db} }

func (d *PostgresDirectory) ResolveNumber(ctx context.Context, number string) (string, error) {
	normalized := contacts.NormalizePhone(number)
	if normalized == "" {
		return "", ErrInvalidArgument
	}
	const q = `SELECT merchant_id FROM merchant_numbers WHERE number = $1`
	var merchantID string
	err := d.db.QueryRowContext(ctx, q, normalized).Scan(&merchantID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUnknownNumber
	}
	if err != nil {
		return "", err
	}
	return merchantID, nil
}
