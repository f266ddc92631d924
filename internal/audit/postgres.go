package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo persists audit events. INSERT-only; the table should carry a
// trigger rejecting UPDATE/DELETE so the trail survives application bugs.
//
// Assumed schema:
//
//	CREATE TABLE audit_events (
//	  id TEXT PRIMARY KEY,
//	  merchant_id TEXT NOT NULL,
//	  type TEXT NOT NULL,
//	  call_id TEXT NOT NULL DEFAULT '',
//	  customer_id TEXT NOT NULL DEFAULT '',
//	  step TEXT NOT NULL DEFAULT '',
//	  message TEXT NOT NULL DEFAULT '',
//	  metadata TEXT NOT NULL DEFAULT '',
//	  created_at TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const eventColumns = `id, merchant_id, type, call_id, customer_id, step, message, metadata, created_at`

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	if e.ID == "" || e.MerchantID == "" || e.Type == "" {
		return ErrInvalidEvent
	}
	const q = `
INSERT INTO audit_events (` + eventColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.MerchantID, e.Type, e.CallID, e.CustomerID, e.Step, e.Message, e.Metadata, e.CreatedAt,
	)
	return err
}

// ListByMerchant returns a merchant's trail oldest-first, for ops inspection.
func (r *PostgresRepo) ListByMerchant(ctx context.Context, merchantID string) ([]Event, error) {
	if merchantID == "" {
		return nil, ErrInvalidEvent
	}
	const q = `
SELECT ` + eventColumns + `
FROM audit_events
WHERE merchant_id = $1
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.MerchantID, &e.Type, &e.CallID, &e.CustomerID, &e.Step, &e.Message, &e.Metadata, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
