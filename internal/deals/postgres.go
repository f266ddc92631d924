package deals

import (
	"context"
	"database/sql"
)

// PostgresRepo persists deals.
//
// Assumed schema:
//
//	CREATE TABLE deals (
//	  id TEXT PRIMARY KEY,
//	  merchant_id TEXT NOT NULL,
//	  customer_id TEXT NOT NULL DEFAULT '',
//	  customer_phone TEXT NOT NULL DEFAULT '',
//	  status TEXT NOT NULL,
//	  title TEXT NOT NULL DEFAULT '',
//	  priority TEXT NOT NULL DEFAULT '',
//	  value_minor BIGINT NOT NULL DEFAULT 0,
//	  created_at TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const dealColumns = `id, merchant_id, customer_id, customer_phone, status, title, priority, value_minor, created_at`

func (r *PostgresRepo) Insert(ctx context.Context, d Deal) error {
	if d.ID == "" || d.MerchantID == "" {
		return ErrInvalidArgument
	}
	const q = `
INSERT INTO deals (` + dealColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err := r.db.ExecContext(ctx, q,
		d.ID, d.MerchantID, d.CustomerID, d.CustomerPhone, d.Status, d.Title, d.Priority, d.ValueMinor, d.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) ListByMerchant(ctx context.Context, merchantID string) ([]Deal, error) {
	if merchantID == "" {
		return nil, ErrInvalidArgument
	}
	const q = `
SELECT ` + dealColumns + `
FROM deals
WHERE merchant_id = $1
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Deal
	for rows.Next() {
		var d Deal
		if err := rows.Scan(
			&d.ID, &d.MerchantID, &d.CustomerID, &d.CustomerPhone, &d.Status, &d.Title, &d.Priority, &d.ValueMinor, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
