package interactions

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepo persists the interaction feed.
//
// Assumed schema:
//
//	CREATE TABLE interactions (
//	  id TEXT PRIMARY KEY,
//	  merchant_id TEXT NOT NULL,
//	  contact_point TEXT NOT NULL,
//	  channel TEXT NOT NULL,
//	  direction TEXT NOT NULL,
//	  content TEXT NOT NULL DEFAULT '',
//	  customer_id TEXT NOT NULL DEFAULT '',
//	  created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX ON interactions (merchant_id, contact_point, created_at);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const interactionColumns = `id, merchant_id, contact_point, channel, direction, content, customer_id, created_at`

func (r *PostgresRepo) Append(ctx context.Context, i RawInteraction) error {
	if i.ID == "" || i.MerchantID == "" || i.ContactPoint == "" {
		return ErrInvalidArgument
	}
	const q = `
INSERT INTO interactions (` + interactionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err := r.db.ExecContext(ctx, q,
		i.ID, i.MerchantID, i.ContactPoint, i.Channel, i.Direction, i.Content, i.CustomerID, i.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}
	return err
}

func (r *PostgresRepo) ListByMerchant(ctx context.Context, merchantID string) ([]RawInteraction, error) {
	if merchantID == "" {
		return nil, ErrInvalidArgument
	}
	const q = `
SELECT ` + interactionColumns + `
FROM interactions
WHERE merchant_id = $1
ORDER BY created_at
`
	return r.list(ctx, q, merchantID)
}

func (r *PostgresRepo) ListByContactPoint(ctx context.Context, merchantID, contactPoint string) ([]RawInteraction, error) {
	if merchantID == "" || contactPoint == "" {
		return nil, ErrInvalidArgument
	}
	const q = `
SELECT ` + interactionColumns + `
FROM interactions
WHERE merchant_id = $1 AND contact_point = $2
ORDER BY created_at
`
	return r.list(ctx, q, merchantID, contactPoint)
}

func (r *PostgresRepo) list(ctx context.Context, q string, args ...any) ([]RawInteraction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RawInteraction
	for rows.Next() {
		var i RawInteraction
		if err := rows.Scan(
			&i.ID, &i.MerchantID, &i.ContactPoint, &i.Channel, &i.Direction, &i.Content, &i.CustomerID, &i.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
