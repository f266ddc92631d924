package calls

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo persists call records.
//
// Assumed schema:
//
//	CREATE TABLE call_records (
//	  id TEXT PRIMARY KEY,
//	  merchant_id TEXT NOT NULL,
//	  customer_phone TEXT NOT NULL,
//	  direction TEXT NOT NULL,
//	  status TEXT NOT NULL,
//	  duration_seconds INT NOT NULL DEFAULT 0,
//	  summary TEXT NOT NULL DEFAULT '',
//	  transcript TEXT NOT NULL DEFAULT '',
//	  created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX ON call_records (merchant_id, customer_phone, created_at);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const callColumns = `id, merchant_id, customer_phone, direction, status, duration_seconds, summary, transcript, created_at`

func (r *PostgresRepo) Upsert(ctx context.Context, c CallRecord) error {
	if c.ID == "" || c.MerchantID == "" || c.CustomerPhone == "" {
		return ErrInvalidArgument
	}
	const q = `
INSERT INTO call_records (` + callColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE
SET status = EXCLUDED.status,
    duration_seconds = EXCLUDED.duration_seconds,
    summary = EXCLUDED.summary,
    transcript = EXCLUDED.transcript
WHERE call_records.merchant_id = EXCLUDED.merchant_id
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.MerchantID, c.CustomerPhone, c.Direction, c.Status,
		c.DurationSeconds, c.Summary, c.Transcript, c.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) GetByID(ctx context.Context, merchantID, id string) (CallRecord, error) {
	if merchantID == "" || id == "" {
		return CallRecord{}, ErrInvalidArgument
	}
	const q = `
SELECT ` + callColumns + `
FROM call_records
WHERE merchant_id = $1 AND id = $2
`
	var c CallRecord
	err := r.db.QueryRowContext(ctx, q, merchantID, id).Scan(
		&c.ID, &c.MerchantID, &c.CustomerPhone, &c.Direction, &c.Status,
		&c.DurationSeconds, &c.Summary, &c.Transcript, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return CallRecord{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) ListByMerchant(ctx context.Context, merchantID string) ([]CallRecord, error) {
	if merchantID == "" {
		return nil, ErrInvalidArgument
	}
	const q = `
SELECT ` + callColumns + `
FROM call_records
WHERE merchant_id = $1
ORDER BY created_at
`
	return r.list(ctx, q, merchantID)
}

func (r *PostgresRepo) ListByContactPoint(ctx context.Context, merchantID, contactPoint string) ([]CallRecord, error) {
	if merchantID == "" || contactPoint == "" {
		return nil, ErrInvalidArgument
	}
	const q = `
SELECT ` + callColumns + `
FROM call_records
WHERE merchant_id = $1 AND customer_phone = $2
ORDER BY created_at
`
	return r.list(ctx, q, merchantID, contactPoint)
}

func (r *PostgresRepo) list(ctx context.Context, q string, args ...any) ([]CallRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		var c CallRecord
		if err := rows.Scan(
			&c.ID, &c.MerchantID, &c.CustomerPhone, &c.Direction, &c.Status,
			&c.DurationSeconds, &c.Summary, &c.Transcript, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
