package actions

import (
	"context"
	"database/sql"
	"encoding/json"

	"convohub-platform/pkg/utils"
)

// PostgresRepo persists follow-up actions.
//
// Assumed schema:
//
//	CREATE TABLE actions (
//	  id TEXT PRIMARY KEY,
//	  merchant_id TEXT NOT NULL,
//	  customer_id TEXT NOT NULL DEFAULT '',
//	  title TEXT NOT NULL,
//	  context TEXT NOT NULL DEFAULT '',
//	  tags JSONB NOT NULL DEFAULT '[]',
//	  status TEXT NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const actionColumns = `id, merchant_id, customer_id, title, context, tags, status, created_at`

// execer lets insertOne run against the pool or an open transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertOne(ctx context.Context, e execer, a Action) error {
	if a.ID == "" || a.MerchantID == "" || a.Title == "" {
		return ErrInvalidArgument
	}
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO actions (` + actionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err = e.ExecContext(ctx, q,
		a.ID, a.MerchantID, a.CustomerID, a.Title, a.Context, encoded, a.Status, a.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) Insert(ctx context.Context, a Action) error {
	return insertOne(ctx, r.db, a)
}

// InsertBatch writes all actions in one transaction so a failed analysis
// attempt leaves no partial set behind to duplicate on replay.
func (r *PostgresRepo) InsertBatch(ctx context.Context, batch []Action) error {
	if len(batch) == 0 {
		return nil
	}
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, a := range batch {
			if err := insertOne(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresRepo) ListByMerchant(ctx context.Context, merchantID string) ([]Action, error) {
	if merchantID == "" {
		return nil, ErrInvalidArgument
	}
	const q = `
SELECT ` + actionColumns + `
FROM actions
WHERE merchant_id = $1
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		var a Action
		var tags []byte
		if err := rows.Scan(
			&a.ID, &a.MerchantID, &a.CustomerID, &a.Title, &a.Context, &tags, &a.Status, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &a.Tags); err != nil {
				return nil, err
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
