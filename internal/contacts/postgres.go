package contacts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepo persists customers in the customers table.
//
// Assumed schema:
//
//	CREATE TABLE customers (
//	  id TEXT PRIMARY KEY,
//	  merchant_id TEXT NOT NULL,
//	  first_name TEXT NOT NULL DEFAULT '',
//	  last_name TEXT NOT NULL DEFAULT '',
//	  phone TEXT NOT NULL,
//	  tags JSONB NOT NULL DEFAULT '[]',
//	  vehicle_make TEXT NOT NULL DEFAULT '',
//	  vehicle_model TEXT NOT NULL DEFAULT '',
//	  vehicle_year TEXT NOT NULL DEFAULT '',
//	  service_requested TEXT NOT NULL DEFAULT '',
//	  total_spend_minor BIGINT NOT NULL DEFAULT 0,
//	  source TEXT NOT NULL DEFAULT '',
//	  created_at TIMESTAMPTZ NOT NULL,
//	  updated_at TIMESTAMPTZ NOT NULL,
//	  UNIQUE (merchant_id, phone)
//	);
//
// The UNIQUE constraint settles concurrent first-contact inserts; violations
// surface as ErrAlreadyExists and the resolver re-fetches.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const customerColumns = `id, merchant_id, first_name, last_name, phone, tags, vehicle_make, vehicle_model, vehicle_year, service_requested, total_spend_minor, source, created_at, updated_at`

func (r *PostgresRepo) GetByPhone(ctx context.Context, merchantID, phone string) (Customer, error) {
	const q = `
SELECT ` + customerColumns + `
FROM customers
WHERE merchant_id = $1 AND phone = $2
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, merchantID, phone))
}

func (r *PostgresRepo) GetByID(ctx context.Context, merchantID, id string) (Customer, error) {
	const q = `
SELECT ` + customerColumns + `
FROM customers
WHERE merchant_id = $1 AND id = $2
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, merchantID, id))
}

func (r *PostgresRepo) ListByMerchant(ctx context.Context, merchantID string) ([]Customer, error) {
	const q = `
SELECT ` + customerColumns + `
FROM customers
WHERE merchant_id = $1
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Insert(ctx context.Context, c Customer) error {
	const q = `
INSERT INTO customers (` + customerColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`
	tags, err := json.Marshal(tagsOrEmpty(c.Tags))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q,
		c.ID, c.MerchantID, c.FirstName, c.LastName, c.Phone, tags,
		c.VehicleMake, c.VehicleModel, c.VehicleYear, c.ServiceRequested,
		c.TotalSpendMinor, c.Source, c.CreatedAt, c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (r *PostgresRepo) Update(ctx context.Context, c Customer) error {
	const q = `
UPDATE customers
SET first_name = $3, last_name = $4, phone = $5, tags = $6,
    vehicle_make = $7, vehicle_model = $8, vehicle_year = $9,
    service_requested = $10, total_spend_minor = $11, source = $12,
    updated_at = $13
WHERE merchant_id = $1 AND id = $2
`
	tags, err := json.Marshal(tagsOrEmpty(c.Tags))
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q,
		c.MerchantID, c.ID, c.FirstName, c.LastName, c.Phone, tags,
		c.VehicleMake, c.VehicleModel, c.VehicleYear, c.ServiceRequested,
		c.TotalSpendMinor, c.Source, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepo) scanOne(row rowScanner) (Customer, error) {
	var c Customer
	var tags []byte
	err := row.Scan(
		&c.ID, &c.MerchantID, &c.FirstName, &c.LastName, &c.Phone, &tags,
		&c.VehicleMake, &c.VehicleModel, &c.VehicleYear, &c.ServiceRequested,
		&c.TotalSpendMinor, &c.Source, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, err
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &c.Tags); err != nil {
			return Customer{}, err
		}
	}
	return c, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
