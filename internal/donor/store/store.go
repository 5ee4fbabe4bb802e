package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Africa-Access-Water/afaw-api/internal/database"
	"github.com/Africa-Access-Water/afaw-api/internal/donor"
)

type Store struct {
	db database.DBTX
}

func New(db database.DBTX) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, name, email, stripe_customer_id, created_at
func scanDonor(s scanner) (*donor.Donor, error) {
	var d donor.Donor

	var customerRef sql.NullString

	if err := s.Scan(&d.ID, &d.Name, &d.Email, &customerRef, &d.CreatedAt); err != nil {
		return nil, err
	}

	if customerRef.Valid {
		d.CustomerRef = &customerRef.String
	}

	return &d, nil
}

const selectDonorColumns = `id, name, email, stripe_customer_id, created_at`

// CreateDonor inserts the donor, or adopts the existing row when a concurrent checkout registered the same email first.
func (s *Store) CreateDonor(ctx context.Context, d *donor.Donor) error {
	query := `
		INSERT INTO donors (name, email, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT ((LOWER(email))) DO UPDATE SET email = EXCLUDED.email
		RETURNING ` + selectDonorColumns

	created, err := scanDonor(s.db.QueryRowContext(ctx, query, d.Name, donor.NormalizeEmail(d.Email)))
	if err != nil {
		return fmt.Errorf("creating donor: %w", err)
	}

	*d = *created

	return nil
}

func (s *Store) GetDonor(ctx context.Context, id uuid.UUID) (*donor.Donor, error) {
	query := `SELECT ` + selectDonorColumns + ` FROM donors WHERE id = $1`

	d, err := scanDonor(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, donor.ErrNotFound
		}

		return nil, fmt.Errorf("getting donor: %w", err)
	}

	return d, nil
}

func (s *Store) GetDonorByEmail(ctx context.Context, email string) (*donor.Donor, error) {
	query := `SELECT ` + selectDonorColumns + ` FROM donors WHERE LOWER(email) = $1`

	d, err := scanDonor(s.db.QueryRowContext(ctx, query, donor.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, donor.ErrNotFound
		}

		return nil, fmt.Errorf("getting donor by email: %w", err)
	}

	return d, nil
}

func (s *Store) SetCustomerRef(ctx context.Context, id uuid.UUID, customerRef string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE donors SET stripe_customer_id = $1 WHERE id = $2`, customerRef, id)
	if err != nil {
		return fmt.Errorf("setting customer ref: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting customer ref: %w", err)
	}

	if n == 0 {
		return donor.ErrNotFound
	}

	return nil
}

func (s *Store) ListDonors(ctx context.Context) ([]*donor.Donor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectDonorColumns+` FROM donors ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing donors: %w", err)
	}
	defer rows.Close()

	var donors []*donor.Donor

	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning donor: %w", err)
		}

		donors = append(donors, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating donor rows: %w", err)
	}

	return donors, nil
}
