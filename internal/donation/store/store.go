package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Africa-Access-Water/afaw-api/internal/database"
	"github.com/Africa-Access-Water/afaw-api/internal/donation"
)

type Store struct {
	db database.DBTX
}

func New(db database.DBTX) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanDonation reads a donation row joined with its donor and project.
// Expected column order: id, donor_id, project_id, amount, currency, status, checkout_session_id,
// payment_intent_id, subscription_ref, created_at, updated_at, donor_name, donor_email, project_name
func scanDonation(s scanner) (*donation.Donation, error) {
	var d donation.Donation

	var statusStr string

	var sessionID, paymentRef, subscriptionRef, projectName sql.NullString

	if err := s.Scan(
		&d.ID, &d.DonorID, &d.ProjectID, &d.Amount, &d.Currency, &statusStr,
		&sessionID, &paymentRef, &subscriptionRef,
		&d.CreatedAt, &d.UpdatedAt,
		&d.DonorName, &d.DonorEmail, &projectName,
	); err != nil {
		return nil, err
	}

	d.Status = donation.Status(statusStr)
	d.CheckoutSessionID = nullable(sessionID)
	d.PaymentRef = nullable(paymentRef)
	d.SubscriptionRef = nullable(subscriptionRef)
	d.ProjectName = nullable(projectName)

	return &d, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}

	return &s.String
}

const selectDonationColumns = `
	d.id, d.donor_id, d.project_id, d.amount, d.currency, d.status, d.checkout_session_id,
	d.payment_intent_id, d.subscription_ref, d.created_at, d.updated_at,
	dn.name AS donor_name, dn.email AS donor_email, p.name AS project_name
`

const fromDonations = `
	FROM donations d
	JOIN donors dn ON dn.id = d.donor_id
	LEFT JOIN projects p ON p.id = d.project_id
`

func (s *Store) CreateDonation(ctx context.Context, d *donation.Donation) error {
	query := `
		INSERT INTO donations (donor_id, project_id, amount, currency, status, checkout_session_id,
			payment_intent_id, subscription_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		d.DonorID,
		d.ProjectID,
		d.Amount,
		d.Currency,
		d.Status,
		d.CheckoutSessionID,
		d.PaymentRef,
		d.SubscriptionRef,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating donation: %w", err)
	}

	return nil
}

// CreateIfAbsent inserts d unless a donation with the same checkout session id exists.
// It reports whether a row was inserted.
func (s *Store) CreateIfAbsent(ctx context.Context, d *donation.Donation) (bool, error) {
	query := `
		INSERT INTO donations (donor_id, project_id, amount, currency, status, checkout_session_id,
			payment_intent_id, subscription_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (checkout_session_id) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		d.DonorID,
		d.ProjectID,
		d.Amount,
		d.Currency,
		d.Status,
		d.CheckoutSessionID,
		d.PaymentRef,
		d.SubscriptionRef,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, fmt.Errorf("creating donation: %w", err)
	}

	return true, nil
}

func (s *Store) GetDonation(ctx context.Context, id uuid.UUID) (*donation.Donation, error) {
	return s.getOne(ctx, `SELECT `+selectDonationColumns+fromDonations+`WHERE d.id = $1`, id)
}

// LockDonation reads the donation and holds its row lock until the surrounding transaction ends.
func (s *Store) LockDonation(ctx context.Context, id uuid.UUID) (*donation.Donation, error) {
	return s.getOne(ctx, `SELECT `+selectDonationColumns+fromDonations+`WHERE d.id = $1 FOR UPDATE OF d`, id)
}

// LockBySessionID is LockDonation keyed by checkout session id.
func (s *Store) LockBySessionID(ctx context.Context, sessionID string) (*donation.Donation, error) {
	return s.getOne(ctx, `SELECT `+selectDonationColumns+fromDonations+`WHERE d.checkout_session_id = $1 FOR UPDATE OF d`, sessionID)
}

func (s *Store) getOne(ctx context.Context, query string, arg any) (*donation.Donation, error) {
	d, err := scanDonation(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, donation.ErrNotFound
		}

		return nil, fmt.Errorf("getting donation: %w", err)
	}

	return d, nil
}

// Transition moves the donation from one status to another. The update only applies while the
// row still holds the expected status, and the return value reports whether it did.
func (s *Store) Transition(ctx context.Context, id uuid.UUID, from, to donation.Status, paymentRef *string) (bool, error) {
	query := `
		UPDATE donations
		SET status = $1, payment_intent_id = COALESCE($2, payment_intent_id), updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	res, err := s.db.ExecContext(ctx, query, to, paymentRef, id, from)
	if err != nil {
		return false, fmt.Errorf("transitioning donation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transitioning donation: %w", err)
	}

	return n == 1, nil
}

func (s *Store) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	query := `UPDATE donations SET checkout_session_id = $1, updated_at = NOW() WHERE id = $2`

	if _, err := s.db.ExecContext(ctx, query, sessionID, id); err != nil {
		return fmt.Errorf("setting checkout session: %w", err)
	}

	return nil
}

func (s *Store) ListDonations(ctx context.Context, filter donation.ListFilter) ([]*donation.Donation, error) {
	query := `SELECT ` + selectDonationColumns + fromDonations + `WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND d.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.ProjectID != nil {
		query += fmt.Sprintf(" AND d.project_id = $%d", argIdx)

		args = append(args, *filter.ProjectID)
		argIdx++
	}

	if filter.DonorID != nil {
		query += fmt.Sprintf(" AND d.donor_id = $%d", argIdx)

		args = append(args, *filter.DonorID)
		argIdx++
	}

	if filter.Currency != nil {
		query += fmt.Sprintf(" AND LOWER(d.currency) = LOWER($%d)", argIdx)

		args = append(args, *filter.Currency)
		argIdx++
	}

	if filter.From != nil {
		query += fmt.Sprintf(" AND d.created_at >= $%d", argIdx)

		args = append(args, *filter.From)
		argIdx++
	}

	if filter.To != nil {
		query += fmt.Sprintf(" AND d.created_at < $%d", argIdx)

		args = append(args, *filter.To)
	}

	query += " ORDER BY d.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing donations: %w", err)
	}
	defer rows.Close()

	var donations []*donation.Donation

	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning donation: %w", err)
		}

		donations = append(donations, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating donation rows: %w", err)
	}

	return donations, nil
}
