package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Africa-Access-Water/afaw-api/internal/database"
	"github.com/Africa-Access-Water/afaw-api/internal/subscription"
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

// Expected column order: id, donor_id, project_id, amount, currency, interval, status, checkout_session_id,
// stripe_subscription_id, next_billing_date, failed_attempts, created_at, updated_at, donor_name, donor_email, project_name
func scanSubscription(s scanner) (*subscription.Subscription, error) {
	var sub subscription.Subscription

	var intervalStr, statusStr string

	var sessionID, processorRef, projectName sql.NullString

	if err := s.Scan(
		&sub.ID, &sub.DonorID, &sub.ProjectID, &sub.Amount, &sub.Currency, &intervalStr, &statusStr,
		&sessionID, &processorRef, &sub.NextBillingAt, &sub.FailedAttempts,
		&sub.CreatedAt, &sub.UpdatedAt,
		&sub.DonorName, &sub.DonorEmail, &projectName,
	); err != nil {
		return nil, err
	}

	sub.Interval = subscription.Interval(intervalStr)
	sub.Status = subscription.Status(statusStr)

	if sessionID.Valid {
		sub.CheckoutSessionID = &sessionID.String
	}

	if processorRef.Valid {
		sub.ProcessorRef = &processorRef.String
	}

	if projectName.Valid {
		sub.ProjectName = &projectName.String
	}

	return &sub, nil
}

const selectSubscriptionColumns = `
	s.id, s.donor_id, s.project_id, s.amount, s.currency, s.interval, s.status, s.checkout_session_id,
	s.stripe_subscription_id, s.next_billing_date, s.failed_attempts, s.created_at, s.updated_at,
	dn.name AS donor_name, dn.email AS donor_email, p.name AS project_name
`

const fromSubscriptions = `
	FROM subscriptions s
	JOIN donors dn ON dn.id = s.donor_id
	LEFT JOIN projects p ON p.id = s.project_id
`

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (donor_id, project_id, amount, currency, interval, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		sub.DonorID,
		sub.ProjectID,
		sub.Amount,
		sub.Currency,
		sub.Interval,
		sub.Status,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating subscription: %w", err)
	}

	return nil
}

func (s *Store) GetSubscription(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	return s.getOne(ctx, `SELECT `+selectSubscriptionColumns+fromSubscriptions+`WHERE s.id = $1`, id)
}

// LockBySessionID reads the subscription created for a checkout session and holds its row lock
// until the surrounding transaction ends.
func (s *Store) LockBySessionID(ctx context.Context, sessionID string) (*subscription.Subscription, error) {
	return s.getOne(ctx, `SELECT `+selectSubscriptionColumns+fromSubscriptions+`WHERE s.checkout_session_id = $1 FOR UPDATE OF s`, sessionID)
}

func (s *Store) LockByProcessorRef(ctx context.Context, ref string) (*subscription.Subscription, error) {
	return s.getOne(ctx, `SELECT `+selectSubscriptionColumns+fromSubscriptions+`WHERE s.stripe_subscription_id = $1 FOR UPDATE OF s`, ref)
}

// LockBillableByCustomerRef returns every active or past-due subscription owned by the processor customer.
func (s *Store) LockBillableByCustomerRef(ctx context.Context, customerRef string) ([]*subscription.Subscription, error) {
	query := `SELECT ` + selectSubscriptionColumns + fromSubscriptions + `
		WHERE dn.stripe_customer_id = $1 AND s.status IN ($2, $3)
		ORDER BY s.created_at DESC
		FOR UPDATE OF s`

	return s.list(ctx, query, customerRef, subscription.StatusActive, subscription.StatusPastDue)
}

func (s *Store) getOne(ctx context.Context, query string, arg any) (*subscription.Subscription, error) {
	sub, err := scanSubscription(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, subscription.ErrNotFound
		}

		return nil, fmt.Errorf("getting subscription: %w", err)
	}

	return sub, nil
}

// Activate moves an initiated subscription to active and records its processor reference.
// It reports false when the row had already left the initiated state.
func (s *Store) Activate(ctx context.Context, id uuid.UUID, processorRef string, nextBillingAt time.Time) (bool, error) {
	query := `
		UPDATE subscriptions
		SET status = $1, stripe_subscription_id = $2, next_billing_date = $3, failed_attempts = 0, updated_at = NOW()
		WHERE id = $4 AND status = $5
	`

	return s.execConditional(ctx, "activating subscription", query,
		subscription.StatusActive, processorRef, nextBillingAt, id, subscription.StatusInitiated)
}

// Expire moves an initiated subscription to expired.
func (s *Store) Expire(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE subscriptions
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	return s.execConditional(ctx, "expiring subscription", query,
		subscription.StatusExpired, id, subscription.StatusInitiated)
}

func (s *Store) execConditional(ctx context.Context, op, query string, args ...any) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n == 1, nil
}

// UpdateSubscription persists the mutable billing fields of sub.
func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		UPDATE subscriptions
		SET amount = $1, status = $2, next_billing_date = $3, failed_attempts = $4, updated_at = NOW()
		WHERE id = $5
	`

	_, err := s.db.ExecContext(ctx, query,
		sub.Amount,
		sub.Status,
		sub.NextBillingAt,
		sub.FailedAttempts,
		sub.ID,
	)
	if err != nil {
		return fmt.Errorf("updating subscription: %w", err)
	}

	return nil
}

func (s *Store) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	query := `UPDATE subscriptions SET checkout_session_id = $1, updated_at = NOW() WHERE id = $2`

	if _, err := s.db.ExecContext(ctx, query, sessionID, id); err != nil {
		return fmt.Errorf("setting checkout session: %w", err)
	}

	return nil
}

func (s *Store) ListSubscriptions(ctx context.Context, filter subscription.ListFilter) ([]*subscription.Subscription, error) {
	query := `SELECT ` + selectSubscriptionColumns + fromSubscriptions + `WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND s.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.DonorID != nil {
		query += fmt.Sprintf(" AND s.donor_id = $%d", argIdx)

		args = append(args, *filter.DonorID)
		argIdx++
	}

	query += " ORDER BY s.created_at DESC"

	return s.list(ctx, query, args...)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*subscription.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*subscription.Subscription

	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}

		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscription rows: %w", err)
	}

	return subs, nil
}
