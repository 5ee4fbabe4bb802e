// Package store runs reconciliation transactions against Postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"

	donationstore "github.com/Africa-Access-Water/afaw-api/internal/donation/store"
	"github.com/Africa-Access-Water/afaw-api/internal/ledger"
	ledgerstore "github.com/Africa-Access-Water/afaw-api/internal/ledger/store"
	"github.com/Africa-Access-Water/afaw-api/internal/reconcile"
	subscriptionstore "github.com/Africa-Access-Water/afaw-api/internal/subscription/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx reconcile.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(ctx, newTx(sqlTx)); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// MarkEventFailed records a failed attempt outside any rolled-back transaction.
// Events already processed are left alone.
func (s *Store) MarkEventFailed(ctx context.Context, eventID, eventType string, cause error) error {
	query := `
		INSERT INTO processed_events (event_id, event_type, status, attempts, last_error)
		VALUES ($1, $2, 'failed', 1, $3)
		ON CONFLICT (event_id) DO UPDATE
		SET status = 'failed',
		    attempts = processed_events.attempts + 1,
		    last_error = EXCLUDED.last_error
		WHERE processed_events.status <> 'processed'`

	if _, err := s.db.ExecContext(ctx, query, eventID, eventType, cause.Error()); err != nil {
		return fmt.Errorf("marking event %s failed: %w", eventID, err)
	}

	return nil
}

type tx struct {
	tx            *sql.Tx
	donations     *donationstore.Store
	subscriptions *subscriptionstore.Store
	ledger        *ledgerstore.Store
}

func newTx(sqlTx *sql.Tx) *tx {
	return &tx{
		tx:            sqlTx,
		donations:     donationstore.New(sqlTx),
		subscriptions: subscriptionstore.New(sqlTx),
		ledger:        ledgerstore.New(sqlTx),
	}
}

// ClaimEvent inserts the event as processed. A row that is already processed wins the
// conflict and leaves zero rows affected.
func (t *tx) ClaimEvent(ctx context.Context, eventID, eventType string) (bool, error) {
	query := `
		INSERT INTO processed_events (event_id, event_type, status, attempts, processed_at)
		VALUES ($1, $2, 'processed', 1, NOW())
		ON CONFLICT (event_id) DO UPDATE
		SET status = 'processed',
		    attempts = processed_events.attempts + 1,
		    last_error = NULL,
		    processed_at = NOW()
		WHERE processed_events.status <> 'processed'`

	res, err := t.tx.ExecContext(ctx, query, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("claiming event %s: %w", eventID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claiming event %s: %w", eventID, err)
	}

	return n == 1, nil
}

func (t *tx) Donations() reconcile.DonationStore {
	return t.donations
}

func (t *tx) Subscriptions() reconcile.SubscriptionStore {
	return t.subscriptions
}

func (t *tx) Ledger() ledger.Writer {
	return t.ledger
}
