// Package reconcile applies the payment processor's webhook stream to donations,
// subscriptions and project ledgers.
package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/ledger"
	"github.com/Africa-Access-Water/afaw-api/internal/receipt"
	"github.com/Africa-Access-Water/afaw-api/internal/subscription"
)

//go:generate mockgen -source=reconcile.go -destination=reconcile_mock.go -package=reconcile
type Store interface {
	// WithinTx runs fn in one database transaction, rolling back when fn returns an error.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	MarkEventFailed(ctx context.Context, eventID, eventType string, cause error) error
}

type Tx interface {
	// ClaimEvent records the event as processed and reports false if it already was.
	ClaimEvent(ctx context.Context, eventID, eventType string) (bool, error)
	Donations() DonationStore
	Subscriptions() SubscriptionStore
	Ledger() ledger.Writer
}

type DonationStore interface {
	LockBySessionID(ctx context.Context, sessionID string) (*donation.Donation, error)
	LockDonation(ctx context.Context, id uuid.UUID) (*donation.Donation, error)
	Transition(ctx context.Context, id uuid.UUID, from, to donation.Status, paymentRef *string) (bool, error)
	CreateIfAbsent(ctx context.Context, d *donation.Donation) (bool, error)
}

type SubscriptionStore interface {
	LockBySessionID(ctx context.Context, sessionID string) (*subscription.Subscription, error)
	LockByProcessorRef(ctx context.Context, ref string) (*subscription.Subscription, error)
	LockBillableByCustomerRef(ctx context.Context, customerRef string) ([]*subscription.Subscription, error)
	Activate(ctx context.Context, id uuid.UUID, processorRef string, nextBillingAt time.Time) (bool, error)
	Expire(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateSubscription(ctx context.Context, s *subscription.Subscription) error
}

// Processor is the subset of the payment processor API reconciliation calls back into.
type Processor interface {
	// SubscriptionPeriodEnd returns the end of the current billing period, or the zero time if unknown.
	SubscriptionPeriodEnd(ctx context.Context, ref string) (time.Time, error)
	// CancelSubscription stops billing. Canceling an already canceled subscription succeeds.
	CancelSubscription(ctx context.Context, ref string) error
}

type ReceiptRenderer interface {
	Render(ctx context.Context, r receipt.Receipt) ([]byte, error)
}

// Runner executes best-effort work after the triggering request has been answered.
type Runner interface {
	Go(name string, fn func(ctx context.Context) error) error
}

// Reconciler holds the donation and subscription state machines.
// Every method runs inside the caller's transaction and returns the effects to announce after commit.
type Reconciler struct {
	processor Processor
}

func NewReconciler(processor Processor) *Reconciler {
	return &Reconciler{processor: processor}
}
