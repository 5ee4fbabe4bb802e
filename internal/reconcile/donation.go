package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/ledger"
)

// MarkCompleted settles the one-time donation behind a checkout session. The ledger is credited
// only when this call performs the initiated -> completed transition.
func (r *Reconciler) MarkCompleted(ctx context.Context, tx Tx, sessionID, paymentRef string) (Effects, error) {
	d, err := lockDonationBySession(ctx, tx, sessionID)
	if err != nil {
		return Effects{}, err
	}

	if d.Status == donation.StatusCompleted {
		slog.Info("donation already completed", "donation_id", d.ID, "session_id", sessionID)
		return Effects{}, nil
	}

	if d.Status.Terminal() {
		slog.Error("completion received for closed donation",
			"donation_id", d.ID, "session_id", sessionID, "status", d.Status, "payment_ref", paymentRef)

		return Effects{}, nil
	}

	var ref *string
	if paymentRef != "" {
		ref = &paymentRef
	}

	moved, err := tx.Donations().Transition(ctx, d.ID, donation.StatusInitiated, donation.StatusCompleted, ref)
	if err != nil {
		return Effects{}, err
	}

	if !moved {
		return Effects{}, nil
	}

	if d.ProjectID != nil {
		if err := ledger.Increment(ctx, tx.Ledger(), *d.ProjectID, d.Amount); err != nil {
			return Effects{}, err
		}
	}

	d.Status = donation.StatusCompleted
	d.PaymentRef = ref

	return completed(d, false), nil
}

// MarkFailed closes an initiated donation after its payment failed. Donors are not notified.
func (r *Reconciler) MarkFailed(ctx context.Context, tx Tx, donationID uuid.UUID) (Effects, error) {
	d, err := tx.Donations().LockDonation(ctx, donationID)
	if err != nil {
		if errors.Is(err, donation.ErrNotFound) {
			return Effects{}, &UnknownEntityError{Entity: "donation", Ref: donationID.String()}
		}

		return Effects{}, err
	}

	return Effects{}, r.close(ctx, tx, d, donation.StatusFailed)
}

// MarkExpired closes the donation whose checkout session timed out unused.
func (r *Reconciler) MarkExpired(ctx context.Context, tx Tx, sessionID string) (Effects, error) {
	d, err := lockDonationBySession(ctx, tx, sessionID)
	if err != nil {
		return Effects{}, err
	}

	return Effects{}, r.close(ctx, tx, d, donation.StatusExpired)
}

func (r *Reconciler) close(ctx context.Context, tx Tx, d *donation.Donation, to donation.Status) error {
	if !donation.CanTransition(d.Status, to) {
		slog.Info("donation already closed", "donation_id", d.ID, "status", d.Status, "requested", to)
		return nil
	}

	if _, err := tx.Donations().Transition(ctx, d.ID, d.Status, to, nil); err != nil {
		return fmt.Errorf("marking donation %s: %w", to, err)
	}

	return nil
}

func lockDonationBySession(ctx context.Context, tx Tx, sessionID string) (*donation.Donation, error) {
	d, err := tx.Donations().LockBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, donation.ErrNotFound) {
			return nil, &UnknownEntityError{Entity: "checkout session", Ref: sessionID}
		}

		return nil, err
	}

	return d, nil
}
