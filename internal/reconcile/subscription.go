package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/ledger"
	"github.com/Africa-Access-Water/afaw-api/internal/money"
	"github.com/Africa-Access-Water/afaw-api/internal/subscription"
)

// Activate moves the subscription created for a checkout session to active. The first
// activation also materializes the first cycle's donation and credits the ledger for it.
func (r *Reconciler) Activate(ctx context.Context, tx Tx, sessionID, processorRef string, nextBillingAt time.Time) (Effects, error) {
	sub, err := tx.Subscriptions().LockBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			return Effects{}, &UnknownEntityError{Entity: "checkout session", Ref: sessionID}
		}

		return Effects{}, err
	}

	if sub.Status != subscription.StatusInitiated {
		slog.Info("subscription already activated", "subscription_id", sub.ID, "status", sub.Status)
		return Effects{}, nil
	}

	if nextBillingAt.IsZero() {
		return Effects{}, &MissingBillingDateError{ProcessorRef: processorRef}
	}

	activated, err := tx.Subscriptions().Activate(ctx, sub.ID, processorRef, nextBillingAt)
	if err != nil {
		return Effects{}, err
	}

	if !activated {
		return Effects{}, nil
	}

	sub.Status = subscription.StatusActive
	sub.ProcessorRef = &processorRef
	sub.NextBillingAt = &nextBillingAt

	return r.recordCycle(ctx, tx, sub, sub.Amount, sub.Currency, SyntheticSessionID(processorRef), nil)
}

// Expire closes a subscription whose checkout session timed out before activation.
func (r *Reconciler) Expire(ctx context.Context, tx Tx, sessionID string) (Effects, error) {
	sub, err := tx.Subscriptions().LockBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			return Effects{}, &UnknownEntityError{Entity: "checkout session", Ref: sessionID}
		}

		return Effects{}, err
	}

	if sub.Status != subscription.StatusInitiated {
		slog.Info("subscription not awaiting checkout", "subscription_id", sub.ID, "status", sub.Status)
		return Effects{}, nil
	}

	if _, err := tx.Subscriptions().Expire(ctx, sub.ID); err != nil {
		return Effects{}, err
	}

	return Effects{}, nil
}

// RecordFailedAttempt marks the subscription past due and notifies the donor once per new
// attempt. Reaching MaxFailedAttempts cancels billing at the processor instead.
func (r *Reconciler) RecordFailedAttempt(ctx context.Context, tx Tx, ev InvoiceFailed) (Effects, error) {
	if outsideSubscription(ev.SubscriptionRef, ev.BillingReason) {
		slog.Info("ignoring failed invoice outside any subscription", "invoice_id", ev.InvoiceID, "billing_reason", *ev.BillingReason)
		return Effects{}, nil
	}

	sub, err := resolveSubscription(ctx, tx.Subscriptions(), ev.SubscriptionRef, ev.CustomerRef)
	if err != nil {
		return Effects{}, err
	}

	if sub.Status == subscription.StatusCanceled || sub.Status == subscription.StatusExpired {
		slog.Info("ignoring failed payment for closed subscription", "subscription_id", sub.ID, "status", sub.Status)
		return Effects{}, nil
	}

	attempt := max(ev.AttemptCount, 1)
	advanced := attempt > sub.FailedAttempts

	if attempt >= subscription.MaxFailedAttempts {
		if err := r.processor.CancelSubscription(ctx, sub.Ref()); err != nil {
			return Effects{}, err
		}

		sub.Status = subscription.StatusCanceled
		sub.FailedAttempts = attempt

		if err := tx.Subscriptions().UpdateSubscription(ctx, sub); err != nil {
			return Effects{}, err
		}

		slog.Warn("subscription auto-canceled after repeated payment failures",
			"subscription_id", sub.ID, "attempts", attempt)

		return changed(SubscriptionChange{Kind: ChangeAutoCanceled, Subscription: *sub, Attempt: attempt}), nil
	}

	if sub.Status == subscription.StatusPastDue && !advanced {
		return Effects{}, nil
	}

	sub.Status = subscription.StatusPastDue
	sub.FailedAttempts = max(sub.FailedAttempts, attempt)

	if err := tx.Subscriptions().UpdateSubscription(ctx, sub); err != nil {
		return Effects{}, err
	}

	if !advanced {
		return Effects{}, nil
	}

	return changed(SubscriptionChange{Kind: ChangePaymentFailed, Subscription: *sub, Attempt: attempt}), nil
}

// RecordSuccessfulCycle books a paid renewal invoice as a completed donation, unless the invoice
// is the first cycle that activation already materialized.
func (r *Reconciler) RecordSuccessfulCycle(ctx context.Context, tx Tx, ev InvoicePaid) (Effects, error) {
	if ev.BillingReason != nil && *ev.BillingReason == BillingReasonSubscriptionCreate {
		slog.Info("skipping first-cycle invoice", "invoice_id", ev.InvoiceID, "subscription_ref", ev.SubscriptionRef)
		return Effects{}, nil
	}

	if outsideSubscription(ev.SubscriptionRef, ev.BillingReason) {
		slog.Info("ignoring invoice outside any subscription", "invoice_id", ev.InvoiceID, "billing_reason", *ev.BillingReason)
		return Effects{}, nil
	}

	sub, err := resolveSubscription(ctx, tx.Subscriptions(), ev.SubscriptionRef, ev.CustomerRef)
	if err != nil {
		return Effects{}, err
	}

	if ev.BillingReason == nil && isFirstCycle(sub, ev.PeriodEnd) {
		slog.Info("invoice does not open a new billing cycle",
			"invoice_id", ev.InvoiceID, "subscription_id", sub.ID, "period_end", ev.PeriodEnd)

		return Effects{}, nil
	}

	if !ev.AmountPaid.IsPositive() {
		slog.Info("skipping zero-amount invoice", "invoice_id", ev.InvoiceID, "subscription_id", sub.ID)
		return Effects{}, nil
	}

	var paymentRef *string
	if ev.PaymentRef != "" {
		paymentRef = &ev.PaymentRef
	}

	fx, err := r.recordCycle(ctx, tx, sub, ev.AmountPaid, ev.Currency, SyntheticSessionID(ev.InvoiceID), paymentRef)
	if err != nil || fx.Empty() {
		return fx, err
	}

	if sub.Status == subscription.StatusPastDue {
		sub.Status = subscription.StatusActive
	}

	sub.FailedAttempts = 0

	if !ev.PeriodEnd.IsZero() && (sub.NextBillingAt == nil || ev.PeriodEnd.After(*sub.NextBillingAt)) {
		sub.NextBillingAt = &ev.PeriodEnd
	}

	if err := tx.Subscriptions().UpdateSubscription(ctx, sub); err != nil {
		return Effects{}, err
	}

	return fx, nil
}

// recordCycle creates the completed donation for one billing cycle and credits the ledger.
// A cycle whose synthetic session id already exists yields no effects.
func (r *Reconciler) recordCycle(
	ctx context.Context,
	tx Tx,
	sub *subscription.Subscription,
	amount decimal.Decimal,
	currency string,
	sessionID string,
	paymentRef *string,
) (Effects, error) {
	d := &donation.Donation{
		DonorID:           sub.DonorID,
		ProjectID:         sub.ProjectID,
		Amount:            amount,
		Currency:          currency,
		Status:            donation.StatusCompleted,
		CheckoutSessionID: &sessionID,
		PaymentRef:        paymentRef,
		SubscriptionRef:   sub.ProcessorRef,
		DonorName:         sub.DonorName,
		DonorEmail:        sub.DonorEmail,
		ProjectName:       sub.ProjectName,
	}

	created, err := tx.Donations().CreateIfAbsent(ctx, d)
	if err != nil {
		return Effects{}, err
	}

	if !created {
		slog.Info("billing cycle already recorded", "session_id", sessionID, "subscription_id", sub.ID)
		return Effects{}, nil
	}

	if d.ProjectID != nil {
		if err := ledger.Increment(ctx, tx.Ledger(), *d.ProjectID, d.Amount); err != nil {
			return Effects{}, err
		}
	}

	fx := completed(d, true)
	fx.Outcomes[0].Interval = sub.Interval

	return fx, nil
}

// UpdateAmount applies a price change. Updates whose amount matches the stored one to two
// decimals are status-only and leave the subscription untouched.
func (r *Reconciler) UpdateAmount(ctx context.Context, tx Tx, ref string, newAmount decimal.Decimal, newStatus string) (Effects, error) {
	sub, err := lockByRef(ctx, tx, ref)
	if err != nil {
		return Effects{}, err
	}

	if money.Equal(newAmount, sub.Amount) {
		return Effects{}, nil
	}

	previous := sub.Amount
	sub.Amount = newAmount.Round(2)

	if status, ok := subscription.FromProcessor(newStatus); ok && sub.Status != subscription.StatusCanceled {
		sub.Status = status
	}

	if err := tx.Subscriptions().UpdateSubscription(ctx, sub); err != nil {
		return Effects{}, err
	}

	return changed(SubscriptionChange{Kind: ChangeAmount, Subscription: *sub, PreviousAmount: previous}), nil
}

// Cancel marks the subscription canceled. Repeating it is a no-op.
func (r *Reconciler) Cancel(ctx context.Context, tx Tx, ref string) (Effects, error) {
	sub, err := lockByRef(ctx, tx, ref)
	if err != nil {
		return Effects{}, err
	}

	if sub.Status == subscription.StatusCanceled {
		return Effects{}, nil
	}

	sub.Status = subscription.StatusCanceled

	if err := tx.Subscriptions().UpdateSubscription(ctx, sub); err != nil {
		return Effects{}, err
	}

	return changed(SubscriptionChange{Kind: ChangeCanceled, Subscription: *sub}), nil
}

func lockByRef(ctx context.Context, tx Tx, ref string) (*subscription.Subscription, error) {
	sub, err := tx.Subscriptions().LockByProcessorRef(ctx, ref)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			return nil, &UnknownEntityError{Entity: "subscription", Ref: ref}
		}

		return nil, err
	}

	return sub, nil
}
