package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Africa-Access-Water/afaw-api/internal/subscription"
)

const syntheticPrefix = "recurring-"

// SyntheticSessionID derives the checkout session key for a donation spawned by a subscription.
// The first cycle is keyed by the subscription reference and every later cycle by its invoice
// reference, so a unique index on the column makes each creation happen once.
func SyntheticSessionID(ref string) string {
	return syntheticPrefix + ref
}

// IsSynthetic reports whether a session id was produced by SyntheticSessionID.
func IsSynthetic(sessionID string) bool {
	return strings.HasPrefix(sessionID, syntheticPrefix)
}

// outsideSubscription reports whether an invoice without a subscription reference was billed for
// something other than a subscription. Invoices that carry no billing reason still fall back to the
// customer lookup.
func outsideSubscription(ref string, reason *string) bool {
	return ref == "" && reason != nil && !strings.Contains(*reason, "subscription")
}

// resolveSubscription finds the subscription an invoice belongs to. The customer lookup is only
// used when the invoice carries no subscription reference, and it refuses to guess when the
// customer owns more than one billable subscription.
func resolveSubscription(ctx context.Context, subs SubscriptionStore, ref, customerRef string) (*subscription.Subscription, error) {
	if ref != "" {
		sub, err := subs.LockByProcessorRef(ctx, ref)
		if err == nil {
			return sub, nil
		}

		if errors.Is(err, subscription.ErrNotFound) {
			return nil, &UnknownEntityError{Entity: "subscription", Ref: ref}
		}

		return nil, err
	}

	if customerRef == "" {
		return nil, &UnknownEntityError{Entity: "subscription", Reason: "invoice names neither subscription nor customer"}
	}

	candidates, err := subs.LockBillableByCustomerRef(ctx, customerRef)
	if err != nil {
		return nil, err
	}

	switch len(candidates) {
	case 0:
		return nil, &UnknownEntityError{Entity: "customer", Ref: customerRef, Reason: "no billable subscription"}
	case 1:
		slog.Warn("subscription resolved by customer reference",
			"customer_ref", customerRef, "subscription_id", candidates[0].ID)

		return candidates[0], nil
	default:
		return nil, &UnknownEntityError{
			Entity: "customer",
			Ref:    customerRef,
			Reason: fmt.Sprintf("%d billable subscriptions, cannot attribute invoice", len(candidates)),
		}
	}
}

// isFirstCycle applies the first-cycle rule to an invoice without a billing-reason marker.
// Activation records the end of the first period as the next billing date, so only an invoice
// whose period ends strictly after that date opens a new cycle.
func isFirstCycle(sub *subscription.Subscription, periodEnd time.Time) bool {
	if sub.NextBillingAt == nil || periodEnd.IsZero() {
		return true
	}

	return !periodEnd.After(*sub.NextBillingAt)
}
