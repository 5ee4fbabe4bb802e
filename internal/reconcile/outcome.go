package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/subscription"
)

// PaymentOutcome is a donation that just reached completed, whether from a checkout or a
// recurring cycle. It is the only input to the confirmation notices.
type PaymentOutcome struct {
	Donation  donation.Donation
	Recurring bool
	Interval  subscription.Interval // Set for recurring outcomes
}

type ChangeKind int

const (
	ChangeAmount ChangeKind = iota + 1
	ChangeCanceled
	ChangePaymentFailed
	ChangeAutoCanceled
)

// SubscriptionChange is a subscription event worth telling the donor or admins about.
type SubscriptionChange struct {
	Kind           ChangeKind
	Subscription   subscription.Subscription
	PreviousAmount decimal.Decimal
	Attempt        int
}

// Effects collects what a committed transaction should announce.
type Effects struct {
	Outcomes []PaymentOutcome
	Changes  []SubscriptionChange
}

func (e Effects) Empty() bool {
	return len(e.Outcomes) == 0 && len(e.Changes) == 0
}

func completed(d *donation.Donation, recurring bool) Effects {
	return Effects{Outcomes: []PaymentOutcome{{Donation: *d, Recurring: recurring}}}
}

func changed(c SubscriptionChange) Effects {
	return Effects{Changes: []SubscriptionChange{c}}
}
