package reconcile_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/mock/gomock"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/ledger"
	"github.com/Africa-Access-Water/afaw-api/internal/notify"
	"github.com/Africa-Access-Water/afaw-api/internal/receipt"
	"github.com/Africa-Access-Water/afaw-api/internal/reconcile"
	"github.com/Africa-Access-Water/afaw-api/internal/subscription"
)

const (
	testSecret = "whsec_test"
	adminEmail = "ops@afaw.example.org"
)

var nextBilling = time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC)

type recordingSender struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (r *recordingSender) Send(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = append(r.sent, n)

	return r.err
}

func (r *recordingSender) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []notify.Kind
	for _, n := range r.sent {
		out = append(out, n.Kind)
	}

	return out
}

func (r *recordingSender) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = nil
}

// inlineRunner runs background work synchronously so assertions can follow Handle directly.
type inlineRunner struct{}

func (inlineRunner) Go(_ string, fn func(ctx context.Context) error) error {
	return fn(context.Background())
}

type harness struct {
	store      *memStore
	processor  *reconcile.MockProcessor
	sender     *recordingSender
	dispatcher *reconcile.Dispatcher
}

func newHarness(t *testing.T, receipts reconcile.ReceiptRenderer) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)

	h := &harness{
		store:     newMemStore(),
		processor: reconcile.NewMockProcessor(ctrl),
		sender:    &recordingSender{},
	}

	cfg := reconcile.Config{WebhookSecret: testSecret, AdminEmails: []string{adminEmail}}
	h.dispatcher = reconcile.NewDispatcher(cfg, h.store, h.processor, h.sender, receipts, inlineRunner{})

	return h
}

func signEvent(t *testing.T, id string, typ stripe.EventType, object map[string]any) *webhook.SignedPayload {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        typ,
		"api_version": stripe.APIVersion,
		"created":     time.Now().Unix(),
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)

	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testSecret})
}

func (h *harness) deliver(t *testing.T, id string, typ stripe.EventType, object map[string]any) (reconcile.Result, error) {
	t.Helper()

	signed := signEvent(t, id, typ, object)

	return h.dispatcher.Handle(context.Background(), signed.Payload, signed.Header)
}

func checkoutSession(id string, mode reconcile.CheckoutMode, fields map[string]any) map[string]any {
	obj := map[string]any{"id": id, "object": "checkout.session", "mode": mode, "customer": "cus_1"}
	for k, v := range fields {
		obj[k] = v
	}

	return obj
}

func invoice(id, subRef string, amountCents int64, periodEnd time.Time, fields map[string]any) map[string]any {
	line := map[string]any{
		"period": map[string]any{"start": periodEnd.AddDate(0, -1, 0).Unix(), "end": periodEnd.Unix()},
	}

	obj := map[string]any{
		"id":             id,
		"object":         "invoice",
		"customer":       "cus_1",
		"payment_intent": "pi_" + id,
		"amount_paid":    amountCents,
		"amount_due":     amountCents,
		"currency":       "usd",
		"lines":          map[string]any{"data": []any{line}},
	}

	if subRef != "" {
		obj["subscription"] = subRef
		line["subscription"] = subRef
	}

	for k, v := range fields {
		obj[k] = v
	}

	return obj
}

func stripeSubscription(ref, status string, unitAmount int64) map[string]any {
	return map[string]any{
		"id":       ref,
		"object":   "subscription",
		"status":   status,
		"customer": "cus_1",
		"items": map[string]any{"data": []any{map[string]any{
			"quantity": 1,
			"price":    map[string]any{"unit_amount": unitAmount, "currency": "usd"},
		}}},
	}
}

// seedOneTime stores an initiated one-time donation of amount for cs_1.
func (h *harness) seedOneTime(amount string, withProject bool) (donation.Donation, uuid.UUID) {
	var project uuid.UUID

	d := donation.Donation{
		DonorID:           h.store.addDonor("cus_1"),
		Amount:            decimal.RequireFromString(amount),
		Currency:          "usd",
		CheckoutSessionID: new("cs_1"),
		DonorName:         "Ada Obi",
		DonorEmail:        "ada@example.org",
	}

	if withProject {
		project = h.store.addProject()
		d.ProjectID = &project
		d.ProjectName = new("Borehole in Kisumu")
	}

	return h.store.addDonation(d), project
}

// seedSubscription stores a subscription for cs_sub_1. Active subscriptions get processor ref sub_1.
func (h *harness) seedSubscription(status subscription.Status, amount string) (subscription.Subscription, uuid.UUID) {
	project := h.store.addProject()

	sub := subscription.Subscription{
		DonorID:           h.store.addDonor("cus_1"),
		ProjectID:         &project,
		Amount:            decimal.RequireFromString(amount),
		Currency:          "usd",
		Interval:          subscription.IntervalMonth,
		Status:            status,
		CheckoutSessionID: new("cs_sub_1"),
		DonorName:         "Kwame Mensah",
		DonorEmail:        "kwame@example.org",
		ProjectName:       new("Water Kiosk"),
	}

	if status != subscription.StatusInitiated {
		sub.ProcessorRef = new("sub_1")
		sub.NextBillingAt = &nextBilling
	}

	return h.store.addSubscription(sub), project
}

func TestDispatcher_RejectsBadSignature(t *testing.T) {
	h := newHarness(t, nil)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)

	_, err := h.dispatcher.Handle(context.Background(), payload, "t=1,v1=deadbeef")

	var authErr *reconcile.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Empty(t, h.store.events)
	assert.Empty(t, h.sender.kinds())
}

func TestDispatcher_IgnoresUnrecognizedEvents(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.deliver(t, "evt_1", "customer.created", map[string]any{"id": "cus_1"})
	require.NoError(t, err)

	assert.Equal(t, reconcile.ResultIgnored, res)
	assert.Empty(t, h.store.events)
}

func TestDispatcher_OneTimeCheckout(t *testing.T) {
	h := newHarness(t, nil)
	d, project := h.seedOneTime("50", true)

	completed := checkoutSession("cs_1", reconcile.ModePayment, map[string]any{"payment_intent": "pi_1"})

	res, err := h.deliver(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, completed)
	require.NoError(t, err)
	assert.Equal(t, reconcile.ResultProcessed, res)

	got := h.store.donation(d.ID)
	assert.Equal(t, donation.StatusCompleted, got.Status)
	require.NotNil(t, got.PaymentRef)
	assert.Equal(t, "pi_1", *got.PaymentRef)
	assert.True(t, decimal.RequireFromString("50").Equal(h.store.total(project)))
	assert.Equal(t, []notify.Kind{notify.KindDonorConfirmation, notify.KindAdminNewDonation}, h.sender.kinds())

	confirmation := h.sender.sent[0]
	assert.Equal(t, []string{"ada@example.org"}, confirmation.To)
	assert.Equal(t, "Borehole in Kisumu", confirmation.Data.Purpose)
	assert.Equal(t, "one-time", confirmation.Data.Frequency)
	assert.Empty(t, confirmation.Attachments)
	assert.Equal(t, []string{adminEmail}, h.sender.sent[1].To)

	h.sender.reset()

	t.Run("SameEventRedelivered", func(t *testing.T) {
		res, err := h.deliver(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, completed)
		require.NoError(t, err)

		assert.Equal(t, reconcile.ResultDuplicate, res)
		assert.True(t, decimal.RequireFromString("50").Equal(h.store.total(project)))
		assert.Empty(t, h.sender.kinds())
	})

	t.Run("SameOutcomeUnderNewEventID", func(t *testing.T) {
		res, err := h.deliver(t, "evt_2", stripe.EventTypeCheckoutSessionCompleted, completed)
		require.NoError(t, err)

		assert.Equal(t, reconcile.ResultProcessed, res)
		assert.True(t, decimal.RequireFromString("50").Equal(h.store.total(project)))
		assert.Empty(t, h.sender.kinds())
	})

	assert.True(t, h.store.completedSum(project).Equal(h.store.total(project)))
}

func TestDispatcher_GeneralFundDonation(t *testing.T) {
	h := newHarness(t, nil)
	d, _ := h.seedOneTime("20", false)

	_, err := h.deliver(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted,
		checkoutSession("cs_1", reconcile.ModePayment, map[string]any{"payment_intent": "pi_1"}))
	require.NoError(t, err)

	assert.Equal(t, donation.StatusCompleted, h.store.donation(d.ID).Status)
	assert.Equal(t, "our mission", h.sender.sent[0].Data.Purpose)
}

func TestDispatcher_UnknownCheckoutSession(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.deliver(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted,
		checkoutSession("cs_missing", reconcile.ModePayment, map[string]any{"payment_intent": "pi_1"}))

	var unknown *reconcile.UnknownEntityError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "cs_missing", unknown.Ref)
	assert.Equal(t, "failed", h.store.events["evt_1"])
	assert.Empty(t, h.store.donations)
}

func TestDispatcher_LedgerFailureRollsBack(t *testing.T) {
	h := newHarness(t, nil)
	d, project := h.seedOneTime("50", true)
	h.store.ledgerErr = errors.New("connection reset")

	completed := checkoutSession("cs_1", reconcile.ModePayment, map[string]any{"payment_intent": "pi_1"})

	_, err := h.deliver(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, completed)

	var writeErr *ledger.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, donation.StatusInitiated, h.store.donation(d.ID).Status)
	assert.Equal(t, "failed", h.store.events["evt_1"])
	assert.Empty(t, h.sender.kinds())

	h.store.ledgerErr = nil

	res, err := h.deliver(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, completed)
	require.NoError(t, err)

	assert.Equal(t, reconcile.ResultProcessed, res)
	assert.Equal(t, donation.StatusCompleted, h.store.donation(d.ID).Status)
	assert.True(t, decimal.RequireFromString("50").Equal(h.store.total(project)))
}

func TestDispatcher_CheckoutExpired(t *testing.T) {
	h := newHarness(t, nil)
	d, project := h.seedOneTime("50", true)

	_, err := h.deliver(t, "evt_1", stripe.EventTypeCheckoutSessionExpired, checkoutSession("cs_1", reconcile.ModePayment, nil))
	require.NoError(t, err)
	assert.Equal(t, donation.StatusExpired, h.store.donation(d.ID).Status)

	_, err = h.deliver(t, "evt_2", stripe.EventTypeCheckoutSessionCompleted,
		checkoutSession("cs_1", reconcile.ModePayment, map[string]any{"payment_intent": "pi_1"}))
	require.NoError(t, err)

	assert.Equal(t, donation.StatusExpired, h.store.donation(d.ID).Status)
	assert.True(t, h.store.total(project).IsZero())
	assert.Empty(t, h.sender.kinds())
}

func TestDispatcher_PaymentFailed(t *testing.T) {
	type testCase struct {
		name       string
		metadata   func(d donation.Donation) map[string]any
		wantStatus donation.Status
	}

	tests := []testCase{
		{
			name: "KnownDonation",
			metadata: func(d donation.Donation) map[string]any {
				return map[string]any{"donationId": d.ID.String()}
			},
			wantStatus: donation.StatusFailed,
		},
		{
			name: "NoDonationID",
			metadata: func(donation.Donation) map[string]any {
				return map[string]any{}
			},
			wantStatus: donation.StatusInitiated,
		},
		{
			name: "MalformedDonationID",
			metadata: func(donation.Donation) map[string]any {
				return map[string]any{"donationId": "42"}
			},
			wantStatus: donation.StatusInitiated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			d, _ := h.seedOneTime("50", true)

			res, err := h.deliver(t, "evt_1", stripe.EventTypePaymentIntentPaymentFailed, map[string]any{
				"id":       "pi_1",
				"object":   "payment_intent",
				"metadata": tt.metadata(d),
			})
			require.NoError(t, err)

			assert.Equal(t, reconcile.ResultProcessed, res)
			assert.Equal(t, tt.wantStatus, h.store.donation(d.ID).Status)
			assert.Empty(t, h.sender.kinds())
		})
	}
}

func TestDispatcher_SubscriptionActivation(t *testing.T) {
	h := newHarness(t, nil)
	sub, project := h.seedSubscription(subscription.StatusInitiated, "25")

	h.processor.EXPECT().SubscriptionPeriodEnd(gomock.Any(), "sub_1").Return(nextBilling, nil)

	_, err := h.deliver(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted,
		checkoutSession("cs_sub_1", reconcile.ModeSubscription, map[string]any{"subscription": "sub_1"}))
	require.NoError(t, err)

	got := h.store.subscription(sub.ID)
	assert.Equal(t, subscription.StatusActive, got.Status)
	assert.Equal(t, "sub_1", got.Ref())
	require.NotNil(t, got.NextBillingAt)
	assert.True(t, nextBilling.Equal(*got.NextBillingAt))

	cycles := h.store.donationsFor("sub_1")
	require.Len(t, cycles, 1)
	assert.Equal(t, donation.StatusCompleted, cycles[0].Status)
	assert.True(t, decimal.RequireFromString("25").Equal(cycles[0].Amount))
	assert.True(t, reconcile.IsSynthetic(*cycles[0].CheckoutSessionID))
	assert.True(t, decimal.RequireFromString("25").Equal(h.store.total(project)))

	assert.Equal(t, []notify.Kind{notify.KindDonorConfirmation, notify.KindAdminNewDonation}, h.sender.kinds())
	assert.Equal(t, "monthly", h.sender.sent[0].Data.Frequency)

	h.sender.reset()

	t.Run("FirstInvoiceWithMarker", func(t *testing.T) {
		_, err := h.deliver(t, "evt_2", stripe.EventTypeInvoicePaymentSucceeded,
			invoice("in_1", "sub_1", 2500, nextBilling, map[string]any{"billing_reason": "subscription_create"}))
		require.NoError(t, err)

		assert.Len(t, h.store.donationsFor("sub_1"), 1)
		assert.True(t, decimal.RequireFromString("25").Equal(h.store.total(project)))
		assert.Empty(t, h.sender.kinds())
	})

	t.Run("FirstInvoiceWithoutMarker", func(t *testing.T) {
		_, err := h.deliver(t, "evt_3", stripe.EventTypeInvoicePaymentSucceeded,
			invoice("in_1", "sub_1", 2500, nextBilling, nil))
		require.NoError(t, err)

		assert.Len(t, h.store.donationsFor("sub_1"), 1)
		assert.True(t, decimal.RequireFromString("25").Equal(h.store.total(project)))
		assert.Empty(t, h.sender.kinds())
	})
}

func TestDispatcher_ActivationReplayIsNoop(t *testing.T) {
	h := newHarness(t, nil)
	_, project := h.seedSubscription(subscription.StatusInitiated, "25")

	h.processor.EXPECT().SubscriptionPeriodEnd(gomock.Any(), "sub_1").Return(nextBilling, nil).Times(2)

	completed := checkoutSession("cs_sub_1", reconcile.ModeSubscription, map[string]any{"subscription": "sub_1"})

	_, err := h.deliver(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, completed)
	require.NoError(t, err)

	_, err = h.deliver(t, "evt_2", stripe.EventTypeCheckoutSessionCompleted, completed)
	require.NoError(t, err)

	assert.Len(t, h.store.donationsFor("sub_1"), 1)
	assert.True(t, decimal.RequireFromString("25").Equal(h.store.total(project)))
}

func TestDispatcher_ActivationWithoutBillingDate(t *testing.T) {
	h := newHarness(t, nil)
	sub, project := h.seedSubscription(subscription.StatusInitiated, "25")

	h.processor.EXPECT().SubscriptionPeriodEnd(gomock.Any(), "sub_1").Return(time.Time{}, nil)

	_, err := h.deliver(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted,
		checkoutSession("cs_sub_1", reconcile.ModeSubscription, map[string]any{"subscription": "sub_1"}))

	var missing *reconcile.MissingBillingDateError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "sub_1", missing.ProcessorRef)
	assert.Equal(t, subscription.StatusInitiated, h.store.subscription(sub.ID).Status)
	assert.Empty(t, h.store.donationsFor("sub_1"))
	assert.True(t, h.store.total(project).IsZero())
}

func TestDispatcher_SubscriptionCheckoutExpired(t *testing.T) {
	h := newHarness(t, nil)
	sub, _ := h.seedSubscription(subscription.StatusInitiated, "25")

	_, err := h.deliver(t, "evt_1", stripe.EventTypeCheckoutSessionExpired,
		checkoutSession("cs_sub_1", reconcile.ModeSubscription, nil))
	require.NoError(t, err)

	assert.Equal(t, subscription.StatusExpired, h.store.subscription(sub.ID).Status)
}

func TestDispatcher_RecurringCycles(t *testing.T) {
	second := nextBilling.AddDate(0, 1, 0)
	third := nextBilling.AddDate(0, 2, 0)

	type testCase struct {
		name        string
		invoice     map[string]any
		wantCycles  int
		wantTotal   string
		wantNext    time.Time
		wantNotices []notify.Kind
	}

	tests := []testCase{
		{
			name:        "MarkedCycleInvoice",
			invoice:     invoice("in_2", "sub_1", 2500, second, map[string]any{"billing_reason": "subscription_cycle"}),
			wantCycles:  1,
			wantTotal:   "25",
			wantNext:    second,
			wantNotices: []notify.Kind{notify.KindDonorConfirmation, notify.KindAdminNewDonation},
		},
		{
			name:        "UnmarkedLaterPeriod",
			invoice:     invoice("in_2", "sub_1", 2500, second, nil),
			wantCycles:  1,
			wantTotal:   "25",
			wantNext:    second,
			wantNotices: []notify.Kind{notify.KindDonorConfirmation, notify.KindAdminNewDonation},
		},
		{
			name:       "UnmarkedSamePeriod",
			invoice:    invoice("in_1", "sub_1", 2500, nextBilling, nil),
			wantCycles: 0,
			wantTotal:  "0",
			wantNext:   nextBilling,
		},
		{
			name:       "ZeroAmount",
			invoice:    invoice("in_2", "sub_1", 0, second, map[string]any{"billing_reason": "subscription_cycle"}),
			wantCycles: 0,
			wantTotal:  "0",
			wantNext:   nextBilling,
		},
		{
			name:        "ResolvedByCustomer",
			invoice:     invoice("in_3", "", 2500, third, map[string]any{"billing_reason": "subscription_cycle"}),
			wantCycles:  1,
			wantTotal:   "25",
			wantNext:    third,
			wantNotices: []notify.Kind{notify.KindDonorConfirmation, notify.KindAdminNewDonation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			sub, project := h.seedSubscription(subscription.StatusActive, "25")

			_, err := h.deliver(t, "evt_1", stripe.EventTypeInvoicePaymentSucceeded, tt.invoice)
			require.NoError(t, err)

			assert.Len(t, h.store.donationsFor("sub_1"), tt.wantCycles)
			assert.True(t, decimal.RequireFromString(tt.wantTotal).Equal(h.store.total(project)))
			assert.True(t, tt.wantNext.Equal(*h.store.subscription(sub.ID).NextBillingAt))
			assert.Equal(t, tt.wantNotices, h.sender.kinds())
			assert.True(t, h.store.completedSum(project).Equal(h.store.total(project)))
		})
	}
}

func TestDispatcher_RecurringCycleReplay(t *testing.T) {
	h := newHarness(t, nil)
	_, project := h.seedSubscription(subscription.StatusActive, "25")

	paid := invoice("in_2", "sub_1", 2500, nextBilling.AddDate(0, 1, 0), map[string]any{"billing_reason": "subscription_cycle"})

	_, err := h.deliver(t, "evt_1", stripe.EventTypeInvoicePaymentSucceeded, paid)
	require.NoError(t, err)

	_, err = h.deliver(t, "evt_2", stripe.EventTypeInvoicePaymentSucceeded, paid)
	require.NoError(t, err)

	assert.Len(t, h.store.donationsFor("sub_1"), 1)
	assert.True(t, decimal.RequireFromString("25").Equal(h.store.total(project)))
	assert.Len(t, h.sender.kinds(), 2)
}

func TestDispatcher_RecurringCycleClearsPastDue(t *testing.T) {
	h := newHarness(t, nil)
	sub, _ := h.seedSubscription(subscription.StatusPastDue, "25")
	seeded := h.store.subs[sub.ID]
	seeded.FailedAttempts = 2
	h.store.subs[sub.ID] = seeded

	_, err := h.deliver(t, "evt_1", stripe.EventTypeInvoicePaymentSucceeded,
		invoice("in_2", "sub_1", 2500, nextBilling.AddDate(0, 1, 0), map[string]any{"billing_reason": "subscription_cycle"}))
	require.NoError(t, err)

	got := h.store.subscription(sub.ID)
	assert.Equal(t, subscription.StatusActive, got.Status)
	assert.Zero(t, got.FailedAttempts)
}

func TestDispatcher_AmbiguousCustomer(t *testing.T) {
	h := newHarness(t, nil)
	first, project := h.seedSubscription(subscription.StatusActive, "25")

	other := first
	other.ProcessorRef = new("sub_2")
	other.CheckoutSessionID = new("cs_sub_2")
	h.store.addSubscription(other)

	_, err := h.deliver(t, "evt_1", stripe.EventTypeInvoicePaymentSucceeded,
		invoice("in_2", "", 2500, nextBilling.AddDate(0, 1, 0), map[string]any{"billing_reason": "subscription_cycle"}))

	var unknown *reconcile.UnknownEntityError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "cus_1", unknown.Ref)
	assert.True(t, h.store.total(project).IsZero())
	assert.Equal(t, "failed", h.store.events["evt_1"])
}

func TestDispatcher_InvoiceOutsideSubscription(t *testing.T) {
	type testCase struct {
		name       string
		seeded     bool
		typ        stripe.EventType
		wantStatus subscription.Status
	}

	tests := []testCase{
		{
			name:       "PaidWithActiveSubscription",
			seeded:     true,
			typ:        stripe.EventTypeInvoicePaymentSucceeded,
			wantStatus: subscription.StatusActive,
		},
		{
			name:       "FailedWithActiveSubscription",
			seeded:     true,
			typ:        stripe.EventTypeInvoicePaymentFailed,
			wantStatus: subscription.StatusActive,
		},
		{name: "PaidWithoutSubscription", typ: stripe.EventTypeInvoicePaymentSucceeded},
		{name: "FailedWithoutSubscription", typ: stripe.EventTypeInvoicePaymentFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)

			var (
				sub     subscription.Subscription
				project uuid.UUID
			)

			if tt.seeded {
				sub, project = h.seedSubscription(subscription.StatusActive, "15")
			}

			res, err := h.deliver(t, "evt_1", tt.typ,
				invoice("in_manual2", "", 1500, nextBilling.AddDate(0, 1, 0), map[string]any{"billing_reason": "manual", "attempt_count": 1}))
			require.NoError(t, err)

			assert.Equal(t, reconcile.ResultProcessed, res)
			assert.Equal(t, "processed", h.store.events["evt_1"])
			assert.Empty(t, h.store.donationsFor("sub_1"))
			assert.Empty(t, h.sender.kinds())

			if tt.seeded {
				got := h.store.subscription(sub.ID)
				assert.Equal(t, tt.wantStatus, got.Status)
				assert.Zero(t, got.FailedAttempts)
				assert.True(t, nextBilling.Equal(*got.NextBillingAt))
				assert.True(t, h.store.total(project).IsZero())
			}
		})
	}
}

func TestDispatcher_PastDueResolvedByCustomer(t *testing.T) {
	type testCase struct {
		name        string
		typ         stripe.EventType
		wantStatus  subscription.Status
		wantCycles  int
		wantNotices []notify.Kind
	}

	tests := []testCase{
		{
			name:        "CycleRecovers",
			typ:         stripe.EventTypeInvoicePaymentSucceeded,
			wantStatus:  subscription.StatusActive,
			wantCycles:  1,
			wantNotices: []notify.Kind{notify.KindDonorConfirmation, notify.KindAdminNewDonation},
		},
		{
			name:        "AttemptFailsAgain",
			typ:         stripe.EventTypeInvoicePaymentFailed,
			wantStatus:  subscription.StatusPastDue,
			wantNotices: []notify.Kind{notify.KindDonorPaymentFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			sub, project := h.seedSubscription(subscription.StatusPastDue, "25")
			seeded := h.store.subs[sub.ID]
			seeded.FailedAttempts = 1
			h.store.subs[sub.ID] = seeded

			_, err := h.deliver(t, "evt_1", tt.typ,
				invoice("in_2", "", 2500, nextBilling.AddDate(0, 1, 0), map[string]any{"billing_reason": "subscription_cycle", "attempt_count": 2}))
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, h.store.subscription(sub.ID).Status)
			assert.Len(t, h.store.donationsFor("sub_1"), tt.wantCycles)
			assert.Equal(t, tt.wantNotices, h.sender.kinds())
			assert.True(t, h.store.completedSum(project).Equal(h.store.total(project)))
		})
	}
}

func TestDispatcher_ConcurrentDeliveries(t *testing.T) {
	const deliveries = 8

	type testCase struct {
		name        string
		seed        func(h *harness) uuid.UUID
		typ         stripe.EventType
		object      map[string]any
		wantTotal   string
		wantNotices []notify.Kind
	}

	tests := []testCase{
		{
			name: "OneTimeCheckout",
			seed: func(h *harness) uuid.UUID {
				_, project := h.seedOneTime("50", true)
				return project
			},
			typ:         stripe.EventTypeCheckoutSessionCompleted,
			object:      checkoutSession("cs_1", reconcile.ModePayment, map[string]any{"payment_intent": "pi_1"}),
			wantTotal:   "50",
			wantNotices: []notify.Kind{notify.KindDonorConfirmation, notify.KindAdminNewDonation},
		},
		{
			name: "RecurringCycle",
			seed: func(h *harness) uuid.UUID {
				_, project := h.seedSubscription(subscription.StatusActive, "25")
				return project
			},
			typ:         stripe.EventTypeInvoicePaymentSucceeded,
			object:      invoice("in_2", "sub_1", 2500, nextBilling.AddDate(0, 1, 0), map[string]any{"billing_reason": "subscription_cycle"}),
			wantTotal:   "25",
			wantNotices: []notify.Kind{notify.KindDonorConfirmation, notify.KindAdminNewDonation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			project := tt.seed(h)

			events := make([]*webhook.SignedPayload, deliveries)
			for i := range events {
				events[i] = signEvent(t, fmt.Sprintf("evt_%d", i), tt.typ, tt.object)
			}

			errs := make([]error, deliveries)

			var wg sync.WaitGroup
			for i, ev := range events {
				wg.Add(1)

				go func() {
					defer wg.Done()
					_, errs[i] = h.dispatcher.Handle(context.Background(), ev.Payload, ev.Header)
				}()
			}

			wg.Wait()

			for _, err := range errs {
				require.NoError(t, err)
			}

			assert.True(t, decimal.RequireFromString(tt.wantTotal).Equal(h.store.total(project)), "total %s", h.store.total(project))
			assert.True(t, h.store.completedSum(project).Equal(h.store.total(project)))
			assert.Equal(t, tt.wantNotices, h.sender.kinds())
		})
	}
}

func TestDispatcher_FailedAttempts(t *testing.T) {
	h := newHarness(t, nil)
	sub, _ := h.seedSubscription(subscription.StatusActive, "10")

	fail := func(eventID string, attempt int) {
		t.Helper()

		_, err := h.deliver(t, eventID, stripe.EventTypeInvoicePaymentFailed,
			invoice("in_2", "sub_1", 1000, nextBilling.AddDate(0, 1, 0), map[string]any{"attempt_count": attempt}))
		require.NoError(t, err)
	}

	fail("evt_1", 1)
	assert.Equal(t, subscription.StatusPastDue, h.store.subscription(sub.ID).Status)
	assert.Equal(t, []notify.Kind{notify.KindDonorPaymentFailed}, h.sender.kinds())
	assert.Equal(t, 1, h.sender.sent[0].Data.Attempt)

	fail("evt_2", 1)
	assert.Len(t, h.sender.kinds(), 1)

	fail("evt_3", 2)
	assert.Equal(t, 2, h.store.subscription(sub.ID).FailedAttempts)
	require.Len(t, h.sender.kinds(), 2)
	assert.Equal(t, 2, h.sender.sent[1].Data.Attempt)
}

func TestDispatcher_AutoCancel(t *testing.T) {
	h := newHarness(t, nil)
	sub, _ := h.seedSubscription(subscription.StatusActive, "10")

	h.processor.EXPECT().CancelSubscription(gomock.Any(), "sub_1").Return(nil)

	_, err := h.deliver(t, "evt_1", stripe.EventTypeInvoicePaymentFailed,
		invoice("in_2", "sub_1", 1000, nextBilling.AddDate(0, 1, 0), map[string]any{"attempt_count": 5}))
	require.NoError(t, err)

	assert.Equal(t, subscription.StatusCanceled, h.store.subscription(sub.ID).Status)
	assert.Equal(t, []notify.Kind{notify.KindDonorSubscriptionAutoCanceled}, h.sender.kinds())

	_, err = h.deliver(t, "evt_2", stripe.EventTypeInvoicePaymentFailed,
		invoice("in_2", "sub_1", 1000, nextBilling.AddDate(0, 1, 0), map[string]any{"attempt_count": 6}))
	require.NoError(t, err)
	assert.Len(t, h.sender.kinds(), 1)
}

func TestDispatcher_AutoCancelProcessorFailure(t *testing.T) {
	h := newHarness(t, nil)
	sub, _ := h.seedSubscription(subscription.StatusPastDue, "10")

	h.processor.EXPECT().CancelSubscription(gomock.Any(), "sub_1").Return(errors.New("stripe unavailable"))

	_, err := h.deliver(t, "evt_1", stripe.EventTypeInvoicePaymentFailed,
		invoice("in_2", "sub_1", 1000, nextBilling.AddDate(0, 1, 0), map[string]any{"attempt_count": 5}))
	require.Error(t, err)

	assert.Equal(t, subscription.StatusPastDue, h.store.subscription(sub.ID).Status)
	assert.Empty(t, h.sender.kinds())
}

func TestDispatcher_SubscriptionUpdated(t *testing.T) {
	type testCase struct {
		name        string
		unitAmount  int64
		wantAmount  string
		wantNotices []notify.Kind
	}

	tests := []testCase{
		{
			name:       "StatusOnly",
			unitAmount: 2500,
			wantAmount: "25",
		},
		{
			name:        "PriceChange",
			unitAmount:  3000,
			wantAmount:  "30",
			wantNotices: []notify.Kind{notify.KindDonorAmountChanged, notify.KindAdminAmountChanged},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			sub, _ := h.seedSubscription(subscription.StatusActive, "25.00")

			_, err := h.deliver(t, "evt_1", stripe.EventTypeCustomerSubscriptionUpdated,
				stripeSubscription("sub_1", "active", tt.unitAmount))
			require.NoError(t, err)

			got := h.store.subscription(sub.ID)
			assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(got.Amount))
			assert.Equal(t, tt.wantNotices, h.sender.kinds())

			if len(tt.wantNotices) > 0 {
				assert.True(t, decimal.RequireFromString("25").Equal(h.sender.sent[0].Data.PreviousAmount))
			}
		})
	}
}

func TestDispatcher_SubscriptionDeleted(t *testing.T) {
	h := newHarness(t, nil)
	sub, _ := h.seedSubscription(subscription.StatusActive, "25")

	deleted := stripeSubscription("sub_1", "canceled", 2500)

	_, err := h.deliver(t, "evt_1", stripe.EventTypeCustomerSubscriptionDeleted, deleted)
	require.NoError(t, err)

	assert.Equal(t, subscription.StatusCanceled, h.store.subscription(sub.ID).Status)
	assert.Equal(t, []notify.Kind{notify.KindDonorSubscriptionCanceled, notify.KindAdminSubscriptionCanceled}, h.sender.kinds())

	_, err = h.deliver(t, "evt_2", stripe.EventTypeCustomerSubscriptionDeleted, deleted)
	require.NoError(t, err)
	assert.Len(t, h.sender.kinds(), 2)
}

func TestDispatcher_Receipts(t *testing.T) {
	type testCase struct {
		name            string
		setupMock       func(m *reconcile.MockReceiptRenderer)
		wantAttachments int
	}

	tests := []testCase{
		{
			name: "Attached",
			setupMock: func(m *reconcile.MockReceiptRenderer) {
				m.EXPECT().
					Render(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, r receipt.Receipt) ([]byte, error) {
						assert.Equal(t, "pi_1", r.TransactionRef)
						assert.Equal(t, "Card (Stripe)", r.Method)
						return []byte("%PDF-1.7"), nil
					})
			},
			wantAttachments: 1,
		},
		{
			name: "RenderFailure",
			setupMock: func(m *reconcile.MockReceiptRenderer) {
				m.EXPECT().Render(gomock.Any(), gomock.Any()).Return(nil, errors.New("renderer down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			renderer := reconcile.NewMockReceiptRenderer(ctrl)
			tt.setupMock(renderer)

			h := newHarness(t, renderer)
			d, _ := h.seedOneTime("50", true)

			_, err := h.deliver(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted,
				checkoutSession("cs_1", reconcile.ModePayment, map[string]any{"payment_intent": "pi_1"}))
			require.NoError(t, err)

			require.Equal(t, notify.KindDonorConfirmation, h.sender.sent[0].Kind)
			require.Len(t, h.sender.sent[0].Attachments, tt.wantAttachments)

			if tt.wantAttachments > 0 {
				att := h.sender.sent[0].Attachments[0]
				assert.Equal(t, "Donation-Receipt-"+d.ID.String()+".pdf", att.Filename)
				assert.Equal(t, "application/pdf", att.ContentType)
			}
		})
	}
}

func TestDispatcher_SenderFailureKeepsState(t *testing.T) {
	h := newHarness(t, nil)
	h.sender.err = errors.New("smtp timeout")
	d, project := h.seedOneTime("50", true)

	res, err := h.deliver(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted,
		checkoutSession("cs_1", reconcile.ModePayment, map[string]any{"payment_intent": "pi_1"}))
	require.NoError(t, err)

	assert.Equal(t, reconcile.ResultProcessed, res)
	assert.Equal(t, donation.StatusCompleted, h.store.donation(d.ID).Status)
	assert.True(t, decimal.RequireFromString("50").Equal(h.store.total(project)))
}
