package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/Africa-Access-Water/afaw-api/internal/notify"
)

// Result reports what Handle did with an authentic event.
type Result string

const (
	ResultProcessed Result = "processed"
	ResultDuplicate Result = "duplicate"
	ResultIgnored   Result = "ignored"
)

type Config struct {
	WebhookSecret string
	AdminEmails   []string
}

// Dispatcher verifies webhook deliveries and routes each event to the reconciler in its own
// transaction. Notifications go out through the runner only after the transaction commits.
type Dispatcher struct {
	cfg        Config
	store      Store
	reconciler *Reconciler
	processor  Processor
	sender     notify.Sender
	receipts   ReceiptRenderer
	runner     Runner
}

// NewDispatcher wires a dispatcher. receipts may be nil, in which case confirmations carry no attachment.
func NewDispatcher(cfg Config, store Store, processor Processor, sender notify.Sender, receipts ReceiptRenderer, runner Runner) *Dispatcher {
	return &Dispatcher{
		cfg:        cfg,
		store:      store,
		reconciler: NewReconciler(processor),
		processor:  processor,
		sender:     sender,
		receipts:   receipts,
		runner:     runner,
	}
}

// Handle authenticates and applies one webhook delivery. An *AuthenticationError means the
// payload was rejected untouched. Any other error leaves the event unclaimed so a redelivery
// retries it.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte, signature string) (Result, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, d.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return "", &AuthenticationError{Err: err}
	}

	log := slog.With("event_id", evt.ID, "event_type", evt.Type)

	classified, err := Classify(evt)
	if err != nil {
		d.markFailed(ctx, evt, err)
		return "", err
	}

	if u, ok := classified.(Unrecognized); ok {
		log.Info("ignoring unhandled event type", "type", u.Type)
		return ResultIgnored, nil
	}

	result := ResultProcessed
	var fx Effects

	err = d.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		claimed, err := tx.ClaimEvent(ctx, evt.ID, string(evt.Type))
		if err != nil {
			return err
		}

		if !claimed {
			result = ResultDuplicate
			return nil
		}

		fx, err = d.route(ctx, tx, classified)
		return err
	})
	if err != nil {
		log.Error("failed to process event", "error", err)
		d.markFailed(ctx, evt, err)

		return "", fmt.Errorf("processing %s: %w", evt.Type, err)
	}

	if result == ResultDuplicate {
		log.Info("event already processed")
		return result, nil
	}

	d.announce(evt.ID, fx)

	return result, nil
}

func (d *Dispatcher) route(ctx context.Context, tx Tx, e Event) (Effects, error) {
	switch e := e.(type) {
	case CheckoutCompleted:
		switch e.Mode {
		case ModePayment:
			return d.reconciler.MarkCompleted(ctx, tx, e.SessionID, e.PaymentRef)
		case ModeSubscription:
			if e.SubscriptionRef == "" {
				return Effects{}, &UnknownEntityError{Entity: "checkout session", Ref: e.SessionID, Reason: "no subscription reference"}
			}

			periodEnd, err := d.processor.SubscriptionPeriodEnd(ctx, e.SubscriptionRef)
			if err != nil {
				return Effects{}, err
			}

			return d.reconciler.Activate(ctx, tx, e.SessionID, e.SubscriptionRef, periodEnd)
		}

		slog.Warn("ignoring checkout session with unsupported mode", "session_id", e.SessionID, "mode", e.Mode)

		return Effects{}, nil

	case CheckoutExpired:
		switch e.Mode {
		case ModePayment:
			return d.reconciler.MarkExpired(ctx, tx, e.SessionID)
		case ModeSubscription:
			return d.reconciler.Expire(ctx, tx, e.SessionID)
		}

		slog.Warn("ignoring checkout session with unsupported mode", "session_id", e.SessionID, "mode", e.Mode)

		return Effects{}, nil

	case PaymentFailed:
		if e.DonationID == "" {
			slog.Info("payment failure carries no donation id", "payment_ref", e.PaymentRef)
			return Effects{}, nil
		}

		id, err := uuid.Parse(e.DonationID)
		if err != nil {
			slog.Warn("payment failure carries malformed donation id", "payment_ref", e.PaymentRef, "donation_id", e.DonationID)
			return Effects{}, nil
		}

		return d.reconciler.MarkFailed(ctx, tx, id)

	case InvoicePaid:
		return d.reconciler.RecordSuccessfulCycle(ctx, tx, e)

	case InvoiceFailed:
		return d.reconciler.RecordFailedAttempt(ctx, tx, e)

	case SubscriptionUpdated:
		if e.Amount == nil {
			slog.Info("subscription update carries no priced item", "subscription_ref", e.SubscriptionRef)
			return Effects{}, nil
		}

		return d.reconciler.UpdateAmount(ctx, tx, e.SubscriptionRef, *e.Amount, e.Status)

	case SubscriptionDeleted:
		return d.reconciler.Cancel(ctx, tx, e.SubscriptionRef)

	case Unrecognized:
		return Effects{}, nil
	}

	return Effects{}, fmt.Errorf("unroutable event %T", e)
}

func (d *Dispatcher) markFailed(ctx context.Context, evt stripe.Event, cause error) {
	if err := d.store.MarkEventFailed(context.WithoutCancel(ctx), evt.ID, string(evt.Type), cause); err != nil {
		slog.Error("failed to record event failure", "event_id", evt.ID, "error", err)
	}
}

// announce hands the notifications to the runner. Delivery failures are logged and never retried.
func (d *Dispatcher) announce(eventID string, fx Effects) {
	if fx.Empty() {
		return
	}

	err := d.runner.Go("notify "+eventID, func(ctx context.Context) error {
		for _, n := range d.notices(ctx, fx) {
			if err := d.sender.Send(ctx, n); err != nil {
				slog.Error("failed to send notification", "event_id", eventID, "kind", n.Kind, "error", err)
			}
		}

		return nil
	})
	if err != nil {
		slog.Error("failed to queue notifications", "event_id", eventID, "error", err)
	}
}
