// Package processor talks to Stripe on behalf of checkout and reconciliation.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/Africa-Access-Water/afaw-api/internal/money"
)

var (
	ErrUnavailable = errors.New("payment processor unavailable")
	ErrNotFound    = errors.New("processor object not found")
)

type Mode string

const (
	ModePayment      Mode = "payment"
	ModeSubscription Mode = "subscription"
)

// SessionRequest describes a hosted checkout for one donation or one subscription.
type SessionRequest struct {
	Mode        Mode
	CustomerRef string
	Amount      decimal.Decimal
	Currency    string
	Interval    string // Only for ModeSubscription
	ProjectID   string
	Metadata    map[string]string
}

type Session struct {
	ID  string
	URL string
}

type Stripe struct {
	client    *client.API
	clientURL string
}

// New builds a Stripe client. backends may be nil to use the public API.
func New(secretKey, clientURL string, backends *stripe.Backends) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, backends)

	return &Stripe{client: sc, clientURL: clientURL}
}

func (s *Stripe) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
	}
	params.Context = ctx

	c, err := s.client.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("creating customer: %w", mapError(err))
	}

	return c.ID, nil
}

// CreateCheckoutSession opens a hosted checkout. Payment-intent metadata is only set for
// one-time payments; Stripe rejects it in subscription mode.
func (s *Stripe) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	name := "One-Time Donation"
	if req.Mode == ModeSubscription {
		name = "Recurring Donation"
	}

	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency: stripe.String(req.Currency),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(name),
		},
		UnitAmount: stripe.Int64(money.ToMinor(req.Amount, req.Currency)),
	}

	if req.Mode == ModeSubscription {
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(req.Interval),
		}
	}

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(req.CustomerRef),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(req.Mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{PriceData: priceData, Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(fmt.Sprintf("%s/donation/success?session_id={CHECKOUT_SESSION_ID}&project_id=%s",
			s.clientURL, req.ProjectID)),
		CancelURL: stripe.String(s.clientURL + "/donation/failure"),
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	if req.Mode == ModePayment {
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{Metadata: req.Metadata}
	}

	params.Context = ctx

	sess, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", mapError(err))
	}

	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

// SubscriptionPeriodEnd returns the end of the current period, or the zero time when Stripe omits it.
func (s *Stripe) SubscriptionPeriodEnd(ctx context.Context, ref string) (time.Time, error) {
	sub, err := s.getSubscription(ctx, ref)
	if err != nil {
		return time.Time{}, err
	}

	if sub.CurrentPeriodEnd == 0 {
		return time.Time{}, nil
	}

	return time.Unix(sub.CurrentPeriodEnd, 0).UTC(), nil
}

// CancelSubscription stops billing immediately. Already canceled or deleted subscriptions succeed.
func (s *Stripe) CancelSubscription(ctx context.Context, ref string) error {
	sub, err := s.getSubscription(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.Warn("subscription missing at processor, treating as canceled", "subscription_ref", ref)
			return nil
		}

		return err
	}

	if sub.Status == stripe.SubscriptionStatusCanceled {
		return nil
	}

	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	if _, err := s.client.Subscriptions.Cancel(ref, params); err != nil {
		return fmt.Errorf("canceling subscription %s: %w", ref, mapError(err))
	}

	return nil
}

func (s *Stripe) getSubscription(ctx context.Context, ref string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := s.client.Subscriptions.Get(ref, params)
	if err != nil {
		return nil, fmt.Errorf("retrieving subscription %s: %w", ref, mapError(err))
	}

	return sub, nil
}

// mapError keeps the Stripe error in the chain and adds a sentinel for the cases callers branch on.
func mapError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return err
	}

	if stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, stripeErr.Msg)
	}

	if stripeErr.HTTPStatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s", ErrUnavailable, stripeErr.Msg)
	}

	return err
}
