package reconcile

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"

	"github.com/Africa-Access-Water/afaw-api/internal/money"
)

// Event is one classified webhook. The set of variants is closed; Unrecognized is the only open case.
type Event interface {
	isEvent()
}

// CheckoutMode distinguishes one-time from recurring checkout sessions.
type CheckoutMode string

const (
	ModePayment      CheckoutMode = "payment"
	ModeSubscription CheckoutMode = "subscription"
)

type CheckoutCompleted struct {
	SessionID       string
	Mode            CheckoutMode
	PaymentRef      string
	SubscriptionRef string
	CustomerRef     string
}

type CheckoutExpired struct {
	SessionID string
	Mode      CheckoutMode
}

// PaymentFailed is a failed one-time payment. DonationID is empty for payment intents this
// service did not create, such as those behind subscription invoices.
type PaymentFailed struct {
	PaymentRef string
	DonationID string
}

type InvoicePaid struct {
	InvoiceID       string
	SubscriptionRef string
	CustomerRef     string
	PaymentRef      string
	BillingReason   *string // Nil when the payload carries no marker
	AmountPaid      decimal.Decimal
	Currency        string
	PeriodEnd       time.Time
}

type InvoiceFailed struct {
	InvoiceID       string
	SubscriptionRef string
	CustomerRef     string
	AttemptCount    int
	AmountDue       decimal.Decimal
	Currency        string
	BillingReason   *string
}

type SubscriptionUpdated struct {
	SubscriptionRef string
	Amount          *decimal.Decimal // Nil when the payload has no priced item
	Status          string
}

type SubscriptionDeleted struct {
	SubscriptionRef string
}

type Unrecognized struct {
	Type string
}

func (CheckoutCompleted) isEvent()   {}
func (CheckoutExpired) isEvent()     {}
func (PaymentFailed) isEvent()       {}
func (InvoicePaid) isEvent()         {}
func (InvoiceFailed) isEvent()       {}
func (SubscriptionUpdated) isEvent() {}
func (SubscriptionDeleted) isEvent() {}
func (Unrecognized) isEvent()        {}

// BillingReasonSubscriptionCreate marks the invoice for a subscription's first cycle.
const BillingReasonSubscriptionCreate = "subscription_create"

// objectRef decodes fields the processor sends either as an id string or as an expanded object.
type objectRef string

func (r *objectRef) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}

		*r = objectRef(id)

		return nil
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}

	*r = objectRef(obj.ID)

	return nil
}

type checkoutSessionPayload struct {
	ID            string            `json:"id"`
	Mode          string            `json:"mode"`
	PaymentIntent objectRef         `json:"payment_intent"`
	Subscription  objectRef         `json:"subscription"`
	Customer      objectRef         `json:"customer"`
	Metadata      map[string]string `json:"metadata"`
}

type paymentIntentPayload struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

type invoicePayload struct {
	ID            string    `json:"id"`
	Subscription  objectRef `json:"subscription"`
	Customer      objectRef `json:"customer"`
	PaymentIntent objectRef `json:"payment_intent"`
	BillingReason *string   `json:"billing_reason"`
	AmountPaid    int64     `json:"amount_paid"`
	AmountDue     int64     `json:"amount_due"`
	Currency      string    `json:"currency"`
	AttemptCount  int       `json:"attempt_count"`
	Lines         struct {
		Data []struct {
			Subscription objectRef `json:"subscription"`
			Period       struct {
				Start int64 `json:"start"`
				End   int64 `json:"end"`
			} `json:"period"`
		} `json:"data"`
	} `json:"lines"`
	Parent *struct {
		SubscriptionDetails *struct {
			Subscription objectRef `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// subscriptionRef walks the places an invoice may name its subscription, newest API shape last.
func (p *invoicePayload) subscriptionRef() string {
	if p.Subscription != "" {
		return string(p.Subscription)
	}

	if len(p.Lines.Data) > 0 && p.Lines.Data[0].Subscription != "" {
		return string(p.Lines.Data[0].Subscription)
	}

	if p.Parent != nil && p.Parent.SubscriptionDetails != nil {
		return string(p.Parent.SubscriptionDetails.Subscription)
	}

	return ""
}

func (p *invoicePayload) periodEnd() time.Time {
	if len(p.Lines.Data) == 0 || p.Lines.Data[0].Period.End == 0 {
		return time.Time{}
	}

	return time.Unix(p.Lines.Data[0].Period.End, 0).UTC()
}

type subscriptionPayload struct {
	ID       string    `json:"id"`
	Status   string    `json:"status"`
	Customer objectRef `json:"customer"`
	Currency string    `json:"currency"`
	Items    struct {
		Data []struct {
			Quantity int64 `json:"quantity"`
			Price    struct {
				UnitAmount *int64 `json:"unit_amount"`
				Currency   string `json:"currency"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// amount is the first item's unit price times its quantity.
func (p *subscriptionPayload) amount() *decimal.Decimal {
	if len(p.Items.Data) == 0 || p.Items.Data[0].Price.UnitAmount == nil {
		return nil
	}

	item := p.Items.Data[0]

	currency := item.Price.Currency
	if currency == "" {
		currency = p.Currency
	}

	minor := *item.Price.UnitAmount
	if item.Quantity > 1 {
		minor *= item.Quantity
	}

	return new(money.FromMinor(minor, currency))
}

// Classify decodes a verified event into its variant.
func Classify(evt stripe.Event) (Event, error) {
	var raw json.RawMessage
	if evt.Data != nil {
		raw = evt.Data.Raw
	}

	switch evt.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionExpired:
		var p checkoutSessionPayload
		if err := decode(raw, &p, evt.Type); err != nil {
			return nil, err
		}

		if evt.Type == stripe.EventTypeCheckoutSessionExpired {
			return CheckoutExpired{SessionID: p.ID, Mode: CheckoutMode(p.Mode)}, nil
		}

		return CheckoutCompleted{
			SessionID:       p.ID,
			Mode:            CheckoutMode(p.Mode),
			PaymentRef:      string(p.PaymentIntent),
			SubscriptionRef: string(p.Subscription),
			CustomerRef:     string(p.Customer),
		}, nil

	case stripe.EventTypePaymentIntentPaymentFailed:
		var p paymentIntentPayload
		if err := decode(raw, &p, evt.Type); err != nil {
			return nil, err
		}

		return PaymentFailed{PaymentRef: p.ID, DonationID: p.Metadata["donationId"]}, nil

	case stripe.EventTypeInvoicePaymentSucceeded:
		var p invoicePayload
		if err := decode(raw, &p, evt.Type); err != nil {
			return nil, err
		}

		return InvoicePaid{
			InvoiceID:       p.ID,
			SubscriptionRef: p.subscriptionRef(),
			CustomerRef:     string(p.Customer),
			PaymentRef:      string(p.PaymentIntent),
			BillingReason:   p.BillingReason,
			AmountPaid:      money.FromMinor(p.AmountPaid, p.Currency),
			Currency:        p.Currency,
			PeriodEnd:       p.periodEnd(),
		}, nil

	case stripe.EventTypeInvoicePaymentFailed:
		var p invoicePayload
		if err := decode(raw, &p, evt.Type); err != nil {
			return nil, err
		}

		return InvoiceFailed{
			InvoiceID:       p.ID,
			SubscriptionRef: p.subscriptionRef(),
			CustomerRef:     string(p.Customer),
			AttemptCount:    p.AttemptCount,
			AmountDue:       money.FromMinor(p.AmountDue, p.Currency),
			Currency:        p.Currency,
			BillingReason:   p.BillingReason,
		}, nil

	case stripe.EventTypeCustomerSubscriptionUpdated, stripe.EventTypeCustomerSubscriptionDeleted:
		var p subscriptionPayload
		if err := decode(raw, &p, evt.Type); err != nil {
			return nil, err
		}

		if evt.Type == stripe.EventTypeCustomerSubscriptionDeleted {
			return SubscriptionDeleted{SubscriptionRef: p.ID}, nil
		}

		return SubscriptionUpdated{SubscriptionRef: p.ID, Amount: p.amount(), Status: p.Status}, nil
	}

	return Unrecognized{Type: string(evt.Type)}, nil
}

func decode(raw json.RawMessage, dst any, typ stripe.EventType) error {
	if len(raw) == 0 {
		return fmt.Errorf("decoding %s: empty data object", typ)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", typ, err)
	}

	return nil
}
