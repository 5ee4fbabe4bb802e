// Package notify defines the messages sent to donors and administrators and the
// background queue that delivers them.
package notify

import (
	"context"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindDonorConfirmation             Kind = "donor-confirmation"
	KindAdminNewDonation              Kind = "admin-new-donation"
	KindDonorAmountChanged            Kind = "donor-amount-changed"
	KindAdminAmountChanged            Kind = "admin-amount-changed"
	KindDonorSubscriptionCanceled     Kind = "donor-subscription-canceled"
	KindAdminSubscriptionCanceled     Kind = "admin-subscription-canceled"
	KindDonorPaymentFailed            Kind = "donor-payment-failed"
	KindDonorSubscriptionAutoCanceled Kind = "donor-subscription-auto-canceled"
)

// Data carries the template fields. Each kind reads the subset it needs.
type Data struct {
	DonorName      string
	DonorEmail     string
	Amount         decimal.Decimal
	PreviousAmount decimal.Decimal
	Currency       string
	Purpose        string
	Frequency      string
	Status         string
	Attempt        int
	DonationID     string
	SubscriptionID string
	ProcessorRef   string
}

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Notification struct {
	Kind        Kind
	To          []string
	Data        Data
	Attachments []Attachment
}

//go:generate mockgen -source=notify.go -destination=sender_mock.go -package=notify
type Sender interface {
	Send(ctx context.Context, n Notification) error
}
