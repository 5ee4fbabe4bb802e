package donation

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("donation not found")

// Status represents the lifecycle state of a donation.
type Status string

const (
	StatusInitiated Status = "initiated"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInitiated, StatusCompleted, StatusFailed, StatusExpired:
		return true
	}

	return false
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExpired
}

// CanTransition allows only initiated -> terminal.
func CanTransition(from, to Status) bool {
	return from == StatusInitiated && to.Terminal()
}

// Donation represents a single contribution, one-time or one cycle of a subscription.
type Donation struct {
	ID                uuid.UUID
	DonorID           uuid.UUID
	ProjectID         *uuid.UUID // Nil for general-fund donations
	Amount            decimal.Decimal
	Currency          string
	Status            Status
	CheckoutSessionID *string
	PaymentRef        *string
	SubscriptionRef   *string
	DonorName         string  // Loaded via JOIN
	DonorEmail        string  // Loaded via JOIN
	ProjectName       *string // Loaded via JOIN
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

// Purpose describes what the donation funds, for receipts and emails.
func (d *Donation) Purpose() string {
	if d.ProjectName != nil && *d.ProjectName != "" {
		return *d.ProjectName
	}

	return "our mission"
}
