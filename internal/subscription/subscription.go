package subscription

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("subscription not found")

// MaxFailedAttempts is the upstream attempt count at which a past-due subscription is auto-canceled.
const MaxFailedAttempts = 5

// Status represents the lifecycle state of a subscription.
type Status string

const (
	StatusInitiated Status = "initiated"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusCanceled  Status = "canceled"
	StatusExpired   Status = "expired"
)

// ParseStatus accepts the canonical spellings plus "cancelled".
func ParseStatus(s string) (Status, error) {
	switch v := Status(strings.ToLower(strings.TrimSpace(s))); v {
	case StatusInitiated, StatusActive, StatusPastDue, StatusCanceled, StatusExpired:
		return v, nil
	case "cancelled":
		return StatusCanceled, nil
	}

	return "", fmt.Errorf("unknown subscription status %q", s)
}

// Billable reports whether the subscription is still being charged.
func (s Status) Billable() bool {
	return s == StatusActive || s == StatusPastDue
}

// FromProcessor maps a processor subscription status onto ours.
func FromProcessor(s string) (Status, bool) {
	switch strings.ToLower(s) {
	case "active", "trialing":
		return StatusActive, true
	case "past_due", "unpaid", "incomplete":
		return StatusPastDue, true
	case "canceled", "cancelled":
		return StatusCanceled, true
	case "incomplete_expired":
		return StatusExpired, true
	}

	return "", false
}

// Interval is the billing frequency.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

func (i Interval) Valid() bool {
	switch i {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return true
	}

	return false
}

// Frequency renders the interval as an adverb ("monthly").
func (i Interval) Frequency() string {
	switch i {
	case IntervalDay:
		return "daily"
	case IntervalWeek:
		return "weekly"
	case IntervalMonth:
		return "monthly"
	case IntervalYear:
		return "yearly"
	}

	return string(i)
}

// Subscription is a recurring donation agreement mirrored from the processor.
type Subscription struct {
	ID                uuid.UUID
	DonorID           uuid.UUID
	ProjectID         *uuid.UUID
	Amount            decimal.Decimal
	Currency          string
	Interval          Interval
	Status            Status
	CheckoutSessionID *string
	ProcessorRef      *string
	NextBillingAt     *time.Time
	FailedAttempts    int
	DonorName         string  // Loaded via JOIN
	DonorEmail        string  // Loaded via JOIN
	ProjectName       *string // Loaded via JOIN
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

func (s *Subscription) Purpose() string {
	if s.ProjectName != nil && *s.ProjectName != "" {
		return *s.ProjectName
	}

	return "our mission"
}

func (s *Subscription) Ref() string {
	if s.ProcessorRef == nil {
		return ""
	}

	return *s.ProcessorRef
}
