// Package checkout starts hosted payment flows for one-time and recurring donations.
package checkout

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/subscription"
)

var ErrInvalidRequest = errors.New("invalid checkout request")

// Request is the donor-supplied checkout form.
type Request struct {
	Name      string          `json:"name" validate:"required,max=200"`
	Email     string          `json:"email" validate:"required,email"`
	ProjectID *uuid.UUID      `json:"project_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency" validate:"required,len=3,alpha"`
	Recurring bool            `json:"recurring"`
	Interval  string          `json:"interval" validate:"omitempty,oneof=day week month year"`
}

// Result is returned to the client, which redirects the donor to URL.
type Result struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	URL       string    `json:"url"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (r *Request) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Currency = strings.ToLower(strings.TrimSpace(r.Currency))

	if r.Recurring && r.Interval == "" {
		r.Interval = string(subscription.IntervalMonth)
	}
}

func (r *Request) validate() error {
	if err := validate.Struct(r); err != nil {
		return errors.Join(ErrInvalidRequest, err)
	}

	if !r.Amount.IsPositive() {
		return errors.Join(ErrInvalidRequest, errors.New("amount must be positive"))
	}

	return nil
}
