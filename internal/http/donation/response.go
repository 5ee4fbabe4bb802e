package donation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
)

type donationResponse struct {
	ID              uuid.UUID       `json:"id"`
	Type            string          `json:"type"`
	DonorID         uuid.UUID       `json:"donor_id"`
	DonorName       string          `json:"donor_name,omitempty"`
	DonorEmail      string          `json:"donor_email,omitempty"`
	ProjectID       *uuid.UUID      `json:"project_id,omitempty"`
	ProjectName     *string         `json:"project_name,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          donation.Status `json:"status"`
	PaymentRef      *string         `json:"payment_ref,omitempty"`
	SubscriptionRef *string         `json:"subscription_ref,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

func toResponse(d *donation.Donation) donationResponse {
	kind := "one-time"
	if d.SubscriptionRef != nil {
		kind = "recurring"
	}

	return donationResponse{
		ID:              d.ID,
		Type:            kind,
		DonorID:         d.DonorID,
		DonorName:       d.DonorName,
		DonorEmail:      d.DonorEmail,
		ProjectID:       d.ProjectID,
		ProjectName:     d.ProjectName,
		Amount:          d.Amount,
		Currency:        d.Currency,
		Status:          d.Status,
		PaymentRef:      d.PaymentRef,
		SubscriptionRef: d.SubscriptionRef,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func toResponseList(ds []*donation.Donation) []donationResponse {
	resp := make([]donationResponse, len(ds))
	for i, d := range ds {
		resp[i] = toResponse(d)
	}

	return resp
}
