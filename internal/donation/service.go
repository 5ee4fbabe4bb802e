package donation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=donation
type Repository interface {
	CreateDonation(ctx context.Context, d *Donation) error
	GetDonation(ctx context.Context, id uuid.UUID) (*Donation, error)
	SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error
	ListDonations(ctx context.Context, filter ListFilter) ([]*Donation, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	DonorID   uuid.UUID
	ProjectID *uuid.UUID
	Amount    decimal.Decimal
	Currency  string
}

type ListFilter struct {
	Status    *Status
	ProjectID *uuid.UUID
	DonorID   *uuid.UUID
	Currency  *string
	From      *time.Time // Inclusive, on created_at
	To        *time.Time // Exclusive, on created_at
}

// Create records a one-time donation in the initiated state.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Donation, error) {
	if params.Amount.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative: %s", params.Amount)
	}

	d := &Donation{
		DonorID:   params.DonorID,
		ProjectID: params.ProjectID,
		Amount:    params.Amount,
		Currency:  params.Currency,
		Status:    StatusInitiated,
	}
	if err := s.repo.CreateDonation(ctx, d); err != nil {
		return nil, err
	}

	return d, nil
}

// AttachCheckoutSession stores the processor session id so later webhooks can find the donation.
func (s *Service) AttachCheckoutSession(ctx context.Context, d *Donation, sessionID string) error {
	if err := s.repo.SetCheckoutSession(ctx, d.ID, sessionID); err != nil {
		return err
	}

	d.CheckoutSessionID = &sessionID

	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Donation, error) {
	return s.repo.GetDonation(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Donation, error) {
	return s.repo.ListDonations(ctx, filter)
}

// ListForProject returns the completed donations credited to a project.
func (s *Service) ListForProject(ctx context.Context, projectID uuid.UUID) ([]*Donation, error) {
	return s.repo.ListDonations(ctx, ListFilter{
		Status:    new(StatusCompleted),
		ProjectID: &projectID,
	})
}
