package subscription

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=subscription
type Repository interface {
	CreateSubscription(ctx context.Context, s *Subscription) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error)
	SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error
	ListSubscriptions(ctx context.Context, filter ListFilter) ([]*Subscription, error)
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
	Interval  Interval
}

type ListFilter struct {
	Status  *Status
	DonorID *uuid.UUID
}

// Create records a subscription in the initiated state. An empty interval defaults to monthly.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Subscription, error) {
	if params.Interval == "" {
		params.Interval = IntervalMonth
	}

	if !params.Interval.Valid() {
		return nil, fmt.Errorf("invalid interval %q", params.Interval)
	}

	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive: %s", params.Amount)
	}

	sub := &Subscription{
		DonorID:   params.DonorID,
		ProjectID: params.ProjectID,
		Amount:    params.Amount,
		Currency:  params.Currency,
		Interval:  params.Interval,
		Status:    StatusInitiated,
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

func (s *Service) AttachCheckoutSession(ctx context.Context, sub *Subscription, sessionID string) error {
	if err := s.repo.SetCheckoutSession(ctx, sub.ID, sessionID); err != nil {
		return err
	}

	sub.CheckoutSessionID = &sessionID

	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return s.repo.GetSubscription(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Subscription, error) {
	return s.repo.ListSubscriptions(ctx, filter)
}
