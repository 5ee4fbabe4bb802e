package donor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=donor
type Repository interface {
	CreateDonor(ctx context.Context, d *Donor) error
	GetDonor(ctx context.Context, id uuid.UUID) (*Donor, error)
	GetDonorByEmail(ctx context.Context, email string) (*Donor, error)
	SetCustomerRef(ctx context.Context, id uuid.UUID, customerRef string) error
	ListDonors(ctx context.Context) ([]*Donor, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// FindOrCreate returns the donor registered under email, creating one on first contact.
func (s *Service) FindOrCreate(ctx context.Context, name, email string) (*Donor, error) {
	email = NormalizeEmail(email)

	d, err := s.repo.GetDonorByEmail(ctx, email)
	if err == nil {
		return d, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("looking up donor: %w", err)
	}

	d = &Donor{Name: name, Email: email}
	if err := s.repo.CreateDonor(ctx, d); err != nil {
		return nil, err
	}

	return d, nil
}

func (s *Service) AttachCustomer(ctx context.Context, d *Donor, customerRef string) error {
	if err := s.repo.SetCustomerRef(ctx, d.ID, customerRef); err != nil {
		return err
	}

	d.CustomerRef = &customerRef

	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Donor, error) {
	return s.repo.GetDonor(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Donor, error) {
	return s.repo.ListDonors(ctx)
}
