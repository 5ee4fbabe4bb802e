package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	ProjectTotals(ctx context.Context) ([]ProjectTotal, error)
	GetProject(ctx context.Context, id uuid.UUID) (*Project, error)
}

// Project is a fundraising cause and its recorded raised total.
type Project struct {
	ID     uuid.UUID
	Name   string
	Raised decimal.Decimal
}

// ProjectTotal compares the recorded raised total with the sum of completed donations.
type ProjectTotal struct {
	ProjectID      uuid.UUID
	ProjectName    string
	Raised         decimal.Decimal
	Completed      decimal.Decimal
	CompletedCount int
}

func (p ProjectTotal) Drift() decimal.Decimal {
	return p.Raised.Sub(p.Completed)
}

func (p ProjectTotal) Balanced() bool {
	return p.Drift().IsZero()
}

type Report struct {
	Projects []ProjectTotal
	Drifted  []ProjectTotal
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Audit recomputes every project's total from its completed donations and flags mismatches.
func (s *Service) Audit(ctx context.Context) (*Report, error) {
	totals, err := s.repo.ProjectTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading project totals: %w", err)
	}

	report := &Report{Projects: totals}

	for _, t := range totals {
		if !t.Balanced() {
			report.Drifted = append(report.Drifted, t)
		}
	}

	return report, nil
}

// Project returns ErrProjectNotFound for unknown ids.
func (s *Service) Project(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.repo.GetProject(ctx, id)
}
