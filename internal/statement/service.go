package statement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/money"
)

// lookback covers donations recorded before the charge settled, such as a checkout started late at night.
const lookback = 48 * time.Hour

var ErrInvalidExport = errors.New("invalid export")

//go:generate mockgen -source=service.go -destination=service_mock.go -package=statement
type Donations interface {
	List(ctx context.Context, filter donation.ListFilter) ([]*donation.Donation, error)
}

type Service struct {
	donations Donations
}

func NewService(donations Donations) *Service {
	return &Service{donations: donations}
}

// Check parses an export and matches its charges to completed donations by payment reference.
// Only donations created on the export's days are reported as unmatched.
func (s *Service) Check(ctx context.Context, r io.Reader) (*Report, error) {
	parsed, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExport, err)
	}

	report := &Report{
		Format:   parsed.Format,
		Encoding: parsed.Encoding,
		Charges:  len(parsed.Charges),
	}

	if len(parsed.Charges) == 0 {
		return report, nil
	}

	report.From, report.To = window(parsed.Charges)

	donations, err := s.donations.List(ctx, donation.ListFilter{
		Status: new(donation.StatusCompleted),
		From:   new(report.From.Add(-lookback)),
		To:     new(report.To.Add(lookback)),
	})
	if err != nil {
		return nil, fmt.Errorf("listing completed donations: %w", err)
	}

	byRef := make(map[string]*donation.Donation, len(donations))
	for _, d := range donations {
		if d.PaymentRef != nil && *d.PaymentRef != "" {
			byRef[*d.PaymentRef] = d
		}
	}

	matched := make(map[*donation.Donation]bool)

	for _, c := range parsed.Charges {
		d, ok := byRef[c.PaymentRef]
		if c.PaymentRef == "" || !ok || matched[d] {
			report.UnmatchedCharges = append(report.UnmatchedCharges, c)
			continue
		}

		matched[d] = true

		if money.Equal(d.Amount, c.Amount) && strings.EqualFold(d.Currency, c.Currency) {
			report.Matched = append(report.Matched, Match{Charge: c, Donation: d})
		} else {
			report.Mismatched = append(report.Mismatched, Match{Charge: c, Donation: d})
		}
	}

	for _, d := range donations {
		if matched[d] || d.CreatedAt.Before(report.From) || !d.CreatedAt.Before(report.To) {
			continue
		}

		report.UnmatchedDonations = append(report.UnmatchedDonations, d)
	}

	slog.Info("statement checked",
		"format", report.Format,
		"charges", report.Charges,
		"matched", len(report.Matched),
		"mismatched", len(report.Mismatched),
		"unmatched_charges", len(report.UnmatchedCharges),
		"unmatched_donations", len(report.UnmatchedDonations),
	)

	return report, nil
}

// window spans whole UTC days from the first to the last charge.
func window(charges []Charge) (time.Time, time.Time) {
	first, last := charges[0].Created, charges[0].Created
	for _, c := range charges[1:] {
		if c.Created.Before(first) {
			first = c.Created
		}

		if c.Created.After(last) {
			last = c.Created
		}
	}

	return first.Truncate(24 * time.Hour), last.Truncate(24 * time.Hour).Add(24 * time.Hour)
}
