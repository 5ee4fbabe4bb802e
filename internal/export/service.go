// Package export bundles donation receipts for bookkeeping and tax filings.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/receipt"
)

var (
	ErrRendererDisabled = errors.New("receipt rendering is not configured")
	ErrNotCompleted     = errors.New("donation is not completed")
)

type Donations interface {
	Get(ctx context.Context, id uuid.UUID) (*donation.Donation, error)
	List(ctx context.Context, filter donation.ListFilter) ([]*donation.Donation, error)
}

type Renderer interface {
	Render(ctx context.Context, r receipt.Receipt) ([]byte, error)
}

// Item links an exported donation to its receipt file.
type Item struct {
	Donation *donation.Donation
	FilePath string
}

type Filter struct {
	From      *time.Time
	To        *time.Time
	ProjectID *uuid.UUID
}

// Service renders receipts for completed donations. A nil renderer disables it.
type Service struct {
	donations Donations
	renderer  Renderer
	now       func() time.Time
}

func NewService(donations Donations, renderer Renderer) *Service {
	return &Service{
		donations: donations,
		renderer:  renderer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Enabled() bool {
	return s.renderer != nil
}

// Export writes one receipt PDF per completed donation matching filter into outputDir.
func (s *Service) Export(ctx context.Context, filter Filter, outputDir string) ([]Item, error) {
	if !s.Enabled() {
		return nil, ErrRendererDisabled
	}

	donations, err := s.donations.List(ctx, donation.ListFilter{
		Status:    new(donation.StatusCompleted),
		ProjectID: filter.ProjectID,
		From:      filter.From,
		To:        filter.To,
	})
	if err != nil {
		return nil, fmt.Errorf("listing donations: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(donations))

	for _, d := range donations {
		pdf, err := s.renderer.Render(ctx, receipt.ForDonation(d, s.now()))
		if err != nil {
			return nil, fmt.Errorf("rendering receipt for donation %s: %w", d.ID, err)
		}

		path := filepath.Join(outputDir, filename(d))
		if err := os.WriteFile(path, pdf, 0o644); err != nil {
			return nil, fmt.Errorf("writing receipt: %w", err)
		}

		items = append(items, Item{Donation: d, FilePath: path})
	}

	return items, nil
}

// Receipt renders the receipt for a single completed donation.
func (s *Service) Receipt(ctx context.Context, id uuid.UUID) (receipt.Receipt, []byte, error) {
	if !s.Enabled() {
		return receipt.Receipt{}, nil, ErrRendererDisabled
	}

	d, err := s.donations.Get(ctx, id)
	if err != nil {
		return receipt.Receipt{}, nil, err
	}

	if d.Status != donation.StatusCompleted {
		return receipt.Receipt{}, nil, ErrNotCompleted
	}

	r := receipt.ForDonation(d, s.now())

	pdf, err := s.renderer.Render(ctx, r)
	if err != nil {
		return receipt.Receipt{}, nil, fmt.Errorf("rendering receipt: %w", err)
	}

	return r, pdf, nil
}

// Summary lists the exported donations followed by a total per currency.
func (s *Service) Summary(items []Item) string {
	var sb strings.Builder

	totals := make(map[string]decimal.Decimal)

	var currencies []string

	for _, item := range items {
		d := item.Donation
		currency := strings.ToUpper(d.Currency)

		fmt.Fprintf(&sb, "* %s | %s | %s %s | %s | %s\n",
			d.CreatedAt.Format(time.DateOnly), d.DonorName, d.Amount.StringFixed(2), currency,
			d.Purpose(), filepath.Base(item.FilePath))

		if _, ok := totals[currency]; !ok {
			currencies = append(currencies, currency)
		}

		totals[currency] = totals[currency].Add(d.Amount)
	}

	for _, c := range currencies {
		fmt.Fprintf(&sb, "Total %s: %s\n", c, totals[c].StringFixed(2))
	}

	return sb.String()
}

// filename is YYYYMMDD_Donor_Name_<short id>.pdf.
func filename(d *donation.Donation) string {
	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, d.DonorName)

	if safe == "" {
		safe = "donor"
	}

	return fmt.Sprintf("%s_%s_%s.pdf", d.CreatedAt.Format("20060102"), safe, d.ID.String()[:8])
}
