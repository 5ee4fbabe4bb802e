package export

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/receipt"
)

type mockDonations struct {
	list   func(ctx context.Context, filter donation.ListFilter) ([]*donation.Donation, error)
	byID   map[uuid.UUID]*donation.Donation
	filter donation.ListFilter
}

func (m *mockDonations) Get(_ context.Context, id uuid.UUID) (*donation.Donation, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, donation.ErrNotFound
	}

	return d, nil
}

func (m *mockDonations) List(ctx context.Context, filter donation.ListFilter) ([]*donation.Donation, error) {
	m.filter = filter
	if m.list != nil {
		return m.list(ctx, filter)
	}

	return nil, nil
}

func newRenderer(t *testing.T) *receipt.Client {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f, _, err := r.FormFile("files")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()

		html, _ := io.ReadAll(f)

		w.Header().Set("Content-Type", "application/pdf")

		if strings.Contains(string(html), "Broken Donor") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		_, _ = w.Write([]byte("%PDF fake"))
	}))
	t.Cleanup(ts.Close)

	return receipt.NewClient(ts.URL, 5*time.Second, receipt.DefaultOrganization)
}

func TestService_Export(t *testing.T) {
	date := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	project := "Borehole Kafue"

	d1 := &donation.Donation{
		ID: uuid.New(), DonorName: "Ada Lovelace", Amount: decimal.RequireFromString("25"),
		Currency: "usd", Status: donation.StatusCompleted, PaymentRef: new("pi_1"),
		ProjectName: &project, CreatedAt: date,
	}
	d2 := &donation.Donation{
		ID: uuid.New(), DonorName: "", Amount: decimal.RequireFromString("10.5"),
		Currency: "usd", Status: donation.StatusCompleted, CreatedAt: date.Add(time.Hour),
	}

	repo := &mockDonations{
		list: func(context.Context, donation.ListFilter) ([]*donation.Donation, error) {
			return []*donation.Donation{d1, d2}, nil
		},
	}

	svc := NewService(repo, newRenderer(t))
	dir := filepath.Join(t.TempDir(), "receipts")

	items, err := svc.Export(context.Background(), Filter{From: &date}, dir)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NotNil(t, repo.filter.Status)
	assert.Equal(t, donation.StatusCompleted, *repo.filter.Status)
	assert.Equal(t, &date, repo.filter.From)

	assert.Equal(t, "20260314_Ada_Lovelace_"+d1.ID.String()[:8]+".pdf", filepath.Base(items[0].FilePath))
	assert.Equal(t, "20260314_donor_"+d2.ID.String()[:8]+".pdf", filepath.Base(items[1].FilePath))

	content, err := os.ReadFile(items[0].FilePath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF fake", string(content))

	summary := svc.Summary(items)
	assert.Contains(t, summary, "* 2026-03-14 | Ada Lovelace | 25.00 USD | Borehole Kafue | 20260314_Ada_Lovelace_")
	assert.Contains(t, summary, "our mission")
	assert.Contains(t, summary, "Total USD: 35.50")
}

func TestService_Export_RenderFailure(t *testing.T) {
	repo := &mockDonations{
		list: func(context.Context, donation.ListFilter) ([]*donation.Donation, error) {
			return []*donation.Donation{{
				ID: uuid.New(), DonorName: "Broken Donor", Amount: decimal.NewFromInt(5),
				Currency: "usd", Status: donation.StatusCompleted,
			}}, nil
		},
	}

	_, err := NewService(repo, newRenderer(t)).Export(context.Background(), Filter{}, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code 502")
}

func TestService_Receipt(t *testing.T) {
	completed := &donation.Donation{
		ID: uuid.New(), DonorName: "Ada", Amount: decimal.NewFromInt(25),
		Currency: "usd", Status: donation.StatusCompleted, PaymentRef: new("pi_1"),
	}
	pending := &donation.Donation{ID: uuid.New(), Status: donation.StatusInitiated}

	repo := &mockDonations{byID: map[uuid.UUID]*donation.Donation{
		completed.ID: completed,
		pending.ID:   pending,
	}}

	type testCase struct {
		name    string
		svc     *Service
		id      uuid.UUID
		wantErr error
	}

	tests := []testCase{
		{name: "Completed", svc: NewService(repo, newRenderer(t)), id: completed.ID},
		{name: "NotCompleted", svc: NewService(repo, newRenderer(t)), id: pending.ID, wantErr: ErrNotCompleted},
		{name: "NotFound", svc: NewService(repo, newRenderer(t)), id: uuid.New(), wantErr: donation.ErrNotFound},
		{name: "Disabled", svc: NewService(repo, nil), id: completed.ID, wantErr: ErrRendererDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, pdf, err := tt.svc.Receipt(context.Background(), tt.id)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "pi_1", r.TransactionRef)
			assert.Equal(t, receipt.MethodCard, r.Method)
			assert.Equal(t, "%PDF fake", string(pdf))
		})
	}
}
