package statement_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/statement"
)

const export = `id,Created date (UTC),Amount,Currency,Status,PaymentIntent ID
ch_1,2026-01-30 14:02:11,25.00,usd,Paid,pi_1
ch_2,2026-01-30 15:00:00,40.00,usd,Paid,pi_2
ch_3,2026-01-30 16:00:00,15.00,usd,Paid,pi_unknown
ch_4,2026-01-30 17:00:00,5.00,usd,Paid,
`

func completed(ref string, amount string, created time.Time) *donation.Donation {
	return &donation.Donation{
		ID:         uuid.New(),
		Amount:     decimal.RequireFromString(amount),
		Currency:   "usd",
		Status:     donation.StatusCompleted,
		PaymentRef: &ref,
		CreatedAt:  created,
	}
}

func TestService_Check(t *testing.T) {
	day := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)

	matched := completed("pi_1", "25", day.Add(14*time.Hour))
	mismatched := completed("pi_2", "45", day.Add(15*time.Hour))
	missing := completed("pi_3", "10", day.Add(18*time.Hour))
	earlier := completed("pi_4", "10", day.Add(-20*time.Hour))

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	donations := statement.NewMockDonations(ctrl)
	donations.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f donation.ListFilter) ([]*donation.Donation, error) {
			require.NotNil(t, f.Status)
			assert.Equal(t, donation.StatusCompleted, *f.Status)
			assert.Equal(t, day.Add(-48*time.Hour), *f.From)
			assert.Equal(t, day.Add(72*time.Hour), *f.To)
			return []*donation.Donation{matched, mismatched, missing, earlier}, nil
		})

	report, err := statement.NewService(donations).Check(context.Background(), strings.NewReader(export))
	require.NoError(t, err)

	assert.Equal(t, "payments", report.Format)
	assert.Equal(t, 4, report.Charges)
	assert.Equal(t, day, report.From)
	assert.Equal(t, day.Add(24*time.Hour), report.To)
	assert.False(t, report.Clean())

	require.Len(t, report.Matched, 1)
	assert.Same(t, matched, report.Matched[0].Donation)

	require.Len(t, report.Mismatched, 1)
	assert.Equal(t, "ch_2", report.Mismatched[0].Charge.ID)

	require.Len(t, report.UnmatchedCharges, 2)
	assert.Equal(t, "ch_3", report.UnmatchedCharges[0].ID)
	assert.Equal(t, "ch_4", report.UnmatchedCharges[1].ID)

	require.Len(t, report.UnmatchedDonations, 1)
	assert.Same(t, missing, report.UnmatchedDonations[0])
}

func TestService_Check_Clean(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	created := time.Date(2026, 1, 30, 14, 0, 0, 0, time.UTC)

	donations := statement.NewMockDonations(ctrl)
	donations.EXPECT().
		List(gomock.Any(), gomock.Any()).
		Return([]*donation.Donation{completed("pi_1", "25.0", created)}, nil)

	csv := "id,Created date (UTC),Amount,Currency,Status,PaymentIntent ID\nch_1,2026-01-30 14:02:11,25.00,USD,Paid,pi_1\n"

	report, err := statement.NewService(donations).Check(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Len(t, report.Matched, 1)
}

func TestService_Check_NoCharges(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	donations := statement.NewMockDonations(ctrl)

	csv := "id,Created date (UTC),Amount,Currency,Status,PaymentIntent ID\nch_1,2026-01-30 14:02:11,25.00,usd,Failed,pi_1\n"

	report, err := statement.NewService(donations).Check(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Zero(t, report.Charges)
	assert.True(t, report.Clean())
}

func TestService_Check_ListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	donations := statement.NewMockDonations(ctrl)
	donations.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := statement.NewService(donations).Check(context.Background(), strings.NewReader(export))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestService_Check_InvalidExport(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := statement.NewService(statement.NewMockDonations(ctrl)).Check(context.Background(), strings.NewReader("a;b\n1;2\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, statement.ErrInvalidExport))
	assert.True(t, errors.Is(err, statement.ErrUnknownFormat))
}
