package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Africa-Access-Water/afaw-api/internal/ledger"
)

type writerFunc func(ctx context.Context, projectID uuid.UUID, amount decimal.Decimal) (int64, error)

func (f writerFunc) AddRaised(ctx context.Context, projectID uuid.UUID, amount decimal.Decimal) (int64, error) {
	return f(ctx, projectID, amount)
}

func TestIncrement(t *testing.T) {
	projectID := uuid.New()

	type testCase struct {
		name         string
		amount       string
		writer       writerFunc
		wantWriteErr bool
		wantErr      error
	}

	tests := []testCase{
		{
			name:   "Applied",
			amount: "25.00",
			writer: func(_ context.Context, id uuid.UUID, amount decimal.Decimal) (int64, error) {
				assert.Equal(t, projectID, id)
				assert.Equal(t, "25.00", amount.StringFixed(2))
				return 1, nil
			},
		},
		{
			name:   "ZeroAllowed",
			amount: "0",
			writer: func(context.Context, uuid.UUID, decimal.Decimal) (int64, error) { return 1, nil },
		},
		{
			name:   "Negative",
			amount: "-1",
			writer: func(context.Context, uuid.UUID, decimal.Decimal) (int64, error) {
				return 0, errors.New("writer must not be called")
			},
			wantWriteErr: true,
			wantErr:      ledger.ErrNegativeAmount,
		},
		{
			name:    "MissingProject",
			amount:  "10",
			writer:  func(context.Context, uuid.UUID, decimal.Decimal) (int64, error) { return 0, nil },
			wantWriteErr: true,
			wantErr:      ledger.ErrProjectNotFound,
		},
		{
			name:   "StorageFailure",
			amount: "10",
			writer: func(context.Context, uuid.UUID, decimal.Decimal) (int64, error) {
				return 0, errors.New("connection reset")
			},
			wantWriteErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.Increment(context.Background(), tt.writer, projectID, decimal.RequireFromString(tt.amount))

			if tt.wantWriteErr {
				var werr *ledger.WriteError
				require.ErrorAs(t, err, &werr)
				assert.Equal(t, projectID, werr.ProjectID)

				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_Audit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	balanced := ledger.ProjectTotal{
		ProjectID: uuid.New(),
		Raised:    decimal.RequireFromString("100.00"),
		Completed: decimal.RequireFromString("100"),
	}
	drifted := ledger.ProjectTotal{
		ProjectID: uuid.New(),
		Raised:    decimal.RequireFromString("150.00"),
		Completed: decimal.RequireFromString("100.00"),
	}

	repo := ledger.NewMockRepository(ctrl)
	repo.EXPECT().ProjectTotals(gomock.Any()).Return([]ledger.ProjectTotal{balanced, drifted}, nil)

	report, err := ledger.NewService(repo).Audit(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Projects, 2)
	require.Len(t, report.Drifted, 1)
	assert.Equal(t, drifted.ProjectID, report.Drifted[0].ProjectID)
	assert.Equal(t, "50.00", report.Drifted[0].Drift().StringFixed(2))
}
