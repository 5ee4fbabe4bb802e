package donor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Africa-Access-Water/afaw-api/internal/donor"
)

func TestService_FindOrCreate(t *testing.T) {
	existing := &donor.Donor{ID: uuid.New(), Name: "Ada", Email: "ada@example.org"}

	type testCase struct {
		name      string
		email     string
		setupMock func(m *donor.MockRepository)
		wantID    *uuid.UUID
		wantErr   bool
	}

	tests := []testCase{
		{
			name:  "ExistingCaseInsensitive",
			email: "  ADA@Example.org ",
			setupMock: func(m *donor.MockRepository) {
				m.EXPECT().GetDonorByEmail(gomock.Any(), "ada@example.org").Return(existing, nil)
			},
			wantID: &existing.ID,
		},
		{
			name:  "CreatesOnFirstContact",
			email: "New@Example.org",
			setupMock: func(m *donor.MockRepository) {
				m.EXPECT().GetDonorByEmail(gomock.Any(), "new@example.org").Return(nil, donor.ErrNotFound)
				m.EXPECT().
					CreateDonor(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, d *donor.Donor) error {
						assert.Equal(t, "new@example.org", d.Email)
						d.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name:  "LookupError",
			email: "x@example.org",
			setupMock: func(m *donor.MockRepository) {
				m.EXPECT().GetDonorByEmail(gomock.Any(), "x@example.org").Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := donor.NewMockRepository(ctrl)
			tt.setupMock(repo)

			got, err := donor.NewService(repo).FindOrCreate(context.Background(), "Ada", tt.email)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)

			if tt.wantID != nil {
				assert.Equal(t, *tt.wantID, got.ID)
			}
		})
	}
}

func TestService_AttachCustomer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	d := &donor.Donor{ID: uuid.New()}

	repo := donor.NewMockRepository(ctrl)
	repo.EXPECT().SetCustomerRef(gomock.Any(), d.ID, "cus_123").Return(nil)

	require.NoError(t, donor.NewService(repo).AttachCustomer(context.Background(), d, "cus_123"))
	require.NotNil(t, d.CustomerRef)
	assert.Equal(t, "cus_123", *d.CustomerRef)
}
