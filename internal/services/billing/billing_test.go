package billing

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aicollect/restriction-engine/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) EnsureUser(ctx context.Context, externalID, email string) (*models.User, error) {
	args := m.Called(ctx, externalID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) UpsertPeriod(ctx context.Context, userID int, billingID string,
	status models.PeriodStatus, periodStart, periodEnd time.Time) (*models.SubscriptionPeriod, error) {
	args := m.Called(ctx, userID, billingID, status, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionPeriod), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestBillingService_UpsertPeriod(t *testing.T) {
	user := &models.User{ID: 1, ExternalID: "line-77"}
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	validReq := models.DummyPeriodUpsert{
		ExternalID:         "line-77",
		BillingID:          "sub_abc",
		SubscriptionStatus: "active",
		CurrentPeriodStart: start.Format(time.RFC3339),
		CurrentPeriodEnd:   end.Format(time.RFC3339),
	}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		mutate     func(req *models.DummyPeriodUpsert)
		wantErr    error
	}{
		{
			name: "success upsert creates user on first contact",
			setupMocks: func(r *RepoMock) {
				r.On("EnsureUser", mock.Anything, "line-77", "").Return(user, nil).Once()
				r.On("UpsertPeriod", mock.Anything, 1, "sub_abc",
					models.PeriodStatusActive, start, end).
					Return(&models.SubscriptionPeriod{
						ID: 5, UserID: 1, BillingID: "sub_abc",
						SubscriptionStatus: models.PeriodStatusActive,
					}, nil).Once()
			},
			mutate: func(_ *models.DummyPeriodUpsert) {},
		},
		{
			name:       "unknown status rejected",
			setupMocks: func(_ *RepoMock) {},
			mutate: func(req *models.DummyPeriodUpsert) {
				req.SubscriptionStatus = "suspended"
			},
			wantErr: models.ErrInvalidInput,
		},
		{
			name:       "malformed period start rejected",
			setupMocks: func(_ *RepoMock) {},
			mutate: func(req *models.DummyPeriodUpsert) {
				req.CurrentPeriodStart = "01-06-2025"
			},
			wantErr: models.ErrInvalidInput,
		},
		{
			name:       "period end before start rejected",
			setupMocks: func(_ *RepoMock) {},
			mutate: func(req *models.DummyPeriodUpsert) {
				req.CurrentPeriodEnd = start.AddDate(0, -1, 0).Format(time.RFC3339)
			},
			wantErr: models.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			svc := NewBillingService(repo, newNoopLogger())

			tt.setupMocks(repo)
			req := validReq
			tt.mutate(&req)

			period, err := svc.UpsertPeriod(context.Background(), req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "sub_abc", period.BillingID)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestBillingService_UpsertPeriod_NonGrantingStatusStored(t *testing.T) {
	repo := new(RepoMock)
	svc := NewBillingService(repo, newNoopLogger())

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	repo.On("EnsureUser", mock.Anything, "line-77", "").
		Return(&models.User{ID: 1, ExternalID: "line-77"}, nil).Once()
	repo.On("UpsertPeriod", mock.Anything, 1, "sub_abc",
		models.PeriodStatusPastDue, start, end).
		Return(&models.SubscriptionPeriod{
			ID: 5, UserID: 1, BillingID: "sub_abc",
			SubscriptionStatus: models.PeriodStatusPastDue,
		}, nil).Once()

	period, err := svc.UpsertPeriod(context.Background(), models.DummyPeriodUpsert{
		ExternalID:         "line-77",
		BillingID:          "sub_abc",
		SubscriptionStatus: "past_due",
		CurrentPeriodStart: start.Format(time.RFC3339),
		CurrentPeriodEnd:   end.Format(time.RFC3339),
	})

	assert.NoError(t, err)
	assert.False(t, period.SubscriptionStatus.GrantsAccess())
	repo.AssertExpectations(t)
}
