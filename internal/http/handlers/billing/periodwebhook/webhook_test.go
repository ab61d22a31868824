package periodwebhook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aicollect/restriction-engine/internal/models"
)

// MockService реализует интерфейс periodwebhook.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) UpsertPeriod(ctx context.Context, req models.DummyPeriodUpsert) (*models.SubscriptionPeriod, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*models.SubscriptionPeriod), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestPeriodWebhookHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	const secret = "webhook_secret"

	validBody := `{
		"external_id": "line-77",
		"billing_subscription_id": "sub_abc",
		"subscription_status": "active",
		"current_period_start": "2025-06-01T00:00:00Z",
		"current_period_end": "2025-07-01T00:00:00Z"
	}`

	tests := []struct {
		name           string
		secret         string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "успешное сохранение периода",
			secret: secret,
			body:   validBody,
			setupMock: func(m *MockService) {
				m.On("UpsertPeriod", mock.Anything, mock.MatchedBy(func(req models.DummyPeriodUpsert) bool {
					return req.BillingID == "sub_abc" && req.SubscriptionStatus == "active"
				})).Return(&models.SubscriptionPeriod{
					ID: 5, UserID: 1, BillingID: "sub_abc",
					SubscriptionStatus: models.PeriodStatusActive,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"BillingID":"sub_abc"`,
		},
		{
			name:           "неверный секрет",
			secret:         "wrong",
			body:           validBody,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"unauthorized"`,
		},
		{
			name:           "некорректный JSON",
			secret:         secret,
			body:           `{"external_id":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"invalid request body"`,
		},
		{
			name:           "отсутствует идентификатор подписки",
			secret:         secret,
			body:           `{"external_id":"line-77","subscription_status":"active","current_period_start":"2025-06-01T00:00:00Z","current_period_end":"2025-07-01T00:00:00Z"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field BillingID is a required field`,
		},
		{
			name:   "статус вне словаря",
			secret: secret,
			body:   validBody,
			setupMock: func(m *MockService) {
				m.On("UpsertPeriod", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("unknown subscription_status %q: %w",
						"suspended", models.ErrInvalidInput))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `unknown subscription_status`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService, secret)

			req := httptest.NewRequest(http.MethodPost, "/billing/periods", strings.NewReader(tt.body))
			req.Header.Set("X-Webhook-Secret", tt.secret)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
