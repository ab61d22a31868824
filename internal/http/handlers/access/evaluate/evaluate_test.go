package evaluate

import (
	"context"
	"errors"
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

// MockService реализует интерфейс evaluate.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Evaluate(ctx context.Context, externalID, email, contentType string) (*models.Verdict, error) {
	args := m.Called(ctx, externalID, email, contentType)
	if res := args.Get(0); res != nil {
		return res.(*models.Verdict), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockNotifier реализует интерфейс evaluate.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyDenied(externalID, contentType string, reason models.Reason) {
	m.Called(externalID, contentType, reason)
}

func TestEvaluateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*MockService, *MockNotifier)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "доступ разрешен",
			body: `{"external_id":"tg-42","content_type":"article"}`,
			setupMocks: func(s *MockService, _ *MockNotifier) {
				s.On("Evaluate", mock.Anything, "tg-42", "", "article").
					Return(&models.Verdict{Allowed: true, Reason: models.ReasonActiveSubscription}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"reason":"active_subscription"`,
		},
		{
			name: "отказ публикует событие",
			body: `{"external_id":"tg-42","content_type":"article"}`,
			setupMocks: func(s *MockService, n *MockNotifier) {
				s.On("Evaluate", mock.Anything, "tg-42", "", "article").
					Return(&models.Verdict{Allowed: false, Reason: models.ReasonNoActiveEntitlement}, nil)
				n.On("NotifyDenied", "tg-42", "article", models.ReasonNoActiveEntitlement).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"reason":"no_active_entitlement"`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"external_id":`,
			setupMocks:     func(_ *MockService, _ *MockNotifier) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"invalid request body"`,
		},
		{
			name:           "отсутствует тип контента",
			body:           `{"external_id":"tg-42"}`,
			setupMocks:     func(_ *MockService, _ *MockNotifier) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field ContentType is a required field`,
		},
		{
			name: "хранилище недоступно",
			body: `{"external_id":"tg-42","content_type":"article"}`,
			setupMocks: func(s *MockService, _ *MockNotifier) {
				s.On("Evaluate", mock.Anything, "tg-42", "", "article").
					Return(nil, errors.New("connection refused"))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `"store unavailable, verdict unknown"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			mockNotifier := new(MockNotifier)
			tt.setupMocks(mockService, mockNotifier)

			handler := New(logger, mockService, mockNotifier)

			req := httptest.NewRequest(http.MethodPost, "/access/evaluate", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
			mockNotifier.AssertExpectations(t)
		})
	}
}
