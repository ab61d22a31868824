package diagnose

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

// MockService реализует интерфейс diagnose.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Diagnose(ctx context.Context, externalID, email, contentType string) (*models.Verdict, *models.Evidence, error) {
	args := m.Called(ctx, externalID, email, contentType)
	if res := args.Get(0); res != nil {
		return res.(*models.Verdict), args.Get(1).(*models.Evidence), args.Error(2)
	}
	return nil, nil, args.Error(2)
}

func TestDiagnoseHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		url            string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "вердикт с доказательствами",
			url:  "/access/diagnose?external_id=tg-42&content_type=article",
			setupMock: func(m *MockService) {
				m.On("Diagnose", mock.Anything, "tg-42", "", "article").
					Return(
						&models.Verdict{Allowed: false, Reason: models.ReasonNoActiveEntitlement},
						&models.Evidence{Cancellations: []*models.CancellationRecord{
							{ID: 1, UserID: 1, ContentType: "article", Reason: "manager"},
						}},
						nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"cancellations"`,
		},
		{
			name:           "не указан тип контента",
			url:            "/access/diagnose?external_id=tg-42",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `content_type and external_id or email are required`,
		},
		{
			name:           "не указаны идентификаторы",
			url:            "/access/diagnose?content_type=article",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `content_type and external_id or email are required`,
		},
		{
			name: "хранилище недоступно",
			url:  "/access/diagnose?email=user%40example.com&content_type=article",
			setupMock: func(m *MockService) {
				m.On("Diagnose", mock.Anything, "", "user@example.com", "article").
					Return(nil, nil, errors.New("connection refused"))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `"store unavailable, verdict unknown"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
