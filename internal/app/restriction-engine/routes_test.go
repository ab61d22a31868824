package restrictionengine

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicollect/restriction-engine/internal/config"
	libjwt "github.com/aicollect/restriction-engine/internal/lib/jwt"
	accessservice "github.com/aicollect/restriction-engine/internal/services/access"
	billingservice "github.com/aicollect/restriction-engine/internal/services/billing"
	notifierservice "github.com/aicollect/restriction-engine/internal/services/notifier"
	subscriptionservice "github.com/aicollect/restriction-engine/internal/services/subscription"
)

// Зависимости сервисов здесь не нужны: проверяется только, какие маршруты
// закрыты JWT middleware, запросы не доходят до хранилища.
func newTestRouter(t *testing.T) (chi.Router, *libjwt.MakerImpl) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	maker := libjwt.NewJWTMaker("test-secret", time.Hour)
	cfg := &config.Config{
		DefaultContentType:   "article",
		BillingWebhookSecret: "hook-secret",
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg,
		accessservice.NewAccessService(nil, nil, logger),
		subscriptionservice.NewSubscriptionService(nil, nil, logger),
		billingservice.NewBillingService(nil, logger),
		notifierservice.New(nil, logger),
		maker,
		nil,
	)
	return router, maker
}

func TestRoutes_DiagnoseRequiresJWT(t *testing.T) {
	router, maker := newTestRouter(t)

	t.Run("диагностика без токена возвращает 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/access/diagnose?external_id=tg-42&content_type=article", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.True(t, strings.Contains(w.Body.String(), "authorization"))
	})

	t.Run("диагностика с токеном доходит до обработчика", func(t *testing.T) {
		token, err := maker.GenerateToken("ops", "admin")
		require.NoError(t, err)

		// content_type не указан: обработчик отвечает 422 до обращения
		// к сервису, чего достаточно, чтобы убедиться, что middleware пройден.
		req := httptest.NewRequest(http.MethodGet, "/api/v1/access/diagnose?external_id=tg-42", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("проверка доступа остаётся открытой", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/access/evaluate",
			strings.NewReader("{"))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
