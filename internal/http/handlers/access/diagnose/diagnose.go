// Package diagnose реализует диагностический HTTP-обработчик: возвращает
// вердикт вместе со строками хранилища, на основании которых он вынесен.
// Используется поддержкой при разборе обращений.
package diagnose

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/aicollect/restriction-engine/internal/http/response"
	"github.com/aicollect/restriction-engine/internal/lib/sl"
	"github.com/aicollect/restriction-engine/internal/models"
)

// Service описывает интерфейс диагностики доступа.
type Service interface {
	Diagnose(ctx context.Context, externalID, email, contentType string) (*models.Verdict, *models.Evidence, error)
}

// Handler управляет диагностическими HTTP-запросами.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Диагностика доступа пользователя
// @Description Возвращает вердикт и доказательную базу: период, подписку, последнюю запись журнала и историю отмен.
// @Tags Access
// @Produce  json
// @Param external_id query string false "Идентификатор в мессенджере"
// @Param email query string false "Электронная почта"
// @Param content_type query string true "Тип контента"
// @Success 200 {object} map[string]any "Вердикт и доказательства"
// @Failure 422 {object} response.ErrorResponse "Не указаны идентификаторы"
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно"
// @Security BearerAuth
// @Router /access/diagnose [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.diagnose"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	externalID := r.URL.Query().Get("external_id")
	email := r.URL.Query().Get("email")
	contentType := r.URL.Query().Get("content_type")
	if contentType == "" || (externalID == "" && email == "") {
		log.Error("missing identifiers in query")
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("content_type and external_id or email are required"))
		return
	}

	verdict, evidence, err := h.service.Diagnose(r.Context(), externalID, email, contentType)
	if err != nil {
		log.Error("failed to diagnose access", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("store unavailable, verdict unknown"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"verdict":  verdict,
		"evidence": evidence,
	}))
}
