// Package evaluate реализует HTTP-обработчик проверки доступа.
//
// Handler принимает JSON-запрос с идентификатором пользователя и типом
// контента, вызывает бизнес-логику вынесения вердикта и возвращает
// решение с машиночитаемой причиной. Отказ дополнительно публикуется
// как событие для внешнего контура уведомлений.
package evaluate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/aicollect/restriction-engine/internal/http/response"
	"github.com/aicollect/restriction-engine/internal/lib/sl"
	"github.com/aicollect/restriction-engine/internal/models"
)

// Service описывает интерфейс бизнес-логики проверки доступа.
type Service interface {
	Evaluate(ctx context.Context, externalID, email, contentType string) (*models.Verdict, error)
}

// Notifier описывает публикацию события об отказе.
type Notifier interface {
	NotifyDenied(externalID, contentType string, reason models.Reason)
}

// Handler управляет HTTP-запросами на проверку доступа.
type Handler struct {
	log      *slog.Logger
	service  Service
	notifier Notifier
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером, сервисом и нотификатором.
func New(log *slog.Logger, service Service, notifier Notifier) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		notifier: notifier,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Проверить доступ пользователя
// @Description Выносит вердикт о доступе пользователя к типу контента. При недоступности хранилища возвращает 503 без вердикта.
// @Tags Access
// @Accept  json
// @Produce  json
// @Param request body models.DummyEvaluate true "Идентификаторы пользователя и тип контента"
// @Success 200 {object} map[string]any "Вердикт с причиной"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно, вердикт неизвестен"
// @Router /access/evaluate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.evaluate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyEvaluate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	verdict, err := h.service.Evaluate(r.Context(), req.ExternalID, req.Email, req.ContentType)
	if err != nil {
		// Вердикт неизвестен: хранилище недоступно. Решение о
		// fail-open или fail-closed остаётся за вызывающей стороной.
		log.Error("failed to evaluate access", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("store unavailable, verdict unknown"))
		return
	}

	if !verdict.Allowed {
		h.notifier.NotifyDenied(req.ExternalID, req.ContentType, verdict.Reason)
	}

	log.Info("access evaluated",
		slog.Bool("allowed", verdict.Allowed),
		slog.String("reason", string(verdict.Reason)))
	render.JSON(w, r, response.OKWithData(verdict))
}
