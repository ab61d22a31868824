// Package health реализует HTTP-обработчик проверки готовности сервиса.
//
// Кроме ping хранилища выполняется синтетическая проверка доступа по
// служебному идентификатору: она проходит весь путь вынесения вердикта
// и ловит ошибки, которые ping не видит.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/aicollect/restriction-engine/internal/http/response"
	"github.com/aicollect/restriction-engine/internal/lib/sl"
	"github.com/aicollect/restriction-engine/internal/models"
)

// syntheticExternalID — служебный идентификатор, не существующий в базе.
// Для него ожидается вердикт no_record без ошибки.
const syntheticExternalID = "healthcheck"

// Pinger описывает интерфейс проверки доступности хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Evaluator описывает интерфейс синтетической проверки доступа.
type Evaluator interface {
	Evaluate(ctx context.Context, externalID, email, contentType string) (*models.Verdict, error)
}

// Handler управляет HTTP-запросами проверки готовности.
type Handler struct {
	log         *slog.Logger
	pinger      Pinger
	evaluator   Evaluator
	contentType string
}

// New создает новый Handler с переданными логгером, хранилищем и сервисом доступа.
func New(log *slog.Logger, pinger Pinger, evaluator Evaluator, contentType string) *Handler {
	return &Handler{
		log:         log,
		pinger:      pinger,
		evaluator:   evaluator,
		contentType: contentType,
	}
}

// ServeHTTP godoc
// @Summary Проверка готовности
// @Description Возвращает 200, если хранилище доступно и путь вынесения вердикта работает, иначе 503.
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.ErrorResponse "Сервис не готов"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	log := h.log.With(slog.String("op", op))

	if err := h.pinger.Ping(r.Context()); err != nil {
		log.Error("storage ping failed", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("storage unavailable"))
		return
	}

	if _, err := h.evaluator.Evaluate(r.Context(), syntheticExternalID, "", h.contentType); err != nil {
		log.Error("synthetic evaluation failed", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("evaluation path unavailable"))
		return
	}

	render.JSON(w, r, response.OK())
}
