// Package periodwebhook реализует HTTP-обработчик callback'ов
// платёжного провайдера о состоянии биллинговых периодов.
//
// Запросы подтверждаются общим секретом в заголовке X-Webhook-Secret.
package periodwebhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/aicollect/restriction-engine/internal/http/response"
	"github.com/aicollect/restriction-engine/internal/lib/sl"
	"github.com/aicollect/restriction-engine/internal/models"
)

// Service описывает интерфейс синхронизации биллинговых периодов.
type Service interface {
	UpsertPeriod(ctx context.Context, req models.DummyPeriodUpsert) (*models.SubscriptionPeriod, error)
}

// Handler управляет HTTP-запросами от биллингового провайдера.
type Handler struct {
	log      *slog.Logger
	service  Service
	secret   string
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером, сервисом и секретом.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		secret:   secret,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Callback биллингового провайдера
// @Description Принимает актуальное состояние биллингового периода и сохраняет его.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param X-Webhook-Secret header string true "Общий секрет провайдера"
// @Param request body models.DummyPeriodUpsert true "Состояние периода"
// @Success 200 {object} map[string]any "Сохраненный период"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверный секрет"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /billing/periods [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.periodwebhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	got := r.Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
		log.Warn("webhook secret mismatch")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req models.DummyPeriodUpsert
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

	period, err := h.service.UpsertPeriod(r.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			log.Error("invalid period payload", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		log.Error("failed to upsert billing period", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not upsert billing period"))
		return
	}

	log.Info("upserted billing period", slog.String("billing_id", period.BillingID))
	render.JSON(w, r, response.OKWithData(period))
}
