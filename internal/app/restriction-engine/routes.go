// Package restrictionengine предоставляет маршруты для основного приложения.
package restrictionengine

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aicollect/restriction-engine/internal/config"
	"github.com/aicollect/restriction-engine/internal/http/handlers/access/diagnose"
	"github.com/aicollect/restriction-engine/internal/http/handlers/access/evaluate"
	"github.com/aicollect/restriction-engine/internal/http/handlers/billing/periodwebhook"
	"github.com/aicollect/restriction-engine/internal/http/handlers/health"
	"github.com/aicollect/restriction-engine/internal/http/handlers/subscription/cancel"
	"github.com/aicollect/restriction-engine/internal/http/handlers/subscription/create"
	"github.com/aicollect/restriction-engine/internal/http/handlers/subscription/extend"
	"github.com/aicollect/restriction-engine/internal/http/handlers/subscription/list"
	"github.com/aicollect/restriction-engine/internal/http/middlewarectx"
	accessservice "github.com/aicollect/restriction-engine/internal/services/access"
	billingservice "github.com/aicollect/restriction-engine/internal/services/billing"
	notifierservice "github.com/aicollect/restriction-engine/internal/services/notifier"
	subscriptionservice "github.com/aicollect/restriction-engine/internal/services/subscription"
	"github.com/aicollect/restriction-engine/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	accessService *accessservice.AccessService,
	subscriptionService *subscriptionservice.SubscriptionService,
	billingService *billingservice.BillingService,
	notifierService *notifierservice.NotifierService,
	tokenMaker middlewarectx.TokenParser,
	db *repository.Storage,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Проверка доступа открыта для внутренних потребителей
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/access/evaluate", evaluate.New(logger, accessService, notifierService).ServeHTTP)
		})

		// Группа административных операций с JWT аутентификацией:
		// диагностика раскрывает строки хранилища, поэтому она здесь,
		// а не в открытой группе проверки доступа.
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokenMaker, logger))
			r.Get("/access/diagnose", diagnose.New(logger, accessService).ServeHTTP)
			r.Post("/subscriptions", create.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions", list.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/{id}/extend", extend.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/{id}/cancel", cancel.New(logger, subscriptionService).ServeHTTP)
		})

		// Webhook endpoint (подтверждается общим секретом)
		r.Post("/billing/periods", periodwebhook.New(logger, billingService, cfg.BillingWebhookSecret).ServeHTTP)
	})

	r.Get("/health", health.New(logger, db, accessService, cfg.DefaultContentType).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
}
