package restrictionengine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/aicollect/restriction-engine/internal/cache"
	"github.com/aicollect/restriction-engine/internal/config"
	"github.com/aicollect/restriction-engine/internal/lib/jwt"
	"github.com/aicollect/restriction-engine/internal/lib/rabbitmq"
	"github.com/aicollect/restriction-engine/internal/lib/sl"
	"github.com/aicollect/restriction-engine/internal/migrations"
	accessservice "github.com/aicollect/restriction-engine/internal/services/access"
	billingservice "github.com/aicollect/restriction-engine/internal/services/billing"
	notifierservice "github.com/aicollect/restriction-engine/internal/services/notifier"
	subscriptionservice "github.com/aicollect/restriction-engine/internal/services/subscription"
	"github.com/aicollect/restriction-engine/internal/storage/repository"
)

// App связывает хранилище, кеш, брокер и HTTP-сервер движка ограничений.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	rabbit *rabbitmq.Connection
}

// New собирает все зависимости приложения: подключается к PostgreSQL,
// применяет миграции, поднимает Redis и RabbitMQ и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	if err = repository.CheckDatabaseReady(db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.RabbitConnection.AddressRabbit,
		cfg.RabbitConnection.Retries, cfg.RabbitConnection.RetryDelay)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetRestrictionQueues())
	if err != nil {
		return nil, err
	}
	publisher := &rabbitmq.ChannelPublisher{Ch: rabbitCh}

	tokenMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)

	accessService := accessservice.NewAccessService(db, cacheRedis, logger)
	subscriptionService := subscriptionservice.NewSubscriptionService(db, cacheRedis, logger)
	billingService := billingservice.NewBillingService(db, logger)
	notifierService := notifierservice.New(publisher, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg,
		accessService, subscriptionService, billingService, notifierService,
		tokenMaker, db)

	router.Get("/docs/*", httpSwagger.WrapHandler)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		rabbit: &rabbitmq.Connection{Conn: rabbitConn, Ch: rabbitCh},
	}, nil
}

// Run запускает HTTP-сервер и блокируется до остановки контекста,
// после чего гасит сервер и закрывает соединения.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.rabbit.Close(); cerr != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(cerr))
		}
		if cerr := a.db.DB.Close(); cerr != nil {
			a.logger.Warn("failed to close database", sl.Err(cerr))
		}
		return err
	}
}
