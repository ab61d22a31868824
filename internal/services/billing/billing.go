// Package billing принимает callback'и платёжного провайдера и
// обновляет зеркало биллинговых периодов. Движок ограничений читает
// это зеркало, но сам его состояние не интерпретирует и не меняет.
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aicollect/restriction-engine/internal/models"
)

// Repository определяет методы хранилища для синхронизации периодов.
type Repository interface {
	// EnsureUser создаёт пользователя при первом контакте.
	EnsureUser(ctx context.Context, externalID, email string) (*models.User, error)
	// UpsertPeriod сохраняет состояние биллингового периода.
	UpsertPeriod(ctx context.Context, userID int, billingID string,
		status models.PeriodStatus, periodStart, periodEnd time.Time) (*models.SubscriptionPeriod, error)
}

// BillingService реализует приём состояния периодов от провайдера.
type BillingService struct {
	repo Repository
	log  *slog.Logger
}

// NewBillingService создает новый экземпляр BillingService.
func NewBillingService(repo Repository, log *slog.Logger) *BillingService {
	return &BillingService{
		repo: repo,
		log:  log,
	}
}

// validStatuses — закрытый словарь статусов провайдера.
var validStatuses = map[models.PeriodStatus]struct{}{
	models.PeriodStatusActive:            {},
	models.PeriodStatusTrialing:          {},
	models.PeriodStatusCanceled:          {},
	models.PeriodStatusIncomplete:        {},
	models.PeriodStatusIncompleteExpired: {},
	models.PeriodStatusUnpaid:            {},
	models.PeriodStatusPastDue:           {},
}

// UpsertPeriod применяет callback провайдера: создаёт пользователя при
// первом контакте и сохраняет состояние периода по внешнему
// идентификатору подписки. Статус вне словаря провайдера — ErrInvalidInput.
func (s *BillingService) UpsertPeriod(ctx context.Context, req models.DummyPeriodUpsert) (*models.SubscriptionPeriod, error) {
	status := models.PeriodStatus(req.SubscriptionStatus)
	if _, ok := validStatuses[status]; !ok {
		return nil, fmt.Errorf("unknown subscription_status %q: %w", req.SubscriptionStatus, models.ErrInvalidInput)
	}

	periodStart, err := time.Parse(time.RFC3339, req.CurrentPeriodStart)
	if err != nil {
		return nil, fmt.Errorf("invalid current_period_start: %w", models.ErrInvalidInput)
	}
	periodEnd, err := time.Parse(time.RFC3339, req.CurrentPeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid current_period_end: %w", models.ErrInvalidInput)
	}
	if !periodEnd.After(periodStart) {
		return nil, fmt.Errorf("current_period_end must be after current_period_start: %w", models.ErrInvalidInput)
	}

	user, err := s.repo.EnsureUser(ctx, req.ExternalID, "")
	if err != nil {
		return nil, err
	}

	period, err := s.repo.UpsertPeriod(ctx, user.ID, req.BillingID, status, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	s.log.Info("upserted billing period",
		slog.String("billing_id", period.BillingID),
		slog.String("status", string(period.SubscriptionStatus)))
	return period, nil
}
