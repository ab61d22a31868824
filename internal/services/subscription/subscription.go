// Package subscription содержит бизнес-логику управления контрактными
// подписками: создание, продление, отмена и выборка. Это единственный
// контур, изменяющий строки subscriptions.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aicollect/restriction-engine/internal/lib/sl"
	"github.com/aicollect/restriction-engine/internal/models"
	"github.com/aicollect/restriction-engine/internal/services/access"
)

// Repository определяет методы хранилища для управления подписками.
type Repository interface {
	// GetUser возвращает пользователя по внутреннему идентификатору.
	GetUser(ctx context.Context, id int) (*models.User, error)
	// CreateSubscription вставляет новую подписку и возвращает её.
	CreateSubscription(ctx context.Context, userID int, contentType string, durationDays int) (*models.Subscription, error)
	// ExtendSubscription продлевает подписку от более позднего из
	// текущей даты окончания и настоящего момента.
	ExtendSubscription(ctx context.Context, id int, additionalDays int) (*models.Subscription, error)
	// CancelSubscription отменяет подписку, обрезая её окно до настоящего
	// момента. Признак effective сообщает, что отмену выполнил именно
	// этот вызов, а не более ранний.
	CancelSubscription(ctx context.Context, id int) (*models.Subscription, bool, error)
	// ListSubscriptions возвращает подписки пользователя по убыванию end_date.
	ListSubscriptions(ctx context.Context, userID int) ([]*models.Subscription, error)
	// CreateCancellationRecord добавляет запись в историю отмен.
	CreateCancellationRecord(ctx context.Context, userID int, contentType, reason string) (int, error)
}

// Cache описывает методы для инвалидации кешированных вердиктов.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// SubscriptionService реализует операции управления подписками.
// Каждая мутация инвалидирует кешированный вердикт владельца,
// чтобы проверка доступа сразу видела новое состояние.
type SubscriptionService struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo Repository, cache Cache, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Create создаёт подписку с окном [now, now + durationDays) и статусом
// active. Неположительная длительность — ErrInvalidInput, отсутствующий
// пользователь — ErrUserNotFound.
func (s *SubscriptionService) Create(ctx context.Context, req models.DummyCreateSubscription) (*models.Subscription, error) {
	if req.DurationDays <= 0 {
		return nil, fmt.Errorf("duration_days must be positive: %w", models.ErrInvalidInput)
	}

	user, err := s.repo.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.CreateSubscription(ctx, user.ID, req.ContentType, req.DurationDays)
	if err != nil {
		return nil, err
	}
	s.log.Info("created new subscription",
		slog.Int("id", sub.ID), slog.Int("user_id", sub.UserID),
		slog.String("content_type", sub.ContentType))

	s.invalidateVerdict(user.UID, sub.ContentType)
	return sub, nil
}

// Extend продлевает подписку на additionalDays. Точка отсчёта — более
// поздний из моментов: текущая дата окончания или сейчас, поэтому
// продление просроченной подписки не открывает доступ задним числом.
func (s *SubscriptionService) Extend(ctx context.Context, id int, additionalDays int) (*models.Subscription, error) {
	if additionalDays <= 0 {
		return nil, fmt.Errorf("additional_days must be positive: %w", models.ErrInvalidInput)
	}

	sub, err := s.repo.ExtendSubscription(ctx, id, additionalDays)
	if err != nil {
		return nil, err
	}
	s.log.Info("extended subscription",
		slog.Int("id", sub.ID), slog.Time("end_date", sub.EndDate))

	s.invalidateForUser(ctx, sub)
	return sub, nil
}

// Cancel отменяет подписку: статус cancelled, окно обрезается до
// настоящего момента. Повторная отмена идемпотентна. Каждая
// результативная отмена фиксируется в истории отмен ровно один раз:
// результативность определяет хранилище охраняемым UPDATE, поэтому из
// конкурентных отмен одной подписки запись в историю делает только одна.
func (s *SubscriptionService) Cancel(ctx context.Context, id int) (*models.Subscription, error) {
	sub, effective, err := s.repo.CancelSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	if effective {
		if _, err := s.repo.CreateCancellationRecord(ctx, sub.UserID, sub.ContentType, "manager"); err != nil {
			s.log.Warn("failed to record cancellation", slog.Int("id", sub.ID), sl.Err(err))
		}
		s.log.Info("cancelled subscription",
			slog.Int("id", sub.ID), slog.Time("end_date", sub.EndDate))
	}

	s.invalidateForUser(ctx, sub)
	return sub, nil
}

// List возвращает все подписки пользователя в порядке убывания end_date.
// Пустой список для существующего пользователя ошибкой не является.
func (s *SubscriptionService) List(ctx context.Context, userID int) ([]*models.Subscription, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListSubscriptions(ctx, userID)
}

func (s *SubscriptionService) invalidateForUser(ctx context.Context, sub *models.Subscription) {
	user, err := s.repo.GetUser(ctx, sub.UserID)
	if err != nil {
		s.log.Warn("failed to resolve user for cache invalidation",
			slog.Int("user_id", sub.UserID), sl.Err(err))
		return
	}
	s.invalidateVerdict(user.UID, sub.ContentType)
}

func (s *SubscriptionService) invalidateVerdict(userUID, contentType string) {
	key := access.VerdictCacheKey(userUID, contentType)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate verdict cache", slog.String("key", key), sl.Err(err))
	}
}
