// Package access содержит бизнес-логику вынесения вердикта о доступе
// пользователя к метрируемому сервису. Правила применяются в строгом
// порядке: биллинговый период, контрактная подписка, льготный период
// миграции, отказ по умолчанию.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aicollect/restriction-engine/internal/lib/sl"
	"github.com/aicollect/restriction-engine/internal/models"
)

// GracePeriodDays — длительность льготного периода миграции в днях.
// Бизнес-константа, а не настройка: правило существует только на время
// переезда со старой модели доступа по журналу использования.
const GracePeriodDays = 30

// verdictTTL — время жизни вердикта в кеше. Короткое намеренно:
// мутации инвалидируют кеш сами, TTL страхует только внешнюю
// синхронизацию биллинга.
const verdictTTL = 30 * time.Second

var verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "restriction_verdicts_total",
	Help: "Number of access verdicts by reason.",
}, []string{"reason"})

// Repository определяет методы хранилища, нужные для вынесения вердикта.
type Repository interface {
	// GetUserByExternalID возвращает пользователя по идентификатору в мессенджере.
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	// GetUserByEmail возвращает пользователя по адресу почты.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// EvaluationSnapshot читает срез данных пользователя в одной транзакции.
	EvaluationSnapshot(ctx context.Context, userID int, contentType string) (*models.EvaluationSnapshot, error)
	// ListCancellationHistory возвращает историю отмен для диагностики.
	ListCancellationHistory(ctx context.Context, userID int, contentType string) ([]*models.CancellationRecord, error)
}

// Cache описывает методы для кэширования вердиктов.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// AccessService реализует проверку доступа поверх хранилища с кешированием вердиктов.
type AccessService struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// NewAccessService создает новый экземпляр AccessService.
func NewAccessService(repo Repository, cache Cache, log *slog.Logger) *AccessService {
	return &AccessService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Evaluate выносит вердикт о доступе пользователя к типу контента.
// Пользователь ищется сначала по email (если он передан), затем по
// внешнему идентификатору. Ошибка хранилища возвращается наружу как
// есть: вердикт в этом случае неизвестен, и политику fail-open или
// fail-closed выбирает вызывающая сторона.
func (s *AccessService) Evaluate(ctx context.Context, externalID, email, contentType string) (*models.Verdict, error) {
	verdict, _, err := s.evaluateAt(ctx, externalID, email, contentType, time.Now())
	return verdict, err
}

// Diagnose выносит вердикт и возвращает строки хранилища, на основании
// которых он принят, включая историю отмен. Кеш не используется.
func (s *AccessService) Diagnose(ctx context.Context, externalID, email, contentType string) (*models.Verdict, *models.Evidence, error) {
	user, err := s.resolveUser(ctx, externalID, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return &models.Verdict{Allowed: false, Reason: models.ReasonNoRecord}, &models.Evidence{}, nil
	}

	snapshot, err := s.repo.EvaluationSnapshot(ctx, user.ID, contentType)
	if err != nil {
		return nil, nil, err
	}
	verdict, evidence := Decide(snapshot, time.Now())

	cancellations, err := s.repo.ListCancellationHistory(ctx, user.ID, contentType)
	if err != nil {
		return nil, nil, err
	}
	evidence.Cancellations = cancellations
	return &verdict, &evidence, nil
}

func (s *AccessService) evaluateAt(ctx context.Context, externalID, email, contentType string, now time.Time) (*models.Verdict, *models.Evidence, error) {
	user, err := s.resolveUser(ctx, externalID, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		verdict := &models.Verdict{Allowed: false, Reason: models.ReasonNoRecord}
		verdictsTotal.WithLabelValues(string(verdict.Reason)).Inc()
		return verdict, &models.Evidence{}, nil
	}

	cacheKey := VerdictCacheKey(user.UID, contentType)
	var cached models.Verdict
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read verdict from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		verdictsTotal.WithLabelValues(string(cached.Reason)).Inc()
		return &cached, nil, nil
	}

	snapshot, err := s.repo.EvaluationSnapshot(ctx, user.ID, contentType)
	if err != nil {
		return nil, nil, err
	}
	verdict, evidence := Decide(snapshot, now)
	verdictsTotal.WithLabelValues(string(verdict.Reason)).Inc()

	if err := s.cache.Set(cacheKey, verdict, verdictTTL); err != nil {
		s.log.Warn("failed to cache verdict", slog.String("key", cacheKey), sl.Err(err))
	}
	return &verdict, &evidence, nil
}

// resolveUser ищет пользователя: email имеет приоритет над внешним
// идентификатором. Отсутствие пользователя ошибкой не считается —
// возвращается nil.
func (s *AccessService) resolveUser(ctx context.Context, externalID, email string) (*models.User, error) {
	if email != "" {
		user, err := s.repo.GetUserByEmail(ctx, email)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, models.ErrUserNotFound) {
			return nil, err
		}
	}
	if externalID == "" {
		return nil, nil
	}
	user, err := s.repo.GetUserByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// VerdictCacheKey строит ключ кеша вердикта для пользователя и типа контента.
func VerdictCacheKey(userUID, contentType string) string {
	return fmt.Sprintf("verdict:%s:%s", userUID, contentType)
}

// Decide применяет правила доступа к срезу данных. Чистая функция:
// всё состояние приходит в snapshot, текущий момент — параметром.
func Decide(snapshot *models.EvaluationSnapshot, now time.Time) (models.Verdict, models.Evidence) {
	// Правило 1: биллинговый период в статусе active или trialing.
	// Привязка к аккаунту, тип контента не сверяется.
	for _, p := range snapshot.Periods {
		if p.SubscriptionStatus.GrantsAccess() {
			return models.Verdict{Allowed: true, Reason: models.ReasonActiveBilling},
				models.Evidence{Period: p}
		}
	}

	// Правило 2: контрактная подписка, окно которой накрывает now.
	// Сохранённый статус не проверяется: истина — временное окно.
	for _, sub := range snapshot.Subscriptions {
		if sub.IsActiveAt(now) {
			return models.Verdict{Allowed: true, Reason: models.ReasonActiveSubscription},
				models.Evidence{Subscription: sub}
		}
	}

	// Правило 3: льготный период миграции по последней записи журнала.
	if snapshot.LastUsage != nil {
		cutoff := now.AddDate(0, 0, -GracePeriodDays)
		if !snapshot.LastUsage.CreatedAt.Before(cutoff) {
			return models.Verdict{Allowed: true, Reason: models.ReasonLegacyGracePeriod},
				models.Evidence{LastUsage: snapshot.LastUsage}
		}
	}

	// Правило 4: отказ по умолчанию.
	reason := models.ReasonNoActiveEntitlement
	if !snapshot.HasAnyRecord {
		reason = models.ReasonNoRecord
	}
	return models.Verdict{Allowed: false, Reason: reason}, models.Evidence{}
}
