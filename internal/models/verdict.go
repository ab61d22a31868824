package models

// Reason — машиночитаемая причина вердикта о доступе.
type Reason string

// Причины вердикта в порядке приоритета правил.
const (
	// ReasonActiveBilling — у пользователя есть биллинговый период
	// в статусе active или trialing.
	ReasonActiveBilling Reason = "active_billing"
	// ReasonActiveSubscription — текущий момент попадает в окно
	// контрактной подписки на запрошенный тип контента.
	ReasonActiveSubscription Reason = "active_subscription"
	// ReasonLegacyGracePeriod — доступ по льготному периоду миграции:
	// последняя запись журнала использования не старше 30 дней.
	ReasonLegacyGracePeriod Reason = "legacy_grace_period"
	// ReasonNoActiveEntitlement — записи есть, но ни одно правило не сработало.
	ReasonNoActiveEntitlement Reason = "no_active_entitlement"
	// ReasonNoRecord — у пользователя нет ни одной записи
	// (различается с ReasonNoActiveEntitlement только для наблюдаемости).
	ReasonNoRecord Reason = "no_record"
)

// DummyEvaluate используется для приёма запроса на проверку доступа.
// Email опционален и имеет приоритет над внешним идентификатором
// при поиске пользователя.
type DummyEvaluate struct {
	ExternalID  string `json:"external_id" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	ContentType string `json:"content_type" validate:"required"`
}

// Verdict — результат проверки доступа: решение и его причина.
type Verdict struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`
}

// Evidence — строки хранилища, на основании которых вынесен вердикт.
// Возвращается диагностическим эндпоинтом для целей поддержки.
type Evidence struct {
	Period        *SubscriptionPeriod   `json:"period,omitempty"`
	Subscription  *Subscription         `json:"subscription,omitempty"`
	LastUsage     *UsageLog             `json:"last_usage,omitempty"`
	Cancellations []*CancellationRecord `json:"cancellations,omitempty"`
}

// EvaluationSnapshot — согласованный срез данных пользователя,
// прочитанный хранилищем в одной транзакции. Правила доступа
// применяются к срезу уже без обращений к базе.
type EvaluationSnapshot struct {
	Periods       []*SubscriptionPeriod // Все биллинговые периоды пользователя
	Subscriptions []*Subscription       // Подписки на запрошенный тип контента
	LastUsage     *UsageLog             // Последняя запись журнала использования
	HasAnyRecord  bool                  // Есть ли у пользователя хоть одна запись
}
