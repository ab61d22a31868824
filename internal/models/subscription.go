// Package models содержит доменные структуры движка ограничений доступа:
// контрактные подписки, зеркало биллинговых периодов, журнал использования,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Статусы подписки. Поле Status носит справочный характер:
// решение о доступе всегда принимается по временному окну
// [StartDate, EndDate), а не по сохранённой строке статуса.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Subscription представляет контрактную подписку пользователя
// на один тип контента в ограниченном интервале [StartDate, EndDate).
// На пару (пользователь, тип контента) может существовать несколько
// записей, история не перезаписывается.
type Subscription struct {
	ID          int       // Идентификатор подписки
	UserID      int       // Идентификатор владельца
	ContentType string    // Тип контента (свободная строка, точное совпадение)
	StartDate   time.Time // Начало действия, включительно
	EndDate     time.Time // Конец действия, исключительно
	Status      string    // active, cancelled или expired (справочно)
	CreatedAt   time.Time // Дата создания записи
	UpdatedAt   time.Time // Дата последнего изменения
}

// IsActiveAt сообщает, попадает ли момент t в окно действия подписки.
// Граница начала включается, граница конца — нет.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	return !t.Before(s.StartDate) && t.Before(s.EndDate)
}

// DummyCreateSubscription используется для приёма данных из JSON-запроса
// на создание подписки. Длительность проверяется в бизнес-логике,
// чтобы вернуть понятную ошибку при неположительном значении.
type DummyCreateSubscription struct {
	UserID       int    `json:"user_id" validate:"required,gt=0"` // Идентификатор пользователя
	ContentType  string `json:"content_type" validate:"required"` // Тип контента
	DurationDays int    `json:"duration_days" validate:"required"`
}

// DummyExtendSubscription используется для приёма данных из JSON-запроса
// на продление подписки.
type DummyExtendSubscription struct {
	AdditionalDays int `json:"additional_days" validate:"required"`
}
