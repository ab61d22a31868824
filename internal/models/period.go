package models

import "time"

// PeriodStatus — статус биллингового периода в словаре внешнего
// платёжного провайдера. Хранится в базе как текст, но на уровне
// принятия решения используется как закрытый набор значений,
// чтобы allow-список был исчерпывающим.
type PeriodStatus string

// Словарь статусов внешнего биллинга.
const (
	PeriodStatusActive            PeriodStatus = "active"
	PeriodStatusTrialing          PeriodStatus = "trialing"
	PeriodStatusCanceled          PeriodStatus = "canceled"
	PeriodStatusIncomplete        PeriodStatus = "incomplete"
	PeriodStatusIncompleteExpired PeriodStatus = "incomplete_expired"
	PeriodStatusUnpaid            PeriodStatus = "unpaid"
	PeriodStatusPastDue           PeriodStatus = "past_due"
)

// GrantsAccess сообщает, даёт ли статус периода доступ сам по себе.
// Доступ дают только active и trialing; остальные статусы
// не запрещают доступ, а лишь передают решение следующим правилам.
func (s PeriodStatus) GrantsAccess() bool {
	return s == PeriodStatusActive || s == PeriodStatusTrialing
}

// SubscriptionPeriod — зеркало подписки внешнего биллингового провайдера.
// Одна запись на внешний идентификатор подписки. Обновляется внешним
// процессом синхронизации; движок ограничений её только читает.
// Привязка к аккаунту, а не к типу контента.
type SubscriptionPeriod struct {
	ID                 int          // Идентификатор записи
	UserID             int          // Идентификатор владельца
	BillingID          string       // Идентификатор подписки у провайдера
	SubscriptionStatus PeriodStatus // Статус в словаре провайдера
	CurrentPeriodStart time.Time    // Начало текущего периода, включительно
	CurrentPeriodEnd   time.Time    // Конец текущего периода, исключительно
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DummyPeriodUpsert используется для приёма callback'а биллингового
// провайдера с актуальным состоянием периода подписки.
type DummyPeriodUpsert struct {
	ExternalID         string `json:"external_id" validate:"required"`             // Идентификатор пользователя в мессенджере
	BillingID          string `json:"billing_subscription_id" validate:"required"` // Идентификатор подписки у провайдера
	SubscriptionStatus string `json:"subscription_status" validate:"required"`
	CurrentPeriodStart string `json:"current_period_start" validate:"required"` // RFC3339
	CurrentPeriodEnd   string `json:"current_period_end" validate:"required"`   // RFC3339
}
