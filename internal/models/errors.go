package models

import "errors"

// Доменные ошибки движка. Хранилище и сервисы оборачивают их с
// контекстом операции, проверять через errors.Is.
var (
	// ErrUserNotFound — пользователь с указанным идентификатором не существует.
	ErrUserNotFound = errors.New("user not found")
	// ErrSubscriptionNotFound — подписка с указанным идентификатором не существует.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrInvalidInput — некорректные входные данные (например, неположительная длительность).
	ErrInvalidInput = errors.New("invalid input")
)
