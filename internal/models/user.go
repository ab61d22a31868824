// Package models содержит доменную модель пользователя системы.
// Пользователь создаётся при первом контакте (через мессенджер или биллинг)
// и никогда не удаляется движком ограничений.
package models

import "time"

// User представляет пользователя метрируемого сервиса.
type User struct {
	ID         int       // Внутренний числовой идентификатор
	UID        string    // UUID пользователя
	ExternalID string    // Идентификатор в мессенджере (например, LINE user id)
	Email      string    // Электронная почта (может быть пустой)
	CreatedAt  time.Time // Дата создания записи
}
