package models

import "time"

// UsageLog — запись журнала использования метрируемого сервиса.
// Журнал пополняется учётным контуром при каждом потреблении единицы
// сервиса; движок ограничений его никогда не изменяет и читает только
// последнюю запись для пары (пользователь, тип контента) — она нужна
// льготному периоду миграции со старой модели доступа.
type UsageLog struct {
	ID          int       // Идентификатор записи
	UserID      int       // Идентификатор пользователя
	ContentType string    // Тип контента
	Quantity    int       // Количество потреблённых единиц
	IsFree      bool      // Признак бесплатного использования
	CreatedAt   time.Time // Момент потребления
}

// CancellationRecord — запись журнала явных отмен подписки.
// Журнал только пополняется и используется для аудита и диагностики;
// в правилах доступа он вытеснен окнами Subscription и SubscriptionPeriod.
type CancellationRecord struct {
	ID          int       // Идентификатор записи
	UserID      int       // Идентификатор пользователя
	ContentType string    // Тип контента отменённой подписки
	Reason      string    // Источник отмены (например, admin)
	CreatedAt   time.Time // Момент отмены
}
