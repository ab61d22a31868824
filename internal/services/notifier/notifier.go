// Package notifier публикует события об отказах в доступе. Само
// уведомление пользователю формирует и доставляет внешний контур,
// подписанный на очередь.
package notifier

import (
	"log/slog"
	"time"

	"github.com/aicollect/restriction-engine/internal/lib/rabbitmq"
	"github.com/aicollect/restriction-engine/internal/lib/sl"
	"github.com/aicollect/restriction-engine/internal/models"
)

// Publisher описывает публикацию сообщения в очередь.
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// DeniedEvent — событие об отказе в доступе.
type DeniedEvent struct {
	ExternalID  string        `json:"external_id"`
	ContentType string        `json:"content_type"`
	Reason      models.Reason `json:"reason"`
	DeniedAt    time.Time     `json:"denied_at"`
}

// NotifierService публикует события об отказах.
type NotifierService struct {
	publisher Publisher
	log       *slog.Logger
}

// New создает новый NotifierService.
func New(publisher Publisher, log *slog.Logger) *NotifierService {
	return &NotifierService{
		publisher: publisher,
		log:       log,
	}
}

// NotifyDenied публикует событие об отказе. Ошибка публикации не
// влияет на вердикт: она логируется, отказ уже вынесен.
func (n *NotifierService) NotifyDenied(externalID, contentType string, reason models.Reason) {
	event := DeniedEvent{
		ExternalID:  externalID,
		ContentType: contentType,
		Reason:      reason,
		DeniedAt:    time.Now().UTC(),
	}
	if err := n.publisher.Publish(rabbitmq.ExchangeName, "denied", event); err != nil {
		n.log.Warn("failed to publish denied event",
			slog.String("external_id", externalID), sl.Err(err))
	}
}
