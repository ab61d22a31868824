package notifier

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aicollect/restriction-engine/internal/lib/rabbitmq"
	"github.com/aicollect/restriction-engine/internal/models"
)

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(exchange, routingKey string, message any) error {
	return m.Called(exchange, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestNotifierService_NotifyDenied(t *testing.T) {
	t.Run("publishes denied event with reason", func(t *testing.T) {
		pub := new(PublisherMock)
		svc := New(pub, newNoopLogger())

		pub.On("Publish", rabbitmq.ExchangeName, "denied",
			mock.MatchedBy(func(msg any) bool {
				event, ok := msg.(DeniedEvent)
				return ok &&
					event.ExternalID == "tg-42" &&
					event.ContentType == "article" &&
					event.Reason == models.ReasonNoActiveEntitlement &&
					!event.DeniedAt.IsZero()
			})).Return(nil).Once()

		svc.NotifyDenied("tg-42", "article", models.ReasonNoActiveEntitlement)

		pub.AssertExpectations(t)
	})

	t.Run("publish error is swallowed", func(t *testing.T) {
		pub := new(PublisherMock)
		svc := New(pub, newNoopLogger())

		pub.On("Publish", rabbitmq.ExchangeName, "denied", mock.Anything).
			Return(errors.New("channel closed")).Once()

		assert.NotPanics(t, func() {
			svc.NotifyDenied("tg-42", "article", models.ReasonNoRecord)
		})

		pub.AssertExpectations(t)
	})
}
