// Package notify delivers engine notification events to users. Delivery is
// fire-and-forget: a failed emit is logged and dropped, never surfaced to the
// lifecycle transition that produced it.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"campuspool/internal/general/contracts"
	"campuspool/internal/general/logger"
	"campuspool/internal/general/rabbitmq"
	"campuspool/internal/ports"

	"github.com/google/uuid"
)

// AMQPSink publishes notification events to the notification topic exchange,
// routed per recipient (notify.user.<id>).
type AMQPSink struct {
	pub      *rabbitmq.MQPublisher
	logger   *logger.Logger
	producer string
}

var _ ports.NotificationSink = (*AMQPSink)(nil)

// NewAMQPSink constructs a sink publishing through the given RabbitMQ publisher.
func NewAMQPSink(pub *rabbitmq.MQPublisher, log *logger.Logger, producer string) *AMQPSink {
	return &AMQPSink{pub: pub, logger: log, producer: producer}
}

// Emit publishes the event. Publish failures are logged and swallowed.
func (s *AMQPSink) Emit(ctx context.Context, event contracts.NotificationEvent) {
	if event.CorrelationID == "" {
		event.CorrelationID = uuid.NewString()
	}
	event.Producer = s.producer
	event.SentAt = time.Now().UTC()

	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error(ctx, "notification_marshal_failed", "Failed to marshal notification event", err,
			map[string]any{"type": string(event.Type), "user_id": event.UserID})
		return
	}

	routingKey := contracts.RouteNotifyUserPrefix + event.UserID
	if err := s.pub.Publish(contracts.ExchangeNotificationTopic, routingKey, body); err != nil {
		s.logger.Error(ctx, "notification_publish_failed", "Failed to publish notification event", err,
			map[string]any{"type": string(event.Type), "user_id": event.UserID})
		return
	}

	s.logger.Debug(ctx, "notification_published", "Notification event published",
		map[string]any{"type": string(event.Type), "user_id": event.UserID, "routing_key": routingKey})
}

// LogSink writes events to the log only. Used when no broker is configured.
type LogSink struct {
	logger *logger.Logger
}

var _ ports.NotificationSink = (*LogSink)(nil)

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Emit(ctx context.Context, event contracts.NotificationEvent) {
	s.logger.Info(ctx, "notification_emitted", event.Message,
		map[string]any{"type": string(event.Type), "user_id": event.UserID, "title": event.Title})
}
