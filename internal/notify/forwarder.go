package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"campuspool/internal/general/contracts"
	"campuspool/internal/general/logger"
	"campuspool/internal/general/rabbitmq"
	"campuspool/internal/general/websocket"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Forwarder drains the user notification queue and pushes each event to the
// recipient's live WebSocket feed. Events for users without a live connection
// are acked and dropped; the queue is a delivery channel, not an inbox.
type Forwarder struct {
	client *rabbitmq.Client
	feed   *websocket.Feed
	logger *logger.Logger
}

func NewForwarder(client *rabbitmq.Client, feed *websocket.Feed, log *logger.Logger) *Forwarder {
	return &Forwarder{client: client, feed: feed, logger: log}
}

// Run consumes until ctx is cancelled. Blocks; intended for its own goroutine.
func (f *Forwarder) Run(ctx context.Context) error {
	return f.client.Consume(ctx, contracts.QueueUserNotifications, "notification-forwarder", 16,
		func(ctx context.Context, d amqp.Delivery) error {
			var event contracts.NotificationEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				return fmt.Errorf("decode notification event: %w", err)
			}

			delivered := f.feed.Push(event.UserID, event)
			f.logger.Debug(ctx, "notification_forwarded", "Notification event processed",
				map[string]any{
					"type":      string(event.Type),
					"user_id":   event.UserID,
					"delivered": delivered,
				})
			return nil
		})
}
