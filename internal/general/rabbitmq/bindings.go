package rabbitmq

import (
	"fmt"

	"campuspool/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

func declareTopology(ch *amqp.Channel) error {
	// 1. Exchanges
	if err := ch.ExchangeDeclare(contracts.ExchangeNotificationTopic, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", contracts.ExchangeNotificationTopic, err)
	}

	// 2. Queues
	if _, err := ch.QueueDeclare(contracts.QueueUserNotifications, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", contracts.QueueUserNotifications, err)
	}

	// 3. Bindings: every per-user routing key lands in the delivery queue
	if err := ch.QueueBind(contracts.QueueUserNotifications, contracts.RouteNotifyUserPrefix+"*", contracts.ExchangeNotificationTopic, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", contracts.QueueUserNotifications, contracts.ExchangeNotificationTopic, err)
	}

	return nil
}
