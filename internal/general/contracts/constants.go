package contracts

// Exchanges
const (
	ExchangeNotificationTopic = "notification_topic"
)

// Queues
const (
	QueueUserNotifications = "user_notifications"
)

// Routing patterns
const (
	RouteNotifyUserPrefix = "notify.user." // {user_id}
)
