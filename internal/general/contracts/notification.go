package contracts

// NotificationType names the engine events external delivery systems consume.
type NotificationType string

const (
	NotifyBookingRequest   NotificationType = "booking_request"
	NotifyBookingAccepted  NotificationType = "booking_accepted"
	NotifyBookingDeclined  NotificationType = "booking_declined"
	NotifyBookingCancelled NotificationType = "booking_cancelled"
	NotifyRideCancelled    NotificationType = "ride_cancelled"
	NotifyRideCompleted    NotificationType = "ride_completed"
	NotifyPaymentReleased  NotificationType = "payment_released"
	NotifyReviewReceived   NotificationType = "review_received"
)

// NotificationEvent is the fire-and-forget message the engine emits. Delivery
// and storage are external; the engine never depends on the outcome.
type NotificationEvent struct {
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	UserID    string           `json:"user_id"`
	RideID    string           `json:"ride_id,omitempty"`
	BookingID string           `json:"booking_id,omitempty"`
	Envelope
}
