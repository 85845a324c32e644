package booking

import "time"

// ConfirmWindow is how long after a ride is marked completed a passenger may
// confirm the booking and either party may submit a review.
const ConfirmWindow = 24 * time.Hour

// Direction identifies which way a review points on a completed booking.
// The two directions are gated independently.
type Direction string

const (
	DirectionPassengerToDriver Direction = "passenger_to_driver"
	DirectionDriverToPassenger Direction = "driver_to_passenger"
)

// Expired reports whether the confirmation deadline is set and has passed.
// Pure function of stored timestamps and now; no side effects.
func Expired(b *Booking, now time.Time) bool {
	return b.ConfirmDeadline != nil && !now.Before(*b.ConfirmDeadline)
}

// ReviewEligible decides whether a review may still be submitted in the given
// direction: the booking must have reached the completion flow (deadline set,
// payment held or released from it), no review may exist for the direction,
// and the window must still be open. Pure function; consulted by the booking
// lifecycle and the review gate.
func ReviewEligible(b *Booking, dir Direction, hasReview bool, now time.Time) bool {
	if b.ConfirmDeadline == nil || hasReview {
		return false
	}
	if b.PaymentStatus != PaymentHeld && b.PaymentStatus != PaymentReleased {
		return false
	}
	if dir == DirectionPassengerToDriver && b.AutoSettled() {
		// deadline passed without an explicit confirmation; that direction is closed
		return false
	}
	return now.Before(*b.ConfirmDeadline)
}

// SettleDue reports whether the passive auto-settlement rule applies: an
// accepted booking whose deadline passed without explicit confirmation.
func SettleDue(b *Booking, now time.Time) bool {
	return b.Status == StatusAccepted && b.ConfirmedAt == nil && Expired(b, now)
}
