package booking

import (
	"errors"
	"strings"
	"time"
)

// Booking is one passenger's claim on one seat of one ride, corresponding to
// the `bookings` table. A booking reserves exactly one seat from creation
// until it leaves the seat-holding states.
type Booking struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	RideID      string
	PassengerID string

	// Core state
	Status Status

	// Payment sub-state. PaymentAmount snapshots the ride price at booking
	// time and never changes, even if the driver edits the price later.
	PaymentStatus PaymentStatus
	PaymentAmount float64
	PaymentToken  string
	PaidAt        *time.Time

	// Confirmation. ConfirmDeadline is set once the parent ride is marked
	// completed; ConfirmedAt stays nil for auto-settled bookings.
	ConfirmedAt     *time.Time
	ConfirmDeadline *time.Time
}

var (
	ErrRideRequired      = errors.New("ride id is required")
	ErrPassengerRequired = errors.New("passenger id is required")
	ErrNegativeAmount    = errors.New("payment amount cannot be negative")
)

// NewBooking creates a pending booking with the payment amount snapshotted
// from the ride price. The escrow token is attached after the gateway hold.
func NewBooking(rideID, passengerID string, amount float64, now time.Time) (*Booking, error) {
	if rideID = strings.TrimSpace(rideID); rideID == "" {
		return nil, ErrRideRequired
	}
	if passengerID = strings.TrimSpace(passengerID); passengerID == "" {
		return nil, ErrPassengerRequired
	}
	if amount < 0 {
		return nil, ErrNegativeAmount
	}

	now = now.UTC()
	paidAt := now
	return &Booking{
		CreatedAt:     now,
		UpdatedAt:     now,
		RideID:        rideID,
		PassengerID:   passengerID,
		Status:        StatusPending,
		PaymentStatus: PaymentHeld,
		PaymentAmount: amount,
		PaidAt:        &paidAt,
	}, nil
}

// AutoSettled reports whether the booking was settled by the deadline rule
// rather than an explicit passenger confirmation.
func (b *Booking) AutoSettled() bool {
	return b.Status == StatusCompleted && b.ConfirmedAt == nil
}
