package ports

import (
	"context"
	"time"

	"campuspool/internal/domain/ride"
)

// ----- DTOs for Ride Service -----

// CreateRideInput is the validated input required to offer a ride.
type CreateRideInput struct {
	DriverID     string
	VehicleID    string
	Route        ride.Route
	DepartureAt  time.Time
	PricePerSeat float64
	SeatsTotal   int
	Preferences  ride.Preferences
}

// RideView is the API-facing projection of a ride.
type RideView struct {
	RideID         string           `json:"ride_id"`
	DriverID       string           `json:"driver_id"`
	VehicleID      string           `json:"vehicle_id"`
	Origin         string           `json:"origin"`
	Destination    string           `json:"destination"`
	DepartureAt    time.Time        `json:"departure_at"`
	PricePerSeat   float64          `json:"price_per_seat"`
	SeatsTotal     int              `json:"seats_total"`
	SeatsAvailable int              `json:"seats_available"`
	Status         string           `json:"status"` // includes derived in_progress
	Preferences    ride.Preferences `json:"preferences"`
	CreatedAt      time.Time        `json:"created_at"`
}

// ----- DTOs for Booking Service -----

// RequestBookingInput is the validated input for booking a seat. The payment
// authorization already happened in the external payment step; the engine
// places the escrow hold itself.
type RequestBookingInput struct {
	RideID      string
	PassengerID string
}

// ConfirmBookingInput carries the passenger's post-ride confirmation.
type ConfirmBookingInput struct {
	BookingID string
	ActorID   string
	Rating    int
	Comment   string
}

// BookingView is the API-facing projection of a booking.
type BookingView struct {
	BookingID       string     `json:"booking_id"`
	RideID          string     `json:"ride_id"`
	PassengerID     string     `json:"passenger_id"`
	Status          string     `json:"status"`
	PaymentStatus   string     `json:"payment_status"`
	PaymentAmount   float64    `json:"payment_amount"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	ConfirmDeadline *time.Time `json:"confirm_deadline,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ----- DTOs for Review Service -----

// SubmitReviewInput is the validated input for a directional review.
type SubmitReviewInput struct {
	BookingID  string
	ReviewerID string
	RevieweeID string
	Rating     int
	Comment    string
}

// ReviewView is the API-facing projection of a review.
type ReviewView struct {
	ReviewID   string    `json:"review_id"`
	BookingID  string    `json:"booking_id"`
	ReviewerID string    `json:"reviewer_id"`
	RevieweeID string    `json:"reviewee_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ----- Service interfaces -----

// RideService exposes the ride lifecycle: the sole owner of seat inventory.
type RideService interface {
	Create(ctx context.Context, in CreateRideInput) (RideView, error)
	Get(ctx context.Context, rideID string) (RideView, error)
	Cancel(ctx context.Context, rideID, actorID string) (RideView, error)
	MarkCompleted(ctx context.Context, rideID, actorID string) (RideView, error)
}

// BookingService exposes the booking lifecycle.
type BookingService interface {
	Request(ctx context.Context, in RequestBookingInput) (BookingView, error)
	Get(ctx context.Context, bookingID string) (BookingView, error)
	// Decide applies the driver's accept/decline to a pending booking.
	Decide(ctx context.Context, bookingID, actorID string, accept bool) (BookingView, error)
	Cancel(ctx context.Context, bookingID, actorID string) (BookingView, error)
	Confirm(ctx context.Context, in ConfirmBookingInput) (BookingView, error)
	// SettleExpired applies the passive deadline rule to one booking.
	SettleExpired(ctx context.Context, bookingID string) (BookingView, error)
	// SweepExpired settles every due booking and reports how many it touched.
	SweepExpired(ctx context.Context) (int, error)
}

// ReviewService gates review submission on the confirmation window.
type ReviewService interface {
	Submit(ctx context.Context, in SubmitReviewInput) (ReviewView, error)
}
