package ports

import (
	"context"
	"time"

	"campuspool/internal/domain/booking"
	"campuspool/internal/domain/review"
	"campuspool/internal/domain/ride"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RideRepository defines the methods for managing ride data. Seat inventory
// mutations are conditional single-statement updates; they report whether the
// guard held so callers can distinguish "sold out" from "ride not open".
type RideRepository interface {
	Create(ctx context.Context, r *ride.Ride) error
	GetByID(ctx context.Context, id string) (*ride.Ride, error)
	GetForUpdate(ctx context.Context, id string) (*ride.Ride, error)
	// ReserveSeat decrements seats_available iff the ride is upcoming and a
	// seat remains. Returns false when the guard did not hold.
	ReserveSeat(ctx context.Context, rideID string) (bool, error)
	// ReleaseSeat increments seats_available iff it is below seats_total.
	ReleaseSeat(ctx context.Context, rideID string) (bool, error)
	SetStatus(ctx context.Context, rideID string, status ride.Status, ts time.Time) error
}

// BookingRepository defines the methods for managing booking data.
type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	GetByID(ctx context.Context, id string) (*booking.Booking, error)
	GetForUpdate(ctx context.Context, id string) (*booking.Booking, error)
	// HasLive reports whether the passenger already holds a pending or
	// accepted booking on the ride.
	HasLive(ctx context.Context, rideID, passengerID string) (bool, error)
	// ListLiveByRideForUpdate locks and returns all pending/accepted bookings
	// of a ride, for cascade transitions.
	ListLiveByRideForUpdate(ctx context.Context, rideID string) ([]*booking.Booking, error)
	// Update persists all mutable booking fields (status, payment sub-state,
	// token, confirmation timestamps).
	Update(ctx context.Context, b *booking.Booking) error
	// FindSettleDue returns ids of accepted bookings whose confirmation
	// deadline has passed without an explicit confirmation.
	FindSettleDue(ctx context.Context, now time.Time, limit int) ([]string, error)
	AppendEvent(ctx context.Context, bookingID, eventType string, data any) error
}

// ReviewRepository defines the methods for managing review data.
type ReviewRepository interface {
	Create(ctx context.Context, r *review.Review) error
	Exists(ctx context.Context, bookingID, reviewerID, revieweeID string) (bool, error)
}

// VehicleRepository exposes the one fact the engine needs about vehicles:
// ownership. Vehicle management itself lives outside the engine.
type VehicleRepository interface {
	OwnedBy(ctx context.Context, vehicleID, ownerID string) (bool, error)
}
