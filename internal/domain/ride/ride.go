package ride

import (
	"errors"
	"strings"
	"time"
)

// Route is the free-text origin/destination pair plus optional coordinates.
// Coordinates are opaque to the engine; map search lives elsewhere.
type Route struct {
	Origin         string
	Destination    string
	OriginLat      *float64
	OriginLng      *float64
	DestinationLat *float64
	DestinationLng *float64
}

// Preferences are opaque driver flags carried for display; they have no
// behavioural effect on the lifecycle engine.
type Preferences struct {
	Luggage bool `json:"luggage"`
	Pets    bool `json:"pets"`
	Smoking bool `json:"smoking"`
	Music   bool `json:"music"`
}

// Seat capacity bounds for a single offered ride.
const (
	MinSeatsTotal = 1
	MaxSeatsTotal = 10
)

// Ride is the domain entity corresponding to the `rides` table.
type Ride struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Actors
	DriverID  string
	VehicleID string

	// Route & schedule
	Route       Route
	DepartureAt time.Time

	// Capacity & commercial. SeatsAvailable is owned exclusively by the
	// ride lifecycle; every mutation is a conditional update in the store.
	SeatsTotal     int
	SeatsAvailable int
	PricePerSeat   float64

	// Core state
	Status      Status
	Preferences Preferences

	// Lifecycle timestamps
	CompletedAt *time.Time
	CancelledAt *time.Time
}

var (
	ErrDriverRequired      = errors.New("driver id is required")
	ErrVehicleRequired     = errors.New("vehicle id is required")
	ErrOriginRequired      = errors.New("origin is required")
	ErrDestinationRequired = errors.New("destination is required")
	ErrDepartureNotFuture  = errors.New("departure time must be in the future")
	ErrNegativePrice       = errors.New("price per seat cannot be negative")
	ErrSeatsOutOfRange     = errors.New("seats total must be between 1 and 10")
)

// NewRide creates a new ride offer in upcoming state with a full seat inventory.
func NewRide(driverID, vehicleID string, route Route, departureAt time.Time, pricePerSeat float64, seatsTotal int, prefs Preferences, now time.Time) (*Ride, error) {
	if driverID = strings.TrimSpace(driverID); driverID == "" {
		return nil, ErrDriverRequired
	}
	if vehicleID = strings.TrimSpace(vehicleID); vehicleID == "" {
		return nil, ErrVehicleRequired
	}
	route.Origin = strings.TrimSpace(route.Origin)
	route.Destination = strings.TrimSpace(route.Destination)
	if route.Origin == "" {
		return nil, ErrOriginRequired
	}
	if route.Destination == "" {
		return nil, ErrDestinationRequired
	}
	if !departureAt.After(now) {
		return nil, ErrDepartureNotFuture
	}
	if pricePerSeat < 0 {
		return nil, ErrNegativePrice
	}
	if seatsTotal < MinSeatsTotal || seatsTotal > MaxSeatsTotal {
		return nil, ErrSeatsOutOfRange
	}

	now = now.UTC()
	return &Ride{
		CreatedAt:      now,
		UpdatedAt:      now,
		DriverID:       driverID,
		VehicleID:      vehicleID,
		Route:          route,
		DepartureAt:    departureAt.UTC(),
		SeatsTotal:     seatsTotal,
		SeatsAvailable: seatsTotal,
		PricePerSeat:   pricePerSeat,
		Status:         StatusUpcoming,
		Preferences:    prefs,
	}, nil
}

// DerivedStatus is the externally visible status at `now` (see Derive).
func (ride *Ride) DerivedStatus(now time.Time) string {
	return Derive(ride.Status, ride.DepartureAt, now)
}

// DepartureDue reports whether the scheduled departure has been reached.
func (ride *Ride) DepartureDue(now time.Time) bool {
	return !now.Before(ride.DepartureAt)
}

// TimeToDeparture is the remaining time before departure; negative once due.
func (ride *Ride) TimeToDeparture(now time.Time) time.Duration {
	return ride.DepartureAt.Sub(now)
}

// OwnedBy reports whether the given actor is the offering driver.
func (ride *Ride) OwnedBy(actorID string) bool {
	return ride.DriverID == actorID
}
