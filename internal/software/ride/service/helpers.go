package service

import (
	"time"

	"campuspool/internal/domain/ride"
	"campuspool/internal/ports"
)

// toView projects a ride entity onto its API shape, deriving the visible status.
func (service *rideService) toView(r *ride.Ride, now time.Time) ports.RideView {
	return ports.RideView{
		RideID:         r.ID,
		DriverID:       r.DriverID,
		VehicleID:      r.VehicleID,
		Origin:         r.Route.Origin,
		Destination:    r.Route.Destination,
		DepartureAt:    r.DepartureAt,
		PricePerSeat:   r.PricePerSeat,
		SeatsTotal:     r.SeatsTotal,
		SeatsAvailable: r.SeatsAvailable,
		Status:         r.DerivedStatus(now),
		Preferences:    r.Preferences,
		CreatedAt:      r.CreatedAt,
	}
}
