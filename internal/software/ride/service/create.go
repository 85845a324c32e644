package service

import (
	"context"
	"fmt"

	"campuspool/internal/domain/fault"
	"campuspool/internal/domain/ride"
	"campuspool/internal/ports"
)

// Create publishes a new ride offer in upcoming state with a full seat
// inventory. The driver must own the vehicle they list.
func (service *rideService) Create(ctx context.Context, in ports.CreateRideInput) (ports.RideView, error) {
	now := service.now().UTC()

	var created *ride.Ride
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		owned, err := service.vehicleRepo.OwnedBy(txCtx, in.VehicleID, in.DriverID)
		if err != nil {
			return err
		}
		if !owned {
			return fault.New(fault.KindNotAuthorized, "vehicle does not belong to the driver")
		}

		r, err := ride.NewRide(in.DriverID, in.VehicleID, in.Route, in.DepartureAt, in.PricePerSeat, in.SeatsTotal, in.Preferences, now)
		if err != nil {
			return fault.Wrap(fault.KindInvalidInput, "validate ride offer", err)
		}

		if err := service.rideRepo.Create(txCtx, r); err != nil {
			return err
		}
		created = r

		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "ride_create_failed", "Failed to create ride", err, map[string]any{
			"driver_id":  in.DriverID,
			"vehicle_id": in.VehicleID,
		})
		return ports.RideView{}, err
	}

	service.logger.Info(ctx, "ride_created", fmt.Sprintf("Ride %s created", created.ID), map[string]any{
		"ride_id":     created.ID,
		"driver_id":   created.DriverID,
		"seats_total": created.SeatsTotal,
		"departure":   created.DepartureAt,
	})

	return service.toView(created, now), nil
}
