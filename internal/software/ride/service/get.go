package service

import (
	"context"

	"campuspool/internal/domain/ride"
	"campuspool/internal/ports"
)

// Get returns the ride with its externally visible (derived) status.
func (service *rideService) Get(ctx context.Context, rideID string) (ports.RideView, error) {
	var r *ride.Ride
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		r, err = service.rideRepo.GetByID(txCtx, rideID)
		return err
	})
	if err != nil {
		return ports.RideView{}, err
	}

	return service.toView(r, service.now().UTC()), nil
}
