package service

import (
	"context"
	"fmt"

	"campuspool/internal/domain/booking"
	"campuspool/internal/domain/fault"
	"campuspool/internal/domain/ride"
	"campuspool/internal/general/contracts"
	"campuspool/internal/observability"
	"campuspool/internal/ports"
)

// Cancel withdraws an upcoming ride. Every live booking is cancelled in the
// same transaction with a full refund; a gateway failure rolls the whole
// cascade back so money and seats never diverge.
func (service *rideService) Cancel(ctx context.Context, rideID, actorID string) (ports.RideView, error) {
	now := service.now().UTC()

	var (
		cancelled *ride.Ride
		notices   []contracts.NotificationEvent
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		r, err := service.rideRepo.GetForUpdate(txCtx, rideID)
		if err != nil {
			return err
		}
		if !r.OwnedBy(actorID) {
			return fault.New(fault.KindNotAuthorized, "only the offering driver can cancel the ride")
		}
		if !r.Status.CanTransitionTo(ride.StatusCancelled) {
			return fault.Newf(fault.KindInvalidTransition, "cannot cancel a %s ride", r.Status)
		}

		live, err := service.bookingRepo.ListLiveByRideForUpdate(txCtx, rideID)
		if err != nil {
			return err
		}

		for _, b := range live {
			b.Status = booking.StatusCancelled
			b.PaymentStatus = booking.PaymentRefunded
			b.UpdatedAt = now
			if err := service.bookingRepo.Update(txCtx, b); err != nil {
				return err
			}
			if err := service.bookingRepo.AppendEvent(txCtx, b.ID, "booking_cancelled", map[string]any{
				"reason": "ride_cancelled", "refund_fraction": 1.0,
			}); err != nil {
				return err
			}

			if _, err := service.rideRepo.ReleaseSeat(txCtx, rideID); err != nil {
				return err
			}

			// driver-initiated cancellation always refunds in full
			if err := service.gateway.Refund(txCtx, b.PaymentToken, 1.0); err != nil {
				observability.PaymentGatewayErrors.WithLabelValues("refund").Inc()
				return err
			}

			notices = append(notices, contracts.NotificationEvent{
				Type:      contracts.NotifyRideCancelled,
				Title:     "Ride cancelled",
				Message:   fmt.Sprintf("The ride %s → %s was cancelled by the driver. Your payment was refunded in full.", r.Route.Origin, r.Route.Destination),
				UserID:    b.PassengerID,
				RideID:    rideID,
				BookingID: b.ID,
			})
		}

		if err := service.rideRepo.SetStatus(txCtx, rideID, ride.StatusCancelled, now); err != nil {
			return err
		}

		r.Status = ride.StatusCancelled
		r.CancelledAt = &now
		r.SeatsAvailable = r.SeatsTotal
		cancelled = r

		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "ride_cancel_failed", "Failed to cancel ride", err, map[string]any{
			"ride_id": rideID, "actor_id": actorID,
		})
		return ports.RideView{}, err
	}

	for range notices {
		observability.BookingsSettledTotal.WithLabelValues("cancelled").Inc()
	}
	for _, n := range notices {
		service.sink.Emit(ctx, n)
	}

	service.logger.Info(ctx, "ride_cancelled", fmt.Sprintf("Ride %s cancelled, %d bookings refunded", rideID, len(notices)), map[string]any{
		"ride_id":           rideID,
		"bookings_refunded": len(notices),
	})

	return service.toView(cancelled, now), nil
}
