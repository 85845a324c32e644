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

// Cancel withdraws the passenger's own live booking before departure. The
// refund split depends on the time left: more than 24h out the passenger gets
// everything back, at 24h or closer the payment splits 50/50 with the driver.
func (service *bookingService) Cancel(ctx context.Context, bookingID, actorID string) (ports.BookingView, error) {
	now := service.now().UTC()

	var (
		cancelled     *booking.Booking
		driverID      string
		passengerFrac float64
		repeated      bool
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		b, err := service.bookingRepo.GetForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}
		if b.PassengerID != actorID {
			return fault.New(fault.KindNotAuthorized, "only the booking passenger can cancel it")
		}

		if b.Status == booking.StatusCancelled {
			cancelled, repeated = b, true
			return nil
		}
		if !b.Status.CanTransitionTo(booking.StatusCancelled) {
			return fault.Newf(fault.KindInvalidTransition, "cannot cancel a %s booking", b.Status)
		}

		r, err := service.rideRepo.GetByID(txCtx, b.RideID)
		if err != nil {
			return err
		}
		if r.Status != ride.StatusUpcoming {
			return fault.Newf(fault.KindInvalidTransition, "cannot cancel a booking on a %s ride", r.Status)
		}
		driverID = r.DriverID

		var driverFrac float64
		passengerFrac, driverFrac = booking.RefundSplit(r.DepartureAt, now)

		b.Status = booking.StatusCancelled
		b.PaymentStatus = booking.PaymentRefunded
		b.UpdatedAt = now
		if err := service.bookingRepo.Update(txCtx, b); err != nil {
			return err
		}
		if err := service.bookingRepo.AppendEvent(txCtx, b.ID, "booking_cancelled", map[string]any{
			"refund_fraction": passengerFrac,
			"driver_fraction": driverFrac,
		}); err != nil {
			return err
		}

		if _, err := service.rideRepo.ReleaseSeat(txCtx, b.RideID); err != nil {
			return err
		}

		if err := service.gateway.Refund(txCtx, b.PaymentToken, passengerFrac); err != nil {
			observability.PaymentGatewayErrors.WithLabelValues("refund").Inc()
			return err
		}
		if driverFrac > 0 {
			// pay the retained half out to the driver
			if err := service.gateway.Release(txCtx, b.PaymentToken); err != nil {
				observability.PaymentGatewayErrors.WithLabelValues("release").Inc()
				return err
			}
		}

		cancelled = b
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "booking_cancel_failed", "Failed to cancel booking", err, map[string]any{
			"booking_id": bookingID, "actor_id": actorID,
		})
		return ports.BookingView{}, err
	}

	if !repeated {
		observability.BookingsSettledTotal.WithLabelValues("cancelled").Inc()
		service.sink.Emit(ctx, contracts.NotificationEvent{
			Type:      contracts.NotifyBookingCancelled,
			Title:     "Booking cancelled",
			Message:   "A passenger cancelled their booking. The seat is available again.",
			UserID:    driverID,
			RideID:    cancelled.RideID,
			BookingID: cancelled.ID,
		})

		service.logger.Info(ctx, "booking_cancelled", fmt.Sprintf("Booking %s cancelled", cancelled.ID), map[string]any{
			"booking_id":      cancelled.ID,
			"refund_fraction": passengerFrac,
		})
	}

	return toView(cancelled), nil
}
