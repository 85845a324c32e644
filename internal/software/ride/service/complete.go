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

// MarkCompleted closes out a departed ride. Accepted bookings enter their
// 24-hour confirmation window with payment still held; bookings the driver
// never decided on are declined with a full refund.
func (service *rideService) MarkCompleted(ctx context.Context, rideID, actorID string) (ports.RideView, error) {
	now := service.now().UTC()

	var (
		completed *ride.Ride
		notices   []contracts.NotificationEvent
		declined  int
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		r, err := service.rideRepo.GetForUpdate(txCtx, rideID)
		if err != nil {
			return err
		}
		if !r.OwnedBy(actorID) {
			return fault.New(fault.KindNotAuthorized, "only the offering driver can complete the ride")
		}
		if !r.Status.CanTransitionTo(ride.StatusCompleted) {
			return fault.Newf(fault.KindInvalidTransition, "cannot complete a %s ride", r.Status)
		}
		if !r.DepartureDue(now) {
			return fault.New(fault.KindInvalidTransition, "ride cannot be completed before its departure time")
		}

		live, err := service.bookingRepo.ListLiveByRideForUpdate(txCtx, rideID)
		if err != nil {
			return err
		}

		deadline := now.Add(booking.ConfirmWindow)
		for _, b := range live {
			switch b.Status {
			case booking.StatusAccepted:
				// stays accepted; it completes on explicit confirmation or
				// when the settlement sweep closes the window
				b.ConfirmDeadline = &deadline
				b.UpdatedAt = now
				if err := service.bookingRepo.Update(txCtx, b); err != nil {
					return err
				}
				if err := service.bookingRepo.AppendEvent(txCtx, b.ID, "confirmation_window_opened", map[string]any{
					"confirm_deadline": deadline,
				}); err != nil {
					return err
				}

				notices = append(notices, contracts.NotificationEvent{
					Type:      contracts.NotifyRideCompleted,
					Title:     "Ride completed",
					Message:   "Your ride is complete. Confirm it within 24 hours to rate your driver.",
					UserID:    b.PassengerID,
					RideID:    rideID,
					BookingID: b.ID,
				})

			case booking.StatusPending:
				// the driver never decided; treat as a decline with full refund
				b.Status = booking.StatusDeclined
				b.PaymentStatus = booking.PaymentRefunded
				b.UpdatedAt = now
				if err := service.bookingRepo.Update(txCtx, b); err != nil {
					return err
				}
				if err := service.bookingRepo.AppendEvent(txCtx, b.ID, "booking_declined", map[string]any{
					"reason": "ride_completed_undecided",
				}); err != nil {
					return err
				}

				if _, err := service.rideRepo.ReleaseSeat(txCtx, rideID); err != nil {
					return err
				}
				if err := service.gateway.Refund(txCtx, b.PaymentToken, 1.0); err != nil {
					observability.PaymentGatewayErrors.WithLabelValues("refund").Inc()
					return err
				}
				declined++

				notices = append(notices, contracts.NotificationEvent{
					Type:      contracts.NotifyBookingDeclined,
					Title:     "Booking declined",
					Message:   "The ride departed before the driver accepted your request. Your payment was refunded in full.",
					UserID:    b.PassengerID,
					RideID:    rideID,
					BookingID: b.ID,
				})
			}
		}

		if err := service.rideRepo.SetStatus(txCtx, rideID, ride.StatusCompleted, now); err != nil {
			return err
		}

		r.Status = ride.StatusCompleted
		r.CompletedAt = &now
		completed = r

		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "ride_complete_failed", "Failed to mark ride completed", err, map[string]any{
			"ride_id": rideID, "actor_id": actorID,
		})
		return ports.RideView{}, err
	}

	for i := 0; i < declined; i++ {
		observability.BookingsSettledTotal.WithLabelValues("declined").Inc()
	}
	for _, n := range notices {
		service.sink.Emit(ctx, n)
	}

	service.logger.Info(ctx, "ride_completed", fmt.Sprintf("Ride %s marked completed", rideID), map[string]any{
		"ride_id":          rideID,
		"windows_opened":   len(notices) - declined,
		"pending_declined": declined,
	})

	return service.toView(completed, now), nil
}
