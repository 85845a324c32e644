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

// Decide applies the driver's accept/decline to a pending booking. Repeating
// an already-applied decision returns the settled state instead of failing,
// so client retries are harmless.
func (service *bookingService) Decide(ctx context.Context, bookingID, actorID string, accept bool) (ports.BookingView, error) {
	now := service.now().UTC()

	var (
		decided     *booking.Booking
		passengerID string
		repeated    bool
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		b, err := service.bookingRepo.GetForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}

		r, err := service.rideRepo.GetByID(txCtx, b.RideID)
		if err != nil {
			return err
		}
		if !r.OwnedBy(actorID) {
			return fault.New(fault.KindNotAuthorized, "only the offering driver can decide a booking")
		}

		// idempotent repeat of the same decision
		if (accept && b.Status == booking.StatusAccepted) || (!accept && b.Status == booking.StatusDeclined) {
			decided, repeated = b, true
			return nil
		}

		if b.Status != booking.StatusPending {
			return fault.Newf(fault.KindInvalidTransition, "cannot decide a %s booking", b.Status)
		}
		if r.Status != ride.StatusUpcoming {
			return fault.Newf(fault.KindInvalidTransition, "cannot decide a booking on a %s ride", r.Status)
		}

		passengerID = b.PassengerID
		if accept {
			b.Status = booking.StatusAccepted
			b.UpdatedAt = now
			if err := service.bookingRepo.Update(txCtx, b); err != nil {
				return err
			}
			if err := service.bookingRepo.AppendEvent(txCtx, b.ID, "booking_accepted", nil); err != nil {
				return err
			}
			decided = b
			return nil
		}

		b.Status = booking.StatusDeclined
		b.PaymentStatus = booking.PaymentRefunded
		b.UpdatedAt = now
		if err := service.bookingRepo.Update(txCtx, b); err != nil {
			return err
		}
		if err := service.bookingRepo.AppendEvent(txCtx, b.ID, "booking_declined", map[string]any{
			"refund_fraction": 1.0,
		}); err != nil {
			return err
		}

		if _, err := service.rideRepo.ReleaseSeat(txCtx, b.RideID); err != nil {
			return err
		}
		if err := service.gateway.Refund(txCtx, b.PaymentToken, 1.0); err != nil {
			observability.PaymentGatewayErrors.WithLabelValues("refund").Inc()
			return err
		}

		decided = b
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "booking_decide_failed", "Failed to decide booking", err, map[string]any{
			"booking_id": bookingID, "actor_id": actorID, "accept": accept,
		})
		return ports.BookingView{}, err
	}

	if !repeated {
		if accept {
			service.sink.Emit(ctx, contracts.NotificationEvent{
				Type:      contracts.NotifyBookingAccepted,
				Title:     "Booking accepted",
				Message:   "The driver accepted your booking. See you at departure.",
				UserID:    passengerID,
				RideID:    decided.RideID,
				BookingID: decided.ID,
			})
		} else {
			observability.BookingsSettledTotal.WithLabelValues("declined").Inc()
			service.sink.Emit(ctx, contracts.NotificationEvent{
				Type:      contracts.NotifyBookingDeclined,
				Title:     "Booking declined",
				Message:   "The driver declined your booking. Your payment was refunded in full.",
				UserID:    passengerID,
				RideID:    decided.RideID,
				BookingID: decided.ID,
			})
		}

		service.logger.Info(ctx, "booking_decided", fmt.Sprintf("Booking %s %s", decided.ID, decided.Status), map[string]any{
			"booking_id": decided.ID,
			"status":     decided.Status.String(),
		})
	}

	return toView(decided), nil
}
