package service

import (
	"context"
	"fmt"

	"campuspool/internal/domain/booking"
	"campuspool/internal/domain/fault"
	"campuspool/internal/domain/review"
	"campuspool/internal/general/contracts"
	"campuspool/internal/observability"
	"campuspool/internal/ports"
)

// Confirm records the passenger's explicit post-ride confirmation: payment is
// released to the driver and the passenger's driver review is created in the
// same transaction. A confirmation arriving after the deadline settles the
// booking lazily and reports DeadlineExpired.
func (service *bookingService) Confirm(ctx context.Context, in ports.ConfirmBookingInput) (ports.BookingView, error) {
	now := service.now().UTC()

	if in.Rating < review.MinRating || in.Rating > review.MaxRating {
		return ports.BookingView{}, fault.Newf(fault.KindInvalidInput, "rating must be between %d and %d", review.MinRating, review.MaxRating)
	}

	var (
		confirmed     *booking.Booking
		driverID      string
		lazilySettled *booking.Booking
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		b, err := service.bookingRepo.GetForUpdate(txCtx, in.BookingID)
		if err != nil {
			return err
		}
		if b.PassengerID != in.ActorID {
			return fault.New(fault.KindNotAuthorized, "only the booking passenger can confirm it")
		}

		if b.ConfirmedAt != nil {
			return fault.New(fault.KindAlreadyConfirmed, "booking is already confirmed")
		}
		if b.AutoSettled() {
			return fault.New(fault.KindDeadlineExpired, "confirmation window has closed")
		}
		if b.Status != booking.StatusAccepted || b.ConfirmDeadline == nil {
			return fault.Newf(fault.KindInvalidTransition, "booking is not awaiting confirmation (status %s)", b.Status)
		}

		r, err := service.rideRepo.GetByID(txCtx, b.RideID)
		if err != nil {
			return err
		}
		driverID = r.DriverID

		if booking.Expired(b, now) {
			// the sweep has not reached this row yet; settle it here so the
			// caller observes the same end state either way. Returning nil
			// commits the settlement; the deadline error is raised after.
			if err := service.settle(txCtx, b, now); err != nil {
				return err
			}
			lazilySettled = b
			return nil
		}

		b.Status = booking.StatusCompleted
		b.PaymentStatus = booking.PaymentReleased
		b.ConfirmedAt = &now
		b.UpdatedAt = now
		if err := service.bookingRepo.Update(txCtx, b); err != nil {
			return err
		}
		if err := service.bookingRepo.AppendEvent(txCtx, b.ID, "booking_confirmed", map[string]any{
			"rating": in.Rating,
		}); err != nil {
			return err
		}

		rv, err := review.NewReview(b.ID, b.PassengerID, driverID, in.Rating, in.Comment, now)
		if err != nil {
			return fault.Wrap(fault.KindInvalidInput, "validate review", err)
		}
		if err := service.reviewRepo.Create(txCtx, rv); err != nil {
			return err
		}

		if err := service.gateway.Release(txCtx, b.PaymentToken); err != nil {
			observability.PaymentGatewayErrors.WithLabelValues("release").Inc()
			return err
		}

		confirmed = b
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "booking_confirm_failed", "Failed to confirm booking", err, map[string]any{
			"booking_id": in.BookingID, "actor_id": in.ActorID,
		})
		return ports.BookingView{}, err
	}

	if lazilySettled != nil {
		observability.BookingsSettledTotal.WithLabelValues("auto_settle").Inc()
		service.sink.Emit(ctx, contracts.NotificationEvent{
			Type:      contracts.NotifyPaymentReleased,
			Title:     "Payment released",
			Message:   "The confirmation window closed. Your payment has been released.",
			UserID:    driverID,
			RideID:    lazilySettled.RideID,
			BookingID: lazilySettled.ID,
		})
		service.logger.Info(ctx, "booking_auto_settled", fmt.Sprintf("Booking %s auto-settled", lazilySettled.ID), map[string]any{
			"booking_id": lazilySettled.ID,
		})
		return ports.BookingView{}, fault.New(fault.KindDeadlineExpired, "confirmation window has closed")
	}

	observability.BookingsSettledTotal.WithLabelValues("accepted_confirm").Inc()
	service.sink.Emit(ctx, contracts.NotificationEvent{
		Type:      contracts.NotifyPaymentReleased,
		Title:     "Payment released",
		Message:   "The passenger confirmed the ride. Your payment has been released.",
		UserID:    driverID,
		RideID:    confirmed.RideID,
		BookingID: confirmed.ID,
	})
	service.sink.Emit(ctx, contracts.NotificationEvent{
		Type:      contracts.NotifyReviewReceived,
		Title:     "New review",
		Message:   fmt.Sprintf("You received a %d-star review from a passenger.", in.Rating),
		UserID:    driverID,
		RideID:    confirmed.RideID,
		BookingID: confirmed.ID,
	})

	service.logger.Info(ctx, "booking_confirmed", fmt.Sprintf("Booking %s confirmed", confirmed.ID), map[string]any{
		"booking_id": confirmed.ID,
		"rating":     in.Rating,
	})

	return toView(confirmed), nil
}
