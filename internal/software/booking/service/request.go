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

// Request books one seat on an upcoming ride. The seat reservation, booking
// row and escrow hold commit atomically; any failure leaves no trace.
func (service *bookingService) Request(ctx context.Context, in ports.RequestBookingInput) (ports.BookingView, error) {
	now := service.now().UTC()

	var (
		created  *booking.Booking
		driverID string
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		r, err := service.rideRepo.GetByID(txCtx, in.RideID)
		if err != nil {
			return err
		}
		if r.Status != ride.StatusUpcoming {
			return fault.Newf(fault.KindInvalidTransition, "cannot book a %s ride", r.Status)
		}
		if r.DepartureDue(now) {
			return fault.New(fault.KindInvalidTransition, "ride has already departed")
		}
		if r.OwnedBy(in.PassengerID) {
			return fault.New(fault.KindInvalidInput, "drivers cannot book their own ride")
		}
		driverID = r.DriverID

		exists, err := service.bookingRepo.HasLive(txCtx, in.RideID, in.PassengerID)
		if err != nil {
			return err
		}
		if exists {
			return fault.New(fault.KindDuplicateBooking, "passenger already holds a live booking on this ride")
		}

		// single conditional UPDATE; the guard losing means sold out (or the
		// ride left upcoming under a concurrent cancel)
		reserved, err := service.rideRepo.ReserveSeat(txCtx, in.RideID)
		if err != nil {
			return err
		}
		if !reserved {
			current, err := service.rideRepo.GetByID(txCtx, in.RideID)
			if err != nil {
				return err
			}
			if current.Status != ride.StatusUpcoming {
				return fault.Newf(fault.KindInvalidTransition, "cannot book a %s ride", current.Status)
			}
			observability.SeatOversellRejections.Inc()
			return fault.New(fault.KindSeatsUnavailable, "no seats available on this ride")
		}

		b, err := booking.NewBooking(in.RideID, in.PassengerID, r.PricePerSeat, now)
		if err != nil {
			return fault.Wrap(fault.KindInvalidInput, "validate booking request", err)
		}
		if err := service.bookingRepo.Create(txCtx, b); err != nil {
			return err
		}

		// escrow hold is the last step; a gateway failure rolls back the seat
		token, err := service.gateway.Hold(txCtx, b.PaymentAmount)
		if err != nil {
			observability.PaymentGatewayErrors.WithLabelValues("hold").Inc()
			return err
		}
		b.PaymentToken = token
		if err := service.bookingRepo.Update(txCtx, b); err != nil {
			return err
		}

		if err := service.bookingRepo.AppendEvent(txCtx, b.ID, "booking_requested", map[string]any{
			"amount": b.PaymentAmount,
		}); err != nil {
			return err
		}

		created = b
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "booking_request_failed", "Failed to request booking", err, map[string]any{
			"ride_id": in.RideID, "passenger_id": in.PassengerID,
		})
		return ports.BookingView{}, err
	}

	observability.BookingsRequestedTotal.Inc()
	service.sink.Emit(ctx, contracts.NotificationEvent{
		Type:      contracts.NotifyBookingRequest,
		Title:     "New booking request",
		Message:   "A passenger requested a seat on your ride. Accept or decline the request.",
		UserID:    driverID,
		RideID:    created.RideID,
		BookingID: created.ID,
	})

	service.logger.Info(ctx, "booking_requested", fmt.Sprintf("Booking %s requested", created.ID), map[string]any{
		"booking_id": created.ID,
		"ride_id":    created.RideID,
		"amount":     created.PaymentAmount,
	})

	return toView(created), nil
}
