package service

import (
	"context"
	"time"

	"campuspool/internal/domain/booking"
	"campuspool/internal/ports"
)

// toView projects a booking entity onto its API shape.
func toView(b *booking.Booking) ports.BookingView {
	return ports.BookingView{
		BookingID:       b.ID,
		RideID:          b.RideID,
		PassengerID:     b.PassengerID,
		Status:          b.Status.String(),
		PaymentStatus:   b.PaymentStatus.String(),
		PaymentAmount:   b.PaymentAmount,
		PaidAt:          b.PaidAt,
		ConfirmedAt:     b.ConfirmedAt,
		ConfirmDeadline: b.ConfirmDeadline,
		CreatedAt:       b.CreatedAt,
	}
}

// settle applies the passive deadline rule to a locked booking: payment is
// released to the driver, the booking completes, and ConfirmedAt stays nil as
// the auto-settlement marker. Caller holds the row lock.
func (service *bookingService) settle(txCtx context.Context, b *booking.Booking, now time.Time) error {
	b.Status = booking.StatusCompleted
	b.PaymentStatus = booking.PaymentReleased
	b.UpdatedAt = now
	if err := service.bookingRepo.Update(txCtx, b); err != nil {
		return err
	}
	if err := service.bookingRepo.AppendEvent(txCtx, b.ID, "booking_auto_settled", map[string]any{
		"confirm_deadline": b.ConfirmDeadline,
	}); err != nil {
		return err
	}
	return service.gateway.Release(txCtx, b.PaymentToken)
}
