package service

import (
	"context"

	"campuspool/internal/domain/booking"
	"campuspool/internal/ports"
)

// Get returns the booking by id.
func (service *bookingService) Get(ctx context.Context, bookingID string) (ports.BookingView, error) {
	var b *booking.Booking
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		b, err = service.bookingRepo.GetByID(txCtx, bookingID)
		return err
	})
	if err != nil {
		return ports.BookingView{}, err
	}

	return toView(b), nil
}
