package service

import (
	"context"
	"fmt"

	"campuspool/internal/domain/booking"
	"campuspool/internal/domain/fault"
	"campuspool/internal/general/contracts"
	"campuspool/internal/observability"
	"campuspool/internal/ports"
)

// SettleExpired applies the passive deadline rule to one booking: accepted,
// window open, deadline passed, no confirmation. Already-settled bookings are
// returned as-is so concurrent sweeps and lazy confirm settlements coexist.
func (service *bookingService) SettleExpired(ctx context.Context, bookingID string) (ports.BookingView, error) {
	now := service.now().UTC()

	var (
		settled  *booking.Booking
		driverID string
		repeated bool
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		b, err := service.bookingRepo.GetForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}

		if b.Status.Terminal() {
			settled, repeated = b, true
			return nil
		}
		if !booking.SettleDue(b, now) {
			return fault.New(fault.KindInvalidTransition, "booking is not due for settlement")
		}

		r, err := service.rideRepo.GetByID(txCtx, b.RideID)
		if err != nil {
			return err
		}
		driverID = r.DriverID

		if err := service.settle(txCtx, b, now); err != nil {
			return err
		}

		settled = b
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "booking_settle_failed", "Failed to settle expired booking", err, map[string]any{
			"booking_id": bookingID,
		})
		return ports.BookingView{}, err
	}

	if !repeated {
		observability.BookingsSettledTotal.WithLabelValues("auto_settle").Inc()
		service.sink.Emit(ctx, contracts.NotificationEvent{
			Type:      contracts.NotifyPaymentReleased,
			Title:     "Payment released",
			Message:   "The confirmation window closed. Your payment has been released.",
			UserID:    driverID,
			RideID:    settled.RideID,
			BookingID: settled.ID,
		})

		service.logger.Info(ctx, "booking_auto_settled", fmt.Sprintf("Booking %s auto-settled", settled.ID), map[string]any{
			"booking_id": settled.ID,
		})
	}

	return toView(settled), nil
}

// SweepExpired settles every booking whose confirmation deadline has passed.
// Each booking settles in its own transaction so one failure does not hold
// the rest of the batch hostage. Returns the number of bookings settled.
func (service *bookingService) SweepExpired(ctx context.Context) (int, error) {
	now := service.now().UTC()

	var due []string
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		due, err = service.bookingRepo.FindSettleDue(txCtx, now, service.sweepBatch)
		return err
	})
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, id := range due {
		if _, err := service.SettleExpired(ctx, id); err != nil {
			// logged inside SettleExpired; move on to the next booking
			continue
		}
		settled++
	}

	observability.SweepBatchSize.Observe(float64(settled))
	if settled > 0 {
		service.logger.Info(ctx, "sweep_completed", fmt.Sprintf("Settled %d expired bookings", settled), map[string]any{
			"due": len(due), "settled": settled,
		})
	}

	return settled, nil
}
