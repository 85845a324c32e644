package service

import (
	"context"
	"fmt"

	"campuspool/internal/domain/booking"
	"campuspool/internal/domain/fault"
	"campuspool/internal/domain/review"
	"campuspool/internal/general/contracts"
	"campuspool/internal/ports"
)

// Submit creates a directional review on a completed booking. The reviewer
// and reviewee must be exactly the booking's passenger and driver (either
// direction), the confirmation window must still be open for that direction,
// and only one review may exist per direction.
func (service *reviewService) Submit(ctx context.Context, in ports.SubmitReviewInput) (ports.ReviewView, error) {
	now := service.now().UTC()

	var created *review.Review
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		b, err := service.bookingRepo.GetByID(txCtx, in.BookingID)
		if err != nil {
			return err
		}
		r, err := service.rideRepo.GetByID(txCtx, b.RideID)
		if err != nil {
			return err
		}

		var dir booking.Direction
		switch {
		case in.ReviewerID == b.PassengerID && in.RevieweeID == r.DriverID:
			dir = booking.DirectionPassengerToDriver
		case in.ReviewerID == r.DriverID && in.RevieweeID == b.PassengerID:
			dir = booking.DirectionDriverToPassenger
		default:
			return fault.New(fault.KindInvalidParticipants, "reviewer and reviewee must be the booking's passenger and driver")
		}

		hasReview, err := service.reviewRepo.Exists(txCtx, b.ID, in.ReviewerID, in.RevieweeID)
		if err != nil {
			return err
		}
		if !booking.ReviewEligible(b, dir, hasReview, now) {
			return fault.New(fault.KindNotEligible, "review window is closed or review already exists")
		}

		rv, err := review.NewReview(b.ID, in.ReviewerID, in.RevieweeID, in.Rating, in.Comment, now)
		if err != nil {
			return fault.Wrap(fault.KindInvalidInput, "validate review", err)
		}
		if err := service.reviewRepo.Create(txCtx, rv); err != nil {
			return err
		}

		created = rv
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "review_submit_failed", "Failed to submit review", err, map[string]any{
			"booking_id": in.BookingID, "reviewer_id": in.ReviewerID,
		})
		return ports.ReviewView{}, err
	}

	service.sink.Emit(ctx, contracts.NotificationEvent{
		Type:      contracts.NotifyReviewReceived,
		Title:     "New review",
		Message:   fmt.Sprintf("You received a %d-star review.", created.Rating),
		UserID:    created.RevieweeID,
		BookingID: created.BookingID,
	})

	service.logger.Info(ctx, "review_submitted", fmt.Sprintf("Review %s submitted", created.ID), map[string]any{
		"review_id":  created.ID,
		"booking_id": created.BookingID,
		"rating":     created.Rating,
	})

	return ports.ReviewView{
		ReviewID:   created.ID,
		BookingID:  created.BookingID,
		ReviewerID: created.ReviewerID,
		RevieweeID: created.RevieweeID,
		Rating:     created.Rating,
		Comment:    created.Comment,
		CreatedAt:  created.CreatedAt,
	}, nil
}
