package service

import (
	"time"

	"campuspool/internal/general/logger"
	"campuspool/internal/ports"
)

// reviewService gates review submission on booking participation and the
// confirmation window.
type reviewService struct {
	logger      *logger.Logger
	uow         ports.UnitOfWork
	reviewRepo  ports.ReviewRepository
	bookingRepo ports.BookingRepository
	rideRepo    ports.RideRepository
	sink        ports.NotificationSink
	now         func() time.Time
}

// NewReviewService creates a new instance of the ReviewService with the provided dependencies.
func NewReviewService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	reviewRepo ports.ReviewRepository,
	bookingRepo ports.BookingRepository,
	rideRepo ports.RideRepository,
	sink ports.NotificationSink,
) ports.ReviewService {
	return &reviewService{
		logger:      logger,
		uow:         uow,
		reviewRepo:  reviewRepo,
		bookingRepo: bookingRepo,
		rideRepo:    rideRepo,
		sink:        sink,
		now:         time.Now,
	}
}
