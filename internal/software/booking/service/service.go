package service

import (
	"time"

	"campuspool/internal/general/logger"
	"campuspool/internal/ports"
)

const defaultSweepBatch = 100

// bookingService owns the booking lifecycle: request through settlement.
// Gateway calls run inside the unit of work as the last step before commit,
// so a payment failure rolls back the seat and state changes with it.
type bookingService struct {
	logger      *logger.Logger
	uow         ports.UnitOfWork
	bookingRepo ports.BookingRepository
	rideRepo    ports.RideRepository
	reviewRepo  ports.ReviewRepository
	gateway     ports.PaymentGateway
	sink        ports.NotificationSink
	now         func() time.Time
	sweepBatch  int
}

// NewBookingService creates a new instance of the BookingService with the provided dependencies.
// sweepBatch caps how many due bookings one sweep run settles; zero means the
// default.
func NewBookingService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	bookingRepo ports.BookingRepository,
	rideRepo ports.RideRepository,
	reviewRepo ports.ReviewRepository,
	gateway ports.PaymentGateway,
	sink ports.NotificationSink,
	sweepBatch int,
) ports.BookingService {
	if sweepBatch <= 0 {
		sweepBatch = defaultSweepBatch
	}
	return &bookingService{
		logger:      logger,
		uow:         uow,
		bookingRepo: bookingRepo,
		rideRepo:    rideRepo,
		reviewRepo:  reviewRepo,
		gateway:     gateway,
		sink:        sink,
		now:         time.Now,
		sweepBatch:  sweepBatch,
	}
}
