package service

import (
	"time"

	"campuspool/internal/general/logger"
	"campuspool/internal/ports"
)

// rideService owns the ride lifecycle and, with it, the seat inventory.
type rideService struct {
	logger      *logger.Logger
	uow         ports.UnitOfWork
	rideRepo    ports.RideRepository
	bookingRepo ports.BookingRepository
	vehicleRepo ports.VehicleRepository
	gateway     ports.PaymentGateway
	sink        ports.NotificationSink
	now         func() time.Time
}

// NewRideService creates a new instance of the RideService with the provided dependencies.
func NewRideService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	rideRepo ports.RideRepository,
	bookingRepo ports.BookingRepository,
	vehicleRepo ports.VehicleRepository,
	gateway ports.PaymentGateway,
	sink ports.NotificationSink,
) ports.RideService {
	return &rideService{
		logger:      logger,
		uow:         uow,
		rideRepo:    rideRepo,
		bookingRepo: bookingRepo,
		vehicleRepo: vehicleRepo,
		gateway:     gateway,
		sink:        sink,
		now:         time.Now,
	}
}
