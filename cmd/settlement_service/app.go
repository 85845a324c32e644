package settlementservice

import (
	"context"
	"time"

	"campuspool/internal/general/config"
	"campuspool/internal/general/logger"
	"campuspool/internal/general/postgres"
	"campuspool/internal/general/rabbitmq"
	"campuspool/internal/notify"
	"campuspool/internal/payments"
	"campuspool/internal/ports"
	bookingservice "campuspool/internal/software/booking/service"
)

// Run wires the settlement sweeper and blocks until ctx is cancelled. The
// sweeper is the document of record for the 24-hour confirmation rule: it
// periodically settles every accepted booking whose window has closed.
func Run(ctx context.Context, interval time.Duration, batch int) error {
	// set up a new logger and context with a static request ID for startup logs
	logger := logger.New("settlement-service")
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}
	if interval <= 0 {
		interval = cfg.Sweeper.Interval
	}
	if batch <= 0 {
		batch = cfg.Sweeper.BatchSize
	}

	// set up a Postgres connection pool
	pool, err := postgres.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	// connect to RabbitMQ so settlements still notify drivers
	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	pub := rabbitmq.NewMQPublisher(rmq)
	sink := notify.NewAMQPSink(pub, logger, "settlement-service")

	// set up the repos and the booking service
	uow := postgres.NewUnitOfWork(pool)
	rideRepo := postgres.NewRideRepo()
	bookingRepo := postgres.NewBookingRepo()
	reviewRepo := postgres.NewReviewRepo()
	gateway := selectGateway(cfg)

	svc := bookingservice.NewBookingService(logger, uow, bookingRepo, rideRepo, reviewRepo, gateway, sink, batch)

	logger.Info(ctx, "service_started", "Settlement sweeper started",
		map[string]any{"interval": interval.String(), "batch": batch})

	// sweep once immediately, then on every tick
	if _, err := svc.SweepExpired(ctx); err != nil {
		logger.Error(ctx, "sweep_failed", "Settlement sweep failed", err, nil)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "shutdown_started", "Settlement sweeper shutting down", nil)
			return nil
		case <-ticker.C:
			if _, err := svc.SweepExpired(ctx); err != nil {
				logger.Error(ctx, "sweep_failed", "Settlement sweep failed", err, nil)
			}
		}
	}
}

// selectGateway picks the configured PaymentGateway implementation.
func selectGateway(cfg *config.Config) ports.PaymentGateway {
	if cfg.Payments.Provider == "stripe" {
		return payments.NewStripeGateway(cfg.Payments.StripeAPIKey, cfg.Payments.Currency)
	}
	return payments.NewMockGateway()
}
