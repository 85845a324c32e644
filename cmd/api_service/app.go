package apiservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"campuspool/internal/general/config"
	"campuspool/internal/general/jwt"
	"campuspool/internal/general/logger"
	"campuspool/internal/general/postgres"
	"campuspool/internal/general/rabbitmq"
	"campuspool/internal/general/websocket"
	"campuspool/internal/notify"
	"campuspool/internal/payments"
	"campuspool/internal/ports"
	bookinghandler "campuspool/internal/software/booking/handler"
	bookingservice "campuspool/internal/software/booking/service"
	reviewservice "campuspool/internal/software/review/service"
	ridehandler "campuspool/internal/software/ride/handler"
	rideservice "campuspool/internal/software/ride/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run wires the API service and blocks until ctx is cancelled.
func Run(ctx context.Context, maxConcurrent int) error {
	// set up a new logger and context with a static request ID for startup logs
	logger := logger.New("api-service")
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	// set up a Postgres connection pool
	pool, err := postgres.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	// connect to RabbitMQ
	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	// set up the RabbitMQ publisher and the notification sink
	pub := rabbitmq.NewMQPublisher(rmq)
	sink := notify.NewAMQPSink(pub, logger, "api-service")

	// set up the JWT manager
	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour)

	// set up the necessary repos
	uow := postgres.NewUnitOfWork(pool)
	rideRepo := postgres.NewRideRepo()
	bookingRepo := postgres.NewBookingRepo()
	reviewRepo := postgres.NewReviewRepo()
	vehicleRepo := postgres.NewVehicleRepo()

	// select the payment gateway implementation
	gateway := selectGateway(cfg)

	// set up the services
	rideSvc := rideservice.NewRideService(logger, uow, rideRepo, bookingRepo, vehicleRepo, gateway, sink)
	bookingSvc := bookingservice.NewBookingService(logger, uow, bookingRepo, rideRepo, reviewRepo, gateway, sink, cfg.Sweeper.BatchSize)
	reviewSvc := reviewservice.NewReviewService(logger, uow, reviewRepo, bookingRepo, rideRepo, sink)

	// set up the websocket notification feed and its queue forwarder
	feed := websocket.NewFeed(logger, jwtManager)
	forwarder := notify.NewForwarder(rmq, feed, logger)
	go func() {
		if err := forwarder.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error(ctx, "forwarder_stopped", "Notification forwarder stopped", err, nil)
		}
	}()

	// set up the HTTP handlers and their routes
	mux := http.NewServeMux()
	ridehandler.NewRideHTTPHandler(rideSvc, logger, jwtManager, feed).RegisterRoutes(mux)
	bookinghandler.NewBookingHTTPHandler(bookingSvc, reviewSvc, logger, jwtManager).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	// concurrency limiter (global) — blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	// set up the server configurations
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.APIPort),          // listen on the specified port
		Handler:           limitedHandler,                                    // apply the concurrency limiter to the HTTP handler
		ReadHeaderTimeout: 5 * time.Second,                                   // time to read headers
		ReadTimeout:       10 * time.Second,                                  // time to read full request body
		WriteTimeout:      15 * time.Second,                                  // full response write timeout
		IdleTimeout:       60 * time.Second,                                  // keep-alive window
		BaseContext:       func(net.Listener) context.Context { return ctx }, // pass base ctx to all handlers
	}

	// log service start
	logger.Info(ctx, "service_started",
		fmt.Sprintf("API Service started on port %d", cfg.Services.APIPort),
		map[string]any{"port": cfg.Services.APIPort, "max_concurrent": maxConcurrent},
	)

	// start the server in a background goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// wait for context cancellation or server error
	select {
	case <-ctx.Done():
		// graceful HTTP shutdown on context cancel
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info(ctx, "shutdown_started", "Starting graceful shutdown", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		// server returned a terminal error at startup or during run
		if err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Services.APIPort})
			return err
		}
		return nil
	}

	return nil
}

// selectGateway picks the configured PaymentGateway implementation.
func selectGateway(cfg *config.Config) ports.PaymentGateway {
	if cfg.Payments.Provider == "stripe" {
		return payments.NewStripeGateway(cfg.Payments.StripeAPIKey, cfg.Payments.Currency)
	}
	return payments.NewMockGateway()
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
