package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsRequestedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campuspool", Name: "bookings_requested_total", Help: "Total booking requests accepted into the pending state"})
	BookingsSettledTotal   = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campuspool", Name: "bookings_settled_total", Help: "Bookings reaching a terminal state, by outcome"},
		[]string{"outcome"}, // accepted_confirm, auto_settle, declined, cancelled
	)
	SeatOversellRejections = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campuspool", Name: "seat_oversell_rejections_total", Help: "Booking requests rejected because no seat was available"})
	SweepBatchSize         = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: "campuspool", Name: "sweep_batch_size", Help: "Bookings settled per sweep run", Buckets: []float64{0, 1, 5, 10, 25, 50, 100}})
	PaymentGatewayErrors   = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campuspool", Name: "payment_gateway_errors_total", Help: "Payment gateway call failures, by operation"},
		[]string{"op"}, // hold, release, refund
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campuspool", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campuspool",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
