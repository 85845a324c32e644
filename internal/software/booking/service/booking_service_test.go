package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"campuspool/internal/domain/booking"
	"campuspool/internal/domain/fault"
	"campuspool/internal/domain/ride"
	"campuspool/internal/general/contracts"
	"campuspool/internal/general/logger"
	"campuspool/internal/payments"
	"campuspool/internal/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store   *memStore
	gateway *payments.MockGateway
	sink    *fakeSink
	svc     *bookingService

	mu    sync.Mutex
	clock time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		store:   newMemStore(),
		gateway: payments.NewMockGateway(),
		sink:    &fakeSink{},
		clock:   baseTime,
	}
	env.svc = &bookingService{
		logger:      logger.New("test"),
		uow:         &fakeUoW{store: env.store},
		bookingRepo: &fakeBookingRepo{store: env.store},
		rideRepo:    &fakeRideRepo{store: env.store},
		reviewRepo:  &fakeReviewRepo{store: env.store},
		gateway:     env.gateway,
		sink:        env.sink,
		now:         env.nowFn,
		sweepBatch:  100,
	}
	return env
}

func (env *testEnv) nowFn() time.Time {
	env.mu.Lock()
	defer env.mu.Unlock()
	return env.clock
}

func (env *testEnv) advance(d time.Duration) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.clock = env.clock.Add(d)
}

// seedRide puts an upcoming ride into the store and returns it.
func (env *testEnv) seedRide(driverID string, seats int, departure time.Time) *ride.Ride {
	r := &ride.Ride{
		ID:             uuid.NewString(),
		CreatedAt:      baseTime,
		UpdatedAt:      baseTime,
		DriverID:       driverID,
		VehicleID:      uuid.NewString(),
		Route:          ride.Route{Origin: "Dorm A", Destination: "Main Campus"},
		DepartureAt:    departure,
		SeatsTotal:     seats,
		SeatsAvailable: seats,
		PricePerSeat:   12.50,
		Status:         ride.StatusUpcoming,
	}
	env.store.putRide(r)
	return r
}

// requestBooking drives a booking to pending/held state.
func (env *testEnv) requestBooking(t *testing.T, rideID, passengerID string) ports.BookingView {
	t.Helper()
	view, err := env.svc.Request(context.Background(), ports.RequestBookingInput{
		RideID:      rideID,
		PassengerID: passengerID,
	})
	require.NoError(t, err)
	return view
}

// acceptedBooking drives a booking to accepted state.
func (env *testEnv) acceptedBooking(t *testing.T, r *ride.Ride, passengerID string) ports.BookingView {
	t.Helper()
	view := env.requestBooking(t, r.ID, passengerID)
	view, err := env.svc.Decide(context.Background(), view.BookingID, r.DriverID, true)
	require.NoError(t, err)
	return view
}

// openWindow moves an accepted booking into its confirmation window the way
// ride completion does: deadline set, status stays accepted, payment held.
func (env *testEnv) openWindow(bookingID string, deadline time.Time) {
	b := env.store.getBooking(bookingID)
	b.ConfirmDeadline = &deadline
	env.store.putBooking(b)
}

func TestRequestBooking(t *testing.T) {
	t.Run("creates pending booking with escrow hold", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 3, baseTime.Add(48*time.Hour))

		view := env.requestBooking(t, r.ID, "passenger-1")

		assert.Equal(t, "pending", view.Status)
		assert.Equal(t, "held", view.PaymentStatus)
		assert.Equal(t, 12.50, view.PaymentAmount)
		require.NotNil(t, view.PaidAt)

		stored := env.store.getBooking(view.BookingID)
		require.NotNil(t, stored)
		assert.NotEmpty(t, stored.PaymentToken)

		held, _, _, ok := env.gateway.Balance(stored.PaymentToken)
		require.True(t, ok)
		assert.Equal(t, 12.50, held)

		assert.Equal(t, 2, env.store.getRide(r.ID).SeatsAvailable)

		notices := env.sink.byType(contracts.NotifyBookingRequest)
		require.Len(t, notices, 1)
		assert.Equal(t, "driver-1", notices[0].UserID)
	})

	t.Run("rejects booking own ride", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 3, baseTime.Add(48*time.Hour))

		_, err := env.svc.Request(context.Background(), ports.RequestBookingInput{
			RideID: r.ID, PassengerID: "driver-1",
		})
		assert.True(t, fault.IsKind(err, fault.KindInvalidInput))
	})

	t.Run("rejects departed ride", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 3, baseTime.Add(-time.Minute))

		_, err := env.svc.Request(context.Background(), ports.RequestBookingInput{
			RideID: r.ID, PassengerID: "passenger-1",
		})
		assert.True(t, fault.IsKind(err, fault.KindInvalidTransition))
	})

	t.Run("rejects duplicate live booking", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 3, baseTime.Add(48*time.Hour))

		env.requestBooking(t, r.ID, "passenger-1")
		_, err := env.svc.Request(context.Background(), ports.RequestBookingInput{
			RideID: r.ID, PassengerID: "passenger-1",
		})
		assert.True(t, fault.IsKind(err, fault.KindDuplicateBooking))
		assert.Equal(t, 2, env.store.getRide(r.ID).SeatsAvailable)
	})

	t.Run("never oversells under concurrent requests", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 3, baseTime.Add(48*time.Hour))

		const passengers = 5
		errs := make([]error, passengers)
		var wg sync.WaitGroup
		for i := 0; i < passengers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = env.svc.Request(context.Background(), ports.RequestBookingInput{
					RideID:      r.ID,
					PassengerID: uuid.NewString(),
				})
			}(i)
		}
		wg.Wait()

		granted, rejected := 0, 0
		for _, err := range errs {
			if err == nil {
				granted++
				continue
			}
			require.True(t, fault.IsKind(err, fault.KindSeatsUnavailable))
			rejected++
		}
		assert.Equal(t, 3, granted)
		assert.Equal(t, 2, rejected)
		assert.Equal(t, 0, env.store.getRide(r.ID).SeatsAvailable)
	})

	t.Run("gateway failure rolls back seat and booking", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 3, baseTime.Add(48*time.Hour))

		env.gateway.SetFailure(assert.AnError)
		_, err := env.svc.Request(context.Background(), ports.RequestBookingInput{
			RideID: r.ID, PassengerID: "passenger-1",
		})
		require.Error(t, err)
		assert.True(t, fault.IsKind(err, fault.KindPayment))

		assert.Equal(t, 3, env.store.getRide(r.ID).SeatsAvailable)
		assert.Empty(t, env.store.bookings)

		// the seat is bookable again once the gateway recovers
		env.gateway.SetFailure(nil)
		env.requestBooking(t, r.ID, "passenger-1")
	})
}

func TestDecideBooking(t *testing.T) {
	t.Run("accept keeps seat and hold", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 2, baseTime.Add(48*time.Hour))
		view := env.requestBooking(t, r.ID, "passenger-1")

		decided, err := env.svc.Decide(context.Background(), view.BookingID, "driver-1", true)
		require.NoError(t, err)
		assert.Equal(t, "accepted", decided.Status)
		assert.Equal(t, "held", decided.PaymentStatus)
		assert.Equal(t, 1, env.store.getRide(r.ID).SeatsAvailable)
	})

	t.Run("decline releases seat and refunds in full", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 2, baseTime.Add(48*time.Hour))
		view := env.requestBooking(t, r.ID, "passenger-1")
		token := env.store.getBooking(view.BookingID).PaymentToken

		decided, err := env.svc.Decide(context.Background(), view.BookingID, "driver-1", false)
		require.NoError(t, err)
		assert.Equal(t, "declined", decided.Status)
		assert.Equal(t, "refunded", decided.PaymentStatus)
		assert.Equal(t, 2, env.store.getRide(r.ID).SeatsAvailable)

		held, refunded, released, _ := env.gateway.Balance(token)
		assert.Zero(t, held)
		assert.Equal(t, 12.50, refunded)
		assert.Zero(t, released)
	})

	t.Run("repeating a decision returns settled state", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 2, baseTime.Add(48*time.Hour))
		view := env.acceptedBooking(t, r, "passenger-1")

		again, err := env.svc.Decide(context.Background(), view.BookingID, "driver-1", true)
		require.NoError(t, err)
		assert.Equal(t, "accepted", again.Status)

		// flipping an already-applied decision is a conflict
		_, err = env.svc.Decide(context.Background(), view.BookingID, "driver-1", false)
		assert.True(t, fault.IsKind(err, fault.KindInvalidTransition))
	})

	t.Run("only the driver can decide", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 2, baseTime.Add(48*time.Hour))
		view := env.requestBooking(t, r.ID, "passenger-1")

		_, err := env.svc.Decide(context.Background(), view.BookingID, "passenger-1", true)
		assert.True(t, fault.IsKind(err, fault.KindNotAuthorized))
	})
}

func TestCancelBooking(t *testing.T) {
	t.Run("more than 24h before departure refunds in full", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 2, baseTime.Add(24*time.Hour+time.Second))
		view := env.acceptedBooking(t, r, "passenger-1")
		token := env.store.getBooking(view.BookingID).PaymentToken

		cancelled, err := env.svc.Cancel(context.Background(), view.BookingID, "passenger-1")
		require.NoError(t, err)
		assert.Equal(t, "cancelled", cancelled.Status)
		assert.Equal(t, "refunded", cancelled.PaymentStatus)
		assert.Equal(t, 2, env.store.getRide(r.ID).SeatsAvailable)

		_, refunded, released, _ := env.gateway.Balance(token)
		assert.Equal(t, 12.50, refunded)
		assert.Zero(t, released)
	})

	t.Run("exactly 24h before departure splits 50/50", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 2, baseTime.Add(24*time.Hour))
		view := env.acceptedBooking(t, r, "passenger-1")
		token := env.store.getBooking(view.BookingID).PaymentToken

		_, err := env.svc.Cancel(context.Background(), view.BookingID, "passenger-1")
		require.NoError(t, err)

		held, refunded, released, _ := env.gateway.Balance(token)
		assert.Zero(t, held)
		assert.Equal(t, 6.25, refunded)
		assert.Equal(t, 6.25, released)
	})

	t.Run("only the passenger can cancel", func(t *testing.T) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 2, baseTime.Add(48*time.Hour))
		view := env.acceptedBooking(t, r, "passenger-1")

		_, err := env.svc.Cancel(context.Background(), view.BookingID, "driver-1")
		assert.True(t, fault.IsKind(err, fault.KindNotAuthorized))
	})
}

func TestConfirmBooking(t *testing.T) {
	setup := func(t *testing.T) (*testEnv, *ride.Ride, string) {
		env := newTestEnv()
		r := env.seedRide("driver-1", 2, baseTime.Add(time.Hour))
		view := env.acceptedBooking(t, r, "passenger-1")
		env.openWindow(view.BookingID, baseTime.Add(25*time.Hour))
		return env, r, view.BookingID
	}

	t.Run("releases payment and creates the driver review", func(t *testing.T) {
		env, _, bookingID := setup(t)
		token := env.store.getBooking(bookingID).PaymentToken

		confirmed, err := env.svc.Confirm(context.Background(), ports.ConfirmBookingInput{
			BookingID: bookingID, ActorID: "passenger-1", Rating: 5, Comment: "great ride",
		})
		require.NoError(t, err)
		assert.Equal(t, "completed", confirmed.Status)
		assert.Equal(t, "released", confirmed.PaymentStatus)
		require.NotNil(t, confirmed.ConfirmedAt)

		held, _, released, _ := env.gateway.Balance(token)
		assert.Zero(t, held)
		assert.Equal(t, 12.50, released)

		require.Len(t, env.store.reviews, 1)
		for _, rv := range env.store.reviews {
			assert.Equal(t, "passenger-1", rv.ReviewerID)
			assert.Equal(t, "driver-1", rv.RevieweeID)
			assert.Equal(t, 5, rv.Rating)
		}
	})

	t.Run("second confirm reports already confirmed", func(t *testing.T) {
		env, _, bookingID := setup(t)

		_, err := env.svc.Confirm(context.Background(), ports.ConfirmBookingInput{
			BookingID: bookingID, ActorID: "passenger-1", Rating: 4,
		})
		require.NoError(t, err)

		_, err = env.svc.Confirm(context.Background(), ports.ConfirmBookingInput{
			BookingID: bookingID, ActorID: "passenger-1", Rating: 4,
		})
		assert.True(t, fault.IsKind(err, fault.KindAlreadyConfirmed))

		// still exactly one review, payment released once
		assert.Len(t, env.store.reviews, 1)
		assert.Equal(t, booking.PaymentReleased, env.store.getBooking(bookingID).PaymentStatus)
	})

	t.Run("confirm past the deadline settles lazily", func(t *testing.T) {
		env, _, bookingID := setup(t)
		env.advance(26 * time.Hour)

		_, err := env.svc.Confirm(context.Background(), ports.ConfirmBookingInput{
			BookingID: bookingID, ActorID: "passenger-1", Rating: 5,
		})
		assert.True(t, fault.IsKind(err, fault.KindDeadlineExpired))

		stored := env.store.getBooking(bookingID)
		assert.Equal(t, booking.StatusCompleted, stored.Status)
		assert.Equal(t, booking.PaymentReleased, stored.PaymentStatus)
		assert.Nil(t, stored.ConfirmedAt) // auto-settlement marker
		assert.Empty(t, env.store.reviews)
	})

	t.Run("rejects invalid rating", func(t *testing.T) {
		env, _, bookingID := setup(t)

		_, err := env.svc.Confirm(context.Background(), ports.ConfirmBookingInput{
			BookingID: bookingID, ActorID: "passenger-1", Rating: 6,
		})
		assert.True(t, fault.IsKind(err, fault.KindInvalidInput))
	})
}

func TestSweepExpired(t *testing.T) {
	env := newTestEnv()
	r := env.seedRide("driver-1", 5, baseTime.Add(time.Hour))

	var due []string
	for i := 0; i < 3; i++ {
		view := env.acceptedBooking(t, r, uuid.NewString())
		env.openWindow(view.BookingID, baseTime.Add(25*time.Hour))
		due = append(due, view.BookingID)
	}
	// one booking confirmed in time stays out of the sweep
	confirmedView := env.acceptedBooking(t, r, uuid.NewString())
	env.openWindow(confirmedView.BookingID, baseTime.Add(25*time.Hour))
	_, err := env.svc.Confirm(context.Background(), ports.ConfirmBookingInput{
		BookingID: confirmedView.BookingID, ActorID: env.store.getBooking(confirmedView.BookingID).PassengerID, Rating: 5,
	})
	require.NoError(t, err)

	env.advance(26 * time.Hour)

	settled, err := env.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, settled)

	for _, id := range due {
		b := env.store.getBooking(id)
		assert.Equal(t, booking.StatusCompleted, b.Status)
		assert.Equal(t, booking.PaymentReleased, b.PaymentStatus)
		assert.Nil(t, b.ConfirmedAt)
	}

	// a second sweep finds nothing to do
	settled, err = env.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, settled)
}
