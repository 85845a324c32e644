package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func TestNewBooking(t *testing.T) {
	t.Run("starts pending with the amount snapshotted", func(t *testing.T) {
		b, err := NewBooking("ride-1", "passenger-1", 12.5, now)
		require.NoError(t, err)

		assert.Equal(t, StatusPending, b.Status)
		assert.Equal(t, PaymentHeld, b.PaymentStatus)
		assert.Equal(t, 12.5, b.PaymentAmount)
		require.NotNil(t, b.PaidAt)
		assert.Nil(t, b.ConfirmDeadline)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := NewBooking("", "p", 10, now)
		assert.ErrorIs(t, err, ErrRideRequired)

		_, err = NewBooking("r", "  ", 10, now)
		assert.ErrorIs(t, err, ErrPassengerRequired)

		_, err = NewBooking("r", "p", -1, now)
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})
}

func TestStatusTransitions(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:  {StatusAccepted, StatusDeclined, StatusCancelled},
		StatusAccepted: {StatusCancelled, StatusCompleted},
	}
	all := []Status{StatusPending, StatusAccepted, StatusDeclined, StatusCancelled, StatusCompleted}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if to == ok {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestHoldsSeat(t *testing.T) {
	assert.True(t, StatusPending.HoldsSeat())
	assert.True(t, StatusAccepted.HoldsSeat())
	assert.False(t, StatusDeclined.HoldsSeat())
	assert.False(t, StatusCancelled.HoldsSeat())
	assert.False(t, StatusCompleted.HoldsSeat())
}

func TestAutoSettled(t *testing.T) {
	confirmedAt := now
	b := &Booking{Status: StatusCompleted}
	assert.True(t, b.AutoSettled())

	b.ConfirmedAt = &confirmedAt
	assert.False(t, b.AutoSettled())

	assert.False(t, (&Booking{Status: StatusAccepted}).AutoSettled())
}
