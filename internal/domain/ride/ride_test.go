package ride

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func validRoute() Route {
	return Route{Origin: "Dorm A", Destination: "Main Campus"}
}

func TestNewRide(t *testing.T) {
	t.Run("valid offer starts upcoming with full inventory", func(t *testing.T) {
		r, err := NewRide("driver-1", "vehicle-1", validRoute(), now.Add(48*time.Hour), 12.5, 4, Preferences{Pets: true}, now)
		require.NoError(t, err)

		assert.Equal(t, StatusUpcoming, r.Status)
		assert.Equal(t, 4, r.SeatsTotal)
		assert.Equal(t, 4, r.SeatsAvailable)
		assert.True(t, r.Preferences.Pets)
		assert.True(t, r.OwnedBy("driver-1"))
		assert.False(t, r.OwnedBy("driver-2"))
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name      string
			driver    string
			vehicle   string
			route     Route
			departure time.Time
			price     float64
			seats     int
			wantErr   error
		}{
			{"missing driver", "", "v", validRoute(), now.Add(time.Hour), 10, 4, ErrDriverRequired},
			{"missing vehicle", "d", "  ", validRoute(), now.Add(time.Hour), 10, 4, ErrVehicleRequired},
			{"missing origin", "d", "v", Route{Destination: "B"}, now.Add(time.Hour), 10, 4, ErrOriginRequired},
			{"missing destination", "d", "v", Route{Origin: "A"}, now.Add(time.Hour), 10, 4, ErrDestinationRequired},
			{"departure in the past", "d", "v", validRoute(), now.Add(-time.Second), 10, 4, ErrDepartureNotFuture},
			{"departure exactly now", "d", "v", validRoute(), now, 10, 4, ErrDepartureNotFuture},
			{"negative price", "d", "v", validRoute(), now.Add(time.Hour), -0.01, 4, ErrNegativePrice},
			{"zero seats", "d", "v", validRoute(), now.Add(time.Hour), 10, 0, ErrSeatsOutOfRange},
			{"eleven seats", "d", "v", validRoute(), now.Add(time.Hour), 10, 11, ErrSeatsOutOfRange},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewRide(tt.driver, tt.vehicle, tt.route, tt.departure, tt.price, tt.seats, Preferences{}, now)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})

	t.Run("seat bounds are inclusive", func(t *testing.T) {
		for _, seats := range []int{MinSeatsTotal, MaxSeatsTotal} {
			_, err := NewRide("d", "v", validRoute(), now.Add(time.Hour), 10, seats, Preferences{}, now)
			assert.NoError(t, err, "seats=%d", seats)
		}
	})

	t.Run("free rides are allowed", func(t *testing.T) {
		r, err := NewRide("d", "v", validRoute(), now.Add(time.Hour), 0, 2, Preferences{}, now)
		require.NoError(t, err)
		assert.Zero(t, r.PricePerSeat)
	})
}

func TestDepartureDue(t *testing.T) {
	r := &Ride{DepartureAt: now}

	assert.False(t, r.DepartureDue(now.Add(-time.Second)))
	assert.True(t, r.DepartureDue(now))
	assert.True(t, r.DepartureDue(now.Add(time.Second)))
	assert.Equal(t, -time.Second, r.TimeToDeparture(now.Add(time.Second)))
}
