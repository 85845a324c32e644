package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"campuspool/internal/domain/fault"
	"campuspool/internal/domain/ride"
	"campuspool/internal/ports"

	"github.com/jackc/pgx/v5"
)

// RideRepo persists rides using pgx and plain SQL. It is the only writer of
// seats_available; both seat mutations are single conditional statements so
// the count can never go negative or above seats_total, regardless of how
// many bookings race on the same ride.
type RideRepo struct{}

// NewRideRepo constructs a new RideRepo.
func NewRideRepo() ports.RideRepository {
	return &RideRepo{}
}

const rideColumns = `
	id, created_at, updated_at, driver_id, vehicle_id,
	origin, destination, origin_lat, origin_lng, destination_lat, destination_lng,
	departure_at, price_per_seat, seats_total, seats_available, status,
	preferences, completed_at, cancelled_at`

// Create inserts a new ride row with a full seat inventory.
func (repo *RideRepo) Create(ctx context.Context, r *ride.Ride) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	prefs, err := json.Marshal(r.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO rides (
			driver_id, vehicle_id, origin, destination,
			origin_lat, origin_lng, destination_lat, destination_lng,
			departure_at, price_per_seat, seats_total, seats_available,
			status, preferences
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb)
		RETURNING id, created_at, updated_at
	`,
		r.DriverID,
		r.VehicleID,
		r.Route.Origin,
		r.Route.Destination,
		r.Route.OriginLat,
		r.Route.OriginLng,
		r.Route.DestinationLat,
		r.Route.DestinationLng,
		r.DepartureAt,
		r.PricePerSeat,
		r.SeatsTotal,
		r.SeatsAvailable,
		r.Status.String(),
		string(prefs),
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fault.Wrap(fault.KindStore, "insert ride", err)
	}

	return nil
}

// GetByID fetches a ride by primary key.
func (repo *RideRepo) GetByID(ctx context.Context, id string) (*ride.Ride, error) {
	return repo.get(ctx, id, false)
}

// GetForUpdate fetches a ride and takes a row lock for the current transaction.
// Lifecycle transitions load the ride this way so concurrent mutations on the
// same ride serialize; rides stay independent units of concurrency.
func (repo *RideRepo) GetForUpdate(ctx context.Context, id string) (*ride.Ride, error) {
	return repo.get(ctx, id, true)
}

func (repo *RideRepo) get(ctx context.Context, id string, lock bool) (*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var (
		out    ride.Ride
		status string
		prefs  []byte
	)
	err = tx.QueryRow(ctx, query, id).Scan(
		&out.ID, &out.CreatedAt, &out.UpdatedAt, &out.DriverID, &out.VehicleID,
		&out.Route.Origin, &out.Route.Destination,
		&out.Route.OriginLat, &out.Route.OriginLng,
		&out.Route.DestinationLat, &out.Route.DestinationLng,
		&out.DepartureAt, &out.PricePerSeat, &out.SeatsTotal, &out.SeatsAvailable,
		&status, &prefs, &out.CompletedAt, &out.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.Newf(fault.KindInvalidInput, "ride %s not found", id)
		}
		return nil, fault.Wrap(fault.KindStore, "select ride", err)
	}
	out.Status = ride.Status(status)

	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &out.Preferences); err != nil {
			return nil, fault.Wrap(fault.KindStore, "decode ride preferences", err)
		}
	}

	return &out, nil
}

// ReserveSeat decrements seats_available by one, guarded on the current value
// and the ride being open for booking. Reports whether the guard held.
func (repo *RideRepo) ReserveSeat(ctx context.Context, rideID string) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	ct, err := tx.Exec(ctx, `
		UPDATE rides
		SET seats_available = seats_available - 1,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'upcoming'
		  AND seats_available > 0
	`, rideID)
	if err != nil {
		return false, fault.Wrap(fault.KindStore, "reserve seat", err)
	}

	return ct.RowsAffected() == 1, nil
}

// ReleaseSeat increments seats_available by one, guarded so the count never
// exceeds seats_total. Reports whether the guard held.
func (repo *RideRepo) ReleaseSeat(ctx context.Context, rideID string) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	ct, err := tx.Exec(ctx, `
		UPDATE rides
		SET seats_available = seats_available + 1,
		    updated_at = now()
		WHERE id = $1
		  AND seats_available < seats_total
	`, rideID)
	if err != nil {
		return false, fault.Wrap(fault.KindStore, "release seat", err)
	}

	return ct.RowsAffected() == 1, nil
}

// SetStatus moves the ride to a new status and stamps the matching timeline
// column. Callers hold the row lock and have validated the transition.
func (repo *RideRepo) SetStatus(ctx context.Context, rideID string, status ride.Status, ts time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	var query string
	switch status {
	case ride.StatusCompleted:
		query = `UPDATE rides SET status = $1, completed_at = $2, updated_at = now() WHERE id = $3`
	case ride.StatusCancelled:
		query = `UPDATE rides SET status = $1, cancelled_at = $2, updated_at = now() WHERE id = $3`
	default:
		query = `UPDATE rides SET status = $1, updated_at = $2 WHERE id = $3`
	}

	ct, err := tx.Exec(ctx, query, status.String(), ts, rideID)
	if err != nil {
		return fault.Wrap(fault.KindStore, "update ride status", err)
	}
	if ct.RowsAffected() != 1 {
		return fault.Newf(fault.KindStore, "ride %s not updated", rideID)
	}

	return nil
}
