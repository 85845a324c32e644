package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"campuspool/internal/domain/booking"
	"campuspool/internal/domain/fault"
	"campuspool/internal/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueLiveBookingConstraint is the partial unique index on
// (ride_id, passenger_id) over live bookings; it closes the race window the
// application-level duplicate check leaves open.
const uniqueLiveBookingConstraint = "bookings_one_live_per_ride"

// uniqueViolation is the Postgres error code for unique_violation.
const uniqueViolation = "23505"

// BookingRepo persists bookings using pgx and plain SQL, and appends an audit
// event row per transition.
type BookingRepo struct{}

// NewBookingRepo constructs a new BookingRepo.
func NewBookingRepo() ports.BookingRepository {
	return &BookingRepo{}
}

const bookingColumns = `
	id, created_at, updated_at, ride_id, passenger_id, status,
	payment_status, payment_amount, payment_token, paid_at,
	confirmed_at, confirm_deadline`

// Create inserts a new booking row.
func (repo *BookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (
			ride_id, passenger_id, status, payment_status,
			payment_amount, payment_token, paid_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`,
		b.RideID,
		b.PassengerID,
		b.Status.String(),
		b.PaymentStatus.String(),
		b.PaymentAmount,
		b.PaymentToken,
		b.PaidAt,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == uniqueLiveBookingConstraint {
			return fault.New(fault.KindDuplicateBooking, "passenger already holds a live booking on this ride")
		}
		return fault.Wrap(fault.KindStore, "insert booking", err)
	}

	return nil
}

// GetByID fetches a booking by primary key.
func (repo *BookingRepo) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	return repo.get(ctx, id, false)
}

// GetForUpdate fetches a booking and takes a row lock for the current
// transaction, serializing concurrent transitions on the same booking.
func (repo *BookingRepo) GetForUpdate(ctx context.Context, id string) (*booking.Booking, error) {
	return repo.get(ctx, id, true)
}

func (repo *BookingRepo) get(ctx context.Context, id string, lock bool) (*booking.Booking, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	out, err := scanBooking(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.Newf(fault.KindInvalidInput, "booking %s not found", id)
		}
		return nil, fault.Wrap(fault.KindStore, "select booking", err)
	}

	return out, nil
}

// HasLive reports whether the passenger already holds a pending or accepted
// booking on the ride.
func (repo *BookingRepo) HasLive(ctx context.Context, rideID, passengerID string) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE ride_id = $1
			  AND passenger_id = $2
			  AND status IN ('pending', 'accepted')
		)
	`, rideID, passengerID).Scan(&exists)
	if err != nil {
		return false, fault.Wrap(fault.KindStore, "check live booking", err)
	}

	return exists, nil
}

// ListLiveByRideForUpdate locks and returns every pending/accepted booking of
// a ride, ordered by creation, for cascade transitions.
func (repo *BookingRepo) ListLiveByRideForUpdate(ctx context.Context, rideID string) ([]*booking.Booking, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE ride_id = $1
		  AND status IN ('pending', 'accepted')
		ORDER BY created_at
		FOR UPDATE
	`, rideID)
	if err != nil {
		return nil, fault.Wrap(fault.KindStore, "query live bookings", err)
	}
	defer rows.Close()

	var out []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fault.Wrap(fault.KindStore, "scan booking", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(fault.KindStore, "iterate bookings", err)
	}

	return out, nil
}

// Update persists all mutable booking fields.
func (repo *BookingRepo) Update(ctx context.Context, b *booking.Booking) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	ct, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    payment_status = $2,
		    payment_token = $3,
		    paid_at = $4,
		    confirmed_at = $5,
		    confirm_deadline = $6,
		    updated_at = now()
		WHERE id = $7
	`,
		b.Status.String(),
		b.PaymentStatus.String(),
		b.PaymentToken,
		b.PaidAt,
		b.ConfirmedAt,
		b.ConfirmDeadline,
		b.ID,
	)
	if err != nil {
		return fault.Wrap(fault.KindStore, "update booking", err)
	}
	if ct.RowsAffected() != 1 {
		return fault.Newf(fault.KindStore, "booking %s not updated", b.ID)
	}

	return nil
}

// FindSettleDue returns ids of accepted bookings whose confirmation deadline
// has passed without an explicit confirmation. The deadline column is only
// ever set when the parent ride is marked completed, so no join is needed.
func (repo *BookingRepo) FindSettleDue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id
		FROM bookings
		WHERE status = 'accepted'
		  AND confirmed_at IS NULL
		  AND confirm_deadline IS NOT NULL
		  AND confirm_deadline <= $1
		ORDER BY confirm_deadline
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, fault.Wrap(fault.KindStore, "query settle-due bookings", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fault.Wrap(fault.KindStore, "scan booking id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(fault.KindStore, "iterate booking ids", err)
	}

	return ids, nil
}

// AppendEvent writes a row into booking_events with encoded event_data.
func (repo *BookingRepo) AppendEvent(ctx context.Context, bookingID, eventType string, data any) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(data)
	if err != nil {
		return fault.Wrap(fault.KindStore, "encode booking event", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_events (booking_id, event_type, event_data)
		VALUES ($1, $2, $3::jsonb)
	`, bookingID, eventType, string(body))
	if err != nil {
		return fault.Wrap(fault.KindStore, "insert booking event", err)
	}

	return nil
}

// --- helpers ---

// scanBooking reads one booking row from either a Row or Rows.
func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		b             booking.Booking
		status        string
		paymentStatus string
	)
	err := row.Scan(
		&b.ID, &b.CreatedAt, &b.UpdatedAt, &b.RideID, &b.PassengerID, &status,
		&paymentStatus, &b.PaymentAmount, &b.PaymentToken, &b.PaidAt,
		&b.ConfirmedAt, &b.ConfirmDeadline,
	)
	if err != nil {
		return nil, err
	}
	b.Status = booking.Status(status)
	b.PaymentStatus = booking.PaymentStatus(paymentStatus)
	return &b, nil
}
