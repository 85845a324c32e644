package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"campuspool/internal/domain/booking"
	"campuspool/internal/domain/fault"
	"campuspool/internal/domain/ride"
	"campuspool/internal/general/contracts"
	"campuspool/internal/ports"

	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the database. The fake unit of work
// snapshots it before each transaction and restores it on error, so rollback
// semantics match the real store.
type memStore struct {
	mu       sync.Mutex
	rides    map[string]*ride.Ride
	bookings map[string]*booking.Booking
	vehicles map[string]string // vehicle id -> owner id
	events   []storedEvent
}

type storedEvent struct {
	BookingID string
	EventType string
}

func newMemStore() *memStore {
	return &memStore{
		rides:    make(map[string]*ride.Ride),
		bookings: make(map[string]*booking.Booking),
		vehicles: make(map[string]string),
	}
}

type storeSnapshot struct {
	rides    map[string]*ride.Ride
	bookings map[string]*booking.Booking
	events   []storedEvent
}

func (s *memStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		rides:    make(map[string]*ride.Ride, len(s.rides)),
		bookings: make(map[string]*booking.Booking, len(s.bookings)),
		events:   append([]storedEvent(nil), s.events...),
	}
	for id, r := range s.rides {
		cp := *r
		snap.rides[id] = &cp
	}
	for id, b := range s.bookings {
		cp := *b
		snap.bookings[id] = &cp
	}
	return snap
}

func (s *memStore) restore(snap storeSnapshot) {
	s.rides = snap.rides
	s.bookings = snap.bookings
	s.events = snap.events
}

func (s *memStore) putRide(r *ride.Ride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rides[r.ID] = &cp
}

func (s *memStore) putBooking(b *booking.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookings[b.ID] = &cp
}

func (s *memStore) getRide(id string) *ride.Ride {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rides[id]; ok {
		cp := *r
		return &cp
	}
	return nil
}

func (s *memStore) getBooking(id string) *booking.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[id]; ok {
		cp := *b
		return &cp
	}
	return nil
}

// fakeUoW serializes transactions on the store mutex and rolls back on error.
type fakeUoW struct {
	store *memStore
}

func (u *fakeUoW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	snap := u.store.snapshot()
	if err := fn(ctx); err != nil {
		u.store.restore(snap)
		return err
	}
	return nil
}

type fakeRideRepo struct {
	store *memStore
}

func (repo *fakeRideRepo) Create(ctx context.Context, r *ride.Ride) error {
	r.ID = uuid.NewString()
	cp := *r
	repo.store.rides[r.ID] = &cp
	return nil
}

func (repo *fakeRideRepo) GetByID(ctx context.Context, id string) (*ride.Ride, error) {
	r, ok := repo.store.rides[id]
	if !ok {
		return nil, fault.New(fault.KindInvalidInput, "ride not found")
	}
	cp := *r
	return &cp, nil
}

func (repo *fakeRideRepo) GetForUpdate(ctx context.Context, id string) (*ride.Ride, error) {
	return repo.GetByID(ctx, id)
}

func (repo *fakeRideRepo) ReserveSeat(ctx context.Context, rideID string) (bool, error) {
	r, ok := repo.store.rides[rideID]
	if !ok {
		return false, fault.New(fault.KindInvalidInput, "ride not found")
	}
	if r.Status != ride.StatusUpcoming || r.SeatsAvailable <= 0 {
		return false, nil
	}
	r.SeatsAvailable--
	return true, nil
}

func (repo *fakeRideRepo) ReleaseSeat(ctx context.Context, rideID string) (bool, error) {
	r, ok := repo.store.rides[rideID]
	if !ok {
		return false, fault.New(fault.KindInvalidInput, "ride not found")
	}
	if r.SeatsAvailable >= r.SeatsTotal {
		return false, nil
	}
	r.SeatsAvailable++
	return true, nil
}

func (repo *fakeRideRepo) SetStatus(ctx context.Context, rideID string, status ride.Status, ts time.Time) error {
	r, ok := repo.store.rides[rideID]
	if !ok {
		return fault.New(fault.KindInvalidInput, "ride not found")
	}
	r.Status = status
	r.UpdatedAt = ts
	switch status {
	case ride.StatusCompleted:
		r.CompletedAt = &ts
	case ride.StatusCancelled:
		r.CancelledAt = &ts
	}
	return nil
}

type fakeBookingRepo struct {
	store *memStore
}

func (repo *fakeBookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	b.ID = uuid.NewString()
	cp := *b
	repo.store.bookings[b.ID] = &cp
	return nil
}

func (repo *fakeBookingRepo) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	b, ok := repo.store.bookings[id]
	if !ok {
		return nil, fault.New(fault.KindInvalidInput, "booking not found")
	}
	cp := *b
	return &cp, nil
}

func (repo *fakeBookingRepo) GetForUpdate(ctx context.Context, id string) (*booking.Booking, error) {
	return repo.GetByID(ctx, id)
}

func (repo *fakeBookingRepo) HasLive(ctx context.Context, rideID, passengerID string) (bool, error) {
	for _, b := range repo.store.bookings {
		if b.RideID == rideID && b.PassengerID == passengerID && b.Status.HoldsSeat() {
			return true, nil
		}
	}
	return false, nil
}

func (repo *fakeBookingRepo) ListLiveByRideForUpdate(ctx context.Context, rideID string) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range repo.store.bookings {
		if b.RideID == rideID && b.Status.HoldsSeat() {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (repo *fakeBookingRepo) Update(ctx context.Context, b *booking.Booking) error {
	if _, ok := repo.store.bookings[b.ID]; !ok {
		return fault.New(fault.KindInvalidInput, "booking not found")
	}
	cp := *b
	repo.store.bookings[b.ID] = &cp
	return nil
}

func (repo *fakeBookingRepo) FindSettleDue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var due []string
	for id, b := range repo.store.bookings {
		if booking.SettleDue(b, now) {
			due = append(due, id)
		}
	}
	sort.Strings(due)
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (repo *fakeBookingRepo) AppendEvent(ctx context.Context, bookingID, eventType string, data any) error {
	repo.store.events = append(repo.store.events, storedEvent{BookingID: bookingID, EventType: eventType})
	return nil
}

type fakeVehicleRepo struct {
	store *memStore
}

func (repo *fakeVehicleRepo) OwnedBy(ctx context.Context, vehicleID, ownerID string) (bool, error) {
	owner, ok := repo.store.vehicles[vehicleID]
	return ok && owner == ownerID, nil
}

type fakeSink struct {
	mu     sync.Mutex
	events []contracts.NotificationEvent
}

func (s *fakeSink) Emit(ctx context.Context, event contracts.NotificationEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *fakeSink) byType(t contracts.NotificationType) []contracts.NotificationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []contracts.NotificationEvent
	for _, e := range s.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

var (
	_ ports.UnitOfWork        = (*fakeUoW)(nil)
	_ ports.RideRepository    = (*fakeRideRepo)(nil)
	_ ports.BookingRepository = (*fakeBookingRepo)(nil)
	_ ports.VehicleRepository = (*fakeVehicleRepo)(nil)
	_ ports.NotificationSink  = (*fakeSink)(nil)
)
