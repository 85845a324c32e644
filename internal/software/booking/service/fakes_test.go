package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"campuspool/internal/domain/booking"
	"campuspool/internal/domain/fault"
	"campuspool/internal/domain/review"
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
	reviews  map[string]*review.Review
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
		reviews:  make(map[string]*review.Review),
	}
}

type storeSnapshot struct {
	rides    map[string]*ride.Ride
	bookings map[string]*booking.Booking
	reviews  map[string]*review.Review
	events   []storedEvent
}

func (s *memStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		rides:    make(map[string]*ride.Ride, len(s.rides)),
		bookings: make(map[string]*booking.Booking, len(s.bookings)),
		reviews:  make(map[string]*review.Review, len(s.reviews)),
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
	for id, rv := range s.reviews {
		cp := *rv
		snap.reviews[id] = &cp
	}
	return snap
}

func (s *memStore) restore(snap storeSnapshot) {
	s.rides = snap.rides
	s.bookings = snap.bookings
	s.reviews = snap.reviews
	s.events = snap.events
}

// putRide seeds a ride directly, bypassing the lifecycle.
func (s *memStore) putRide(r *ride.Ride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rides[r.ID] = &cp
}

// putBooking seeds a booking directly, bypassing the lifecycle.
func (s *memStore) putBooking(b *booking.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookings[b.ID] = &cp
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

func (s *memStore) getRide(id string) *ride.Ride {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rides[id]; ok {
		cp := *r
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

// ----- ride repository fake -----

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

// ----- booking repository fake -----

type fakeBookingRepo struct {
	store *memStore
}

func (repo *fakeBookingRepo) Create(ctx context.Context, b *booking.Booking) error {
	for _, other := range repo.store.bookings {
		if other.RideID == b.RideID && other.PassengerID == b.PassengerID && other.Status.HoldsSeat() {
			return fault.New(fault.KindDuplicateBooking, "passenger already holds a live booking on this ride")
		}
	}
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

// ----- review repository fake -----

type fakeReviewRepo struct {
	store *memStore
}

func (repo *fakeReviewRepo) Create(ctx context.Context, rv *review.Review) error {
	for _, other := range repo.store.reviews {
		if other.BookingID == rv.BookingID && other.ReviewerID == rv.ReviewerID && other.RevieweeID == rv.RevieweeID {
			return fault.New(fault.KindNotEligible, "review already exists for this direction")
		}
	}
	rv.ID = uuid.NewString()
	cp := *rv
	repo.store.reviews[rv.ID] = &cp
	return nil
}

func (repo *fakeReviewRepo) Exists(ctx context.Context, bookingID, reviewerID, revieweeID string) (bool, error) {
	for _, rv := range repo.store.reviews {
		if rv.BookingID == bookingID && rv.ReviewerID == reviewerID && rv.RevieweeID == revieweeID {
			return true, nil
		}
	}
	return false, nil
}

// ----- notification sink fake -----

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
	_ ports.ReviewRepository  = (*fakeReviewRepo)(nil)
	_ ports.NotificationSink  = (*fakeSink)(nil)
)
