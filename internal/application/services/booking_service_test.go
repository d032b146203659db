package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busline/internal/domain/bookings"
	"busline/internal/domain/fleet"
	"busline/internal/domain/trips"
	"busline/internal/domain/users"
	"busline/internal/repository"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *capturingPublisher) Publish(_ context.Context, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) published() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]any, len(p.events))
	copy(out, p.events)
	return out
}

type bookingFixture struct {
	store    *repository.MemoryStore
	svc      *BookingService
	pub      *capturingPublisher
	owner    users.Identity
	rider    users.Identity
	bus      *fleet.Bus
	schedule *trips.Schedule
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()

	owner, err := store.CreateUser(ctx, users.User{Username: "owner", Role: users.RoleBusOwner})
	require.NoError(t, err)
	rider, err := store.CreateUser(ctx, users.User{Username: "rider", Role: users.RolePassenger})
	require.NoError(t, err)

	bus, err := store.CreateBus(ctx, fleet.Bus{OwnerID: owner.ID, Name: "Express", Capacity: 40})
	require.NoError(t, err)
	route, err := store.CreateRoute(ctx, trips.Route{FromLocation: "Colombo", ToLocation: "Kandy"})
	require.NoError(t, err)
	schedule, err := store.CreateSchedule(ctx, trips.Schedule{
		BusID:         bus.ID,
		RouteID:       route.ID,
		DepartureTime: time.Now().Add(24 * time.Hour),
		Price:         1500,
		Available:     true,
	})
	require.NoError(t, err)

	pub := &capturingPublisher{}
	return &bookingFixture{
		store:    store,
		svc:      NewBookingService(store, pub, zerolog.Nop()),
		pub:      pub,
		owner:    users.Identity{UserID: owner.ID, Role: users.RoleBusOwner},
		rider:    users.Identity{UserID: rider.ID, Role: users.RolePassenger},
		bus:      bus,
		schedule: schedule,
	}
}

func TestRequestBooking_Admits(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	booking, err := fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID:     fx.rider.UserID,
		ScheduleID: fx.schedule.ID,
		Seats:      []string{"1A", "1B"},
	})
	require.NoError(t, err)

	assert.Equal(t, bookings.StatusConfirmed, booking.Status)
	assert.Equal(t, []string{"1A", "1B"}, booking.Seats)
	// Price is recomputed from the schedule, whatever the client sent.
	assert.Equal(t, int64(3000), booking.TotalPrice)

	events := fx.pub.published()
	require.Len(t, events, 1)
	made, ok := events[0].(bookings.BookingMade)
	require.True(t, ok)
	assert.Equal(t, booking.ID, made.BookingID)
	assert.Equal(t, fx.bus.ID, made.BusID)
}

func TestRequestBooking_SeatConflict(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	_, err := fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID, Seats: []string{"1A", "1B"},
	})
	require.NoError(t, err)

	_, err = fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID, Seats: []string{"1B", "1C"},
	})
	var conflict *bookings.SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"1B"}, conflict.Seats)

	// The rejected request must not have held anything.
	seats, err := fx.svc.BookedSeats(ctx, fx.schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1A", "1B"}, seats)
}

func TestRequestBooking_Rejections(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	_, err := fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID: fx.rider.UserID, ScheduleID: 999, Seats: []string{"1A"},
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID, Seats: nil,
	})
	assert.ErrorIs(t, err, bookings.ErrNoSeatsSelected)

	_, err = fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID, Seats: []string{"1A", "1A"},
	})
	assert.ErrorIs(t, err, bookings.ErrDuplicateSeats)

	available := false
	_, err = fx.store.UpdateSchedule(ctx, fx.schedule.ID, repository.ScheduleUpdate{Available: &available})
	require.NoError(t, err)

	_, err = fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID, Seats: []string{"1A"},
	})
	assert.ErrorIs(t, err, bookings.ErrScheduleUnavailable)
}

// Two concurrent requests contending for the same seat: exactly one wins,
// the other gets a conflict naming that seat.
func TestRequestBooking_ConcurrentContention(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.RequestBooking(ctx, RequestBookingParams{
				UserID:     fx.rider.UserID,
				ScheduleID: fx.schedule.ID,
				Seats:      []string{"7C"},
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var conflict *bookings.SeatConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []string{"7C"}, conflict.Seats)
	}
	assert.Equal(t, 1, wins)

	seats, err := fx.svc.BookedSeats(ctx, fx.schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"7C"}, seats)
}

// slowStore delays reads to widen the window between the availability check
// and the insert, the way a networked database would.
type slowStore struct {
	repository.Store
	delay time.Duration
}

func (s *slowStore) Schedule(ctx context.Context, id int64) (*trips.Schedule, error) {
	time.Sleep(s.delay)
	return s.Store.Schedule(ctx, id)
}

func (s *slowStore) BookingsBySchedule(ctx context.Context, scheduleID int64) ([]bookings.Booking, error) {
	time.Sleep(s.delay)
	return s.Store.BookingsBySchedule(ctx, scheduleID)
}

// Two service instances sharing one store, as in a multi-worker deployment.
// Admission is serialized by the store's schedule lock, so the instances must
// not both sell the same seat even with slow reads in between.
func TestRequestBooking_ContentionAcrossInstances(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	shared := &slowStore{Store: fx.store, delay: 5 * time.Millisecond}
	first := NewBookingService(shared, fx.pub, zerolog.Nop())
	second := NewBookingService(shared, fx.pub, zerolog.Nop())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, svc := range []*BookingService{first, second} {
		wg.Add(1)
		go func(i int, svc *BookingService) {
			defer wg.Done()
			_, errs[i] = svc.RequestBooking(ctx, RequestBookingParams{
				UserID:     fx.rider.UserID,
				ScheduleID: fx.schedule.ID,
				Seats:      []string{"1A"},
			})
		}(i, svc)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var conflict *bookings.SeatConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []string{"1A"}, conflict.Seats)
	}
	assert.Equal(t, 1, wins)

	seats, err := first.BookedSeats(ctx, fx.schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1A"}, seats)
}

func TestCancelBooking_FreesSeats(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	booking, err := fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID, Seats: []string{"2B", "2C"},
	})
	require.NoError(t, err)

	cancelled, err := fx.svc.CancelBooking(ctx, booking.ID, fx.rider)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusCancelled, cancelled.Status)

	// A freed seat is bookable again by someone else.
	rebooked, err := fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID, Seats: []string{"2B"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, booking.ID, rebooked.ID)

	events := fx.pub.published()
	require.Len(t, events, 3)
	_, ok := events[1].(bookings.BookingCancelled)
	assert.True(t, ok)
}

func TestCancelBooking_Idempotent(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	booking, err := fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID, Seats: []string{"3A"},
	})
	require.NoError(t, err)

	_, err = fx.svc.CancelBooking(ctx, booking.ID, fx.rider)
	require.NoError(t, err)

	again, err := fx.svc.CancelBooking(ctx, booking.ID, fx.rider)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusCancelled, again.Status)

	// Only one cancellation event for the two calls.
	cancellations := 0
	for _, ev := range fx.pub.published() {
		if _, ok := ev.(bookings.BookingCancelled); ok {
			cancellations++
		}
	}
	assert.Equal(t, 1, cancellations)
}

func TestCancelBooking_CompletedRejected(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	booking, err := fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID, Seats: []string{"3B"},
	})
	require.NoError(t, err)

	_, err = fx.svc.CompleteBooking(ctx, booking.ID, fx.owner)
	require.NoError(t, err)

	_, err = fx.svc.CancelBooking(ctx, booking.ID, fx.rider)
	assert.ErrorIs(t, err, bookings.ErrAlreadyCompleted)

	// The completed booking keeps its seats.
	seats, err := fx.svc.BookedSeats(ctx, fx.schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"3B"}, seats)
}

func TestCancelBooking_Authorization(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	booking, err := fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID, Seats: []string{"4A"},
	})
	require.NoError(t, err)

	stranger, err := fx.store.CreateUser(ctx, users.User{Username: "stranger", Role: users.RolePassenger})
	require.NoError(t, err)

	_, err = fx.svc.CancelBooking(ctx, booking.ID, users.Identity{UserID: stranger.ID, Role: users.RolePassenger})
	assert.ErrorIs(t, err, ErrForbidden)

	// The bus owner may cancel a passenger's booking.
	_, err = fx.svc.CancelBooking(ctx, booking.ID, fx.owner)
	assert.NoError(t, err)
}

func TestCompleteBooking(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	booking, err := fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID, Seats: []string{"5A"},
	})
	require.NoError(t, err)

	// Passengers cannot complete their own booking.
	_, err = fx.svc.CompleteBooking(ctx, booking.ID, fx.rider)
	assert.ErrorIs(t, err, ErrForbidden)

	completed, err := fx.svc.CompleteBooking(ctx, booking.ID, fx.owner)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusCompleted, completed.Status)

	// Completing twice is a no-op.
	again, err := fx.svc.CompleteBooking(ctx, booking.ID, fx.owner)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusCompleted, again.Status)

	// A completed booking still holds its seats.
	seats, err := fx.svc.BookedSeats(ctx, fx.schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"5A"}, seats)
}

func TestCompleteBooking_CancelledRejected(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	booking, err := fx.svc.RequestBooking(ctx, RequestBookingParams{
		UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID, Seats: []string{"6A"},
	})
	require.NoError(t, err)

	_, err = fx.svc.CancelBooking(ctx, booking.ID, fx.rider)
	require.NoError(t, err)

	_, err = fx.svc.CompleteBooking(ctx, booking.ID, fx.owner)
	assert.ErrorIs(t, err, bookings.ErrNotConfirmed)
}

func TestHeldSeats_IntegrityViolation(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	// Two confirmed bookings holding the same seat, injected behind the
	// service's back.
	for i := 0; i < 2; i++ {
		_, err := fx.store.CreateBooking(ctx, bookings.Booking{
			UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID,
			Seats: []string{"9Z"}, Status: bookings.StatusConfirmed,
		})
		require.NoError(t, err)
	}

	_, err := fx.svc.BookedSeats(ctx, fx.schedule.ID)
	var integrity *bookings.IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, "9Z", integrity.Seat)
	assert.Equal(t, fx.schedule.ID, integrity.ScheduleID)
}
