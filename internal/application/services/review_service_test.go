package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busline/internal/domain/bookings"
	"busline/internal/domain/fleet"
	"busline/internal/domain/trips"
	"busline/internal/domain/users"
	"busline/internal/repository"
)

type reviewFixture struct {
	store    *repository.MemoryStore
	svc      *ReviewService
	rider    users.Identity
	bus      *fleet.Bus
	schedule *trips.Schedule
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()

	rider, err := store.CreateUser(ctx, users.User{Username: "rider", Name: "Nimal Perera", Role: users.RolePassenger})
	require.NoError(t, err)
	bus, err := store.CreateBus(ctx, fleet.Bus{OwnerID: 99, Name: "Express"})
	require.NoError(t, err)
	route, err := store.CreateRoute(ctx, trips.Route{FromLocation: "Colombo", ToLocation: "Kandy"})
	require.NoError(t, err)
	schedule, err := store.CreateSchedule(ctx, trips.Schedule{BusID: bus.ID, RouteID: route.ID, Available: true})
	require.NoError(t, err)

	return &reviewFixture{
		store:    store,
		svc:      NewReviewService(store),
		rider:    users.Identity{UserID: rider.ID, Role: users.RolePassenger},
		bus:      bus,
		schedule: schedule,
	}
}

func (fx *reviewFixture) bookWithStatus(t *testing.T, status bookings.Status) {
	t.Helper()
	b, err := fx.store.CreateBooking(context.Background(), bookings.Booking{
		UserID: fx.rider.UserID, ScheduleID: fx.schedule.ID,
		Seats: []string{"1A"}, Status: bookings.StatusConfirmed,
	})
	require.NoError(t, err)
	if status != bookings.StatusConfirmed {
		_, err = fx.store.UpdateBookingStatus(context.Background(), b.ID, status)
		require.NoError(t, err)
	}
}

func TestCreateReview_RequiresCompletedTrip(t *testing.T) {
	fx := newReviewFixture(t)
	ctx := context.Background()

	review := fleet.Review{BusID: fx.bus.ID, ScheduleID: fx.schedule.ID, Rating: 5, Comment: "comfortable ride"}

	// No booking at all.
	_, err := fx.svc.CreateReview(ctx, fx.rider, review)
	assert.ErrorIs(t, err, ErrReviewNotAllowed)

	// A merely confirmed booking is not enough.
	fx.bookWithStatus(t, bookings.StatusConfirmed)
	_, err = fx.svc.CreateReview(ctx, fx.rider, review)
	assert.ErrorIs(t, err, ErrReviewNotAllowed)

	fx.bookWithStatus(t, bookings.StatusCompleted)
	created, err := fx.svc.CreateReview(ctx, fx.rider, review)
	require.NoError(t, err)
	assert.Equal(t, fx.rider.UserID, created.UserID)
	assert.False(t, created.Timestamp.IsZero())
}

func TestCreateReview_Validation(t *testing.T) {
	fx := newReviewFixture(t)
	ctx := context.Background()
	fx.bookWithStatus(t, bookings.StatusCompleted)

	_, err := fx.svc.CreateReview(ctx, fx.rider, fleet.Review{BusID: fx.bus.ID, ScheduleID: fx.schedule.ID, Rating: 0})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = fx.svc.CreateReview(ctx, fx.rider, fleet.Review{BusID: fx.bus.ID, ScheduleID: fx.schedule.ID, Rating: 6})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = fx.svc.CreateReview(ctx, fx.rider, fleet.Review{BusID: 999, ScheduleID: fx.schedule.ID, Rating: 4})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = fx.svc.CreateReview(ctx, fx.rider, fleet.Review{BusID: fx.bus.ID, ScheduleID: 999, Rating: 4})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReviewsForBus_AuthorNames(t *testing.T) {
	fx := newReviewFixture(t)
	ctx := context.Background()
	fx.bookWithStatus(t, bookings.StatusCompleted)

	_, err := fx.svc.CreateReview(ctx, fx.rider, fleet.Review{
		BusID: fx.bus.ID, ScheduleID: fx.schedule.ID, Rating: 4, Comment: "on time",
	})
	require.NoError(t, err)

	// A review whose author no longer resolves falls back to Anonymous.
	_, err = fx.store.CreateReview(ctx, fleet.Review{UserID: 404, BusID: fx.bus.ID, ScheduleID: fx.schedule.ID, Rating: 2})
	require.NoError(t, err)

	out, err := fx.svc.ReviewsForBus(ctx, fx.bus.ID)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Nimal Perera", out[0].Username)
	assert.Equal(t, "Anonymous", out[1].Username)
}
