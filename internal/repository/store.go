package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"busline/internal/domain/bookings"
	"busline/internal/domain/fleet"
	"busline/internal/domain/tracking"
	"busline/internal/domain/trips"
	"busline/internal/domain/users"
)

// ErrNotFound is returned by every lookup, update and delete whose target id
// does not exist.
var ErrNotFound = errors.New("not found")

// Store is the entity store behind which all shared mutable state lives.
// Implementations own the stored entities; callers get copies, and mutations
// only take effect through the update operations. Create operations assign
// fresh monotonic ids per entity kind and stamp server-side timestamps where
// the entity has one.
type Store interface {
	UserStore
	BusStore
	RouteStore
	ScheduleStore
	BookingStore
	LocationStore
	ReviewStore
	ScheduleLocker
}

// ScheduleLocker serializes booking admission per schedule. The lock must
// hold across every process sharing the store's backing medium, not just
// within one service instance; release is called once the admission decision
// is durable.
type ScheduleLocker interface {
	LockSchedule(ctx context.Context, scheduleID int64) (release func(), err error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u users.User) (*users.User, error)
	User(ctx context.Context, id int64) (*users.User, error)
	// UserByUsername and UserByEmail match case-insensitively.
	UserByUsername(ctx context.Context, username string) (*users.User, error)
	UserByEmail(ctx context.Context, email string) (*users.User, error)
	UsersByRole(ctx context.Context, role users.Role) ([]users.User, error)
}

type BusUpdate struct {
	Name       *string
	BusNumber  *string
	Capacity   *int
	HasAC      *bool
	HasWifi    *bool
	HasUSB     *bool
	SeatLayout json.RawMessage
}

type BusStore interface {
	CreateBus(ctx context.Context, b fleet.Bus) (*fleet.Bus, error)
	Bus(ctx context.Context, id int64) (*fleet.Bus, error)
	BusesByOwner(ctx context.Context, ownerID int64) ([]fleet.Bus, error)
	UpdateBus(ctx context.Context, id int64, upd BusUpdate) (*fleet.Bus, error)
	DeleteBus(ctx context.Context, id int64) error
}

type RouteStore interface {
	CreateRoute(ctx context.Context, r trips.Route) (*trips.Route, error)
	Route(ctx context.Context, id int64) (*trips.Route, error)
	Routes(ctx context.Context) ([]trips.Route, error)
	// RouteByLocations matches from/to case-insensitively.
	RouteByLocations(ctx context.Context, from, to string) (*trips.Route, error)
}

type ScheduleUpdate struct {
	BusID         *int64
	RouteID       *int64
	DepartureTime *time.Time
	ArrivalTime   *time.Time
	Price         *int64
	Available     *bool
}

type ScheduleStore interface {
	CreateSchedule(ctx context.Context, s trips.Schedule) (*trips.Schedule, error)
	Schedule(ctx context.Context, id int64) (*trips.Schedule, error)
	SchedulesByBus(ctx context.Context, busID int64) ([]trips.Schedule, error)
	SchedulesByRoute(ctx context.Context, routeID int64) ([]trips.Schedule, error)
	// SearchSchedules returns available schedules departing on the given day
	// between the two locations, joined with bus and route.
	SearchSchedules(ctx context.Context, from, to string, day time.Time) ([]trips.ScheduleDetails, error)
	UpdateSchedule(ctx context.Context, id int64, upd ScheduleUpdate) (*trips.Schedule, error)
	DeleteSchedule(ctx context.Context, id int64) error
}

type BookingStore interface {
	// CreateBooking stamps the booking time with the store's clock,
	// regardless of anything the caller set.
	CreateBooking(ctx context.Context, b bookings.Booking) (*bookings.Booking, error)
	Booking(ctx context.Context, id int64) (*bookings.Booking, error)
	BookingsByUser(ctx context.Context, userID int64) ([]bookings.BookingDetails, error)
	BookingsBySchedule(ctx context.Context, scheduleID int64) ([]bookings.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status bookings.Status) (*bookings.Booking, error)
}

type LocationStore interface {
	// CreateLocationUpdate stamps the update with the store's clock.
	CreateLocationUpdate(ctx context.Context, u tracking.LocationUpdate) (*tracking.LocationUpdate, error)
	// LatestLocation returns the update with the maximum timestamp ever
	// ingested for the bus.
	LatestLocation(ctx context.Context, busID int64) (*tracking.LocationUpdate, error)
}

type ReviewStore interface {
	CreateReview(ctx context.Context, r fleet.Review) (*fleet.Review, error)
	ReviewsByBus(ctx context.Context, busID int64) ([]fleet.Review, error)
}
