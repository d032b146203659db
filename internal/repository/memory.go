package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"busline/internal/domain/bookings"
	"busline/internal/domain/fleet"
	"busline/internal/domain/tracking"
	"busline/internal/domain/trips"
	"busline/internal/domain/users"
)

// MemoryStore keeps everything in maps guarded by one RWMutex. Each entity
// kind has its own monotonic id counter; ids are never reused. Values are
// copied on the way in and out, so callers can't mutate stored state behind
// the store's back.
type MemoryStore struct {
	mu sync.RWMutex

	users     map[int64]users.User
	buses     map[int64]fleet.Bus
	routes    map[int64]trips.Route
	schedules map[int64]trips.Schedule
	bookings  map[int64]bookings.Booking
	reviews   map[int64]fleet.Review

	// Only the latest position per bus is retained; older updates are
	// superseded at ingest instead of accumulating.
	latestLocation map[int64]tracking.LocationUpdate

	// Admission locks, one per schedule id. Entries are never removed; the
	// map is bounded by the number of schedules.
	admissionMu    sync.Mutex
	admissionLocks map[int64]*sync.Mutex

	nextUserID     int64
	nextBusID      int64
	nextRouteID    int64
	nextScheduleID int64
	nextBookingID  int64
	nextLocationID int64
	nextReviewID   int64

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:          make(map[int64]users.User),
		buses:          make(map[int64]fleet.Bus),
		routes:         make(map[int64]trips.Route),
		schedules:      make(map[int64]trips.Schedule),
		bookings:       make(map[int64]bookings.Booking),
		reviews:        make(map[int64]fleet.Review),
		latestLocation: make(map[int64]tracking.LocationUpdate),
		admissionLocks: make(map[int64]*sync.Mutex),
		now:            time.Now,
	}
}

// LockSchedule serializes booking admission for one schedule. A memory store
// is process-local by nature, so a keyed mutex is the whole story here.
func (s *MemoryStore) LockSchedule(_ context.Context, scheduleID int64) (func(), error) {
	s.admissionMu.Lock()
	m, ok := s.admissionLocks[scheduleID]
	if !ok {
		m = &sync.Mutex{}
		s.admissionLocks[scheduleID] = m
	}
	s.admissionMu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

// WithClock replaces the store's clock. Tests use it to control booking and
// location timestamps.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// SeedDefaultRoutes loads the default intercity routes an empty deployment
// starts with.
func (s *MemoryStore) SeedDefaultRoutes(ctx context.Context) error {
	defaults := []trips.Route{
		{FromLocation: "Colombo", ToLocation: "Kandy", DistanceKm: 115, EstimatedDuration: 180},
		{FromLocation: "Colombo", ToLocation: "Galle", DistanceKm: 125, EstimatedDuration: 150},
		{FromLocation: "Colombo", ToLocation: "Jaffna", DistanceKm: 395, EstimatedDuration: 540},
		{FromLocation: "Kandy", ToLocation: "Nuwara Eliya", DistanceKm: 80, EstimatedDuration: 120},
		{FromLocation: "Colombo", ToLocation: "Negombo", DistanceKm: 40, EstimatedDuration: 60},
		{FromLocation: "Colombo", ToLocation: "Anuradhapura", DistanceKm: 200, EstimatedDuration: 270},
	}
	for _, r := range defaults {
		if _, err := s.CreateRoute(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Users

func (s *MemoryStore) CreateUser(_ context.Context, u users.User) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	u.ID = s.nextUserID
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	return &u, nil
}

func (s *MemoryStore) User(_ context.Context, id int64) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) UserByUsername(_ context.Context, username string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UsersByRole(_ context.Context, role users.Role) ([]users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []users.User
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sortByID(out, func(u users.User) int64 { return u.ID })
	return out, nil
}

// Buses

func (s *MemoryStore) CreateBus(_ context.Context, b fleet.Bus) (*fleet.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextBusID++
	b.ID = s.nextBusID
	b.SeatLayout = cloneBytes(b.SeatLayout)
	s.buses[b.ID] = b

	out := b
	out.SeatLayout = cloneBytes(b.SeatLayout)
	return &out, nil
}

func (s *MemoryStore) Bus(_ context.Context, id int64) (*fleet.Bus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buses[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.SeatLayout = cloneBytes(b.SeatLayout)
	return &b, nil
}

func (s *MemoryStore) BusesByOwner(_ context.Context, ownerID int64) ([]fleet.Bus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []fleet.Bus
	for _, b := range s.buses {
		if b.OwnerID == ownerID {
			b.SeatLayout = cloneBytes(b.SeatLayout)
			out = append(out, b)
		}
	}
	sortByID(out, func(b fleet.Bus) int64 { return b.ID })
	return out, nil
}

func (s *MemoryStore) UpdateBus(_ context.Context, id int64, upd BusUpdate) (*fleet.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buses[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		b.Name = *upd.Name
	}
	if upd.BusNumber != nil {
		b.BusNumber = *upd.BusNumber
	}
	if upd.Capacity != nil {
		b.Capacity = *upd.Capacity
	}
	if upd.HasAC != nil {
		b.HasAC = *upd.HasAC
	}
	if upd.HasWifi != nil {
		b.HasWifi = *upd.HasWifi
	}
	if upd.HasUSB != nil {
		b.HasUSB = *upd.HasUSB
	}
	if upd.SeatLayout != nil {
		b.SeatLayout = cloneBytes(upd.SeatLayout)
	}
	s.buses[id] = b

	out := b
	out.SeatLayout = cloneBytes(b.SeatLayout)
	return &out, nil
}

func (s *MemoryStore) DeleteBus(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buses[id]; !ok {
		return ErrNotFound
	}
	delete(s.buses, id)
	return nil
}

// Routes

func (s *MemoryStore) CreateRoute(_ context.Context, r trips.Route) (*trips.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRouteID++
	r.ID = s.nextRouteID
	s.routes[r.ID] = r
	return &r, nil
}

func (s *MemoryStore) Route(_ context.Context, id int64) (*trips.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.routes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) Routes(_ context.Context) ([]trips.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]trips.Route, 0, len(s.routes))
	for _, r := range s.routes {
		out = append(out, r)
	}
	sortByID(out, func(r trips.Route) int64 { return r.ID })
	return out, nil
}

func (s *MemoryStore) RouteByLocations(_ context.Context, from, to string) (*trips.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.routes {
		if strings.EqualFold(r.FromLocation, from) && strings.EqualFold(r.ToLocation, to) {
			r := r
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

// Schedules

func (s *MemoryStore) CreateSchedule(_ context.Context, sc trips.Schedule) (*trips.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextScheduleID++
	sc.ID = s.nextScheduleID
	s.schedules[sc.ID] = sc
	return &sc, nil
}

func (s *MemoryStore) Schedule(_ context.Context, id int64) (*trips.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sc, nil
}

func (s *MemoryStore) SchedulesByBus(_ context.Context, busID int64) ([]trips.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []trips.Schedule
	for _, sc := range s.schedules {
		if sc.BusID == busID {
			out = append(out, sc)
		}
	}
	sortByID(out, func(sc trips.Schedule) int64 { return sc.ID })
	return out, nil
}

func (s *MemoryStore) SchedulesByRoute(_ context.Context, routeID int64) ([]trips.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []trips.Schedule
	for _, sc := range s.schedules {
		if sc.RouteID == routeID {
			out = append(out, sc)
		}
	}
	sortByID(out, func(sc trips.Schedule) int64 { return sc.ID })
	return out, nil
}

func (s *MemoryStore) SearchSchedules(_ context.Context, from, to string, day time.Time) ([]trips.ScheduleDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	routeIDs := make(map[int64]trips.Route)
	for _, r := range s.routes {
		if strings.EqualFold(r.FromLocation, from) && strings.EqualFold(r.ToLocation, to) {
			routeIDs[r.ID] = r
		}
	}
	if len(routeIDs) == 0 {
		return nil, nil
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)

	var out []trips.ScheduleDetails
	for _, sc := range s.schedules {
		route, ok := routeIDs[sc.RouteID]
		if !ok || !sc.Available {
			continue
		}
		if sc.DepartureTime.Before(dayStart) || sc.DepartureTime.After(dayEnd) {
			continue
		}
		bus, ok := s.buses[sc.BusID]
		if !ok {
			continue
		}
		bus.SeatLayout = cloneBytes(bus.SeatLayout)
		out = append(out, trips.ScheduleDetails{Schedule: sc, Bus: bus, Route: route})
	}
	sortByID(out, func(d trips.ScheduleDetails) int64 { return d.ID })
	return out, nil
}

func (s *MemoryStore) UpdateSchedule(_ context.Context, id int64, upd ScheduleUpdate) (*trips.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.BusID != nil {
		sc.BusID = *upd.BusID
	}
	if upd.RouteID != nil {
		sc.RouteID = *upd.RouteID
	}
	if upd.DepartureTime != nil {
		sc.DepartureTime = *upd.DepartureTime
	}
	if upd.ArrivalTime != nil {
		sc.ArrivalTime = *upd.ArrivalTime
	}
	if upd.Price != nil {
		sc.Price = *upd.Price
	}
	if upd.Available != nil {
		sc.Available = *upd.Available
	}
	s.schedules[id] = sc
	return &sc, nil
}

func (s *MemoryStore) DeleteSchedule(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[id]; !ok {
		return ErrNotFound
	}
	delete(s.schedules, id)
	return nil
}

// Bookings

func (s *MemoryStore) CreateBooking(_ context.Context, b bookings.Booking) (*bookings.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextBookingID++
	b.ID = s.nextBookingID
	b.BookingTime = s.now()
	b.Seats = cloneStrings(b.Seats)
	s.bookings[b.ID] = b

	out := b
	out.Seats = cloneStrings(b.Seats)
	return &out, nil
}

func (s *MemoryStore) Booking(_ context.Context, id int64) (*bookings.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.Seats = cloneStrings(b.Seats)
	return &b, nil
}

func (s *MemoryStore) BookingsByUser(_ context.Context, userID int64) ([]bookings.BookingDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []bookings.BookingDetails
	for _, b := range s.bookings {
		if b.UserID != userID {
			continue
		}
		b.Seats = cloneStrings(b.Seats)
		d := bookings.BookingDetails{Booking: b}
		if sc, ok := s.schedules[b.ScheduleID]; ok {
			d.Schedule = sc
			if bus, ok := s.buses[sc.BusID]; ok {
				bus.SeatLayout = cloneBytes(bus.SeatLayout)
				d.Bus = bus
			}
			if route, ok := s.routes[sc.RouteID]; ok {
				d.Route = route
			}
		}
		out = append(out, d)
	}
	sortByID(out, func(d bookings.BookingDetails) int64 { return d.ID })
	return out, nil
}

func (s *MemoryStore) BookingsBySchedule(_ context.Context, scheduleID int64) ([]bookings.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []bookings.Booking
	for _, b := range s.bookings {
		if b.ScheduleID == scheduleID {
			b.Seats = cloneStrings(b.Seats)
			out = append(out, b)
		}
	}
	sortByID(out, func(b bookings.Booking) int64 { return b.ID })
	return out, nil
}

func (s *MemoryStore) UpdateBookingStatus(_ context.Context, id int64, status bookings.Status) (*bookings.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.Status = status
	s.bookings[id] = b

	out := b
	out.Seats = cloneStrings(b.Seats)
	return &out, nil
}

// Locations

func (s *MemoryStore) CreateLocationUpdate(_ context.Context, u tracking.LocationUpdate) (*tracking.LocationUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLocationID++
	u.ID = s.nextLocationID
	u.Timestamp = s.now()

	// Keep whichever update has the larger timestamp, so out-of-order
	// ingestion never moves the latest position backwards.
	if prev, ok := s.latestLocation[u.BusID]; !ok || !u.Timestamp.Before(prev.Timestamp) {
		s.latestLocation[u.BusID] = u
	}
	return &u, nil
}

func (s *MemoryStore) LatestLocation(_ context.Context, busID int64) (*tracking.LocationUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.latestLocation[busID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// Reviews

func (s *MemoryStore) CreateReview(_ context.Context, r fleet.Review) (*fleet.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextReviewID++
	r.ID = s.nextReviewID
	r.Timestamp = s.now()
	s.reviews[r.ID] = r
	return &r, nil
}

func (s *MemoryStore) ReviewsByBus(_ context.Context, busID int64) ([]fleet.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []fleet.Review
	for _, r := range s.reviews {
		if r.BusID == busID {
			out = append(out, r)
		}
	}
	sortByID(out, func(r fleet.Review) int64 { return r.ID })
	return out, nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

// sortByID keeps map-iteration results in creation order.
func sortByID[T any](items []T, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}
