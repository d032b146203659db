package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busline/internal/domain/trips"
	"busline/internal/domain/users"
	"busline/internal/repository"
)

var ErrRouteExists = errors.New("route already exists")

// TripsService manages routes, schedules and the public schedule search.
type TripsService struct {
	store repository.Store
}

func NewTripsService(store repository.Store) *TripsService {
	return &TripsService{store: store}
}

// Routes

func (s *TripsService) Routes(ctx context.Context) ([]trips.Route, error) {
	return s.store.Routes(ctx)
}

// CreateRoute is admin-only; a route is unique by its from/to pair.
func (s *TripsService) CreateRoute(ctx context.Context, actor users.Identity, route trips.Route) (*trips.Route, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if _, err := s.store.RouteByLocations(ctx, route.FromLocation, route.ToLocation); err == nil {
		return nil, ErrRouteExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.store.CreateRoute(ctx, route)
}

// Schedules

func (s *TripsService) CreateSchedule(ctx context.Context, actor users.Identity, schedule trips.Schedule) (*trips.Schedule, error) {
	if err := s.requireBusOwnership(ctx, actor, schedule.BusID); err != nil {
		return nil, err
	}
	if _, err := s.store.Route(ctx, schedule.RouteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown route %d", ErrValidation, schedule.RouteID)
		}
		return nil, err
	}
	return s.store.CreateSchedule(ctx, schedule)
}

// OwnerSchedules lists every schedule of every bus the actor owns, joined
// with bus and route for the owner dashboard.
func (s *TripsService) OwnerSchedules(ctx context.Context, actor users.Identity) ([]trips.ScheduleDetails, error) {
	buses, err := s.store.BusesByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	var out []trips.ScheduleDetails
	for _, bus := range buses {
		schedules, err := s.store.SchedulesByBus(ctx, bus.ID)
		if err != nil {
			return nil, err
		}
		for _, sc := range schedules {
			d := trips.ScheduleDetails{Schedule: sc, Bus: bus}
			if route, err := s.store.Route(ctx, sc.RouteID); err == nil {
				d.Route = *route
			}
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *TripsService) UpdateSchedule(ctx context.Context, actor users.Identity, id int64, upd repository.ScheduleUpdate) (*trips.Schedule, error) {
	schedule, err := s.store.Schedule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("schedule %d: %w", id, err)
	}
	if err := s.requireBusOwnership(ctx, actor, schedule.BusID); err != nil {
		return nil, err
	}
	// Reassigning to another bus requires owning that bus too.
	if upd.BusID != nil {
		if err := s.requireBusOwnership(ctx, actor, *upd.BusID); err != nil {
			return nil, err
		}
	}
	if upd.RouteID != nil {
		if _, err := s.store.Route(ctx, *upd.RouteID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown route %d", ErrValidation, *upd.RouteID)
			}
			return nil, err
		}
	}
	return s.store.UpdateSchedule(ctx, id, upd)
}

func (s *TripsService) DeleteSchedule(ctx context.Context, actor users.Identity, id int64) error {
	schedule, err := s.store.Schedule(ctx, id)
	if err != nil {
		return fmt.Errorf("schedule %d: %w", id, err)
	}
	if err := s.requireBusOwnership(ctx, actor, schedule.BusID); err != nil {
		return err
	}
	return s.store.DeleteSchedule(ctx, id)
}

// SchedulesForRoute lists every schedule on a route, joined with its bus.
// Public.
func (s *TripsService) SchedulesForRoute(ctx context.Context, routeID int64) ([]trips.ScheduleDetails, error) {
	route, err := s.store.Route(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("route %d: %w", routeID, err)
	}

	schedules, err := s.store.SchedulesByRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	var out []trips.ScheduleDetails
	for _, sc := range schedules {
		d := trips.ScheduleDetails{Schedule: sc, Route: *route}
		if bus, err := s.store.Bus(ctx, sc.BusID); err == nil {
			d.Bus = *bus
		}
		out = append(out, d)
	}
	return out, nil
}

// Search returns available schedules between two locations on a given day,
// joined with bus and route. Public.
func (s *TripsService) Search(ctx context.Context, from, to string, day time.Time) ([]trips.ScheduleDetails, error) {
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: from and to are required", ErrValidation)
	}
	return s.store.SearchSchedules(ctx, from, to, day)
}

func (s *TripsService) requireBusOwnership(ctx context.Context, actor users.Identity, busID int64) error {
	bus, err := s.store.Bus(ctx, busID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if bus.OwnerID != actor.UserID {
		return ErrForbidden
	}
	return nil
}
