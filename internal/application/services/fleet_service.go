package services

import (
	"context"
	"errors"
	"fmt"

	"busline/internal/domain/fleet"
	"busline/internal/domain/users"
	"busline/internal/repository"
)

// FleetService covers bus management for owners and the public bus-details
// view for passengers.
type FleetService struct {
	store repository.Store
}

func NewFleetService(store repository.Store) *FleetService {
	return &FleetService{store: store}
}

func (s *FleetService) CreateBus(ctx context.Context, actor users.Identity, bus fleet.Bus) (*fleet.Bus, error) {
	if !actor.IsBusOwner() {
		return nil, ErrForbidden
	}
	bus.OwnerID = actor.UserID
	return s.store.CreateBus(ctx, bus)
}

// Buses lists the actor's fleet; admins see every owner's buses.
func (s *FleetService) Buses(ctx context.Context, actor users.Identity) ([]fleet.Bus, error) {
	if actor.IsBusOwner() {
		return s.store.BusesByOwner(ctx, actor.UserID)
	}
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	owners, err := s.store.UsersByRole(ctx, users.RoleBusOwner)
	if err != nil {
		return nil, err
	}
	var all []fleet.Bus
	for _, owner := range owners {
		buses, err := s.store.BusesByOwner(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		all = append(all, buses...)
	}
	return all, nil
}

func (s *FleetService) Bus(ctx context.Context, actor users.Identity, id int64) (*fleet.Bus, error) {
	bus, err := s.store.Bus(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("bus %d: %w", id, err)
	}
	if !actor.IsAdmin() && bus.OwnerID != actor.UserID {
		return nil, ErrForbidden
	}
	return bus, nil
}

func (s *FleetService) UpdateBus(ctx context.Context, actor users.Identity, id int64, upd repository.BusUpdate) (*fleet.Bus, error) {
	if err := s.requireOwnership(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.UpdateBus(ctx, id, upd)
}

func (s *FleetService) DeleteBus(ctx context.Context, actor users.Identity, id int64) error {
	if err := s.requireOwnership(ctx, actor, id); err != nil {
		return err
	}
	return s.store.DeleteBus(ctx, id)
}

// BusDetails is the public passenger view: the bus with its reviews and
// average rating.
func (s *FleetService) BusDetails(ctx context.Context, id int64) (*fleet.BusDetails, error) {
	bus, err := s.store.Bus(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("bus %d: %w", id, err)
	}
	reviews, err := s.store.ReviewsByBus(ctx, id)
	if err != nil {
		return nil, err
	}

	var avg float64
	if len(reviews) > 0 {
		var sum int
		for _, r := range reviews {
			sum += r.Rating
		}
		avg = float64(sum) / float64(len(reviews))
	}

	return &fleet.BusDetails{Bus: *bus, Reviews: reviews, AverageRating: avg}, nil
}

func (s *FleetService) requireOwnership(ctx context.Context, actor users.Identity, busID int64) error {
	bus, err := s.store.Bus(ctx, busID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("bus %d: %w", busID, err)
		}
		return err
	}
	if bus.OwnerID != actor.UserID {
		return ErrForbidden
	}
	return nil
}
