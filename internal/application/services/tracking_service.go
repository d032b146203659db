package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"busline/internal/domain/tracking"
	"busline/internal/domain/users"
	"busline/internal/repository"
)

// TrackingService ingests bus position reports and serves the latest known
// position per bus.
type TrackingService struct {
	store  repository.Store
	events EventPublisher
	logger zerolog.Logger
}

func NewTrackingService(store repository.Store, events EventPublisher, logger zerolog.Logger) *TrackingService {
	return &TrackingService{
		store:  store,
		events: events,
		logger: logger.With().Str("service", "tracking").Logger(),
	}
}

type ReportLocationParams struct {
	BusID     int64
	Latitude  string
	Longitude string
	Speed     int
}

// ReportLocation persists a position report and publishes it for broadcast.
// Only the owning bus_owner may report; an unknown bus id gets the same
// generic forbidden answer as a foreign one, so callers can't probe which
// buses exist.
func (s *TrackingService) ReportLocation(ctx context.Context, actor users.Identity, p ReportLocationParams) (*tracking.LocationUpdate, error) {
	if err := validateCoordinates(p.Latitude, p.Longitude); err != nil {
		return nil, err
	}

	bus, err := s.store.Bus(ctx, p.BusID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("bus %d: %w", p.BusID, err)
	}
	if bus.OwnerID != actor.UserID {
		return nil, ErrForbidden
	}

	update, err := s.store.CreateLocationUpdate(ctx, tracking.LocationUpdate{
		BusID:     p.BusID,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Speed:     p.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store location update: %w", err)
	}

	if err := s.events.Publish(ctx, tracking.LocationReported{Location: *update}); err != nil {
		// Broadcast is best-effort; the persisted report stands.
		s.logger.Warn().Err(err).Int64("bus_id", p.BusID).Msg("failed to publish location event")
	}

	return update, nil
}

// LatestLocation returns the most recently timestamped update for the bus.
func (s *TrackingService) LatestLocation(ctx context.Context, busID int64) (*tracking.LocationUpdate, error) {
	if _, err := s.store.Bus(ctx, busID); err != nil {
		return nil, fmt.Errorf("bus %d: %w", busID, err)
	}
	update, err := s.store.LatestLocation(ctx, busID)
	if err != nil {
		return nil, fmt.Errorf("location for bus %d: %w", busID, err)
	}
	return update, nil
}

func validateCoordinates(lat, lng string) error {
	latF, err := strconv.ParseFloat(lat, 64)
	if err != nil || latF < -90 || latF > 90 {
		return fmt.Errorf("%w: bad latitude %q", ErrValidation, lat)
	}
	lngF, err := strconv.ParseFloat(lng, 64)
	if err != nil || lngF < -180 || lngF > 180 {
		return fmt.Errorf("%w: bad longitude %q", ErrValidation, lng)
	}
	return nil
}
