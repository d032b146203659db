package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"busline/internal/domain/bookings"
	"busline/internal/domain/users"
	"busline/internal/repository"
)

// EventPublisher publishes domain events for asynchronous fan-out. Satisfied
// by cqrs.EventBus.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// BookingService admits or rejects seat reservations. Admission for one
// schedule is serialized through the store's schedule lock, which holds
// across every service instance sharing the store's backing medium, so two
// concurrent requests can never both be sold the same seat; requests for
// different schedules proceed independently.
type BookingService struct {
	store  repository.Store
	events EventPublisher
	logger zerolog.Logger
}

func NewBookingService(store repository.Store, events EventPublisher, logger zerolog.Logger) *BookingService {
	return &BookingService{
		store:  store,
		events: events,
		logger: logger.With().Str("service", "bookings").Logger(),
	}
}

type RequestBookingParams struct {
	UserID     int64
	ScheduleID int64
	Seats      []string
}

// RequestBooking validates the reservation against current availability and,
// if admitted, persists it with status confirmed. The total price is always
// recomputed from the schedule; a client-supplied total is never trusted.
// Rejections, in precedence order: schedule absent, schedule unavailable,
// empty or duplicated seat list, seat conflict (carrying the contested
// seats).
func (s *BookingService) RequestBooking(ctx context.Context, p RequestBookingParams) (*bookings.Booking, error) {
	release, err := s.store.LockSchedule(ctx, p.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock schedule %d: %w", p.ScheduleID, err)
	}
	defer release()

	schedule, err := s.store.Schedule(ctx, p.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("schedule %d: %w", p.ScheduleID, err)
	}
	if !schedule.Available {
		return nil, bookings.ErrScheduleUnavailable
	}
	if len(p.Seats) == 0 {
		return nil, bookings.ErrNoSeatsSelected
	}
	requested := make(map[string]struct{}, len(p.Seats))
	for _, seat := range p.Seats {
		if _, dup := requested[seat]; dup {
			return nil, bookings.ErrDuplicateSeats
		}
		requested[seat] = struct{}{}
	}

	held, err := s.heldSeats(ctx, p.ScheduleID)
	if err != nil {
		return nil, err
	}
	var conflicts []string
	for _, seat := range p.Seats {
		if _, taken := held[seat]; taken {
			conflicts = append(conflicts, seat)
		}
	}
	if len(conflicts) > 0 {
		return nil, &bookings.SeatConflictError{Seats: conflicts}
	}

	booking, err := s.store.CreateBooking(ctx, bookings.Booking{
		UserID:     p.UserID,
		ScheduleID: p.ScheduleID,
		Seats:      p.Seats,
		TotalPrice: schedule.Price * int64(len(p.Seats)),
		Status:     bookings.StatusConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.publish(ctx, bookings.BookingMade{
		BookingID:  booking.ID,
		ScheduleID: booking.ScheduleID,
		BusID:      schedule.BusID,
		UserID:     booking.UserID,
		Seats:      booking.Seats,
		TotalPrice: booking.TotalPrice,
		BookedAt:   booking.BookingTime,
	})

	return booking, nil
}

// CancelBooking sets the booking to cancelled, freeing its seats for
// subsequent requests. Permitted for the booking's owner and for the owner
// of the schedule's bus. Cancelling an already-cancelled booking is a no-op;
// a completed booking can no longer be cancelled.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64, actor users.Identity) (*bookings.Booking, error) {
	booking, err := s.store.Booking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %d: %w", bookingID, err)
	}

	schedule, err := s.store.Schedule(ctx, booking.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("schedule %d: %w", booking.ScheduleID, err)
	}
	if err := s.authorizeBookingAccess(ctx, booking, schedule.BusID, actor); err != nil {
		return nil, err
	}

	switch booking.Status {
	case bookings.StatusCancelled:
		return booking, nil
	case bookings.StatusCompleted:
		return nil, bookings.ErrAlreadyCompleted
	}

	updated, err := s.store.UpdateBookingStatus(ctx, bookingID, bookings.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	s.publish(ctx, bookings.BookingCancelled{
		BookingID:   updated.ID,
		ScheduleID:  updated.ScheduleID,
		BusID:       schedule.BusID,
		Seats:       updated.Seats,
		CancelledAt: time.Now().UTC(),
	})

	return updated, nil
}

// CompleteBooking marks a confirmed booking completed, which is what makes
// the passenger eligible to review the bus. Bus-owner side operation.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID int64, actor users.Identity) (*bookings.Booking, error) {
	booking, err := s.store.Booking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %d: %w", bookingID, err)
	}
	schedule, err := s.store.Schedule(ctx, booking.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("schedule %d: %w", booking.ScheduleID, err)
	}
	if err := s.authorizeOwner(ctx, schedule.BusID, actor); err != nil {
		return nil, err
	}

	switch booking.Status {
	case bookings.StatusCompleted:
		return booking, nil
	case bookings.StatusCancelled:
		return nil, bookings.ErrNotConfirmed
	}

	return s.store.UpdateBookingStatus(ctx, bookingID, bookings.StatusCompleted)
}

// Booking returns one booking, visible to its owner and to the owner of the
// schedule's bus.
func (s *BookingService) Booking(ctx context.Context, bookingID int64, actor users.Identity) (*bookings.Booking, error) {
	booking, err := s.store.Booking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %d: %w", bookingID, err)
	}
	schedule, err := s.store.Schedule(ctx, booking.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("schedule %d: %w", booking.ScheduleID, err)
	}
	if err := s.authorizeBookingAccess(ctx, booking, schedule.BusID, actor); err != nil {
		return nil, err
	}
	return booking, nil
}

// BookingsForUser lists the actor's bookings joined with schedule, bus and
// route.
func (s *BookingService) BookingsForUser(ctx context.Context, actor users.Identity) ([]bookings.BookingDetails, error) {
	return s.store.BookingsByUser(ctx, actor.UserID)
}

// BookedSeats returns the sorted set of seats currently held by non-cancelled
// bookings of the schedule.
func (s *BookingService) BookedSeats(ctx context.Context, scheduleID int64) ([]string, error) {
	if _, err := s.store.Schedule(ctx, scheduleID); err != nil {
		return nil, fmt.Errorf("schedule %d: %w", scheduleID, err)
	}
	held, err := s.heldSeats(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(held))
	for seat := range held {
		out = append(out, seat)
	}
	sort.Strings(out)
	return out, nil
}

// heldSeats unions the seats of all non-cancelled bookings. A seat held by
// more than one booking means an earlier admission slipped through; that is
// surfaced as an integrity error, never repaired silently.
func (s *BookingService) heldSeats(ctx context.Context, scheduleID int64) (map[string]struct{}, error) {
	existing, err := s.store.BookingsBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	held := make(map[string]struct{})
	for _, b := range existing {
		if !b.Held() {
			continue
		}
		for _, seat := range b.Seats {
			if _, dup := held[seat]; dup {
				err := &bookings.IntegrityError{ScheduleID: scheduleID, Seat: seat}
				s.logger.Error().
					Int64("schedule_id", scheduleID).
					Str("seat", seat).
					Msg("duplicate seat across non-cancelled bookings")
				return nil, err
			}
			held[seat] = struct{}{}
		}
	}
	return held, nil
}

func (s *BookingService) authorizeBookingAccess(ctx context.Context, booking *bookings.Booking, busID int64, actor users.Identity) error {
	if booking.UserID == actor.UserID || actor.IsAdmin() {
		return nil
	}
	return s.authorizeOwner(ctx, busID, actor)
}

func (s *BookingService) authorizeOwner(ctx context.Context, busID int64, actor users.Identity) error {
	if actor.IsAdmin() {
		return nil
	}
	bus, err := s.store.Bus(ctx, busID)
	if err != nil {
		return fmt.Errorf("bus %d: %w", busID, err)
	}
	if bus.OwnerID != actor.UserID {
		return ErrForbidden
	}
	return nil
}

func (s *BookingService) publish(ctx context.Context, event any) {
	if err := s.events.Publish(ctx, event); err != nil {
		// Notifications are best-effort; the booking outcome stands.
		s.logger.Warn().Err(err).Type("event", event).Msg("failed to publish event")
	}
}
