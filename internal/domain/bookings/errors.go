package bookings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrScheduleUnavailable = errors.New("schedule is not available for booking")
	ErrNoSeatsSelected     = errors.New("no seats selected")
	ErrDuplicateSeats      = errors.New("duplicate seats in request")
	ErrAlreadyCompleted    = errors.New("booking is already completed")
	ErrNotConfirmed        = errors.New("booking is not confirmed")
)

// SeatConflictError is returned when requested seats are already held, and
// carries the contested subset so the client can redraw the seat map without
// a full reload.
type SeatConflictError struct {
	Seats []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats already booked: %s", strings.Join(e.Seats, ", "))
}

// IntegrityError reports that a seat ended up held by more than one
// non-cancelled booking. It means a prior admission slipped through and is
// never repaired silently.
type IntegrityError struct {
	ScheduleID int64
	Seat       string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("seat %q is held by multiple bookings on schedule %d", e.Seat, e.ScheduleID)
}
