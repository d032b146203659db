package bookings

import (
	"time"

	"busline/internal/domain/fleet"
	"busline/internal/domain/trips"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Booking holds a passenger's reservation of specific seats on a schedule.
// Across all non-cancelled bookings of one schedule, no seat id may appear
// twice.
type Booking struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	ScheduleID  int64     `json:"schedule_id" db:"schedule_id"`
	Seats       []string  `json:"seats" db:"seats"`
	TotalPrice  int64     `json:"total_price" db:"total_price"`
	Status      Status    `json:"status" db:"status"`
	BookingTime time.Time `json:"booking_time" db:"booking_time"`
}

// Held reports whether the booking still holds its seats.
func (b Booking) Held() bool {
	return b.Status != StatusCancelled
}

// BookingDetails is a booking joined with its schedule, bus and route, as
// listed on the passenger's bookings page.
type BookingDetails struct {
	Booking
	Schedule trips.Schedule `json:"schedule"`
	Bus      fleet.Bus      `json:"bus"`
	Route    trips.Route    `json:"route"`
}
