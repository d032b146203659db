package bookings

import "time"

// BookingMade is published after a booking is admitted and persisted.
type BookingMade struct {
	BookingID  int64     `json:"booking_id"`
	ScheduleID int64     `json:"schedule_id"`
	BusID      int64     `json:"bus_id"`
	UserID     int64     `json:"user_id"`
	Seats      []string  `json:"seats"`
	TotalPrice int64     `json:"total_price"`
	BookedAt   time.Time `json:"booked_at"`
}

// BookingCancelled is published after a confirmed booking is cancelled and
// its seats become free again.
type BookingCancelled struct {
	BookingID   int64     `json:"booking_id"`
	ScheduleID  int64     `json:"schedule_id"`
	BusID       int64     `json:"bus_id"`
	Seats       []string  `json:"seats"`
	CancelledAt time.Time `json:"cancelled_at"`
}
