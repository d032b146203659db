package fleet

import "time"

type Review struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	BusID      int64     `json:"bus_id" db:"bus_id"`
	ScheduleID int64     `json:"schedule_id" db:"schedule_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment,omitempty" db:"comment"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

// ReviewWithAuthor is a review joined with the reviewer's display name.
type ReviewWithAuthor struct {
	Review
	Username string `json:"username"`
}

// BusDetails is a bus together with its reviews, as served to passengers.
type BusDetails struct {
	Bus
	Reviews       []Review `json:"reviews"`
	AverageRating float64  `json:"average_rating"`
}
