package trips

import (
	"time"

	"busline/internal/domain/fleet"
)

// Schedule is one run of a bus on a route at a fixed time. Available gates
// new bookings.
type Schedule struct {
	ID            int64     `json:"id" db:"id"`
	BusID         int64     `json:"bus_id" db:"bus_id"`
	RouteID       int64     `json:"route_id" db:"route_id"`
	DepartureTime time.Time `json:"departure_time" db:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time" db:"arrival_time"`
	Price         int64     `json:"price" db:"price"`
	Available     bool      `json:"available" db:"available"`
}

// ScheduleDetails is a schedule joined with its bus and route, as returned
// by passenger search.
type ScheduleDetails struct {
	Schedule
	Bus   fleet.Bus `json:"bus"`
	Route Route     `json:"route"`
}
