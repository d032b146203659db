package tracking

import "time"

// LocationUpdate is one reported position of a bus. Latitude and longitude
// are decimal strings as reported by the device; Timestamp is assigned by the
// server at ingest time, never taken from the client.
type LocationUpdate struct {
	ID        int64     `json:"id" db:"id"`
	BusID     int64     `json:"bus_id" db:"bus_id"`
	Latitude  string    `json:"latitude" db:"latitude"`
	Longitude string    `json:"longitude" db:"longitude"`
	Speed     int       `json:"speed,omitempty" db:"speed"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
