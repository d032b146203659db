package trips

type Route struct {
	ID                int64  `json:"id" db:"id"`
	FromLocation      string `json:"from_location" db:"from_location"`
	ToLocation        string `json:"to_location" db:"to_location"`
	DistanceKm        int    `json:"distance" db:"distance_km"`
	EstimatedDuration int    `json:"estimated_duration" db:"estimated_duration"` // minutes
}
