package fleet

import "encoding/json"

type Bus struct {
	ID         int64           `json:"id" db:"id"`
	OwnerID    int64           `json:"owner_id" db:"owner_id"`
	Name       string          `json:"name" db:"name"`
	BusNumber  string          `json:"bus_number" db:"bus_number"`
	Capacity   int             `json:"capacity" db:"capacity"`
	HasAC      bool            `json:"has_ac" db:"has_ac"`
	HasWifi    bool            `json:"has_wifi" db:"has_wifi"`
	HasUSB     bool            `json:"has_usb" db:"has_usb"`
	SeatLayout json.RawMessage `json:"seat_layout" db:"seat_layout"`
}
