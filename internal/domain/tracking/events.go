package tracking

// LocationReported is published after a position report is persisted.
type LocationReported struct {
	Location LocationUpdate `json:"location"`
}
