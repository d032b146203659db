// Package broadcast fans server-pushed events out to live client
// connections. A connection subscribes to named channels such as
// bus_location_42 or bus_owner_7 and receives every event published to those
// channels from the moment of subscription onward. Delivery is best-effort:
// there is no backlog, no replay and no persistence across reconnects.
package broadcast

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"busline/internal/domain/bookings"
	"busline/internal/domain/tracking"
)

// BusLocationChannel names the channel carrying position updates of one bus.
func BusLocationChannel(busID int64) string {
	return fmt.Sprintf("bus_location_%d", busID)
}

// BusOwnerChannel names the channel carrying notifications for the owner of
// one bus.
func BusOwnerChannel(busID int64) string {
	return fmt.Sprintf("bus_owner_%d", busID)
}

// Event is one server-pushed message. Exactly one payload field is set,
// matching Type.
type Event struct {
	Type     string                   `json:"type"`
	Location *tracking.LocationUpdate `json:"location,omitempty"`
	Booking  *bookings.Booking        `json:"booking,omitempty"`
}

const (
	EventLocationUpdate = "location_update"
	EventNewBooking     = "new_booking"
)

// subscriberBuffer bounds each connection's in-flight events. A connection
// that can't drain fast enough loses events rather than blocking publishers.
const subscriberBuffer = 16

type Hub struct {
	logger zerolog.Logger

	mu       sync.RWMutex
	channels map[string]map[*Subscriber]struct{}
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:   logger,
		channels: make(map[string]map[*Subscriber]struct{}),
	}
}

// Subscriber is one live connection's membership in a set of channels.
// Events() yields events in per-channel publish order. Close detaches the
// subscriber from every channel; it is safe to call more than once.
type Subscriber struct {
	id       string
	hub      *Hub
	channels []string
	events   chan Event
	once     sync.Once
}

func (s *Subscriber) ID() string           { return s.id }
func (s *Subscriber) Events() <-chan Event { return s.events }

func (s *Subscriber) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.events)
	})
}

// Subscribe registers a new connection on the given channels.
func (h *Hub) Subscribe(channels ...string) *Subscriber {
	sub := &Subscriber{
		id:       uuid.NewString(),
		hub:      h,
		channels: channels,
		events:   make(chan Event, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range channels {
		members, ok := h.channels[ch]
		if !ok {
			members = make(map[*Subscriber]struct{})
			h.channels[ch] = members
		}
		members[sub] = struct{}{}
	}
	return sub
}

// Publish delivers the event to every subscriber of the channel. Subscribers
// whose buffer is full are skipped.
func (h *Hub) Publish(channel string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.channels[channel] {
		select {
		case sub.events <- ev:
		default:
			h.logger.Warn().
				Str("channel", channel).
				Str("subscriber_id", sub.id).
				Msg("subscriber buffer full, dropping event")
		}
	}
}

// Subscribers reports how many connections are on a channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) remove(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range sub.channels {
		members := h.channels[ch]
		delete(members, sub)
		if len(members) == 0 {
			delete(h.channels, ch)
		}
	}
}
