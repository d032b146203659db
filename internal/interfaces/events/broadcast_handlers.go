package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"busline/internal/broadcast"
	"busline/internal/domain/bookings"
	"busline/internal/domain/tracking"
)

// LocationBroadcastHandler pushes every stored position report to the
// passengers subscribed to that bus's location channel.
func LocationBroadcastHandler(hub *broadcast.Hub) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"location_broadcast_handler",
		func(ctx context.Context, event *tracking.LocationReported) error {
			location := event.Location
			hub.Publish(broadcast.BusLocationChannel(location.BusID), broadcast.Event{
				Type:     broadcast.EventLocationUpdate,
				Location: &location,
			})
			return nil
		},
	)
}

// NewBookingNotifyHandler tells the bus owner's channel about every admitted
// booking.
func NewBookingNotifyHandler(hub *broadcast.Hub) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"new_booking_notify_handler",
		func(ctx context.Context, event *bookings.BookingMade) error {
			hub.Publish(broadcast.BusOwnerChannel(event.BusID), broadcast.Event{
				Type: broadcast.EventNewBooking,
				Booking: &bookings.Booking{
					ID:          event.BookingID,
					UserID:      event.UserID,
					ScheduleID:  event.ScheduleID,
					Seats:       event.Seats,
					TotalPrice:  event.TotalPrice,
					Status:      bookings.StatusConfirmed,
					BookingTime: event.BookedAt,
				},
			})
			return nil
		},
	)
}
