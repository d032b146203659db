package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Every event type gets its own topic under this prefix, named after the
// event struct. The bus and the processor must derive topics identically or
// handlers silently subscribe to nothing.
const topicPrefix = "busline.events."

func eventTopic(eventName string) string {
	return topicPrefix + eventName
}

func marshaler() cqrs.JSONMarshaler {
	return cqrs.JSONMarshaler{GenerateName: cqrs.StructName}
}

// NewEventBus wraps the publisher in a cqrs bus that routes each event to
// its per-type topic.
func NewEventBus(pub message.Publisher, logger watermill.LoggerAdapter) (*cqrs.EventBus, error) {
	return cqrs.NewEventBusWithConfig(pub, cqrs.EventBusConfig{
		GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
			return eventTopic(params.EventName), nil
		},
		Marshaler: marshaler(),
		Logger:    logger,
	})
}
