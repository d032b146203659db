package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

// SubscriberConstructor builds the subscriber for one handler. The Redis
// stream backend gives every handler its own consumer group; the in-process
// gochannel backend returns the shared pub/sub instance.
type SubscriberConstructor func(handlerName string) (message.Subscriber, error)

// NewEventProcessor builds the cqrs processor that feeds handlers from the
// per-type topics NewEventBus publishes to.
func NewEventProcessor(
	router *message.Router,
	newSubscriber SubscriberConstructor,
	logger watermill.LoggerAdapter,
) (*cqrs.EventProcessor, error) {
	return cqrs.NewEventProcessorWithConfig(router, cqrs.EventProcessorConfig{
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return eventTopic(params.EventName), nil
		},
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return newSubscriber(params.HandlerName)
		},
		Marshaler: marshaler(),
		Logger:    logger,
	})
}
