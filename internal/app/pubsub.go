package app

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"busline/internal/interfaces/events"
)

// newPubSub picks the messaging backend. With a Redis client we publish to
// Redis streams and give every processor handler its own consumer group.
// Without one (single-process deployments and tests) a shared gochannel
// instance carries both sides; it must be the same instance or subscribers
// would never see the published messages.
func newPubSub(rdb *redis.Client, logger watermill.LoggerAdapter) (message.Publisher, events.SubscriberConstructor, error) {
	if rdb == nil {
		ch := gochannel.NewGoChannel(gochannel.Config{}, logger)
		return ch, func(string) (message.Subscriber, error) {
			return ch, nil
		}, nil
	}

	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: rdb,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	return publisher, func(handlerName string) (message.Subscriber, error) {
		return redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        rdb,
			ConsumerGroup: "svc-busline." + handlerName,
		}, logger)
	}, nil
}
