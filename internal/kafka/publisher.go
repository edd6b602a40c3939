package kafka

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ariefcatur/go-storefront/internal/events"
	"github.com/segmentio/kafka-go"
)

// EventPublisher routes envelopes to their topic, keyed by order id.
type EventPublisher struct {
	P *Producer
}

func (e EventPublisher) Publish(ctx context.Context, env events.Envelope) error {
	topic := events.TopicFor(env.EventType)
	if topic == "" {
		return fmt.Errorf("kafka: no topic for event %q", env.EventType)
	}
	return e.P.Publish(ctx, kafka.Message{
		Topic: topic,
		Key:   events.PartitionKey(env.CorrelationID),
		Value: MustMarshal(env),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(env.EventType)},
			{Key: "x-event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
		},
	})
}
