package ports

import (
	"context"
	"encoding/json"
)

// AnyTopic can be used to subscribe to every topic.
const AnyTopic = "*"

// Event is a message published to a topic of the EventBus.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// EventHandler is invoked for every event delivered to a subscription. It
// must not block.
type EventHandler func(event Event)

// EventBus is a best-effort, at-most-once publish-subscribe channel. Events
// are not persisted, subscribers only get those published while subscribed.
type EventBus interface {
	// Publish delivers the event to the subscribers of its topic and to
	// those of AnyTopic.
	Publish(ctx context.Context, event Event) error
	// Subscribe registers the handler for the given topic and returns a
	// function to remove the subscription.
	Subscribe(topic string, handler EventHandler) (func(), error)
	// Close stops delivering events.
	Close() error
}
