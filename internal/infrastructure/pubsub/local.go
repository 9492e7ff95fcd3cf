package pubsub

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
)

type subscription struct {
	id      string
	topic   string
	handler ports.EventHandler
}

type subscriptions []subscription

type localBus struct {
	lock        *sync.RWMutex
	subsByTopic map[string]map[string]subscription
	closed      bool
}

// NewLocalEventBus returns an in-process ports.EventBus. Handlers are
// invoked synchronously by the publisher.
func NewLocalEventBus() ports.EventBus {
	return &localBus{
		lock:        &sync.RWMutex{},
		subsByTopic: make(map[string]map[string]subscription),
	}
}

func (b *localBus) Publish(_ context.Context, event ports.Event) error {
	if event.Topic == "" {
		return fmt.Errorf("missing event topic")
	}
	if event.Topic == ports.AnyTopic {
		return fmt.Errorf("cannot publish to any topic")
	}

	for _, sub := range b.listSubscriptionsForTopic(event.Topic) {
		sub.handler(event)
	}
	return nil
}

func (b *localBus) Subscribe(
	topic string, handler ports.EventHandler,
) (func(), error) {
	if topic == "" {
		return nil, fmt.Errorf("missing topic")
	}
	if handler == nil {
		return nil, fmt.Errorf("missing handler")
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		return nil, fmt.Errorf("event bus is closed")
	}

	sub := subscription{uuid.New().String(), topic, handler}
	if _, ok := b.subsByTopic[topic]; !ok {
		b.subsByTopic[topic] = make(map[string]subscription)
	}
	b.subsByTopic[topic][sub.id] = sub

	return func() { b.removeSubscription(sub) }, nil
}

func (b *localBus) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.closed = true
	b.subsByTopic = make(map[string]map[string]subscription)
	return nil
}

func (b *localBus) removeSubscription(sub subscription) {
	b.lock.Lock()
	defer b.lock.Unlock()

	subs, ok := b.subsByTopic[sub.topic]
	if !ok {
		return
	}
	delete(subs, sub.id)
	if len(subs) <= 0 {
		delete(b.subsByTopic, sub.topic)
	}
}

// listSubscriptionsForTopic returns the subscriptions of the given topic
// followed by those of AnyTopic.
func (b *localBus) listSubscriptionsForTopic(topic string) subscriptions {
	b.lock.RLock()
	defer b.lock.RUnlock()

	subs := b.getSubscriptionsForTopic(topic)
	if topic != ports.AnyTopic {
		subs = append(subs, b.getSubscriptionsForTopic(ports.AnyTopic)...)
	}
	return subs
}

func (b *localBus) getSubscriptionsForTopic(topic string) subscriptions {
	subsByID := b.subsByTopic[topic]
	subs := make(subscriptions, 0, len(subsByID))
	for _, sub := range subsByID {
		subs = append(subs, sub)
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].id < subs[j].id
	})
	return subs
}
