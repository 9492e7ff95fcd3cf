package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
)

// DefaultChannelPrefix namespaces the redis channels used by the bus.
const DefaultChannelPrefix = "barterd:events:"

type redisBus struct {
	client redis.UniversalClient
	prefix string
	pubsub *redis.PubSub
	local  ports.EventBus

	closeOnce *sync.Once
	done      chan struct{}
}

// NewRedisEventBus returns a ports.EventBus sharing events across every
// daemon connected to the same Redis. Events are published on a channel per
// topic, and the bus dispatches the ones received to its local subscribers.
func NewRedisEventBus(
	ctx context.Context, client redis.UniversalClient, prefix string,
) (ports.EventBus, error) {
	if client == nil {
		return nil, fmt.Errorf("missing redis client")
	}
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}

	pubsub := client.PSubscribe(ctx, prefix+"*")
	// Wait for confirmation that subscription is created before publishing
	// anything.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to redis channels: %w", err)
	}

	b := &redisBus{
		client:    client,
		prefix:    prefix,
		pubsub:    pubsub,
		local:     NewLocalEventBus(),
		closeOnce: &sync.Once{},
		done:      make(chan struct{}),
	}
	go b.listen()

	return b, nil
}

func (b *redisBus) Publish(ctx context.Context, event ports.Event) error {
	if event.Topic == "" || event.Topic == ports.AnyTopic {
		return fmt.Errorf("invalid event topic %q", event.Topic)
	}

	buf, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.prefix+event.Topic, buf).Err()
}

func (b *redisBus) Subscribe(
	topic string, handler ports.EventHandler,
) (func(), error) {
	return b.local.Subscribe(topic, handler)
}

func (b *redisBus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.pubsub.Close()
		b.local.Close()
	})
	return err
}

func (b *redisBus) listen() {
	ch := b.pubsub.Channel()
	for {
		select {
		case <-b.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event ports.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.WithError(err).Warn("discarding malformed event from redis")
				continue
			}
			if event.Topic == "" {
				event.Topic = strings.TrimPrefix(msg.Channel, b.prefix)
			}
			if err := b.local.Publish(context.Background(), event); err != nil {
				log.WithError(err).Debug("failed to dispatch event")
			}
		}
	}
}
