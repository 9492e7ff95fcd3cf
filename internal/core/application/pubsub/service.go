package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/pkg/stats"
)

const (
	EventExchangeCreated   = "EXCHANGE_CREATED"
	EventExchangeCompleted = "EXCHANGE_COMPLETED"
	EventNegotiationAdded  = "NEGOTIATION_ADDED"
	EventExchangeCancelled = "EXCHANGE_CANCELLED"
	EventUserPresence      = "USER_PRESENCE"
	EventTypingIndicator   = "TYPING_INDICATOR"

	// FeedTopic is joined by every connected client.
	FeedTopic = "feed"

	userTopicPrefix     = "user:"
	exchangeTopicPrefix = "exchange:"
)

// UserTopic returns the private topic of the given user.
func UserTopic(userID string) string {
	return userTopicPrefix + userID
}

// ExchangeTopic returns the topic of the given exchange.
func ExchangeTopic(exchangeID string) string {
	return exchangeTopicPrefix + exchangeID
}

// Service turns barter lifecycle changes into typed events published to
// the relevant topics of the event bus.
type Service struct {
	bus ports.EventBus
	now func() time.Time
}

func NewService(bus ports.EventBus) (*Service, error) {
	if bus == nil {
		return nil, fmt.Errorf("missing event bus")
	}
	return &Service{bus, time.Now}, nil
}

// EventBus returns the underlying bus, used by the transport layer to
// subscribe.
func (s *Service) EventBus() ports.EventBus {
	return s.bus
}

func (s *Service) PublishExchangeCreated(
	ctx context.Context, exchange domain.Exchange,
) error {
	topics := []string{FeedTopic, UserTopic(exchange.InitiatorID)}
	if exchange.RecipientID != "" {
		topics = append(topics, UserTopic(exchange.RecipientID))
	}
	return s.publish(ctx, EventExchangeCreated, exchange, topics...)
}

func (s *Service) PublishExchangeCompleted(
	ctx context.Context, exchange domain.Exchange, settlement domain.TradeHistory,
) error {
	payload := map[string]interface{}{
		"exchange":   exchange,
		"settlement": settlement,
	}
	return s.publish(
		ctx, EventExchangeCompleted, payload,
		FeedTopic, ExchangeTopic(exchange.ID),
		UserTopic(exchange.InitiatorID), UserTopic(exchange.RecipientID),
	)
}

// PublishNegotiationAdded notifies the exchange topic and every participant
// other than the author of the entry.
func (s *Service) PublishNegotiationAdded(
	ctx context.Context, exchange domain.Exchange, entry domain.Negotiation,
) error {
	payload := map[string]interface{}{
		"exchangeId":  exchange.ID,
		"negotiation": entry,
	}
	topics := []string{ExchangeTopic(exchange.ID)}
	for _, userID := range []string{exchange.InitiatorID, exchange.RecipientID} {
		if userID != "" && userID != entry.UserID {
			topics = append(topics, UserTopic(userID))
		}
	}
	return s.publish(ctx, EventNegotiationAdded, payload, topics...)
}

func (s *Service) PublishExchangeCancelled(
	ctx context.Context, exchange domain.Exchange,
) error {
	payload := map[string]string{"exchangeId": exchange.ID}
	topics := []string{FeedTopic, ExchangeTopic(exchange.ID)}
	if exchange.RecipientID != "" {
		topics = append(topics, UserTopic(exchange.RecipientID))
	}
	return s.publish(ctx, EventExchangeCancelled, payload, topics...)
}

func (s *Service) PublishUserPresence(
	ctx context.Context, userID string, online bool,
) error {
	payload := map[string]interface{}{
		"userId": userID,
		"online": online,
	}
	return s.publish(ctx, EventUserPresence, payload, FeedTopic)
}

func (s *Service) PublishTyping(
	ctx context.Context, exchangeID, userID string,
) error {
	payload := map[string]string{
		"exchangeId": exchangeID,
		"userId":     userID,
	}
	return s.publish(ctx, EventTypingIndicator, payload, ExchangeTopic(exchangeID))
}

func (s *Service) Close() error {
	return s.bus.Close()
}

// publish sends one event per topic and keeps going on failure, so that a
// topic is never starved because of another one.
func (s *Service) publish(
	ctx context.Context, eventType string, payload interface{}, topics ...string,
) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}

	timestamp := s.now().Unix()
	errs := make([]error, 0)
	for _, topic := range topics {
		event := ports.Event{
			Type:      eventType,
			Topic:     topic,
			Payload:   buf,
			Timestamp: timestamp,
		}
		if err := s.bus.Publish(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", topic, err))
			continue
		}
		stats.EventsPublished.WithLabelValues(eventType).Inc()
	}
	return errors.Join(errs...)
}
