package domain

import (
	"context"
	"time"
)

// ExchangeRepository is the abstraction for any kind of database intended to
// persist Exchanges.
type ExchangeRepository interface {
	// AddExchange stores a new exchange.
	AddExchange(ctx context.Context, exchange *Exchange) error
	// GetExchange returns the exchange with the given id or
	// ErrExchangeNotFound.
	GetExchange(ctx context.Context, id string) (*Exchange, error)
	// GetActiveExchanges returns the requested page of Pending or Negotiating
	// exchanges not yet expired at the given time, most recent first, along
	// with their total count.
	GetActiveExchanges(
		ctx context.Context, now time.Time, page Page,
	) ([]Exchange, int, error)
	// GetExchangesForUser returns all exchanges where the user is either the
	// initiator or the recipient, most recent first.
	GetExchangesForUser(ctx context.Context, userID string) ([]Exchange, error)
	// GetExchangesToExpire returns the non terminal exchanges whose expiration
	// time is passed at the given time.
	GetExchangesToExpire(ctx context.Context, now time.Time) ([]Exchange, error)
	// CountExchanges returns the number of exchanges with any of the given
	// statuses, or all of them if none is given.
	CountExchanges(ctx context.Context, statuses ...ExchangeStatus) (int, error)
	// UpdateExchange allows to commit multiple changes to the same exchange
	// atomically. Concurrent updates of the same exchange are serialized, so
	// that updateFn always sees the latest committed state.
	UpdateExchange(
		ctx context.Context, id string,
		updateFn func(e *Exchange) (*Exchange, error),
	) error
}
