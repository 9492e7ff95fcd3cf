package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type tradeHistoryRepositoryImpl struct {
	store *badgerhold.Store
}

// NewTradeHistoryRepositoryImpl returns a new badger TradeHistoryRepository
// implementation.
func NewTradeHistoryRepositoryImpl(
	store *badgerhold.Store,
) domain.TradeHistoryRepository {
	return &tradeHistoryRepositoryImpl{store}
}

func (r *tradeHistoryRepositoryImpl) AddTrade(
	_ context.Context, trade *domain.TradeHistory,
) error {
	if trade == nil {
		return fmt.Errorf("missing trade")
	}
	if err := r.store.Insert(trade.ID, *trade); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("trade with id %s already exists", trade.ID)
		}
		return err
	}
	return nil
}

func (r *tradeHistoryRepositoryImpl) GetTradesForUser(
	_ context.Context, userID string,
) ([]domain.TradeHistory, error) {
	query := badgerhold.Where("InitiatorID").Eq(userID).
		Or(badgerhold.Where("RecipientID").Eq(userID))

	var trades []domain.TradeHistory
	if err := r.store.Find(&trades, query); err != nil {
		return nil, err
	}
	if trades == nil {
		trades = make([]domain.TradeHistory, 0)
	}

	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].CompletedAt == trades[j].CompletedAt {
			return trades[i].ID > trades[j].ID
		}
		return trades[i].CompletedAt > trades[j].CompletedAt
	})
	return trades, nil
}

func (r *tradeHistoryRepositoryImpl) CountTrades(_ context.Context) (int, error) {
	var trades []domain.TradeHistory
	if err := r.store.Find(&trades, nil); err != nil {
		return -1, err
	}
	return len(trades), nil
}
