package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tdex-network/barter-daemon/internal/core/domain"
)

type tradeHistoryRepositoryImpl struct {
	locker *sync.RWMutex
	trades map[string]domain.TradeHistory
}

// NewTradeHistoryRepositoryImpl returns a new inmemory
// TradeHistoryRepository implementation.
func NewTradeHistoryRepositoryImpl() domain.TradeHistoryRepository {
	return &tradeHistoryRepositoryImpl{
		locker: &sync.RWMutex{},
		trades: make(map[string]domain.TradeHistory),
	}
}

func (r *tradeHistoryRepositoryImpl) AddTrade(
	_ context.Context, trade *domain.TradeHistory,
) error {
	if trade == nil {
		return fmt.Errorf("missing trade")
	}

	r.locker.Lock()
	defer r.locker.Unlock()

	if _, ok := r.trades[trade.ID]; ok {
		return fmt.Errorf("trade with id %s already exists", trade.ID)
	}
	r.trades[trade.ID] = *trade
	return nil
}

func (r *tradeHistoryRepositoryImpl) GetTradesForUser(
	_ context.Context, userID string,
) ([]domain.TradeHistory, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	trades := make([]domain.TradeHistory, 0)
	for _, t := range r.trades {
		if t.InitiatorID == userID || t.RecipientID == userID {
			trades = append(trades, t)
		}
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
	r.locker.RLock()
	defer r.locker.RUnlock()

	return len(r.trades), nil
}
