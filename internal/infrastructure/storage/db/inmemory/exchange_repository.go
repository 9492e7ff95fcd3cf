package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tdex-network/barter-daemon/internal/core/domain"
)

type exchangeRepositoryImpl struct {
	locker    *sync.RWMutex
	exchanges map[string]domain.Exchange
}

// NewExchangeRepositoryImpl returns a new inmemory ExchangeRepository
// implementation.
func NewExchangeRepositoryImpl() domain.ExchangeRepository {
	return &exchangeRepositoryImpl{
		locker:    &sync.RWMutex{},
		exchanges: make(map[string]domain.Exchange),
	}
}

func (r *exchangeRepositoryImpl) AddExchange(
	_ context.Context, exchange *domain.Exchange,
) error {
	if exchange == nil {
		return fmt.Errorf("missing exchange")
	}

	r.locker.Lock()
	defer r.locker.Unlock()

	if _, ok := r.exchanges[exchange.ID]; ok {
		return fmt.Errorf("exchange with id %s already exists", exchange.ID)
	}
	r.exchanges[exchange.ID] = copyExchange(*exchange)
	return nil
}

func (r *exchangeRepositoryImpl) GetExchange(
	_ context.Context, id string,
) (*domain.Exchange, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	exchange, ok := r.exchanges[id]
	if !ok {
		return nil, domain.ErrExchangeNotFound
	}
	e := copyExchange(exchange)
	return &e, nil
}

func (r *exchangeRepositoryImpl) GetActiveExchanges(
	_ context.Context, now time.Time, page domain.Page,
) ([]domain.Exchange, int, error) {
	exchanges := r.filter(func(e domain.Exchange) bool {
		return e.Status.IsActive() && !e.IsExpiredAt(now)
	})

	total := len(exchanges)
	from := page.Offset()
	if from >= total {
		return []domain.Exchange{}, total, nil
	}
	to := from + page.Size
	if to > total {
		to = total
	}
	return exchanges[from:to], total, nil
}

func (r *exchangeRepositoryImpl) GetExchangesForUser(
	_ context.Context, userID string,
) ([]domain.Exchange, error) {
	return r.filter(func(e domain.Exchange) bool {
		return e.IsParticipant(userID)
	}), nil
}

func (r *exchangeRepositoryImpl) GetExchangesToExpire(
	_ context.Context, now time.Time,
) ([]domain.Exchange, error) {
	return r.filter(func(e domain.Exchange) bool {
		return e.IsExpiredAt(now)
	}), nil
}

func (r *exchangeRepositoryImpl) CountExchanges(
	_ context.Context, statuses ...domain.ExchangeStatus,
) (int, error) {
	return len(r.filter(func(e domain.Exchange) bool {
		if len(statuses) <= 0 {
			return true
		}
		for _, s := range statuses {
			if e.Status == s {
				return true
			}
		}
		return false
	})), nil
}

func (r *exchangeRepositoryImpl) UpdateExchange(
	_ context.Context, id string,
	updateFn func(e *domain.Exchange) (*domain.Exchange, error),
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	current, ok := r.exchanges[id]
	if !ok {
		return domain.ErrExchangeNotFound
	}

	exchange := copyExchange(current)
	updatedExchange, err := updateFn(&exchange)
	if err != nil {
		return err
	}
	if updatedExchange.ID != id {
		return fmt.Errorf("exchange id cannot be updated")
	}

	r.exchanges[id] = copyExchange(*updatedExchange)
	return nil
}

func (r *exchangeRepositoryImpl) filter(
	match func(e domain.Exchange) bool,
) []domain.Exchange {
	r.locker.RLock()
	defer r.locker.RUnlock()

	exchanges := make([]domain.Exchange, 0)
	for _, e := range r.exchanges {
		if match(e) {
			exchanges = append(exchanges, copyExchange(e))
		}
	}
	sortByCreationDesc(exchanges)
	return exchanges
}

func sortByCreationDesc(exchanges []domain.Exchange) {
	sort.SliceStable(exchanges, func(i, j int) bool {
		if exchanges[i].CreatedAt == exchanges[j].CreatedAt {
			return exchanges[i].ID > exchanges[j].ID
		}
		return exchanges[i].CreatedAt > exchanges[j].CreatedAt
	})
}

// copyExchange returns a deep copy of the given exchange so that callers
// never share memory with the store.
func copyExchange(e domain.Exchange) domain.Exchange {
	negotiations := make([]domain.Negotiation, len(e.Negotiations))
	for i, n := range e.Negotiations {
		if n.CounterOffer != nil {
			counterOffer := *n.CounterOffer
			n.CounterOffer = &counterOffer
		}
		negotiations[i] = n
	}
	e.Negotiations = negotiations
	return e
}
