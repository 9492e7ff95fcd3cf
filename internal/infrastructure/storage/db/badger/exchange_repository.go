package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const maxUpdateRetries = 5

type exchangeRepositoryImpl struct {
	store *badgerhold.Store
	lock  *sync.Mutex
}

// NewExchangeRepositoryImpl returns a new badger ExchangeRepository
// implementation.
func NewExchangeRepositoryImpl(store *badgerhold.Store) domain.ExchangeRepository {
	return &exchangeRepositoryImpl{store, &sync.Mutex{}}
}

func (r *exchangeRepositoryImpl) AddExchange(
	_ context.Context, exchange *domain.Exchange,
) error {
	if exchange == nil {
		return fmt.Errorf("missing exchange")
	}
	if err := r.store.Insert(exchange.ID, *exchange); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("exchange with id %s already exists", exchange.ID)
		}
		return err
	}
	return nil
}

func (r *exchangeRepositoryImpl) GetExchange(
	_ context.Context, id string,
) (*domain.Exchange, error) {
	var exchange domain.Exchange
	if err := r.store.Get(id, &exchange); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrExchangeNotFound
		}
		return nil, err
	}
	normalizeExchange(&exchange)
	return &exchange, nil
}

func (r *exchangeRepositoryImpl) GetActiveExchanges(
	_ context.Context, now time.Time, page domain.Page,
) ([]domain.Exchange, int, error) {
	query := badgerhold.Where("Status").In(toInterfaces(domain.ActiveStatuses)...)
	exchanges, err := r.findExchanges(query)
	if err != nil {
		return nil, -1, err
	}

	active := make([]domain.Exchange, 0, len(exchanges))
	for _, e := range exchanges {
		if !e.IsExpiredAt(now) {
			active = append(active, e)
		}
	}

	total := len(active)
	from := page.Offset()
	if from >= total {
		return []domain.Exchange{}, total, nil
	}
	to := from + page.Size
	if to > total {
		to = total
	}
	return active[from:to], total, nil
}

func (r *exchangeRepositoryImpl) GetExchangesForUser(
	_ context.Context, userID string,
) ([]domain.Exchange, error) {
	query := badgerhold.Where("InitiatorID").Eq(userID).
		Or(badgerhold.Where("RecipientID").Eq(userID))
	return r.findExchanges(query)
}

func (r *exchangeRepositoryImpl) GetExchangesToExpire(
	_ context.Context, now time.Time,
) ([]domain.Exchange, error) {
	query := badgerhold.Where("ExpiresAt").Le(now.Unix()).
		And("ExpiresAt").Gt(int64(0))
	exchanges, err := r.findExchanges(query)
	if err != nil {
		return nil, err
	}

	toExpire := make([]domain.Exchange, 0, len(exchanges))
	for _, e := range exchanges {
		if e.IsExpiredAt(now) {
			toExpire = append(toExpire, e)
		}
	}
	return toExpire, nil
}

func (r *exchangeRepositoryImpl) CountExchanges(
	_ context.Context, statuses ...domain.ExchangeStatus,
) (int, error) {
	var query *badgerhold.Query
	if len(statuses) > 0 {
		query = badgerhold.Where("Status").In(toInterfaces(statuses)...)
	}
	exchanges, err := r.findExchanges(query)
	if err != nil {
		return -1, err
	}
	return len(exchanges), nil
}

func (r *exchangeRepositoryImpl) UpdateExchange(
	_ context.Context, id string,
	updateFn func(e *domain.Exchange) (*domain.Exchange, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	var err error
	for i := 0; i < maxUpdateRetries; i++ {
		err = r.store.Badger().Update(func(tx *badger.Txn) error {
			return r.updateExchange(tx, id, updateFn)
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (r *exchangeRepositoryImpl) updateExchange(
	tx *badger.Txn, id string,
	updateFn func(e *domain.Exchange) (*domain.Exchange, error),
) error {
	var exchange domain.Exchange
	if err := r.store.TxGet(tx, id, &exchange); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return domain.ErrExchangeNotFound
		}
		return err
	}
	normalizeExchange(&exchange)

	updatedExchange, err := updateFn(&exchange)
	if err != nil {
		return err
	}
	if updatedExchange.ID != id {
		return fmt.Errorf("exchange id cannot be updated")
	}

	return r.store.TxUpdate(tx, id, *updatedExchange)
}

func (r *exchangeRepositoryImpl) findExchanges(
	query *badgerhold.Query,
) ([]domain.Exchange, error) {
	var exchanges []domain.Exchange
	if err := r.store.Find(&exchanges, query); err != nil {
		return nil, err
	}

	for i := range exchanges {
		normalizeExchange(&exchanges[i])
	}
	sort.SliceStable(exchanges, func(i, j int) bool {
		if exchanges[i].CreatedAt == exchanges[j].CreatedAt {
			return exchanges[i].ID > exchanges[j].ID
		}
		return exchanges[i].CreatedAt > exchanges[j].CreatedAt
	})
	if exchanges == nil {
		exchanges = make([]domain.Exchange, 0)
	}
	return exchanges, nil
}

// normalizeExchange restores the empty slices that the gob encoding does
// not preserve.
func normalizeExchange(e *domain.Exchange) {
	if e.Negotiations == nil {
		e.Negotiations = make([]domain.Negotiation, 0)
	}
}

func toInterfaces(statuses []domain.ExchangeStatus) []interface{} {
	values := make([]interface{}, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, s)
	}
	return values
}
