package inmemory

import (
	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
)

type repoManager struct {
	exchangeRepository     domain.ExchangeRepository
	userRepository         domain.UserRepository
	tradeHistoryRepository domain.TradeHistoryRepository
}

func NewRepoManager() ports.RepoManager {
	return &repoManager{
		exchangeRepository:     NewExchangeRepositoryImpl(),
		userRepository:         NewUserRepositoryImpl(),
		tradeHistoryRepository: NewTradeHistoryRepositoryImpl(),
	}
}

func (r *repoManager) ExchangeRepository() domain.ExchangeRepository {
	return r.exchangeRepository
}

func (r *repoManager) UserRepository() domain.UserRepository {
	return r.userRepository
}

func (r *repoManager) TradeHistoryRepository() domain.TradeHistoryRepository {
	return r.tradeHistoryRepository
}

func (r *repoManager) Close() {}
