package ports

import (
	"github.com/tdex-network/barter-daemon/internal/core/domain"
)

// RepoManager interface defines the methods to access the repositories of
// every domain entity.
type RepoManager interface {
	ExchangeRepository() domain.ExchangeRepository
	UserRepository() domain.UserRepository
	TradeHistoryRepository() domain.TradeHistoryRepository

	Close()
}
