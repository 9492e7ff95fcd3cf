package db_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	dbbadger "github.com/tdex-network/barter-daemon/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/storage/db/inmemory"
)

type repoManager struct {
	name string
	ports.RepoManager
}

func createRepoManagers(t *testing.T) []repoManager {
	badgerRepoManager, err := dbbadger.NewRepoManager(t.TempDir(), nil)
	require.NoError(t, err)

	inMemoryBadgerRepoManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		badgerRepoManager.Close()
		inMemoryBadgerRepoManager.Close()
	})

	return []repoManager{
		{"inmemory", inmemory.NewRepoManager()},
		{"badger", badgerRepoManager},
		{"badger_inmemory", inMemoryBadgerRepoManager},
	}
}

func makeExchange(
	t *testing.T, initiatorID, recipientID string, createdAt time.Time,
) *domain.Exchange {
	exchange, err := domain.NewExchange(
		initiatorID, recipientID,
		domain.Leg{Item: "bitcoin", Amount: 1, EstimatedValue: 65000},
		domain.Leg{Item: "pizza", Amount: 4333.33, EstimatedValue: 64999.95},
		domain.ValuationResult{ExchangeAmount: 4333.33, Confidence: 95, Fairness: 40},
		domain.DefaultExchangeExpiry,
	)
	require.NoError(t, err)

	exchange.CreatedAt = createdAt.Unix()
	exchange.UpdatedAt = createdAt.Unix()
	exchange.ExpiresAt = createdAt.Add(domain.DefaultExchangeExpiry).Unix()
	return exchange
}

func makeUser(t *testing.T, username string, valueTraded float64) *domain.User {
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Stats: domain.UserStats{
			Reputation:       domain.InitialReputation,
			TotalValueTraded: valueTraded,
		},
		Inventory: make([]domain.InventoryItem, 0),
		CreatedAt: time.Now().Unix(),
	}
	return user
}
