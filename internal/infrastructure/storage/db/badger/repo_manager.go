package dbbadger

import (
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

type repoManager struct {
	exchangeStore *badgerhold.Store
	userStore     *badgerhold.Store

	exchangeRepository     domain.ExchangeRepository
	userRepository         domain.UserRepository
	tradeHistoryRepository domain.TradeHistoryRepository
}

// NewRepoManager opens (or creates if not exists) the badger stores on disk.
// It expects a base data dir and an optional logger. If the data dir is
// empty, the stores are kept in memory.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var exchangeDir, userDir string
	if len(baseDbDir) > 0 {
		exchangeDir = filepath.Join(baseDbDir, "exchanges")
		userDir = filepath.Join(baseDbDir, "users")
	}

	exchangeStore, err := createDb(exchangeDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening exchange db: %w", err)
	}

	userStore, err := createDb(userDir, logger)
	if err != nil {
		exchangeStore.Close()
		return nil, fmt.Errorf("opening user db: %w", err)
	}

	return &repoManager{
		exchangeStore:          exchangeStore,
		userStore:              userStore,
		exchangeRepository:     NewExchangeRepositoryImpl(exchangeStore),
		userRepository:         NewUserRepositoryImpl(userStore),
		tradeHistoryRepository: NewTradeHistoryRepositoryImpl(exchangeStore),
	}, nil
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

func (r *repoManager) Close() {
	if err := r.exchangeStore.Close(); err != nil {
		log.WithError(err).Warn("failed to close exchange db")
	}
	if err := r.userStore.Close(); err != nil {
		log.WithError(err).Warn("failed to close user db")
	}
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
