package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/thanhpk/randstr"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tdex-network/barter-daemon/internal/config"
	"github.com/tdex-network/barter-daemon/internal/core/application/exchange"
	"github.com/tdex-network/barter-daemon/internal/core/application/pubsub"
	"github.com/tdex-network/barter-daemon/internal/core/application/user"
	"github.com/tdex-network/barter-daemon/internal/core/application/valuation"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/auth"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/cache"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/estimator"
	knowledgebase "github.com/tdex-network/barter-daemon/internal/infrastructure/knowledge-base"
	pricefeeder "github.com/tdex-network/barter-daemon/internal/infrastructure/price-feeder"
	eventbus "github.com/tdex-network/barter-daemon/internal/infrastructure/pubsub"
	dbbadger "github.com/tdex-network/barter-daemon/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/storage/db/inmemory"
	"github.com/tdex-network/barter-daemon/internal/interfaces"
	httpinterface "github.com/tdex-network/barter-daemon/internal/interfaces/http"
	"github.com/tdex-network/barter-daemon/internal/interfaces/ws"
	"github.com/tdex-network/barter-daemon/pkg/stats"
)

// version is set at build time.
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("error loading .env file")
	}

	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
	if logFile := config.GetString(config.LogFileKey); logFile != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename: logFile,
			MaxSize:  100,
			MaxAge:   28,
			Compress: true,
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.GetBool(config.EnableProfilerKey) {
		interval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
		stats.EnableMemoryStatistics(
			ctx, interval, filepath.Join(config.GetDatadir(), config.ProfilerLocation),
		)
	}

	repoManager, err := newRepoManager()
	if err != nil {
		log.WithError(err).Fatal("failed to open storage")
	}
	defer repoManager.Close()

	var redisClient redis.UniversalClient
	if addr := config.GetString(config.RedisAddrKey); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.GetString(config.RedisPasswordKey),
			DB:       config.GetInt(config.RedisDBKey),
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		log.Infof("using redis at %s for cache and events", addr)
	}

	backend, err := newCache(redisClient)
	if err != nil {
		log.WithError(err).Fatal("failed to init cache")
	}
	bus, err := newEventBus(ctx, redisClient)
	if err != nil {
		log.WithError(err).Fatal("failed to init event bus")
	}

	sources, err := newPriceSources(backend)
	if err != nil {
		log.WithError(err).Fatal("failed to init price sources")
	}

	valuationSvc, err := valuation.NewService(
		cache.WithNamespace(backend, "valuation"),
		config.GetDuration(config.ValuationCacheTTLKey),
		sources,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init valuation service")
	}

	pubsubSvc, err := pubsub.NewService(bus)
	if err != nil {
		log.WithError(err).Fatal("failed to init pubsub service")
	}

	exchangeSvc, err := exchange.NewService(
		repoManager, valuationSvc, pubsubSvc,
		config.GetDuration(config.ExchangeExpiryKey),
		config.GetDuration(config.ExpirySweepIntervalKey),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init exchange service")
	}

	secret := config.GetString(config.JWTSecretKey)
	if secret == "" {
		secret = randstr.Hex(32)
		log.Warnf(
			"%s not set, using a random secret. Sessions won't survive a restart",
			config.JWTSecretKey,
		)
	}
	tokenManager, err := auth.NewTokenManager(
		secret, config.GetDuration(config.TokenExpiryKey),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init token manager")
	}

	userSvc, err := user.NewService(repoManager, valuationSvc, tokenManager)
	if err != nil {
		log.WithError(err).Fatal("failed to init user service")
	}

	corsOrigins := config.GetList(config.CORSOriginsKey)
	hub, err := ws.NewHub(pubsubSvc, userSvc, corsOrigins)
	if err != nil {
		log.WithError(err).Fatal("failed to init websocket hub")
	}

	router, err := httpinterface.NewRouter(httpinterface.RouterOpts{
		ValuationSvc: valuationSvc,
		ExchangeSvc:  exchangeSvc,
		UserSvc:      userSvc,
		WSHandler:    hub,
		Version:      version,
		APIRateLimit: httpinterface.RateLimit{
			Requests: config.GetInt(config.APIRateLimitKey),
			Window:   config.APIRateLimitWindow,
		},
		AuthRateLimit: httpinterface.RateLimit{
			Requests: config.GetInt(config.AuthRateLimitKey),
			Window:   config.AuthRateLimitWindow,
		},
		CORSOrigins: corsOrigins,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to init http router")
	}

	svc, err := interfaces.NewService(interfaces.ServiceOpts{
		Address: config.GetHTTPAddress(),
		Handler: router,
		Closers: []io.Closer{hub, pubsubSvc},
	})
	if err != nil {
		log.WithError(err).Fatal("failed to init http interface")
	}

	log.Infof("barterd %s starting", version)

	exchangeSvc.Start()
	if err := svc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start http interface")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down")
	svc.Stop()
	exchangeSvc.Stop()
	log.Debug("exiting")
}

func newRepoManager() (ports.RepoManager, error) {
	switch config.GetString(config.DBTypeKey) {
	case config.DBInmemory:
		log.Warn("using in-memory storage, state is lost on restart")
		return inmemory.NewRepoManager(), nil
	default:
		dbDir := filepath.Join(config.GetDatadir(), config.DbLocation)
		return dbbadger.NewRepoManager(dbDir, nil)
	}
}

func newCache(client redis.UniversalClient) (ports.Cache, error) {
	if client == nil {
		return cache.NewInmemoryCache(), nil
	}
	return cache.NewRedisCache(client)
}

func newEventBus(
	ctx context.Context, client redis.UniversalClient,
) (ports.EventBus, error) {
	if client == nil {
		return eventbus.NewLocalEventBus(), nil
	}
	return eventbus.NewRedisEventBus(ctx, client, "")
}

// newPriceSources returns the lookup waterfall in the configured tier order,
// by default live quotes, knowledge base, estimates and category defaults.
func newPriceSources(backend ports.Cache) ([]ports.PriceSource, error) {
	timeout := config.GetDuration(config.ProviderTimeoutKey)
	cacheTTL := config.GetDuration(config.PriceCacheTTLKey)
	rateLimit := config.GetInt(config.ProviderRateLimitKey)

	quoteProviders := make([]ports.QuoteProvider, 0)
	for _, name := range config.GetList(config.QuoteProvidersKey) {
		switch name {
		case pricefeeder.CoinGecko:
			apiKey := config.GetString(config.CoinGeckoAPIKeyKey)
			if apiKey == "" {
				log.Infof("%s not set, skipping %s quotes", config.CoinGeckoAPIKeyKey, name)
				continue
			}
			quoteProviders = append(quoteProviders, pricefeeder.NewCoinGecko(
				config.GetString(config.CoinGeckoURLKey), apiKey, timeout,
			))
		case pricefeeder.CoinCap:
			apiKey := config.GetString(config.CoinCapAPIKeyKey)
			if apiKey == "" {
				log.Infof("%s not set, skipping %s quotes", config.CoinCapAPIKeyKey, name)
				continue
			}
			quoteProviders = append(quoteProviders, pricefeeder.NewCoinCap(
				config.GetString(config.CoinCapURLKey), apiKey, timeout,
			))
		case pricefeeder.Binance:
			if !config.GetBool(config.BinanceQuotesEnabledKey) {
				log.Infof("%s disabled, skipping %s quotes", config.BinanceQuotesEnabledKey, name)
				continue
			}
			quoteProviders = append(quoteProviders, pricefeeder.NewBinance(
				config.GetString(config.BinanceURLKey), timeout,
			))
		default:
			return nil, fmt.Errorf("unknown quote provider %s", name)
		}
	}

	estimateProviders := make([]ports.EstimateProvider, 0)
	for _, name := range config.GetList(config.EstimateProvidersKey) {
		switch name {
		case estimator.OpenRouter:
			apiKey := config.GetString(config.OpenRouterAPIKeyKey)
			if apiKey == "" {
				log.Infof("%s not set, skipping %s estimates", config.OpenRouterAPIKeyKey, name)
				continue
			}
			estimateProviders = append(estimateProviders, estimator.NewOpenRouter(
				config.GetString(config.OpenRouterURLKey), apiKey,
				config.GetString(config.OpenRouterModelKey), timeout,
			))
		case estimator.Pollinations:
			if !config.GetBool(config.PollinationsEnabledKey) {
				log.Infof("%s disabled, skipping %s estimates", config.PollinationsEnabledKey, name)
				continue
			}
			estimateProviders = append(estimateProviders, estimator.NewPollinations(
				config.GetString(config.PollinationsURLKey), timeout,
			))
		default:
			return nil, fmt.Errorf("unknown estimate provider %s", name)
		}
	}

	quoteSvc, err := pricefeeder.NewService(
		cache.WithNamespace(backend, "quotes"), cacheTTL, timeout, rateLimit,
		quoteProviders...,
	)
	if err != nil {
		return nil, err
	}
	estimateSvc, err := estimator.NewService(
		cache.WithNamespace(backend, "estimates"), cacheTTL, timeout, rateLimit,
		estimateProviders...,
	)
	if err != nil {
		return nil, err
	}

	sourcesByTier := map[string]ports.PriceSource{
		config.TierLiveQuotes:    pricefeeder.NewSource(quoteSvc),
		config.TierKnowledgeBase: knowledgebase.NewSource(),
		config.TierEstimates:     estimator.NewSource(estimateSvc),
		config.TierCategories:    knowledgebase.NewCategorySource(),
	}
	tiers := config.GetList(config.PriceTiersKey)
	sources := make([]ports.PriceSource, 0, len(tiers))
	for _, tier := range tiers {
		sources = append(sources, sourcesByTier[tier])
	}
	log.Infof("pricing tiers: %s", strings.Join(tiers, ", "))
	return sources, nil
}
