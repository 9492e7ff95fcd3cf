package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
)

const (
	// HTTPListeningPortKey is the port where the HTTP and websocket interfaces
	// listen on.
	HTTPListeningPortKey = "HTTP_LISTENING_PORT"
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// LogFileKey is the path of an optional log file, rotated once it grows
	// too big.
	LogFileKey = "LOG_FILE"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// RedisAddrKey is the address of the Redis server used as shared cache
	// and event bus. Both are kept in memory if not set.
	RedisAddrKey     = "REDIS_ADDR"
	RedisPasswordKey = "REDIS_PASSWORD"
	RedisDBKey       = "REDIS_DB"
	// JWTSecretKey is the secret used to sign session tokens. A random one is
	// generated at every startup if not set, invalidating previous sessions.
	JWTSecretKey   = "JWT_SECRET"
	TokenExpiryKey = "TOKEN_EXPIRY"
	// ExchangeExpiryKey is the lifetime of a new exchange.
	ExchangeExpiryKey      = "EXCHANGE_EXPIRY"
	ExpirySweepIntervalKey = "EXPIRY_SWEEP_INTERVAL"
	ValuationCacheTTLKey   = "VALUATION_CACHE_TTL"
	PriceCacheTTLKey       = "PRICE_CACHE_TTL"
	// ProviderTimeoutKey bounds every call to an external price provider.
	ProviderTimeoutKey = "PROVIDER_TIMEOUT"
	// ProviderRateLimitKey is the max number of calls per second to each
	// external provider, zero means unlimited.
	ProviderRateLimitKey = "PROVIDER_RATE_LIMIT"
	// QuoteProvidersKey is the ordered, comma separated, list of live quote
	// providers.
	QuoteProvidersKey = "QUOTE_PROVIDERS"
	// EstimateProvidersKey is the ordered, comma separated, list of estimate
	// providers.
	EstimateProvidersKey = "ESTIMATE_PROVIDERS"
	// PriceTiersKey is the ordered, comma separated, list of tiers items are
	// priced through. The global default always comes last.
	PriceTiersKey           = "PRICE_TIERS"
	CoinGeckoAPIKeyKey      = "COINGECKO_API_KEY"
	CoinGeckoURLKey         = "COINGECKO_URL"
	CoinCapAPIKeyKey        = "COINCAP_API_KEY"
	CoinCapURLKey           = "COINCAP_URL"
	BinanceQuotesEnabledKey = "BINANCE_QUOTES_ENABLED"
	BinanceURLKey           = "BINANCE_URL"
	OpenRouterAPIKeyKey     = "OPENROUTER_API_KEY"
	OpenRouterURLKey        = "OPENROUTER_URL"
	OpenRouterModelKey      = "OPENROUTER_MODEL"
	PollinationsEnabledKey  = "POLLINATIONS_ENABLED"
	PollinationsURLKey      = "POLLINATIONS_URL"
	// APIRateLimitKey is the number of requests per minute accepted from the
	// same client ip on the API. Zero disables the limit.
	APIRateLimitKey = "API_RATE_LIMIT"
	// AuthRateLimitKey is the number of requests per 15 minutes accepted from
	// the same client ip on the auth endpoints. Zero disables the limit.
	AuthRateLimitKey = "AUTH_RATE_LIMIT"
	// CORSOriginsKey is the comma separated list of allowed origins.
	CORSOriginsKey = "CORS_ORIGINS"
	// EnableProfilerKey enables profiler that can be used to investigate performance issues
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval for printing basic statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation       = "db"
	LogLocation      = "logs"
	ProfilerLocation = "stats"

	DBBadger   = "badger"
	DBInmemory = "inmemory"

	// APIRateLimitWindow and AuthRateLimitWindow are the windows of the
	// inbound rate limits.
	APIRateLimitWindow  = time.Minute
	AuthRateLimitWindow = 15 * time.Minute

	MinProviderTimeout = 5 * time.Second
	MaxProviderTimeout = 8 * time.Second

	TierLiveQuotes    = "quotes"
	TierKnowledgeBase = "knowledge_base"
	TierEstimates     = "estimates"
	TierCategories    = "categories"
)

var (
	vip            *viper.Viper
	defaultDatadir = btcutil.AppDataDir("barterd", false)

	supportedDBs = map[string]bool{
		DBBadger:   true,
		DBInmemory: true,
	}
	supportedTiers = map[string]bool{
		TierLiveQuotes:    true,
		TierKnowledgeBase: true,
		TierEstimates:     true,
		TierCategories:    true,
	}
)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("BARTER")
	vip.AutomaticEnv()

	vip.SetDefault(HTTPListeningPortKey, 8080)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(RedisDBKey, 0)
	vip.SetDefault(TokenExpiryKey, 7*24*time.Hour)
	vip.SetDefault(ExchangeExpiryKey, 7*24*time.Hour)
	vip.SetDefault(ExpirySweepIntervalKey, time.Minute)
	vip.SetDefault(ValuationCacheTTLKey, 5*time.Minute)
	vip.SetDefault(PriceCacheTTLKey, 10*time.Minute)
	vip.SetDefault(ProviderTimeoutKey, 6*time.Second)
	vip.SetDefault(ProviderRateLimitKey, 0)
	vip.SetDefault(QuoteProvidersKey, "coingecko,coincap,binance")
	vip.SetDefault(EstimateProvidersKey, "openrouter,pollinations")
	vip.SetDefault(PriceTiersKey, strings.Join([]string{
		TierLiveQuotes, TierKnowledgeBase, TierEstimates, TierCategories,
	}, ","))
	vip.SetDefault(BinanceQuotesEnabledKey, false)
	vip.SetDefault(PollinationsEnabledKey, false)
	vip.SetDefault(APIRateLimitKey, 30)
	vip.SetDefault(AuthRateLimitKey, 10)
	vip.SetDefault(CORSOriginsKey, "*")
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

// GetList returns the trimmed, non empty, items of a comma separated value.
func GetList(key string) []string {
	list := make([]string, 0)
	for _, v := range strings.Split(vip.GetString(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, strings.ToLower(v))
		}
	}
	return list
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetHTTPAddress() string {
	return fmt.Sprintf(":%d", GetInt(HTTPListeningPortKey))
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if port := GetInt(HTTPListeningPortKey); port <= 0 || port > 65535 {
		return fmt.Errorf("%s must be a valid port number", HTTPListeningPortKey)
	}

	dbType := strings.ToLower(GetString(DBTypeKey))
	if !supportedDBs[dbType] {
		return fmt.Errorf(
			"%s must be one of %s, %s", DBTypeKey, DBBadger, DBInmemory,
		)
	}

	timeout := GetDuration(ProviderTimeoutKey)
	if timeout < MinProviderTimeout || timeout > MaxProviderTimeout {
		return fmt.Errorf(
			"%s must be in range [%s, %s]",
			ProviderTimeoutKey, MinProviderTimeout, MaxProviderTimeout,
		)
	}

	tiers := GetList(PriceTiersKey)
	if len(tiers) <= 0 {
		return fmt.Errorf("%s must not be empty", PriceTiersKey)
	}
	seen := make(map[string]bool)
	for _, tier := range tiers {
		if !supportedTiers[tier] {
			return fmt.Errorf("%s: unknown tier %s", PriceTiersKey, tier)
		}
		if seen[tier] {
			return fmt.Errorf("%s: duplicated tier %s", PriceTiersKey, tier)
		}
		seen[tier] = true
	}

	for _, key := range []string{
		TokenExpiryKey, ExchangeExpiryKey, ExpirySweepIntervalKey,
		ValuationCacheTTLKey, PriceCacheTTLKey,
	} {
		if GetDuration(key) <= 0 {
			return fmt.Errorf("%s must be a positive duration", key)
		}
	}

	for _, key := range []string{
		ProviderRateLimitKey, APIRateLimitKey, AuthRateLimitKey,
	} {
		if GetInt(key) < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if strings.ToLower(GetString(DBTypeKey)) == DBBadger {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
			return err
		}
	}

	profilerEnabled := GetBool(EnableProfilerKey)
	if profilerEnabled {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
