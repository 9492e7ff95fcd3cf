package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/barter-daemon/internal/config"
)

// Config is global, tests in this package must not run in parallel.

func TestInitConfig(t *testing.T) {
	datadir := t.TempDir()
	t.Setenv("BARTER_DATADIR", datadir)
	t.Setenv("BARTER_QUOTE_PROVIDERS", " CoinGecko, ,binance")

	require.NoError(t, config.InitConfig())

	require.Equal(t, ":8080", config.GetHTTPAddress())
	require.Equal(t, config.DBBadger, config.GetString(config.DBTypeKey))
	require.Equal(t, 6*time.Second, config.GetDuration(config.ProviderTimeoutKey))
	require.Equal(t, 7*24*time.Hour, config.GetDuration(config.ExchangeExpiryKey))
	require.Equal(t, 30, config.GetInt(config.APIRateLimitKey))
	require.False(t, config.GetBool(config.PollinationsEnabledKey))
	require.Equal(t, []string{"coingecko", "binance"}, config.GetList(config.QuoteProvidersKey))
	require.Equal(t, []string{"openrouter", "pollinations"}, config.GetList(config.EstimateProvidersKey))
	require.Equal(t, []string{
		config.TierLiveQuotes, config.TierKnowledgeBase,
		config.TierEstimates, config.TierCategories,
	}, config.GetList(config.PriceTiersKey))

	info, err := os.Stat(filepath.Join(datadir, config.DbLocation))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestPriceTiersOrder(t *testing.T) {
	t.Setenv("BARTER_DATADIR", t.TempDir())
	t.Setenv("BARTER_PRICE_TIERS", "Knowledge_Base, categories")

	require.NoError(t, config.InitConfig())
	require.Equal(t, []string{
		config.TierKnowledgeBase, config.TierCategories,
	}, config.GetList(config.PriceTiersKey))
}

func TestFailingInitConfig(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"short_provider_timeout", "BARTER_PROVIDER_TIMEOUT", "4s"},
		{"long_provider_timeout", "BARTER_PROVIDER_TIMEOUT", "9s"},
		{"unknown_db_type", "BARTER_DB_TYPE", "postgres"},
		{"invalid_port", "BARTER_HTTP_LISTENING_PORT", "70000"},
		{"negative_rate_limit", "BARTER_API_RATE_LIMIT", "-1"},
		{"zero_exchange_expiry", "BARTER_EXCHANGE_EXPIRY", "0s"},
		{"unknown_price_tier", "BARTER_PRICE_TIERS", "quotes,oracle"},
		{"duplicated_price_tier", "BARTER_PRICE_TIERS", "quotes,estimates,quotes"},
		{"empty_price_tiers", "BARTER_PRICE_TIERS", " , "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BARTER_DATADIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			require.Error(t, config.InitConfig())
		})
	}
}
