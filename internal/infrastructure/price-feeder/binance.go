package pricefeeder

import (
	"context"
	"fmt"
	"strings"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/pkg/util"
)

const (
	Binance = "binance"
	// BinanceURL is the default base url of the Binance spot API.
	BinanceURL = "https://api.binance.com"

	binanceQuoteSymbol = "USDT"
)

type binance struct {
	client *gobinance.Client
}

// NewBinance returns a quote provider for the public Binance ticker API.
// Prices are expressed in USDT, considered equivalent to USD.
func NewBinance(baseURL string, timeout time.Duration) ports.QuoteProvider {
	if baseURL == "" {
		baseURL = BinanceURL
	}
	client := gobinance.NewClient("", "")
	client.BaseURL = strings.TrimSuffix(baseURL, "/")
	client.HTTPClient = util.NewHTTPClient(timeout)
	return &binance{client}
}

func (b *binance) Name() string {
	return Binance
}

func (b *binance) Quote(ctx context.Context, asset ports.Asset) (float64, error) {
	symbol := strings.ToUpper(asset.GetSymbol())
	if symbol == binanceQuoteSymbol {
		return 1, nil
	}

	prices, err := b.client.NewListPricesService().
		Symbol(symbol + binanceQuoteSymbol).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(prices) <= 0 {
		return 0, fmt.Errorf("no price for %s%s", symbol, binanceQuoteSymbol)
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", prices[0].Price, err)
	}
	return price.InexactFloat64(), nil
}
