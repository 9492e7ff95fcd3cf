package pricefeeder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/pkg/util"
)

const (
	CoinCap = "coincap"
	// CoinCapURL is the default base url of the CoinCap API.
	CoinCapURL = "https://rest.coincap.io/v3"
)

type coinCap struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewCoinCap returns a quote provider for the CoinCap assets API.
func NewCoinCap(baseURL, apiKey string, timeout time.Duration) ports.QuoteProvider {
	if baseURL == "" {
		baseURL = CoinCapURL
	}
	return &coinCap{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  util.NewHTTPClient(timeout),
	}
}

func (c *coinCap) Name() string {
	return CoinCap
}

func (c *coinCap) Quote(ctx context.Context, asset ports.Asset) (float64, error) {
	endpoint := fmt.Sprintf(
		"%s/assets/%s?apiKey=%s",
		c.baseURL, url.PathEscape(asset.GetCoinCapID()), url.QueryEscape(c.apiKey),
	)

	var resp struct {
		Data struct {
			PriceUsd string `json:"priceUsd"`
		} `json:"data"`
	}
	if err := util.GetJSON(ctx, c.client, endpoint, nil, &resp); err != nil {
		return 0, err
	}

	price, err := decimal.NewFromString(resp.Data.PriceUsd)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", resp.Data.PriceUsd, err)
	}
	return price.InexactFloat64(), nil
}
