package pricefeeder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/pkg/util"
)

const (
	CoinGecko = "coingecko"
	// CoinGeckoURL is the default base url of the CoinGecko API.
	CoinGeckoURL = "https://api.coingecko.com/api/v3"
)

type coinGecko struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewCoinGecko returns a quote provider for the CoinGecko simple price API.
func NewCoinGecko(baseURL, apiKey string, timeout time.Duration) ports.QuoteProvider {
	if baseURL == "" {
		baseURL = CoinGeckoURL
	}
	return &coinGecko{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  util.NewHTTPClient(timeout),
	}
}

func (c *coinGecko) Name() string {
	return CoinGecko
}

func (c *coinGecko) Quote(ctx context.Context, asset ports.Asset) (float64, error) {
	endpoint := fmt.Sprintf(
		"%s/simple/price?ids=%s&vs_currencies=usd",
		c.baseURL, url.QueryEscape(asset.GetID()),
	)
	header := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		header["x-cg-demo-api-key"] = c.apiKey
	}

	resp := make(map[string]map[string]float64)
	if err := util.GetJSON(ctx, c.client, endpoint, header, &resp); err != nil {
		return 0, err
	}

	price, ok := resp[asset.GetID()]["usd"]
	if !ok {
		return 0, fmt.Errorf("price not found for asset %s", asset.GetID())
	}
	return price, nil
}
