package ports

import (
	"context"

	"github.com/tdex-network/barter-daemon/internal/core/domain"
)

// PriceSource is a tier of the pricing waterfall. Sources are tried in order
// and the first one returning ok wins.
type PriceSource interface {
	// Kind tags the tier the source belongs to.
	Kind() domain.SourceKind
	// PriceItem returns the valuation profile of the given item, or false if
	// the source knows nothing about it. Sources never fail: any error must
	// be logged and reported as a miss.
	PriceItem(ctx context.Context, item string) (*domain.PricedItem, bool)
}

// QuoteProvider is an external service returning the USD spot price of a
// crypto asset.
type QuoteProvider interface {
	Name() string
	Quote(ctx context.Context, asset Asset) (float64, error)
}

// EstimateProvider is an external text-generation backend asked for a rough
// USD price of an arbitrary item. It returns the raw textual answer.
type EstimateProvider interface {
	Name() string
	Estimate(ctx context.Context, item string) (string, error)
}

// Asset identifies a crypto asset across quote providers.
type Asset interface {
	// GetID returns the canonical id of the asset, ie. bitcoin.
	GetID() string
	// GetSymbol returns the ticker of the asset, ie. BTC.
	GetSymbol() string
	// GetCoinCapID returns the id of the asset on CoinCap.
	GetCoinCapID() string
}
