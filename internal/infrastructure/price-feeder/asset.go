package pricefeeder

import (
	"strings"
	"unicode"
)

// Asset is a crypto asset priced by the live quote providers.
type Asset struct {
	ID          string
	Symbol      string
	CoinCapID   string
	Aliases     []string
	Scarcity    int
	Utility     int
	Description string
}

func (a Asset) GetID() string        { return a.ID }
func (a Asset) GetSymbol() string    { return a.Symbol }
func (a Asset) GetCoinCapID() string { return a.CoinCapID }

// assets are matched in order against the tokens of an item name.
var assets = []Asset{
	{
		ID: "bitcoin", Symbol: "BTC", CoinCapID: "bitcoin",
		Aliases:  []string{"btc", "xbt", "bitcoin", "bitcoins"},
		Scarcity: 95, Utility: 60, Description: "digital store of value",
	},
	{
		ID: "ethereum", Symbol: "ETH", CoinCapID: "ethereum",
		Aliases:  []string{"eth", "ether", "ethereum"},
		Scarcity: 85, Utility: 80, Description: "smart contract platform",
	},
	{
		ID: "solana", Symbol: "SOL", CoinCapID: "solana",
		Aliases:  []string{"sol", "solana"},
		Scarcity: 70, Utility: 75, Description: "high throughput blockchain",
	},
	{
		ID: "dogecoin", Symbol: "DOGE", CoinCapID: "dogecoin",
		Aliases:  []string{"doge", "dogecoin"},
		Scarcity: 40, Utility: 40, Description: "meme cryptocurrency",
	},
	{
		ID: "litecoin", Symbol: "LTC", CoinCapID: "litecoin",
		Aliases:  []string{"ltc", "litecoin"},
		Scarcity: 70, Utility: 55, Description: "peer to peer cryptocurrency",
	},
	{
		ID: "ripple", Symbol: "XRP", CoinCapID: "xrp",
		Aliases:  []string{"xrp", "ripple"},
		Scarcity: 60, Utility: 65, Description: "payment settlement network",
	},
	{
		ID: "cardano", Symbol: "ADA", CoinCapID: "cardano",
		Aliases:  []string{"ada", "cardano"},
		Scarcity: 65, Utility: 65, Description: "proof of stake blockchain",
	},
	{
		ID: "tether", Symbol: "USDT", CoinCapID: "tether",
		Aliases:  []string{"usdt", "tether"},
		Scarcity: 10, Utility: 85, Description: "dollar pegged stablecoin",
	},
}

// MatchAsset returns the first known asset having an alias equal to one of
// the words of the given item name.
func MatchAsset(item string) (Asset, bool) {
	tokens := tokenize(item)
	if len(tokens) <= 0 {
		return Asset{}, false
	}

	for _, asset := range assets {
		for _, alias := range asset.Aliases {
			if _, ok := tokens[alias]; ok {
				return asset, true
			}
		}
	}
	return Asset{}, false
}

func tokenize(item string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(item), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make(map[string]struct{}, len(words))
	for _, w := range words {
		tokens[w] = struct{}{}
	}
	return tokens
}
