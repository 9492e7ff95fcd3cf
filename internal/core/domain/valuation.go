package domain

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	// MaxItemNameLength is the max number of characters accepted for an item.
	MaxItemNameLength = 100
	// MaxAmount bounds the amount of any valuated or traded item.
	MaxAmount = 1e12

	// DefaultUnitValue, DefaultScarcity and DefaultUtility describe the global
	// default tier used when no price source knows anything about an item.
	DefaultUnitValue = 100
	DefaultScarcity  = 40
	DefaultUtility   = 50
	DefaultSentiment = 50
	DefaultCategory  = "item"
)

// SourceKind identifies which tier of the pricing waterfall produced a
// PricedItem.
type SourceKind string

const (
	SourceKnowledgeBase SourceKind = "knowledge_base"
	SourceLiveQuote     SourceKind = "live_quote"
	SourceEstimated     SourceKind = "estimated"
	SourceDefault       SourceKind = "default"
)

// PricedItem is the resolved valuation profile of a single item. It is built
// fresh for every request and must not be mutated afterwards.
type PricedItem struct {
	Name        string     `json:"name"`
	Key         string     `json:"key"`
	UnitValue   float64    `json:"unitValue"`
	Scarcity    int        `json:"scarcity"`
	Utility     int        `json:"utility"`
	Sentiment   int        `json:"sentiment"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Source      SourceKind `json:"source"`
}

// NewDefaultPricedItem returns the global default profile for the given item.
func NewDefaultPricedItem(name string) PricedItem {
	return PricedItem{
		Name:        strings.TrimSpace(name),
		Key:         DefaultCategory,
		UnitValue:   DefaultUnitValue,
		Scarcity:    DefaultScarcity,
		Utility:     DefaultUtility,
		Sentiment:   DefaultSentiment,
		Description: DefaultCategory,
		Category:    DefaultCategory,
		Source:      SourceDefault,
	}
}

// SafeUnitValue returns the unit value, or 1 if it is not a positive finite
// number, so that ratios never divide by zero.
func (p PricedItem) SafeUnitValue() float64 {
	v := p.UnitValue
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1
	}
	return v
}

// Factors summarizes the qualitative dimensions of a valuation.
type Factors struct {
	Utility   int `json:"utility"`
	Scarcity  int `json:"scarcity"`
	Sentiment int `json:"sentiment"`
}

// SourceTags reports which tier priced each side of a valuation.
type SourceTags struct {
	Have SourceKind `json:"have"`
	Want SourceKind `json:"want"`
}

// ItemImages holds illustrative image URLs for both sides of a valuation.
type ItemImages struct {
	Have string `json:"have"`
	Want string `json:"want"`
}

// ValuationResult is the immutable outcome of a valuation request.
type ValuationResult struct {
	ExchangeAmount float64    `json:"exchangeAmount"`
	Confidence     int        `json:"confidence"`
	Fairness       int        `json:"fairness"`
	Rationale      string     `json:"rationale"`
	Factors        Factors    `json:"factors"`
	SourceTags     SourceTags `json:"sourceTags"`
	Have           PricedItem `json:"have"`
	Want           PricedItem `json:"want"`
	Images         ItemImages `json:"images"`
}

// ValidateValuationRequest checks the user provided arguments of a
// valuation request.
func ValidateValuationRequest(haveItem string, haveAmount float64, wantItem string) error {
	if err := ValidateItemName(haveItem); err != nil {
		return err
	}
	if err := ValidateItemName(wantItem); err != nil {
		return err
	}
	if !IsValidAmount(haveAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// IsValidAmount returns whether the given amount is positive and not
// greater than MaxAmount.
func IsValidAmount(amount float64) bool {
	return amount > 0 && amount <= MaxAmount && !math.IsNaN(amount)
}

// ValidateItemName makes sure the given name is not blank nor longer than
// MaxItemNameLength characters.
func ValidateItemName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n <= 0 || n > MaxItemNameLength {
		return ErrInvalidItem
	}
	return nil
}

// NormalizeItemName returns the lower-cased trimmed item name used for
// matching and cache keys.
func NormalizeItemName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
