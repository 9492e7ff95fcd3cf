package knowledgebase

import (
	"context"
	"strings"

	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
)

// Lookup returns the profile of the first knowledge base entry whose key is
// contained in the given item name, matched case insensitively.
func Lookup(item string) (*domain.PricedItem, bool) {
	normalized := domain.NormalizeItemName(item)
	if normalized == "" {
		return nil, false
	}
	for _, e := range entries {
		if strings.Contains(normalized, e.key) {
			return e.toPricedItem(item, domain.SourceKnowledgeBase), true
		}
	}
	return nil, false
}

// LookupCategory returns the default profile of the first category rule
// having a pattern contained in the given item name.
func LookupCategory(item string) (*domain.PricedItem, bool) {
	normalized := domain.NormalizeItemName(item)
	if normalized == "" {
		return nil, false
	}
	for _, rule := range categoryRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(normalized, pattern) {
				return rule.toPricedItem(item, domain.SourceDefault), true
			}
		}
	}
	return nil, false
}

// Keys returns the knowledge base keys in matching order.
func Keys() []string {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.key)
	}
	return keys
}

func (e entry) toPricedItem(name string, source domain.SourceKind) *domain.PricedItem {
	return &domain.PricedItem{
		Name:        strings.TrimSpace(name),
		Key:         e.key,
		UnitValue:   e.value,
		Scarcity:    e.scarcity,
		Utility:     e.utility,
		Sentiment:   domain.DefaultSentiment,
		Description: e.description,
		Category:    e.category,
		Source:      source,
	}
}

type knowledgeBase struct{}

// NewSource returns the knowledge base as a tier of the pricing waterfall.
func NewSource() ports.PriceSource {
	return knowledgeBase{}
}

func (knowledgeBase) Kind() domain.SourceKind {
	return domain.SourceKnowledgeBase
}

func (knowledgeBase) PriceItem(_ context.Context, item string) (*domain.PricedItem, bool) {
	return Lookup(item)
}

type categoryDefaults struct{}

// NewCategorySource returns the keyword based category defaults as a tier
// of the pricing waterfall.
func NewCategorySource() ports.PriceSource {
	return categoryDefaults{}
}

func (categoryDefaults) Kind() domain.SourceKind {
	return domain.SourceDefault
}

func (categoryDefaults) PriceItem(_ context.Context, item string) (*domain.PricedItem, bool) {
	return LookupCategory(item)
}
