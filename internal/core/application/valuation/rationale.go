package valuation

import (
	"fmt"

	"github.com/tdex-network/barter-daemon/internal/core/domain"
)

const (
	gapThreshold = 30
)

type categoryPair struct {
	have, want string
}

var categoryTemplates = []struct {
	pair   categoryPair
	format func(have, want domain.PricedItem, amount string) string
}{
	{
		categoryPair{"crypto", "vehicle"},
		func(have, want domain.PricedItem, amount string) string {
			return fmt.Sprintf(
				"Digital scarcity (%s) meets physical utility (%s): %s:1 optimal ratio.",
				have.Name, want.Name, amount,
			)
		},
	},
	{
		categoryPair{"luxury", "tech"},
		func(have, want domain.PricedItem, amount string) string {
			return fmt.Sprintf(
				"Prestige asset (%s) valued against functional tech (%s) at %s:1.",
				have.Name, want.Name, amount,
			)
		},
	},
	{
		categoryPair{"service", "food"},
		func(have, want domain.PricedItem, amount string) string {
			return fmt.Sprintf(
				"%s converts to %s units of %s at fair market rate.",
				have.Description, amount, want.Description,
			)
		},
	},
	{
		categoryPair{"property", "crypto"},
		func(have, want domain.PricedItem, amount string) string {
			return fmt.Sprintf(
				"Physical asset (%s) exchanges for %s units of digital store of value.",
				have.Name, amount,
			)
		},
	},
	{
		categoryPair{"art", "luxury"},
		func(have, want domain.PricedItem, amount string) string {
			return fmt.Sprintf(
				"Cultural value (%s) trades at %s:1 to status symbol (%s).",
				have.Name, amount, want.Name,
			)
		},
	},
}

// rationales returns every sentence whose condition holds for the given
// pair, or the generic ones if none does.
func rationales(have, want domain.PricedItem, amount string) []string {
	sentences := make([]string, 0)

	switch {
	case have.Scarcity > want.Scarcity+gapThreshold:
		sentences = append(sentences, fmt.Sprintf(
			"%s (%d%% scarcity) commands premium over abundant %s (%d%% scarcity).",
			have.Name, have.Scarcity, want.Name, want.Scarcity,
		))
	case want.Scarcity > have.Scarcity+gapThreshold:
		sentences = append(sentences, fmt.Sprintf(
			"%s's %d%% scarcity vs %s's %d%% drives %s:1 ratio.",
			want.Name, want.Scarcity, have.Name, have.Scarcity, amount,
		))
	}

	switch {
	case have.Utility > want.Utility+gapThreshold:
		sentences = append(sentences, fmt.Sprintf(
			"High utility %s (%d%%) vs decorative %s creates %s:1 exchange.",
			have.Description, have.Utility, want.Name, amount,
		))
	case want.Utility > have.Utility+gapThreshold:
		sentences = append(sentences, fmt.Sprintf(
			"Essential %s (%d%% utility) valued %sx over %s.",
			want.Description, want.Utility, amount, have.Description,
		))
	}

	hv, wv := have.SafeUnitValue(), want.SafeUnitValue()
	switch {
	case hv > wv*100:
		sentences = append(sentences, fmt.Sprintf(
			"Massive value gap: premium %s equals %s units of basic %s.",
			have.Description, amount, want.Description,
		))
	case hv > wv*10:
		sentences = append(sentences, fmt.Sprintf(
			"Significant valuation: %s trades at %s:1 to %s.",
			have.Description, amount, want.Description,
		))
	case hv > wv:
		sentences = append(sentences, fmt.Sprintf(
			"Moderate premium: %s worth %sx %s based on market factors.",
			have.Description, amount, want.Description,
		))
	case hv < wv:
		sentences = append(sentences, fmt.Sprintf(
			"%s scarcity commands premium - %s yields only %s units.",
			want.Description, have.Description, amount,
		))
	}

	for _, t := range categoryTemplates {
		if have.Category == t.pair.have && want.Category == t.pair.want {
			sentences = append(sentences, t.format(have, want, amount))
		}
	}

	if len(sentences) > 0 {
		return sentences
	}

	return []string{
		fmt.Sprintf(
			"Multi-factor analysis: %s scarcity %d%% vs %s utility %d%% = %s:1.",
			have.Description, have.Scarcity, want.Description, want.Utility, amount,
		),
		fmt.Sprintf(
			"Market equilibrium: %s %s equal %s based on comparable value.",
			amount, want.Name, have.Name,
		),
		fmt.Sprintf(
			"Neural valuation: %s (%v) / %s (%v) = %s:1 ratio.",
			have.Description, hv, want.Description, wv, amount,
		),
	}
}
