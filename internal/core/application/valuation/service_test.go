package valuation_test

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/barter-daemon/internal/core/application/valuation"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/cache"
	knowledgebase "github.com/tdex-network/barter-daemon/internal/infrastructure/knowledge-base"
)

func newTestService(t *testing.T, opts ...valuation.Option) *valuation.Service {
	svc, err := valuation.NewService(
		cache.NewInmemoryCache(), time.Minute,
		[]ports.PriceSource{
			knowledgebase.NewSource(), knowledgebase.NewCategorySource(),
		},
		opts...,
	)
	require.NoError(t, err)
	return svc
}

func TestValuateKnowledgeBaseFallback(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	result, err := svc.Valuate(context.Background(), "bitcoin", 1, "pizza")
	require.NoError(t, err)
	require.Equal(t, 4333.33, result.ExchangeAmount)
	require.Equal(t, valuation.MinConfidence, result.Confidence)
	require.Equal(t, valuation.MinFairness, result.Fairness)
	require.Equal(t, domain.SourceKnowledgeBase, result.SourceTags.Have)
	require.Equal(t, domain.SourceKnowledgeBase, result.SourceTags.Want)
	require.Equal(t, 65000.0, result.Have.UnitValue)
	require.Equal(t, 15.0, result.Want.UnitValue)
	require.Equal(t, domain.Factors{Utility: 65, Scarcity: 50, Sentiment: 73}, result.Factors)
	require.NotEmpty(t, result.Rationale)
	require.Equal(
		t,
		"https://image.pollinations.ai/prompt/bitcoin?width=512&height=512&nologo=true",
		result.Images.Have,
	)
}

func TestValuateSameItem(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	result, err := svc.Valuate(context.Background(), "chair", 1, "Chair")
	require.NoError(t, err)
	require.Equal(t, 1.0, result.ExchangeAmount)
	require.Equal(t, valuation.MaxFairness, result.Fairness)
}

func TestValuateUnknownItems(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	result, err := svc.Valuate(context.Background(), "zxqv thing", 1, "plumbus")
	require.NoError(t, err)
	require.Equal(t, 1.0, result.ExchangeAmount)
	require.Equal(t, domain.SourceDefault, result.SourceTags.Have)
	require.Equal(t, domain.SourceDefault, result.SourceTags.Want)
	require.Equal(t, float64(domain.DefaultUnitValue), result.Have.UnitValue)
	require.Equal(t, valuation.MaxFairness, result.Fairness)
}

func TestValuateCategoryDefaults(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	result, err := svc.Valuate(context.Background(), "silver necklace", 1, "garden work")
	require.NoError(t, err)
	require.Equal(t, "luxury", result.Have.Category)
	require.Equal(t, "service", result.Want.Category)
	require.Equal(t, domain.SourceDefault, result.SourceTags.Have)
	require.Equal(t, 60.0, result.ExchangeAmount)
}

func TestValuateExchangeAmountFloor(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	result, err := svc.Valuate(context.Background(), "coffee", 0.001, "plane")
	require.NoError(t, err)
	require.Equal(t, valuation.MinExchangeAmount, result.ExchangeAmount)
}

func TestValuateReplay(t *testing.T) {
	t.Parallel()

	calls := 0
	picker := func(n int) int {
		calls++
		return (calls - 1) % n
	}
	svc := newTestService(t, valuation.WithPicker(picker))

	ctx := context.Background()
	first, err := svc.Valuate(ctx, "Rolex", 2, "iPhone")
	require.NoError(t, err)
	second, err := svc.Valuate(ctx, "  rolex ", 2, "IPHONE")
	require.NoError(t, err)

	firstBuf, err := json.Marshal(first)
	require.NoError(t, err)
	secondBuf, err := json.Marshal(second)
	require.NoError(t, err)
	require.Equal(t, firstBuf, secondBuf)
	require.Equal(t, 1, calls)

	third, err := svc.Valuate(ctx, "rolex", 3, "iphone")
	require.NoError(t, err)
	require.NotEqual(t, first.ExchangeAmount, third.ExchangeAmount)
	require.Equal(t, 2, calls)
}

func TestValuateReplayKeysDoNotCollide(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Valuate(ctx, "rolex|1", 2, "iphone")
	require.NoError(t, err)
	second, err := svc.Valuate(ctx, "rolex", 1, "2|iphone")
	require.NoError(t, err)

	require.Equal(t, 2*second.ExchangeAmount, first.ExchangeAmount)
	require.Equal(t, "2|iphone", second.Want.Name)
}

func TestFairnessSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"bitcoin", "pizza"},
		{"rolex", "watch"},
		{"house", "car"},
		{"book", "coffee"},
		{"chair", "unknown thing"},
	}

	for i := range pairs {
		pair := pairs[i]

		t.Run(pair[0]+"_"+pair[1], func(t *testing.T) {
			t.Parallel()

			svc := newTestService(t)
			ctx := context.Background()

			direct, err := svc.Valuate(ctx, pair[0], 1, pair[1])
			require.NoError(t, err)
			inverse, err := svc.Valuate(ctx, pair[1], 1, pair[0])
			require.NoError(t, err)
			require.Equal(t, direct.Fairness, inverse.Fairness)
		})
	}
}

func TestScoreBounds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newMockPriceSource(domain.SourceLiveQuote)
	profiles := map[string]*domain.PricedItem{
		"max": {Name: "max", UnitValue: 1e9, Scarcity: 100, Utility: 100, Category: "crypto"},
		"min": {Name: "min", UnitValue: 1e-6, Scarcity: 0, Utility: 0, Category: "food"},
		"zero": {Name: "zero", UnitValue: 0, Scarcity: 50, Utility: 50},
		"nan":  {Name: "nan", UnitValue: math.NaN(), Scarcity: 50, Utility: 50},
	}
	for name, profile := range profiles {
		src.On("PriceItem", mock.Anything, name).Return(profile, true)
	}

	svc, err := valuation.NewService(
		cache.NewInmemoryCache(), time.Minute, []ports.PriceSource{src},
	)
	require.NoError(t, err)

	for have := range profiles {
		for want := range profiles {
			result, err := svc.Valuate(ctx, have, 1, want)
			require.NoError(t, err)
			require.GreaterOrEqual(t, result.Confidence, valuation.MinConfidence)
			require.LessOrEqual(t, result.Confidence, valuation.MaxConfidence)
			require.GreaterOrEqual(t, result.Fairness, valuation.MinFairness)
			require.LessOrEqual(t, result.Fairness, valuation.MaxFairness)
			require.GreaterOrEqual(t, result.ExchangeAmount, valuation.MinExchangeAmount)
			require.False(t, math.IsInf(result.ExchangeAmount, 0))
			require.False(t, math.IsNaN(result.ExchangeAmount))
			require.GreaterOrEqual(t, result.Factors.Sentiment, 0)
			require.LessOrEqual(t, result.Factors.Sentiment, 100)
		}
	}
}

func TestWaterfallPrecedence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	live := newMockPriceSource(domain.SourceLiveQuote)
	kb := newMockPriceSource(domain.SourceKnowledgeBase)
	estimate := newMockPriceSource(domain.SourceEstimated)

	live.On("PriceItem", mock.Anything, "bitcoin").Return(&domain.PricedItem{
		Name: "bitcoin", UnitValue: 70000, Scarcity: 95, Utility: 60,
		Category: "crypto", Source: domain.SourceLiveQuote,
	}, true)
	live.On("PriceItem", mock.Anything, "pizza").Return(nil, false)
	kb.On("PriceItem", mock.Anything, "pizza").Return(nil, false)
	estimate.On("PriceItem", mock.Anything, "pizza").Return(&domain.PricedItem{
		Name: "pizza", UnitValue: 14, Scarcity: 50, Utility: 50,
		Source: domain.SourceEstimated,
	}, true)

	svc, err := valuation.NewService(
		cache.NewInmemoryCache(), time.Minute,
		[]ports.PriceSource{live, kb, estimate},
	)
	require.NoError(t, err)

	result, err := svc.Valuate(ctx, "bitcoin", 1, "pizza")
	require.NoError(t, err)
	require.Equal(t, domain.SourceLiveQuote, result.SourceTags.Have)
	require.Equal(t, domain.SourceEstimated, result.SourceTags.Want)
	require.Equal(t, 5000.0, result.ExchangeAmount)

	live.AssertNumberOfCalls(t, "PriceItem", 2)
	kb.AssertNumberOfCalls(t, "PriceItem", 1)
	kb.AssertNotCalled(t, "PriceItem", mock.Anything, "bitcoin")
	estimate.AssertNotCalled(t, "PriceItem", mock.Anything, "bitcoin")
	estimate.AssertNumberOfCalls(t, "PriceItem", 1)

	// A cached valuation does not hit any source.
	_, err = svc.Valuate(ctx, "bitcoin", 1, "pizza")
	require.NoError(t, err)
	live.AssertNumberOfCalls(t, "PriceItem", 2)
}

func TestFailingValuate(t *testing.T) {
	tests := []struct {
		name        string
		haveItem    string
		haveAmount  float64
		wantItem    string
		expectedErr error
	}{
		{"with_empty_have_item", "  ", 1, "pizza", domain.ErrInvalidItem},
		{"with_empty_want_item", "pizza", 1, "", domain.ErrInvalidItem},
		{"with_too_long_item", strings.Repeat("a", 101), 1, "pizza", domain.ErrInvalidItem},
		{"with_zero_amount", "pizza", 0, "coffee", domain.ErrInvalidAmount},
		{"with_negative_amount", "pizza", -1, "coffee", domain.ErrInvalidAmount},
		{"with_nan_amount", "pizza", math.NaN(), "coffee", domain.ErrInvalidAmount},
		{"with_inf_amount", "pizza", math.Inf(1), "coffee", domain.ErrInvalidAmount},
		{"with_too_high_amount", "bitcoin", 1e306, "coffee", domain.ErrInvalidAmount},
		{"with_too_long_multibyte_item", strings.Repeat("ü", 101), 1, "pizza", domain.ErrInvalidItem},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestService(t)
			result, err := svc.Valuate(
				context.Background(), tt.haveItem, tt.haveAmount, tt.wantItem,
			)
			require.ErrorIs(t, err, tt.expectedErr)
			require.Nil(t, result)
		})
	}
}

func TestFallbackValuation(t *testing.T) {
	t.Parallel()

	result := valuation.FallbackValuation("mystery", 3, "box")
	require.Equal(t, 3.0, result.ExchangeAmount)
	require.Equal(t, valuation.MinConfidence, result.Confidence)
	require.Equal(t, valuation.MaxFairness, result.Fairness)
	require.Equal(t, domain.SourceDefault, result.SourceTags.Have)
	require.Equal(t, domain.SourceDefault, result.SourceTags.Want)
	require.NotEmpty(t, result.Rationale)
}

func TestPriceItem(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	item := svc.PriceItem(ctx, "Vintage Rolex")
	require.Equal(t, domain.SourceKnowledgeBase, item.Source)
	require.Equal(t, "rolex", item.Key)

	item = svc.PriceItem(ctx, "something else")
	require.Equal(t, domain.SourceDefault, item.Source)
	require.Equal(t, float64(domain.DefaultUnitValue), item.UnitValue)
}

func TestImageURL(t *testing.T) {
	t.Parallel()

	require.Equal(
		t,
		"https://image.pollinations.ai/prompt/vintage%20guitar?width=512&height=512&nologo=true",
		valuation.ImageURL("vintage guitar"),
	)
}
