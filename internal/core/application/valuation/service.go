package valuation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/pkg/mathutil"
	"github.com/tdex-network/barter-daemon/pkg/stats"
)

const (
	// DefaultCacheTTL is how long a valuation result is replayed.
	DefaultCacheTTL = 5 * time.Minute

	// MinExchangeAmount is the floor of any computed exchange amount.
	MinExchangeAmount = 0.01

	MinConfidence = 65
	MaxConfidence = 95
	MinFairness   = 40
	MaxFairness   = 95

	highValueThreshold = 1000
	highValueBonus     = 20

	imageURLFormat = "https://image.pollinations.ai/prompt/%s?width=512&height=512&nologo=true"
)

// Picker returns a number in [0, n). It selects which rationale sentence
// is returned among the matching ones.
type Picker func(n int) int

// Option customizes a valuation service.
type Option func(*Service)

// WithPicker makes the service select rationale sentences with the given
// picker instead of a random one.
func WithPicker(pick Picker) Option {
	return func(s *Service) {
		if pick != nil {
			s.pick = pick
		}
	}
}

// Service computes exchange rates between pairs of items. Each item is
// resolved through an ordered list of price sources, the first one knowing
// the item wins and the global default applies if none does.
type Service struct {
	cache    ports.Cache
	cacheTTL time.Duration
	sources  []ports.PriceSource
	pick     Picker
}

func NewService(
	cache ports.Cache, cacheTTL time.Duration, sources []ports.PriceSource,
	opts ...Option,
) (*Service, error) {
	if cache == nil {
		return nil, fmt.Errorf("missing cache")
	}
	for _, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("missing price source")
		}
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	svc := &Service{
		cache:    cache,
		cacheTTL: cacheTTL,
		sources:  sources,
		pick:     rand.Intn,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Valuate returns how many units of wantItem are worth haveAmount units of
// haveItem. Results are cached and replayed unchanged, rationale included,
// for identical normalized requests.
func (s *Service) Valuate(
	ctx context.Context, haveItem string, haveAmount float64, wantItem string,
) (*domain.ValuationResult, error) {
	if err := domain.ValidateValuationRequest(haveItem, haveAmount, wantItem); err != nil {
		return nil, err
	}

	key := cacheKey(haveItem, haveAmount, wantItem)
	if result, ok := s.getCachedValuation(ctx, key); ok {
		stats.Valuations.WithLabelValues("true").Inc()
		return result, nil
	}

	have := s.PriceItem(ctx, haveItem)
	want := s.PriceItem(ctx, wantItem)
	result, err := s.valuate(*have, haveAmount, *want)
	if err != nil {
		return nil, err
	}

	buf, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode valuation: %w", err)
	}
	if err := s.cache.Set(ctx, key, buf, s.cacheTTL); err != nil {
		log.WithError(err).Warn("failed to cache valuation")
	}

	stats.Valuations.WithLabelValues("false").Inc()
	return result, nil
}

// PriceItem resolves the given item through the price sources. It never
// fails, the global default profile is returned if no source knows the
// item.
func (s *Service) PriceItem(ctx context.Context, item string) *domain.PricedItem {
	for _, src := range s.sources {
		if priced, ok := src.PriceItem(ctx, item); ok && priced != nil {
			stats.PricedItems.WithLabelValues(string(src.Kind())).Inc()
			return priced
		}
	}

	stats.PricedItems.WithLabelValues(string(domain.SourceDefault)).Inc()
	priced := domain.NewDefaultPricedItem(item)
	return &priced
}

// FallbackValuation returns the safe result returned when a valuation
// cannot be computed: both items at the global default with the highest
// fairness.
func FallbackValuation(
	haveItem string, haveAmount float64, wantItem string,
) *domain.ValuationResult {
	have := domain.NewDefaultPricedItem(haveItem)
	want := domain.NewDefaultPricedItem(wantItem)

	amount := haveAmount
	if amount < MinExchangeAmount || math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = MinExchangeAmount
	}

	return &domain.ValuationResult{
		ExchangeAmount: mathutil.RoundTo(amount, 2),
		Confidence:     MinConfidence,
		Fairness:       MaxFairness,
		Rationale: fmt.Sprintf(
			"Market equilibrium: %.1f %s equal %s based on comparable value.",
			amount, want.Name, have.Name,
		),
		Factors: domain.Factors{
			Utility:   domain.DefaultUtility,
			Scarcity:  domain.DefaultScarcity,
			Sentiment: domain.DefaultSentiment,
		},
		SourceTags: domain.SourceTags{Have: have.Source, Want: want.Source},
		Have:       have,
		Want:       want,
		Images:     domain.ItemImages{Have: ImageURL(haveItem), Want: ImageURL(wantItem)},
	}
}

// ImageURL returns the url of an illustrative picture of the given item.
func ImageURL(item string) string {
	return fmt.Sprintf(imageURLFormat, url.PathEscape(item))
}

func (s *Service) valuate(
	have domain.PricedItem, haveAmount float64, want domain.PricedItem,
) (*domain.ValuationResult, error) {
	hv, wv := have.SafeUnitValue(), want.SafeUnitValue()

	rate := mathutil.MulDiv(hv, haveAmount, wv)
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, domain.ErrInvalidAmount
	}
	exchangeAmount := math.Max(MinExchangeAmount, mathutil.RoundTo(rate, 2))

	sentences := rationales(have, want, fmt.Sprintf("%.1f", math.Max(MinExchangeAmount, rate)))
	rationale := sentences[s.pickIndex(len(sentences))]

	return &domain.ValuationResult{
		ExchangeAmount: exchangeAmount,
		Confidence:     confidence(have, want),
		Fairness:       fairness(hv, wv),
		Rationale:      rationale,
		Factors:        factors(have, want),
		SourceTags:     domain.SourceTags{Have: have.Source, Want: want.Source},
		Have:           have,
		Want:           want,
		Images: domain.ItemImages{
			Have: ImageURL(have.Name),
			Want: ImageURL(want.Name),
		},
	}, nil
}

func (s *Service) pickIndex(n int) int {
	i := s.pick(n)
	if i < 0 || i >= n {
		return 0
	}
	return i
}

func (s *Service) getCachedValuation(
	ctx context.Context, key string,
) (*domain.ValuationResult, bool) {
	buf, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("failed to read cached valuation")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var result domain.ValuationResult
	if err := json.Unmarshal(buf, &result); err != nil {
		log.WithError(err).Warn("discarding malformed cached valuation")
		return nil, false
	}
	return &result, true
}

func confidence(have, want domain.PricedItem) int {
	score := 0.3*float64(have.Scarcity) + 0.3*float64(want.Scarcity) +
		0.2*float64(minInt(have.Utility, want.Utility))
	if have.SafeUnitValue() > highValueThreshold {
		score += highValueBonus
	}
	return mathutil.ClampInt(mathutil.RoundToInt(score), MinConfidence, MaxConfidence)
}

// fairness is symmetric in the two values since |ln(a/b)| == |ln(b/a)|.
func fairness(haveValue, wantValue float64) int {
	score := 100 - 20*math.Abs(math.Log(haveValue/wantValue))
	return mathutil.ClampInt(mathutil.RoundToInt(score), MinFairness, MaxFairness)
}

func factors(have, want domain.PricedItem) domain.Factors {
	return domain.Factors{
		Utility:  mathutil.RoundToInt(float64(have.Utility+want.Utility) / 2),
		Scarcity: mathutil.RoundToInt(float64(have.Scarcity+want.Scarcity) / 2),
		Sentiment: mathutil.ClampInt(
			mathutil.RoundToInt(50+float64(have.Scarcity-want.Scarcity)/4), 0, 100,
		),
	}
}

func cacheKey(haveItem string, haveAmount float64, wantItem string) string {
	return fmt.Sprintf(
		"%q|%s|%q",
		domain.NormalizeItemName(haveItem),
		strconv.FormatFloat(haveAmount, 'f', -1, 64),
		domain.NormalizeItemName(wantItem),
	)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
