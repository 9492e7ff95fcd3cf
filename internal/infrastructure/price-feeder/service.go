package pricefeeder

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/singleflight"

	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/pkg/circuitbreaker"
	"github.com/tdex-network/barter-daemon/pkg/stats"
)

const (
	// DefaultTimeout bounds every outbound call if no timeout is given.
	DefaultTimeout = 6 * time.Second
	// DefaultCacheTTL is how long a quote is reused.
	DefaultCacheTTL = 10 * time.Minute

	category = "crypto"
)

type provider struct {
	ports.QuoteProvider
	breaker *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
}

// Service fetches live USD quotes of well-known crypto assets from a list of
// providers tried in order. Quotes are cached per asset and concurrent
// lookups of the same asset share the same outbound call.
type Service struct {
	providers []provider
	cache     ports.Cache
	cacheTTL  time.Duration
	timeout   time.Duration
	group     singleflight.Group
}

// NewService returns a live quote service. Rate limit is the max number of
// calls per second to each provider, zero means unlimited.
func NewService(
	cache ports.Cache, cacheTTL, timeout time.Duration, rateLimit int,
	quoteProviders ...ports.QuoteProvider,
) (*Service, error) {
	if cache == nil {
		return nil, fmt.Errorf("missing cache")
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	providers := make([]provider, 0, len(quoteProviders))
	for _, p := range quoteProviders {
		if p == nil {
			return nil, fmt.Errorf("missing quote provider")
		}
		limiter := ratelimit.NewUnlimited()
		if rateLimit > 0 {
			limiter = ratelimit.New(rateLimit)
		}
		providers = append(providers, provider{
			QuoteProvider: p,
			breaker:       circuitbreaker.NewCircuitBreaker(p.Name()),
			limiter:       limiter,
		})
	}

	return &Service{
		providers: providers,
		cache:     cache,
		cacheTTL:  cacheTTL,
		timeout:   timeout,
	}, nil
}

// Providers returns the names of the configured providers, in order.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

// FetchLiveQuote returns the USD price of the crypto asset named by the
// given item, if any. Failures of every provider result in a miss.
func (s *Service) FetchLiveQuote(ctx context.Context, item string) (float64, bool) {
	asset, ok := MatchAsset(item)
	if !ok {
		return 0, false
	}
	return s.fetchQuote(ctx, asset)
}

func (s *Service) fetchQuote(ctx context.Context, asset Asset) (float64, bool) {
	if len(s.providers) <= 0 {
		return 0, false
	}

	if price, ok := s.getCachedQuote(ctx, asset.ID); ok {
		return price, true
	}

	// The shared lookup is detached from the caller that started it, every
	// provider call is still bounded by the service timeout.
	ch := s.group.DoChan(asset.ID, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		price, err := s.quote(ctx, asset)
		if err != nil {
			return nil, err
		}

		value := []byte(strconv.FormatFloat(price, 'f', -1, 64))
		if err := s.cache.Set(ctx, asset.ID, value, s.cacheTTL); err != nil {
			log.WithError(err).Debug("failed to cache live quote")
		}
		return price, nil
	})

	select {
	case <-ctx.Done():
		log.WithError(ctx.Err()).WithField("asset", asset.ID).Debug("live quote lookup abandoned")
		return 0, false
	case res := <-ch:
		if res.Err != nil {
			log.WithError(res.Err).WithField("asset", asset.ID).Debug("live quote not available")
			return 0, false
		}
		return res.Val.(float64), true
	}
}

func (s *Service) quote(ctx context.Context, asset Asset) (float64, error) {
	for _, p := range s.providers {
		price, err := s.quoteFromProvider(ctx, p, asset)
		if err != nil {
			stats.ProviderFailures.WithLabelValues(p.Name()).Inc()
			log.WithError(err).WithFields(log.Fields{
				"provider": p.Name(),
				"asset":    asset.ID,
			}).Debug("quote provider failed")
			continue
		}
		return price, nil
	}
	return 0, fmt.Errorf("all providers failed")
}

func (s *Service) quoteFromProvider(
	ctx context.Context, p provider, asset Asset,
) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := p.breaker.Execute(func() (interface{}, error) {
		p.limiter.Take()
		return p.Quote(ctx, asset)
	})
	if err != nil {
		return 0, err
	}

	price := res.(float64)
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("invalid price %v", price)
	}
	return price, nil
}

func (s *Service) getCachedQuote(ctx context.Context, key string) (float64, bool) {
	value, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.WithError(err).Debug("failed to read cached live quote")
		return 0, false
	}
	if !ok {
		return 0, false
	}
	price, err := strconv.ParseFloat(string(value), 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

type source struct {
	svc *Service
}

// NewSource returns the live quote service as a tier of the pricing
// waterfall.
func NewSource(svc *Service) ports.PriceSource {
	return source{svc}
}

func (s source) Kind() domain.SourceKind {
	return domain.SourceLiveQuote
}

func (s source) PriceItem(ctx context.Context, item string) (*domain.PricedItem, bool) {
	asset, ok := MatchAsset(item)
	if !ok {
		return nil, false
	}
	price, ok := s.svc.fetchQuote(ctx, asset)
	if !ok {
		return nil, false
	}

	return &domain.PricedItem{
		Name:        strings.TrimSpace(item),
		Key:         asset.ID,
		UnitValue:   price,
		Scarcity:    asset.Scarcity,
		Utility:     asset.Utility,
		Sentiment:   domain.DefaultSentiment,
		Description: asset.Description,
		Category:    category,
		Source:      domain.SourceLiveQuote,
	}, true
}
