package estimator

import (
	"context"
	"fmt"
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
	DefaultTimeout  = 6 * time.Second
	DefaultCacheTTL = 10 * time.Minute

	estimatedScarcity = 50
	estimatedUtility  = 50
	estimatedCategory = "estimated"
)

type provider struct {
	ports.EstimateProvider
	breaker *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
}

// Service asks text generation backends for a rough USD price of arbitrary
// items. Backends are tried in order and accepted estimates are cached per
// item.
type Service struct {
	providers []provider
	cache     ports.Cache
	cacheTTL  time.Duration
	timeout   time.Duration
	group     singleflight.Group
}

// NewService returns an estimate service. Rate limit is the max number of
// calls per second to each backend, zero means unlimited.
func NewService(
	cache ports.Cache, cacheTTL, timeout time.Duration, rateLimit int,
	estimateProviders ...ports.EstimateProvider,
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

	providers := make([]provider, 0, len(estimateProviders))
	for _, p := range estimateProviders {
		if p == nil {
			return nil, fmt.Errorf("missing estimate provider")
		}
		limiter := ratelimit.NewUnlimited()
		if rateLimit > 0 {
			limiter = ratelimit.New(rateLimit)
		}
		providers = append(providers, provider{
			EstimateProvider: p,
			breaker:          circuitbreaker.NewCircuitBreaker(p.Name()),
			limiter:          limiter,
		})
	}

	return &Service{
		providers: providers,
		cache:     cache,
		cacheTTL:  cacheTTL,
		timeout:   timeout,
	}, nil
}

// Providers returns the names of the configured backends, in order.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

// FetchEstimate returns a USD estimate for one unit of the given item.
// Failures of every backend result in a miss.
func (s *Service) FetchEstimate(ctx context.Context, item string) (float64, bool) {
	key := domain.NormalizeItemName(item)
	if key == "" || len(s.providers) <= 0 {
		return 0, false
	}

	if value, ok := s.getCachedEstimate(ctx, key); ok {
		return value, true
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		value, err := s.estimate(ctx, item)
		if err != nil {
			return nil, err
		}

		buf := []byte(strconv.FormatFloat(value, 'f', -1, 64))
		if err := s.cache.Set(ctx, key, buf, s.cacheTTL); err != nil {
			log.WithError(err).Debug("failed to cache estimate")
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		log.WithError(ctx.Err()).WithField("item", key).Debug("estimate lookup abandoned")
		return 0, false
	case res := <-ch:
		if res.Err != nil {
			log.WithError(res.Err).WithField("item", key).Debug("estimate not available")
			return 0, false
		}
		return res.Val.(float64), true
	}
}

func (s *Service) estimate(ctx context.Context, item string) (float64, error) {
	for _, p := range s.providers {
		value, err := s.estimateFromProvider(ctx, p, item)
		if err != nil {
			stats.ProviderFailures.WithLabelValues(p.Name()).Inc()
			log.WithError(err).WithField("provider", p.Name()).Debug(
				"estimate provider failed",
			)
			continue
		}
		return value, nil
	}
	return 0, fmt.Errorf("all providers failed")
}

func (s *Service) estimateFromProvider(
	ctx context.Context, p provider, item string,
) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := p.breaker.Execute(func() (interface{}, error) {
		p.limiter.Take()
		text, err := p.Estimate(ctx, item)
		if err != nil {
			return nil, err
		}
		return ParseEstimate(text)
	})
	if err != nil {
		return 0, err
	}
	return res.(float64), nil
}

func (s *Service) getCachedEstimate(ctx context.Context, key string) (float64, bool) {
	buf, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.WithError(err).Debug("failed to read cached estimate")
		return 0, false
	}
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseFloat(string(buf), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

type source struct {
	svc *Service
}

// NewSource returns the estimate service as a tier of the pricing waterfall.
func NewSource(svc *Service) ports.PriceSource {
	return source{svc}
}

func (s source) Kind() domain.SourceKind {
	return domain.SourceEstimated
}

func (s source) PriceItem(ctx context.Context, item string) (*domain.PricedItem, bool) {
	value, ok := s.svc.FetchEstimate(ctx, item)
	if !ok {
		return nil, false
	}

	name := strings.TrimSpace(item)
	return &domain.PricedItem{
		Name:        name,
		Key:         domain.NormalizeItemName(item),
		UnitValue:   value,
		Scarcity:    estimatedScarcity,
		Utility:     estimatedUtility,
		Sentiment:   domain.DefaultSentiment,
		Description: name,
		Category:    estimatedCategory,
		Source:      domain.SourceEstimated,
	}, true
}
