package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tdex-network/barter-daemon/internal/core/application/pubsub"
	"github.com/tdex-network/barter-daemon/internal/core/application/valuation"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/pkg/mathutil"
)

const (
	// DefaultSweepInterval is how often overdue exchanges are expired.
	DefaultSweepInterval = time.Minute
)

var (
	// ErrServiceUnavailable is returned in case of storage failures.
	ErrServiceUnavailable = fmt.Errorf("service is unavailable, retry later")
)

// Option customizes an exchange service.
type Option func(*Service)

// WithClock makes the service read the current time from the given func.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service manages the lifecycle of exchanges: creation, negotiation,
// acceptance and settlement, cancellation and expiration.
type Service struct {
	repoManager ports.RepoManager
	valuation   *valuation.Service
	pubsub      *pubsub.Service

	expiry        time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	lock      *sync.Mutex
	quitChan  chan struct{}
	sweeperWg *sync.WaitGroup
}

func NewService(
	repoManager ports.RepoManager,
	valuationSvc *valuation.Service,
	pubsubSvc *pubsub.Service,
	expiry, sweepInterval time.Duration,
	opts ...Option,
) (*Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if valuationSvc == nil {
		return nil, fmt.Errorf("missing valuation service")
	}
	if pubsubSvc == nil {
		return nil, fmt.Errorf("missing pubsub service")
	}
	if expiry <= 0 {
		expiry = domain.DefaultExchangeExpiry
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	svc := &Service{
		repoManager:   repoManager,
		valuation:     valuationSvc,
		pubsub:        pubsubSvc,
		expiry:        expiry,
		sweepInterval: sweepInterval,
		now:           time.Now,
		lock:          &sync.Mutex{},
		sweeperWg:     &sync.WaitGroup{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create valuates the offer against the request and stores a new pending
// exchange proposed by the given user. An empty recipientID makes it an open
// offer.
func (s *Service) Create(
	ctx context.Context, userID string, offer, request domain.Leg,
	recipientID string,
) (*domain.Exchange, error) {
	if err := offer.Validate(); err != nil {
		return nil, err
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}
	if recipientID != "" && recipientID == userID {
		return nil, domain.ErrSelfRecipient
	}

	userRepo := s.repoManager.UserRepository()
	if _, err := userRepo.GetUser(ctx, userID); err != nil {
		return nil, s.checkError(err, "failed to get initiator")
	}
	if recipientID != "" {
		if _, err := userRepo.GetUser(ctx, recipientID); err != nil {
			return nil, s.checkError(err, "failed to get recipient")
		}
	}

	result, err := s.valuation.Valuate(ctx, offer.Item, offer.Amount, request.Item)
	if err != nil {
		return nil, err
	}
	offer.EstimatedValue = legValue(result.Have, offer.Amount)
	offer.ImageURL = result.Images.Have
	request.EstimatedValue = legValue(result.Want, request.Amount)
	request.ImageURL = result.Images.Want

	exchange, err := domain.NewExchangeAt(
		userID, recipientID, offer, request, *result, s.expiry, s.now(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.repoManager.ExchangeRepository().AddExchange(
		ctx, exchange,
	); err != nil {
		return nil, s.checkError(err, "failed to store exchange")
	}

	if err := userRepo.UpdateUser(
		ctx, userID, func(u *domain.User) (*domain.User, error) {
			u.RecordExchange()
			return u, nil
		},
	); err != nil {
		log.WithError(err).WithField("user", userID).Warn(
			"failed to update user stats",
		)
	}

	log.WithField("exchange", exchange.ID).Debug("exchange created")

	if err := s.pubsub.PublishExchangeCreated(ctx, *exchange); err != nil {
		log.WithError(err).Warn("failed to publish exchange created event")
	}
	return exchange, nil
}

// Accept makes the given user the counterpart of the exchange and settles
// it. The status change is a compare-and-swap: of two concurrent accepts
// only one succeeds, the other gets domain.ErrIllegalTransition.
func (s *Service) Accept(
	ctx context.Context, id, userID string,
) (*domain.Exchange, error) {
	if _, err := s.repoManager.UserRepository().GetUser(ctx, userID); err != nil {
		return nil, s.checkError(err, "failed to get user")
	}

	var (
		exchange   *domain.Exchange
		settlement *domain.TradeHistory
	)
	if err := s.repoManager.ExchangeRepository().UpdateExchange(
		ctx, id, func(e *domain.Exchange) (*domain.Exchange, error) {
			now := s.now()
			if err := e.Accept(userID, now); err != nil {
				return nil, err
			}
			if err := e.Complete(now); err != nil {
				return nil, err
			}
			trade, err := e.Settlement()
			if err != nil {
				return nil, err
			}

			exchange, settlement = e, trade
			return e, nil
		},
	); err != nil {
		return nil, s.checkError(err, "failed to accept exchange")
	}

	if err := s.repoManager.TradeHistoryRepository().AddTrade(
		ctx, settlement,
	); err != nil {
		log.WithError(err).WithField("exchange", id).Warn(
			"failed to store trade history",
		)
	}

	for _, participant := range []string{exchange.InitiatorID, exchange.RecipientID} {
		value := settlement.ValueGivenBy(participant)
		if err := s.repoManager.UserRepository().UpdateUser(
			ctx, participant, func(u *domain.User) (*domain.User, error) {
				u.RecordTrade(value)
				return u, nil
			},
		); err != nil {
			log.WithError(err).WithField("user", participant).Warn(
				"failed to update user stats",
			)
		}
	}

	log.WithField("exchange", id).Debug("exchange completed")

	if err := s.pubsub.PublishExchangeCompleted(
		ctx, *exchange, *settlement,
	); err != nil {
		log.WithError(err).Warn("failed to publish exchange completed event")
	}
	return exchange, nil
}

// Cancel withdraws a non terminal exchange. Only the initiator can cancel.
func (s *Service) Cancel(
	ctx context.Context, id, userID string,
) (*domain.Exchange, error) {
	var exchange *domain.Exchange
	if err := s.repoManager.ExchangeRepository().UpdateExchange(
		ctx, id, func(e *domain.Exchange) (*domain.Exchange, error) {
			if err := e.Cancel(userID, s.now()); err != nil {
				return nil, err
			}
			exchange = e
			return e, nil
		},
	); err != nil {
		return nil, s.checkError(err, "failed to cancel exchange")
	}

	if err := s.pubsub.PublishExchangeCancelled(ctx, *exchange); err != nil {
		log.WithError(err).Warn("failed to publish exchange cancelled event")
	}
	return exchange, nil
}

// Negotiate appends a message, and optionally a counter offer, to the
// negotiation log of the exchange.
func (s *Service) Negotiate(
	ctx context.Context, id, userID, message string, counterOffer *domain.Leg,
) (*domain.Exchange, error) {
	var exchange *domain.Exchange
	if err := s.repoManager.ExchangeRepository().UpdateExchange(
		ctx, id, func(e *domain.Exchange) (*domain.Exchange, error) {
			if err := e.Negotiate(userID, message, counterOffer, s.now()); err != nil {
				return nil, err
			}
			exchange = e
			return e, nil
		},
	); err != nil {
		return nil, s.checkError(err, "failed to negotiate exchange")
	}

	entry := exchange.Negotiations[len(exchange.Negotiations)-1]
	if err := s.pubsub.PublishNegotiationAdded(ctx, *exchange, entry); err != nil {
		log.WithError(err).Warn("failed to publish negotiation added event")
	}
	return exchange, nil
}

// Rate records the score given by a participant of a completed exchange and
// updates the reputation of the counterpart.
func (s *Service) Rate(
	ctx context.Context, id, userID string, score int,
) (*domain.Exchange, error) {
	var (
		exchange *domain.Exchange
		ratedID  string
	)
	if err := s.repoManager.ExchangeRepository().UpdateExchange(
		ctx, id, func(e *domain.Exchange) (*domain.Exchange, error) {
			rated, err := e.Rate(userID, score)
			if err != nil {
				return nil, err
			}
			exchange, ratedID = e, rated
			return e, nil
		},
	); err != nil {
		return nil, s.checkError(err, "failed to rate exchange")
	}

	if err := s.repoManager.UserRepository().UpdateUser(
		ctx, ratedID, func(u *domain.User) (*domain.User, error) {
			u.ApplyRating(score)
			return u, nil
		},
	); err != nil {
		log.WithError(err).WithField("user", ratedID).Warn(
			"failed to update user reputation",
		)
	}
	return exchange, nil
}

func (s *Service) GetExchange(
	ctx context.Context, id string,
) (*domain.Exchange, error) {
	exchange, err := s.repoManager.ExchangeRepository().GetExchange(ctx, id)
	if err != nil {
		return nil, s.checkError(err, "failed to get exchange")
	}
	return exchange, nil
}

// Feed returns the requested page of active exchanges, most recent first.
func (s *Service) Feed(
	ctx context.Context, pageNumber, pageSize int,
) (*FeedPage, error) {
	page := domain.NewPage(pageNumber, pageSize)
	exchanges, total, err := s.repoManager.ExchangeRepository().
		GetActiveExchanges(ctx, s.now(), page)
	if err != nil {
		return nil, s.checkError(err, "failed to get active exchanges")
	}

	return &FeedPage{
		Exchanges: exchanges,
		Pagination: Pagination{
			Page:  page.Number,
			Limit: page.Size,
			Total: total,
			Pages: page.Pages(total),
		},
	}, nil
}

// ListForUser returns the exchanges where the given user is involved.
func (s *Service) ListForUser(
	ctx context.Context, userID string,
) ([]domain.Exchange, error) {
	exchanges, err := s.repoManager.ExchangeRepository().
		GetExchangesForUser(ctx, userID)
	if err != nil {
		return nil, s.checkError(err, "failed to get user exchanges")
	}
	return exchanges, nil
}

// ExpireExchanges moves every overdue exchange to the Expired status and
// returns how many changed.
func (s *Service) ExpireExchanges(ctx context.Context) (int, error) {
	repo := s.repoManager.ExchangeRepository()
	exchanges, err := repo.GetExchangesToExpire(ctx, s.now())
	if err != nil {
		return 0, s.checkError(err, "failed to get exchanges to expire")
	}

	count := 0
	for _, e := range exchanges {
		expired := false
		if err := repo.UpdateExchange(
			ctx, e.ID, func(e *domain.Exchange) (*domain.Exchange, error) {
				changed, err := e.Expire(s.now())
				if err != nil {
					return nil, err
				}
				expired = changed
				return e, nil
			},
		); err != nil {
			// Exchanges settled or cancelled in the meantime are skipped.
			if !errors.Is(err, domain.ErrIllegalTransition) {
				log.WithError(err).WithField("exchange", e.ID).Warn(
					"failed to expire exchange",
				)
			}
			continue
		}
		if expired {
			count++
		}
	}

	if count > 0 {
		log.Debugf("expired %d exchanges", count)
	}
	return count, nil
}

// Start runs the expiry sweep periodically in background until Stop is
// called.
func (s *Service) Start() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.quitChan != nil {
		return
	}
	s.quitChan = make(chan struct{})

	s.sweeperWg.Add(1)
	go s.sweep(s.quitChan)
}

// Stop halts the expiry sweep and waits for any in-flight run to finish.
func (s *Service) Stop() {
	s.lock.Lock()
	if s.quitChan == nil {
		s.lock.Unlock()
		return
	}
	close(s.quitChan)
	s.quitChan = nil
	s.lock.Unlock()

	s.sweeperWg.Wait()
}

func (s *Service) sweep(quit chan struct{}) {
	defer s.sweeperWg.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			if _, err := s.ExpireExchanges(context.Background()); err != nil {
				log.WithError(err).Warn("expiry sweep failed")
			}
		}
	}
}

// checkError lets domain errors through and hides any other behind
// ErrServiceUnavailable.
func (s *Service) checkError(err error, msg string) error {
	if isDomainError(err) {
		return err
	}
	log.WithError(err).Warn(msg)
	return ErrServiceUnavailable
}

func legValue(item domain.PricedItem, amount float64) float64 {
	return mathutil.RoundTo(item.SafeUnitValue()*amount, 2)
}
