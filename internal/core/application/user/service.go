package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tdex-network/barter-daemon/internal/core/application/valuation"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
	"github.com/tdex-network/barter-daemon/pkg/mathutil"
)

const (
	// DefaultLeaderboardSize is the number of users returned by Leaderboard
	// if not otherwise specified.
	DefaultLeaderboardSize = 20
	// MaxLeaderboardSize ...
	MaxLeaderboardSize = 100
	// MinQueryLength is the min number of chars of a search query.
	MinQueryLength = 2
	// MaxSearchResults ...
	MaxSearchResults = 10
)

var (
	// ErrServiceUnavailable is returned in case of storage failures.
	ErrServiceUnavailable = fmt.Errorf("service is unavailable, retry later")
	// ErrInvalidToken is returned when authenticating with a missing,
	// expired or tampered token.
	ErrInvalidToken = errors.New("missing or invalid token")
	// ErrInvalidQuery ...
	ErrInvalidQuery = fmt.Errorf("search query must be at least %d chars long", MinQueryLength)
)

// Service manages user accounts, their inventories and the platform wide
// statistics.
type Service struct {
	repoManager  ports.RepoManager
	valuation    *valuation.Service
	tokenManager ports.TokenManager
	now          func() time.Time
}

func NewService(
	repoManager ports.RepoManager,
	valuationSvc *valuation.Service,
	tokenManager ports.TokenManager,
) (*Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if valuationSvc == nil {
		return nil, fmt.Errorf("missing valuation service")
	}
	if tokenManager == nil {
		return nil, fmt.Errorf("missing token manager")
	}
	return &Service{repoManager, valuationSvc, tokenManager, time.Now}, nil
}

// Register creates a new account and returns it along with an access token.
func (s *Service) Register(
	ctx context.Context, username, email, password string,
) (*domain.User, string, error) {
	user, err := domain.NewUser(username, email, password)
	if err != nil {
		return nil, "", err
	}

	if err := s.repoManager.UserRepository().AddUser(ctx, user); err != nil {
		return nil, "", s.checkError(err, "failed to store user")
	}

	token, err := s.tokenManager.Issue(user.ID)
	if err != nil {
		log.WithError(err).Warn("failed to issue token")
		return nil, "", ErrServiceUnavailable
	}

	log.WithField("user", user.Username).Debug("user registered")
	return user, token, nil
}

// Login authenticates the user identified by either username or email and
// returns a new access token.
func (s *Service) Login(
	ctx context.Context, identifier, password string,
) (*domain.User, string, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return nil, "", domain.ErrInvalidCredentials
	}

	repo := s.repoManager.UserRepository()
	var (
		user *domain.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = repo.GetUserByEmail(ctx, identifier)
	} else {
		user, err = repo.GetUserByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", s.checkError(err, "failed to get user")
	}
	if !user.CheckPassword(password) {
		return nil, "", domain.ErrInvalidCredentials
	}

	if err := s.Touch(ctx, user.ID); err != nil {
		log.WithError(err).Warn("failed to update user last seen")
	}
	user.Touch(s.now())

	token, err := s.tokenManager.Issue(user.ID)
	if err != nil {
		log.WithError(err).Warn("failed to issue token")
		return nil, "", ErrServiceUnavailable
	}
	return user, token, nil
}

// Authenticate returns the user the given token was issued for.
func (s *Service) Authenticate(
	ctx context.Context, token string,
) (*domain.User, error) {
	userID, err := s.tokenManager.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.repoManager.UserRepository().GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, s.checkError(err, "failed to get user")
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repoManager.UserRepository().GetUser(ctx, id)
	if err != nil {
		return nil, s.checkError(err, "failed to get user")
	}
	return user, nil
}

// Touch records that the given user has just been seen online.
func (s *Service) Touch(ctx context.Context, id string) error {
	if err := s.repoManager.UserRepository().UpdateUser(
		ctx, id, func(u *domain.User) (*domain.User, error) {
			u.Touch(s.now())
			return u, nil
		},
	); err != nil {
		return s.checkError(err, "failed to update user")
	}
	return nil
}

// Leaderboard returns the users that traded the most value.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	if limit > MaxLeaderboardSize {
		limit = MaxLeaderboardSize
	}

	users, err := s.repoManager.UserRepository().GetTopUsers(ctx, limit)
	if err != nil {
		return nil, s.checkError(err, "failed to get top users")
	}
	return users, nil
}

// Search returns the users whose username contains the given query.
func (s *Service) Search(ctx context.Context, query string) ([]domain.User, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if len(query) < MinQueryLength {
		return nil, ErrInvalidQuery
	}

	users, err := s.repoManager.UserRepository().SearchUsers(
		ctx, query, MaxSearchResults,
	)
	if err != nil {
		return nil, s.checkError(err, "failed to search users")
	}
	return users, nil
}

// AddInventoryItem values the given item and adds it to the inventory of
// the user.
func (s *Service) AddInventoryItem(
	ctx context.Context, userID, item string, amount float64,
) (*domain.InventoryItem, error) {
	if err := domain.ValidateItemName(item); err != nil {
		return nil, err
	}

	priced := s.valuation.PriceItem(ctx, item)
	estimatedValue := mathutil.RoundTo(priced.SafeUnitValue()*amount, 2)
	imageURL := valuation.ImageURL(priced.Name)

	var inventoryItem *domain.InventoryItem
	if err := s.repoManager.UserRepository().UpdateUser(
		ctx, userID, func(u *domain.User) (*domain.User, error) {
			added, err := u.AddInventoryItem(item, amount, estimatedValue, imageURL)
			if err != nil {
				return nil, err
			}
			inventoryItem = added
			return u, nil
		},
	); err != nil {
		return nil, s.checkError(err, "failed to update inventory")
	}
	return inventoryItem, nil
}

func (s *Service) RemoveInventoryItem(
	ctx context.Context, userID, itemID string,
) error {
	if err := s.repoManager.UserRepository().UpdateUser(
		ctx, userID, func(u *domain.User) (*domain.User, error) {
			if err := u.RemoveInventoryItem(itemID); err != nil {
				return nil, err
			}
			return u, nil
		},
	); err != nil {
		return s.checkError(err, "failed to update inventory")
	}
	return nil
}

// Trades returns the settled exchanges of the given user.
func (s *Service) Trades(
	ctx context.Context, userID string,
) ([]domain.TradeHistory, error) {
	trades, err := s.repoManager.TradeHistoryRepository().GetTradesForUser(
		ctx, userID,
	)
	if err != nil {
		return nil, s.checkError(err, "failed to get trades")
	}
	return trades, nil
}

// Stats returns the platform wide counters.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	exchangeRepo := s.repoManager.ExchangeRepository()

	totalExchanges, err := exchangeRepo.CountExchanges(ctx)
	if err != nil {
		return nil, s.checkError(err, "failed to count exchanges")
	}
	activeExchanges, err := exchangeRepo.CountExchanges(
		ctx, domain.ExchangeStatusPending, domain.ExchangeStatusNegotiating,
	)
	if err != nil {
		return nil, s.checkError(err, "failed to count active exchanges")
	}
	totalTrades, err := s.repoManager.TradeHistoryRepository().CountTrades(ctx)
	if err != nil {
		return nil, s.checkError(err, "failed to count trades")
	}
	totalUsers, err := s.repoManager.UserRepository().CountUsers(ctx)
	if err != nil {
		return nil, s.checkError(err, "failed to count users")
	}

	return &Stats{
		TotalExchanges:  totalExchanges,
		TotalTrades:     totalTrades,
		TotalUsers:      totalUsers,
		ActiveExchanges: activeExchanges,
	}, nil
}

func (s *Service) checkError(err error, msg string) error {
	for _, e := range []error{
		domain.ErrUserNotFound,
		domain.ErrUserAlreadyExists,
		domain.ErrInvalidItem,
		domain.ErrInvalidLegAmount,
		domain.ErrInventoryItemNotFound,
	} {
		if errors.Is(err, e) {
			return err
		}
	}
	log.WithError(err).Warn(msg)
	return ErrServiceUnavailable
}
