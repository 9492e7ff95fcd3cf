package exchange

import (
	"errors"

	"github.com/tdex-network/barter-daemon/internal/core/domain"
)

// Pagination describes the page of a paginated list.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// FeedPage is a page of active exchanges.
type FeedPage struct {
	Exchanges  []domain.Exchange `json:"exchanges"`
	Pagination Pagination        `json:"pagination"`
}

var domainErrors = []error{
	domain.ErrInvalidItem,
	domain.ErrInvalidAmount,
	domain.ErrInvalidLegAmount,
	domain.ErrExchangeNotFound,
	domain.ErrIllegalTransition,
	domain.ErrExchangeExpired,
	domain.ErrSelfAccept,
	domain.ErrSelfRecipient,
	domain.ErrNotRecipient,
	domain.ErrNotInitiator,
	domain.ErrNotParticipant,
	domain.ErrInvalidMessage,
	domain.ErrInvalidRating,
	domain.ErrAlreadyRated,
	domain.ErrUserNotFound,
}

func isDomainError(err error) bool {
	for _, e := range domainErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
