package domain

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// DefaultExchangeExpiry is the lifetime of an exchange if not otherwise
	// specified.
	DefaultExchangeExpiry = 7 * 24 * time.Hour
	// MinLegAmount is the minimum amount of any leg of an exchange.
	MinLegAmount = 0.01
	// MaxMessageLength is the max number of chars of a negotiation message.
	MaxMessageLength = 500
)

// Leg is one side of an exchange: what is offered or what is requested.
type Leg struct {
	Item           string  `json:"item"`
	Amount         float64 `json:"amount"`
	EstimatedValue float64 `json:"estimatedValue"`
	ImageURL       string  `json:"imageUrl,omitempty"`
}

// Validate checks that the leg has an item and a tradable amount.
func (l Leg) Validate() error {
	if err := ValidateItemName(l.Item); err != nil {
		return err
	}
	if l.Amount < MinLegAmount || l.Amount > MaxAmount || math.IsNaN(l.Amount) {
		return ErrInvalidLegAmount
	}
	return nil
}

// Negotiation is an entry of the negotiation log of an exchange.
type Negotiation struct {
	UserID       string `json:"userId"`
	Message      string `json:"message"`
	CounterOffer *Leg   `json:"counterOffer,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// Ratings holds the 1-5 score given by each participant, 0 if not rated yet.
type Ratings struct {
	Initiator int `json:"initiator"`
	Recipient int `json:"recipient"`
}

// Exchange is the data structure representing a barter proposal between an
// initiator and an optional recipient. An empty RecipientID means the offer
// is open to anyone.
type Exchange struct {
	ID           string          `json:"id"`
	InitiatorID  string          `json:"initiatorId"`
	RecipientID  string          `json:"recipientId,omitempty"`
	Offer        Leg             `json:"offer"`
	Request      Leg             `json:"request"`
	Valuation    ValuationResult `json:"valuation"`
	Status       ExchangeStatus  `json:"status"`
	Negotiations []Negotiation   `json:"negotiations"`
	Ratings      Ratings         `json:"ratings"`
	CreatedAt    int64           `json:"createdAt"`
	UpdatedAt    int64           `json:"updatedAt"`
	ExpiresAt    int64           `json:"expiresAt"`
	CompletedAt  int64           `json:"completedAt,omitempty"`
}

// NewExchange returns a new pending exchange for the given legs, expiring
// after the given duration.
func NewExchange(
	initiatorID, recipientID string, offer, request Leg,
	valuation ValuationResult, expiry time.Duration,
) (*Exchange, error) {
	return NewExchangeAt(
		initiatorID, recipientID, offer, request, valuation, expiry, time.Now(),
	)
}

// NewExchangeAt is like NewExchange but the exchange is created at the given
// time.
func NewExchangeAt(
	initiatorID, recipientID string, offer, request Leg,
	valuation ValuationResult, expiry time.Duration, now time.Time,
) (*Exchange, error) {
	if err := offer.Validate(); err != nil {
		return nil, err
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}
	if recipientID != "" && recipientID == initiatorID {
		return nil, ErrSelfRecipient
	}
	if expiry <= 0 {
		expiry = DefaultExchangeExpiry
	}

	offer.Item = strings.TrimSpace(offer.Item)
	request.Item = strings.TrimSpace(request.Item)
	return &Exchange{
		ID:           uuid.New().String(),
		InitiatorID:  initiatorID,
		RecipientID:  recipientID,
		Offer:        offer,
		Request:      request,
		Valuation:    valuation,
		Status:       ExchangeStatusPending,
		Negotiations: make([]Negotiation, 0),
		CreatedAt:    now.Unix(),
		UpdatedAt:    now.Unix(),
		ExpiresAt:    now.Add(expiry).Unix(),
	}, nil
}

// IsOpen returns whether anyone can accept the exchange.
func (e *Exchange) IsOpen() bool {
	return e.RecipientID == ""
}

// IsParticipant returns whether the given user is involved in the exchange.
func (e *Exchange) IsParticipant(userID string) bool {
	return userID == e.InitiatorID || (userID != "" && userID == e.RecipientID)
}

// IsExpiredAt returns whether the exchange passed its expiration time at the
// given moment. Only non-terminal exchanges can expire.
func (e *Exchange) IsExpiredAt(now time.Time) bool {
	return !e.Status.IsTerminal() && e.ExpiresAt > 0 && now.Unix() >= e.ExpiresAt
}

// Negotiate appends an entry to the negotiation log and brings the exchange
// to the Negotiating status. Only participants can negotiate a reserved
// exchange, while anyone can negotiate an open one.
func (e *Exchange) Negotiate(
	userID, message string, counterOffer *Leg, now time.Time,
) error {
	message = strings.TrimSpace(message)
	if n := utf8.RuneCountInString(message); n <= 0 || n > MaxMessageLength {
		return ErrInvalidMessage
	}
	if counterOffer != nil {
		if err := counterOffer.Validate(); err != nil {
			return err
		}
	}
	if !e.IsOpen() && !e.IsParticipant(userID) {
		return ErrNotParticipant
	}
	if e.IsExpiredAt(now) {
		return ErrExchangeExpired
	}

	status, err := e.Status.transitionTo(ExchangeStatusNegotiating)
	if err != nil {
		return err
	}

	e.Status = status
	e.Negotiations = append(e.Negotiations, Negotiation{
		UserID:       userID,
		Message:      message,
		CounterOffer: counterOffer,
		Timestamp:    now.Unix(),
	})
	e.UpdatedAt = now.Unix()
	return nil
}

// Accept brings a Pending or Negotiating exchange to the Accepted status.
// The initiator cannot accept its own exchange, and a reserved exchange can
// be accepted only by its recipient. Accepting an exchange already moved past
// Negotiating fails with ErrIllegalTransition regardless of the caller.
// Accepting an open offer makes the caller its recipient.
func (e *Exchange) Accept(userID string, now time.Time) error {
	if userID == e.InitiatorID {
		return ErrSelfAccept
	}

	status, err := e.Status.transitionTo(ExchangeStatusAccepted)
	if err != nil {
		return err
	}
	if !e.IsOpen() && userID != e.RecipientID {
		return ErrNotRecipient
	}
	if e.IsExpiredAt(now) {
		return ErrExchangeExpired
	}

	e.Status = status
	e.RecipientID = userID
	e.UpdatedAt = now.Unix()
	return nil
}

// Complete brings an Accepted exchange to the Completed status and records
// the completion time.
func (e *Exchange) Complete(now time.Time) error {
	status, err := e.Status.transitionTo(ExchangeStatusCompleted)
	if err != nil {
		return err
	}

	e.Status = status
	e.CompletedAt = now.Unix()
	e.UpdatedAt = now.Unix()
	return nil
}

// Cancel brings a non terminal exchange to the Cancelled status. Only the
// initiator can cancel.
func (e *Exchange) Cancel(userID string, now time.Time) error {
	if userID != e.InitiatorID {
		return ErrNotInitiator
	}

	status, err := e.Status.transitionTo(ExchangeStatusCancelled)
	if err != nil {
		return err
	}

	e.Status = status
	e.UpdatedAt = now.Unix()
	return nil
}

// Expire brings the exchange to the Expired status if it passed its
// expiration time. It returns whether the status changed.
func (e *Exchange) Expire(now time.Time) (bool, error) {
	if e.Status == ExchangeStatusExpired {
		return false, nil
	}
	if !e.IsExpiredAt(now) {
		return false, nil
	}

	status, err := e.Status.transitionTo(ExchangeStatusExpired)
	if err != nil {
		return false, err
	}

	e.Status = status
	e.UpdatedAt = now.Unix()
	return true, nil
}

// Rate lets a participant of a completed exchange rate the counterpart. It
// returns the id of the rated user.
func (e *Exchange) Rate(userID string, score int) (string, error) {
	if score < 1 || score > 5 {
		return "", ErrInvalidRating
	}
	if !e.IsParticipant(userID) {
		return "", ErrNotParticipant
	}
	if e.Status != ExchangeStatusCompleted {
		return "", ErrIllegalTransition
	}

	if userID == e.InitiatorID {
		if e.Ratings.Initiator > 0 {
			return "", ErrAlreadyRated
		}
		e.Ratings.Initiator = score
		return e.RecipientID, nil
	}

	if e.Ratings.Recipient > 0 {
		return "", ErrAlreadyRated
	}
	e.Ratings.Recipient = score
	return e.InitiatorID, nil
}

// Settlement returns the trade history snapshot of a completed exchange.
func (e *Exchange) Settlement() (*TradeHistory, error) {
	if e.Status != ExchangeStatusCompleted {
		return nil, ErrIllegalTransition
	}
	return NewTradeHistory(*e), nil
}
