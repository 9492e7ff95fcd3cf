package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeHistory is the settlement snapshot of a completed exchange.
type TradeHistory struct {
	ID          string  `json:"id"`
	ExchangeID  string  `json:"exchangeId"`
	InitiatorID string  `json:"initiatorId"`
	RecipientID string  `json:"recipientId"`
	Offer       Leg     `json:"offer"`
	Request     Leg     `json:"request"`
	TotalValue  float64 `json:"totalValue"`
	CompletedAt int64   `json:"completedAt"`
}

// NewTradeHistory returns the snapshot of the given exchange.
func NewTradeHistory(e Exchange) *TradeHistory {
	total := decimal.NewFromFloat(e.Offer.EstimatedValue).Add(
		decimal.NewFromFloat(e.Request.EstimatedValue),
	)
	return &TradeHistory{
		ID:          uuid.New().String(),
		ExchangeID:  e.ID,
		InitiatorID: e.InitiatorID,
		RecipientID: e.RecipientID,
		Offer:       e.Offer,
		Request:     e.Request,
		TotalValue:  total.Round(2).InexactFloat64(),
		CompletedAt: e.CompletedAt,
	}
}

// ValueGivenBy returns the estimated value handed over by the given user.
func (t TradeHistory) ValueGivenBy(userID string) float64 {
	switch userID {
	case t.InitiatorID:
		return t.Offer.EstimatedValue
	case t.RecipientID:
		return t.Request.EstimatedValue
	default:
		return 0
	}
}
