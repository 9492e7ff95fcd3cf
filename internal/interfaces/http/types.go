package httpinterface

import (
	"fmt"

	"github.com/tdex-network/barter-daemon/internal/core/application/user"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
)

type valuateRequest struct {
	HaveItem   string  `json:"haveItem"`
	HaveAmount float64 `json:"haveAmount"`
	WantItem   string  `json:"wantItem"`
}

type valuateResponse struct {
	*domain.ValuationResult
	HaveItem   string  `json:"haveItem"`
	HaveAmount float64 `json:"haveAmount"`
	WantItem   string  `json:"wantItem"`
	Fallback   bool    `json:"fallback"`
}

func newValuateResponse(
	req valuateRequest, result *domain.ValuationResult, fallback bool,
) valuateResponse {
	return valuateResponse{
		ValuationResult: result,
		HaveItem:        req.HaveItem,
		HaveAmount:      req.HaveAmount,
		WantItem:        req.WantItem,
		Fallback:        fallback,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest accepts either username or email as identifier.
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createExchangeRequest struct {
	Offer       domain.Leg `json:"offer"`
	Request     domain.Leg `json:"request"`
	RecipientID string     `json:"recipientId"`
}

type negotiateRequest struct {
	Message      string      `json:"message"`
	CounterOffer *domain.Leg `json:"counterOffer"`
}

type rateRequest struct {
	Score int `json:"score"`
}

type inventoryItemRequest struct {
	Item   string  `json:"item"`
	Amount float64 `json:"amount"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type imageResponse struct {
	Item     string `json:"item"`
	ImageURL string `json:"imageUrl"`
}

type statsResponse struct {
	Stats *user.Stats `json:"stats"`
}

type authResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type usersResponse struct {
	Users []domain.User `json:"users"`
}

type exchangeResponse struct {
	Exchange *domain.Exchange `json:"exchange"`
}

type exchangesResponse struct {
	Exchanges []domain.Exchange `json:"exchanges"`
}

type tradesResponse struct {
	Trades []domain.TradeHistory `json:"trades"`
}

type inventoryItemResponse struct {
	Item *domain.InventoryItem `json:"item"`
}

type errInvalidQueryParam string

func (e errInvalidQueryParam) Error() string {
	return fmt.Sprintf("query param %s must be an integer", string(e))
}

func (e errInvalidQueryParam) Is(target error) bool {
	return target == errInvalidBody
}
