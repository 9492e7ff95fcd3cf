package domain

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	// InitialReputation is the reputation of a newly registered user.
	InitialReputation = 100
	// MinPasswordLength ...
	MinPasswordLength = 6
)

var usernameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

// UserStats are the trading statistics of a user.
type UserStats struct {
	TotalExchanges   int     `json:"totalExchanges"`
	SuccessfulTrades int     `json:"successfulTrades"`
	Reputation       int     `json:"reputation"`
	TotalValueTraded float64 `json:"totalValueTraded"`
}

// InventoryItem is an item that a user declares to own.
type InventoryItem struct {
	ID             string  `json:"id"`
	Item           string  `json:"item"`
	Amount         float64 `json:"amount"`
	EstimatedValue float64 `json:"estimatedValue"`
	ImageURL       string  `json:"imageUrl,omitempty"`
	AddedAt        int64   `json:"addedAt"`
}

// User is the data structure representing a registered account.
type User struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Stats        UserStats       `json:"stats"`
	Inventory    []InventoryItem `json:"inventory"`
	CreatedAt    int64           `json:"createdAt"`
	LastSeen     int64           `json:"lastSeen"`
}

// NewUser validates the given credentials and returns a new user with
// hashed password.
func NewUser(username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if !usernameRegexp.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Username:     strings.ToLower(username),
		Email:        email,
		PasswordHash: string(hash),
		Stats:        UserStats{Reputation: InitialReputation},
		Inventory:    make([]InventoryItem, 0),
		CreatedAt:    now,
		LastSeen:     now,
	}, nil
}

// CheckPassword returns whether the given password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(
		[]byte(u.PasswordHash), []byte(password),
	) == nil
}

// RecordExchange increments the number of exchanges proposed by the user.
func (u *User) RecordExchange() {
	u.Stats.TotalExchanges++
}

// RecordTrade increments the successful trades and adds the given value to
// the total value traded by the user.
func (u *User) RecordTrade(value float64) {
	u.Stats.SuccessfulTrades++
	u.Stats.TotalValueTraded = decimal.NewFromFloat(u.Stats.TotalValueTraded).
		Add(decimal.NewFromFloat(value)).Round(2).InexactFloat64()
}

// ApplyRating adjusts the reputation of the user according to a 1-5 score
// received from a counterpart. The reputation never goes below zero.
func (u *User) ApplyRating(score int) {
	u.Stats.Reputation += (score - 3) * 2
	if u.Stats.Reputation < 0 {
		u.Stats.Reputation = 0
	}
}

// AddInventoryItem adds an item to the user's inventory and returns it.
func (u *User) AddInventoryItem(
	item string, amount, estimatedValue float64, imageURL string,
) (*InventoryItem, error) {
	leg := Leg{Item: item, Amount: amount}
	if err := leg.Validate(); err != nil {
		return nil, err
	}

	inventoryItem := InventoryItem{
		ID:             uuid.New().String(),
		Item:           strings.TrimSpace(item),
		Amount:         amount,
		EstimatedValue: estimatedValue,
		ImageURL:       imageURL,
		AddedAt:        time.Now().Unix(),
	}
	u.Inventory = append(u.Inventory, inventoryItem)
	return &inventoryItem, nil
}

// RemoveInventoryItem removes the item with the given id from the user's
// inventory.
func (u *User) RemoveInventoryItem(id string) error {
	for i, item := range u.Inventory {
		if item.ID == id {
			u.Inventory = append(u.Inventory[:i], u.Inventory[i+1:]...)
			return nil
		}
	}
	return ErrInventoryItemNotFound
}

// Touch updates the last time the user has been seen online.
func (u *User) Touch(now time.Time) {
	u.LastSeen = now.Unix()
}
