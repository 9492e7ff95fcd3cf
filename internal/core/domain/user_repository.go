package domain

import "context"

// UserRepository is the abstraction for any kind of database intended to
// persist Users.
type UserRepository interface {
	// AddUser stores a new user or returns ErrUserAlreadyExists if username
	// or email are taken.
	AddUser(ctx context.Context, user *User) error
	// GetUser returns the user with the given id or ErrUserNotFound.
	GetUser(ctx context.Context, id string) (*User, error)
	// GetUserByUsername ...
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// GetUserByEmail ...
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// SearchUsers returns at most limit users whose username contains query.
	SearchUsers(ctx context.Context, query string, limit int) ([]User, error)
	// GetTopUsers returns at most limit users sorted by total value traded.
	GetTopUsers(ctx context.Context, limit int) ([]User, error)
	// CountUsers ...
	CountUsers(ctx context.Context) (int, error)
	// UpdateUser allows to commit multiple changes to the same user
	// atomically.
	UpdateUser(
		ctx context.Context, id string,
		updateFn func(u *User) (*User, error),
	) error
}

// TradeHistoryRepository is the abstraction for any kind of database
// intended to persist settlement snapshots.
type TradeHistoryRepository interface {
	// AddTrade stores a new trade history entry.
	AddTrade(ctx context.Context, trade *TradeHistory) error
	// GetTradesForUser returns the trades where the user took part, most
	// recent first.
	GetTradesForUser(ctx context.Context, userID string) ([]TradeHistory, error)
	// CountTrades ...
	CountTrades(ctx context.Context) (int, error)
}
