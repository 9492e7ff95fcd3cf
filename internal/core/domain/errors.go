package domain

import "errors"

var (
	// ErrInvalidItem is returned when an item name is blank or too long.
	ErrInvalidItem = errors.New("item name must be a non empty string of at most 100 chars")
	// ErrInvalidAmount is returned when an amount is not a positive number
	// up to MaxAmount.
	ErrInvalidAmount = errors.New("amount must be a positive number not greater than 1e12")
	// ErrInvalidLegAmount is returned when a leg amount is out of the
	// tradable range.
	ErrInvalidLegAmount = errors.New("leg amount must be between 0.01 and 1e12")

	// ErrExchangeNotFound ...
	ErrExchangeNotFound = errors.New("exchange not found")
	// ErrIllegalTransition is returned when an action is not allowed for the
	// current status of an exchange.
	ErrIllegalTransition = errors.New("illegal exchange status transition")
	// ErrExchangeExpired is returned when acting on an exchange past its
	// expiration time.
	ErrExchangeExpired = errors.New("exchange is expired")
	// ErrSelfAccept ...
	ErrSelfAccept = errors.New("initiator cannot accept its own exchange")
	// ErrSelfRecipient ...
	ErrSelfRecipient = errors.New("initiator cannot be the recipient of its own exchange")
	// ErrNotRecipient is returned when somebody other than the designated
	// recipient tries to accept an exchange.
	ErrNotRecipient = errors.New("exchange is reserved to another recipient")
	// ErrNotInitiator ...
	ErrNotInitiator = errors.New("only the initiator can perform this operation")
	// ErrNotParticipant ...
	ErrNotParticipant = errors.New("only participants can perform this operation")
	// ErrInvalidMessage ...
	ErrInvalidMessage = errors.New("message must be a non empty string of at most 500 chars")
	// ErrInvalidRating ...
	ErrInvalidRating = errors.New("rating must be in range [1, 5]")
	// ErrAlreadyRated ...
	ErrAlreadyRated = errors.New("exchange already rated")

	// ErrUserNotFound ...
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned when username or email are taken.
	ErrUserAlreadyExists = errors.New("username or email already registered")
	// ErrInvalidUsername ...
	ErrInvalidUsername = errors.New("username must be 3-30 chars long and contain only letters, numbers and underscores")
	// ErrInvalidEmail ...
	ErrInvalidEmail = errors.New("email is not valid")
	// ErrInvalidPassword ...
	ErrInvalidPassword = errors.New("password must be at least 6 chars long")
	// ErrInvalidCredentials is returned on login with wrong identifier or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInventoryItemNotFound ...
	ErrInventoryItemNotFound = errors.New("inventory item not found")
)
