package domain

import "fmt"

// ExchangeStatus represents the different statuses that an exchange can
// assume.
type ExchangeStatus string

const (
	ExchangeStatusPending     ExchangeStatus = "pending"
	ExchangeStatusNegotiating ExchangeStatus = "negotiating"
	ExchangeStatusAccepted    ExchangeStatus = "accepted"
	ExchangeStatusCompleted   ExchangeStatus = "completed"
	ExchangeStatusCancelled   ExchangeStatus = "cancelled"
	ExchangeStatusExpired     ExchangeStatus = "expired"
)

// ActiveStatuses are the statuses of exchanges shown in the public feed.
var ActiveStatuses = []ExchangeStatus{
	ExchangeStatusPending, ExchangeStatusNegotiating,
}

var allowedTransitions = map[ExchangeStatus][]ExchangeStatus{
	ExchangeStatusPending: {
		ExchangeStatusNegotiating, ExchangeStatusAccepted,
		ExchangeStatusCancelled, ExchangeStatusExpired,
	},
	ExchangeStatusNegotiating: {
		ExchangeStatusNegotiating, ExchangeStatusAccepted,
		ExchangeStatusCancelled, ExchangeStatusExpired,
	},
	ExchangeStatusAccepted: {
		ExchangeStatusCompleted, ExchangeStatusCancelled, ExchangeStatusExpired,
	},
}

// IsValid returns whether the status is one of the known ones.
func (s ExchangeStatus) IsValid() bool {
	switch s {
	case ExchangeStatusPending, ExchangeStatusNegotiating, ExchangeStatusAccepted,
		ExchangeStatusCompleted, ExchangeStatusCancelled, ExchangeStatusExpired:
		return true
	}
	return false
}

// IsTerminal returns whether no transition is possible from the status.
func (s ExchangeStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) <= 0
}

// IsActive returns whether the status is one of ActiveStatuses.
func (s ExchangeStatus) IsActive() bool {
	return s == ExchangeStatusPending || s == ExchangeStatusNegotiating
}

// CanTransitionTo returns whether moving from s to next is allowed.
func (s ExchangeStatus) CanTransitionTo(next ExchangeStatus) bool {
	for _, st := range allowedTransitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

func (s ExchangeStatus) transitionTo(next ExchangeStatus) (ExchangeStatus, error) {
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, next)
	}
	return next, nil
}
