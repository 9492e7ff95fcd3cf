package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	user, err := domain.NewUser("Satoshi_N", " Satoshi@Example.com ", "hodlhodl")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "satoshi_n", user.Username)
	require.Equal(t, "satoshi@example.com", user.Email)
	require.Equal(t, domain.InitialReputation, user.Stats.Reputation)
	require.NotEqual(t, "hodlhodl", user.PasswordHash)
	require.True(t, user.CheckPassword("hodlhodl"))
	require.False(t, user.CheckPassword("hodlhodL"))
}

func TestFailingNewUser(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		email       string
		password    string
		expectedErr error
	}{
		{"with_short_username", "ab", "a@b.co", "password", domain.ErrInvalidUsername},
		{"with_invalid_username_chars", "bad-name", "a@b.co", "password", domain.ErrInvalidUsername},
		{"with_invalid_email", "goodname", "not-an-email", "password", domain.ErrInvalidEmail},
		{"with_short_password", "goodname", "a@b.co", "12345", domain.ErrInvalidPassword},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			user, err := domain.NewUser(tt.username, tt.email, tt.password)
			require.ErrorIs(t, err, tt.expectedErr)
			require.Nil(t, user)
		})
	}
}

func TestUserStats(t *testing.T) {
	t.Parallel()

	user := &domain.User{Stats: domain.UserStats{Reputation: domain.InitialReputation}}

	user.RecordExchange()
	user.RecordTrade(0.1)
	user.RecordTrade(0.2)
	require.Equal(t, 1, user.Stats.TotalExchanges)
	require.Equal(t, 2, user.Stats.SuccessfulTrades)
	require.Equal(t, 0.3, user.Stats.TotalValueTraded)

	user.ApplyRating(5)
	require.Equal(t, 104, user.Stats.Reputation)
	user.ApplyRating(1)
	require.Equal(t, 100, user.Stats.Reputation)
}

func TestUserInventory(t *testing.T) {
	t.Parallel()

	user := &domain.User{}

	item, err := user.AddInventoryItem("rolex", 1, 15000, "")
	require.NoError(t, err)
	require.Len(t, user.Inventory, 1)

	_, err = user.AddInventoryItem("", 1, 0, "")
	require.ErrorIs(t, err, domain.ErrInvalidItem)

	err = user.RemoveInventoryItem("unknown")
	require.ErrorIs(t, err, domain.ErrInventoryItemNotFound)

	err = user.RemoveInventoryItem(item.ID)
	require.NoError(t, err)
	require.Empty(t, user.Inventory)
}

func TestPage(t *testing.T) {
	t.Parallel()

	page := domain.NewPage(0, 0)
	require.Equal(t, domain.Page{Number: 1, Size: domain.DefaultPageSize}, page)
	require.Zero(t, page.Offset())

	page = domain.NewPage(3, 1000)
	require.Equal(t, domain.MaxPageSize, page.Size)
	require.Equal(t, 200, page.Offset())
	require.Equal(t, 3, page.Pages(201))
	require.Zero(t, page.Pages(0))
}
