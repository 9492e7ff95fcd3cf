package estimator_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/barter-daemon/internal/infrastructure/estimator"
)

func TestParseEstimate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{"plain_integer", "450", 450},
		{"decimal", "12.75", 12.75},
		{"thousands_separators", "1,250,000", 1250000},
		{"with_currency_and_text", "About $2,499.99 USD.", 2499.99},
		{"first_number_wins", "between 300 and 500", 300},
		{"with_newlines", "\n\n  85\n", 85},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			value, err := estimator.ParseEstimate(tt.text)
			require.NoError(t, err)
			require.Equal(t, tt.expected, value)
		})
	}
}

func TestFailingParseEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no_number", "I cannot estimate that"},
		{"zero", "0"},
		{"negative", "-25"},
		{"too_big", "1,000,000,000"},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := estimator.ParseEstimate(tt.text)
			require.Error(t, err)
		})
	}
}

func TestPrompt(t *testing.T) {
	t.Parallel()

	prompt := estimator.Prompt("  vintage guitar ")
	require.Contains(t, prompt, "one unit of: vintage guitar.")
	require.Contains(t, prompt, "single number")
}
