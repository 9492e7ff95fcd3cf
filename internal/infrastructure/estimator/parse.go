package estimator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxEstimate is the exclusive upper bound of an acceptable estimate.
const MaxEstimate = 1e9

var numberRegexp = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// Prompt returns the question submitted to text generation backends.
func Prompt(item string) string {
	return fmt.Sprintf(
		"Estimate the current average market price in USD of one unit of: %s. "+
			"Reply with a single number only.",
		strings.TrimSpace(item),
	)
}

// ParseEstimate extracts the first number of the given text, ignoring
// thousands separators. Only values in (0, MaxEstimate) are accepted.
func ParseEstimate(text string) (float64, error) {
	match := numberRegexp.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("no number found in %q", text)
	}

	value, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0, err
	}
	if !value.IsPositive() || value.GreaterThanOrEqual(decimal.NewFromFloat(MaxEstimate)) {
		return 0, fmt.Errorf("estimate %s out of range", value)
	}
	return value.InexactFloat64(), nil
}
