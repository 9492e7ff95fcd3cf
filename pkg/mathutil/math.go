package mathutil

import (
	"math"

	"github.com/shopspring/decimal"
)

//RoundTo rounds x half away from zero to the given number of decimal places
func RoundTo(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

//MulDiv returns x * y / z computed with decimal precision, z must not be zero
func MulDiv(x, y, z float64) float64 {
	X, Y, Z := decimal.NewFromFloat(x), decimal.NewFromFloat(y), decimal.NewFromFloat(z)
	return X.Mul(Y).DivRound(Z, 16).InexactFloat64()
}

//Sum adds up all the given numbers with decimal precision
func Sum(values ...float64) float64 {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.InexactFloat64()
}

//ClampInt returns x bounded to the range [min, max]
func ClampInt(x, min, max int) int {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

//RoundToInt rounds x half away from zero to the nearest integer
func RoundToInt(x float64) int {
	return int(math.Round(x))
}
