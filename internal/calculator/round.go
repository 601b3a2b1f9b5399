package calculator

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Round2 rounds the exact binary value of v to two decimal places, ties to
// even. 2.675 is stored as 2.67499... and rounds to 2.67; 3.125 is an exact
// tie and rounds to 3.12. Non-finite values are returned unchanged.
func Round2(v float64) float64 {
	if !finite(v) {
		return v
	}
	return exact(v).RoundBank(2).InexactFloat64()
}

// Apply multiplies a balance by a coefficient and rounds the product to two
// decimals. A non-finite operand or product leaves the balance unchanged.
func Apply(balance, coefficient float64) float64 {
	p := balance * coefficient
	if !finite(balance) || !finite(coefficient) || !finite(p) {
		return balance
	}
	return Round2(p)
}

// Ratio returns num/den rounded to two decimals. A zero den yields ok=false.
func Ratio(num, den int) (float64, bool) {
	if den == 0 {
		return 0, false
	}
	return Round2(float64(num) / float64(den)), true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// exact converts v to a decimal without losing any binary digit.
// v = frac * 2^exp with frac in [0.5, 1), so frac * 2^53 is an integer.
func exact(v float64) decimal.Decimal {
	frac, exp := math.Frexp(v)
	mant := big.NewInt(int64(frac * (1 << 53)))
	shift := exp - 53
	if shift >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(shift)), 0)
	}
	// m * 2^-k == m * 5^k * 10^-k
	k := int64(-shift)
	five := new(big.Int).Exp(big.NewInt(5), big.NewInt(k), nil)
	return decimal.NewFromBigInt(mant.Mul(mant, five), int32(-k))
}
