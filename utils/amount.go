package utils

import "math/big"

var twoHundred = big.NewInt(200)

// EqualWithinPercent reports whether a and b match within threshold percent,
// using the symmetric difference d = 200*(a-b)/(a+b): true iff -threshold < d < threshold.
// Amounts summing to zero never match.
func EqualWithinPercent(a, b *big.Int, threshold int64) bool {
	if a == nil || b == nil {
		return false
	}
	sum := new(big.Int).Add(a, b)
	if sum.Sign() <= 0 {
		return false
	}
	// |200*(a-b)| < threshold*(a+b), no division needed
	diff := new(big.Int).Sub(a, b)
	diff.Abs(diff).Mul(diff, twoHundred)
	limit := new(big.Int).Mul(sum, big.NewInt(threshold))
	return diff.Cmp(limit) < 0
}

// PercentDiff returns 200*(a-b)/(a+b) truncated toward zero, and false when
// a+b is not positive.
func PercentDiff(a, b *big.Int) (*big.Int, bool) {
	if a == nil || b == nil {
		return nil, false
	}
	sum := new(big.Int).Add(a, b)
	if sum.Sign() <= 0 {
		return nil, false
	}
	d := new(big.Int).Sub(a, b)
	d.Mul(d, twoHundred)
	return d.Quo(d, sum), true
}
