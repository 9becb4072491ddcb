// Package mathutil provides common mathematical utility functions for
// nullable financial values.
package mathutil

import (
	"math"

	"github.com/iwvelando/prebid-integrity/pkg/constants"
	"github.com/shopspring/decimal"
)

// RoundTo rounds a value to the given number of decimal places using
// round-half-to-even, so 0.125 becomes 0.12 and 0.135 becomes 0.14.
func RoundTo(val float64, places int32) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return val
	}
	return decimal.NewFromFloat(val).RoundBank(places).InexactFloat64()
}

// Round rounds a value to two decimals, i.e. to represent an amount in $000s.
func Round(val float64) float64 {
	return RoundTo(val, constants.AmountPlaces)
}

// RoundWhole rounds a value to zero decimals.
func RoundWhole(val float64) float64 {
	return RoundTo(val, 0)
}

// Ptr returns a pointer to a copy of v.
func Ptr(v float64) *float64 {
	return &v
}

// NonZero reports whether p holds a value other than zero. Missing and zero
// values are treated alike wherever a zero figure is indistinguishable from
// an absent one.
func NonZero(p *float64) bool {
	return p != nil && *p != 0
}

// Value returns the value held by p, or fallback when p is nil.
func Value(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

// ValueOrDefault returns the value held by p, or fallback when p is nil or zero.
func ValueOrDefault(p *float64, fallback float64) float64 {
	if !NonZero(p) {
		return fallback
	}
	return *p
}

// Ratio returns num / den, or nil when either side is missing or zero.
func Ratio(num, den *float64) *float64 {
	if !NonZero(num) || !NonZero(den) {
		return nil
	}
	return Ptr(*num / *den)
}

// RoundedRatio returns Ratio rounded to the given places.
func RoundedRatio(num, den *float64, places int32) *float64 {
	r := Ratio(num, den)
	if r == nil {
		return nil
	}
	return Ptr(RoundTo(*r, places))
}

// Average returns the arithmetic mean of vals and false when vals is empty.
func Average(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), true
}

// RelativeDiff returns |a - b| / max(|b|, 1).
func RelativeDiff(a, b float64) float64 {
	return math.Abs(a-b) / math.Max(math.Abs(b), 1)
}

// Equal reports whether two nullable values are both nil or hold the same value.
func Equal(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
