// Package fare prices parking time.
package fare

import "math"

// DefaultRatePerMinute is the campus parking rate.
const DefaultRatePerMinute = 0.10

// Calculator maps used minutes to an amount in currency units.
type Calculator struct {
	RatePerMinute float64
}

// NewCalculator creates a Calculator. A non-positive rate falls back to
// DefaultRatePerMinute.
func NewCalculator(ratePerMinute float64) Calculator {
	if ratePerMinute <= 0 {
		ratePerMinute = DefaultRatePerMinute
	}
	return Calculator{RatePerMinute: ratePerMinute}
}

// Calc returns minutes * rate rounded half-up to cents.
func (c Calculator) Calc(minutes int) float64 {
	return Round2(float64(minutes) * c.RatePerMinute)
}

// Round2 rounds a positive amount to two fraction digits, half-up.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
