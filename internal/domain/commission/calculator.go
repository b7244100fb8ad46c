package commission

import (
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Default threshold and cap on blended attainment
var (
	DefaultThreshold = decimal.RequireFromString("0.75")
	DefaultCap       = decimal.RequireFromString("1.25")
	weightTolerance  = decimal.RequireFromString("0.0001")
	one              = decimal.NewFromInt(1)
)

// AttainmentStatus is the traffic-light state of an attainment
type AttainmentStatus string

const (
	StatusHit   AttainmentStatus = "hit"
	StatusClose AttainmentStatus = "close"
	StatusLow   AttainmentStatus = "low"
)

// Attainment is actual / goal; a goal of zero or less yields 0.
func Attainment(actual, goal decimal.Decimal) decimal.Decimal {
	if !goal.IsPositive() {
		return decimal.Zero
	}
	return actual.Div(goal)
}

// ApplyFloorAndCap zeroes attainment below floor and clamps it to cap.
func ApplyFloorAndCap(attainment, floor, cap decimal.Decimal) decimal.Decimal {
	if attainment.LessThan(floor) {
		return decimal.Zero
	}
	return decimal.Min(attainment, cap)
}

// BucketMax is maxBonus × weight × subWeight. A zero subWeight means the
// bucket has no sub-goals.
func BucketMax(maxBonus valueobject.Money, weight, subWeight decimal.Decimal) valueobject.Money {
	m := maxBonus.Multiply(weight)
	if !subWeight.IsZero() {
		m = m.Multiply(subWeight)
	}
	return m.Cents()
}

// StatusFor buckets an attainment: hit at 100%, close from 75%, else low.
func StatusFor(attainment decimal.Decimal) AttainmentStatus {
	switch {
	case attainment.GreaterThanOrEqual(one):
		return StatusHit
	case attainment.GreaterThanOrEqual(DefaultThreshold):
		return StatusClose
	default:
		return StatusLow
	}
}

// ValidateWeights reports whether weights sum to 1 within 0.0001.
func ValidateWeights(weights ...decimal.Decimal) bool {
	sum := decimal.Sum(decimal.Zero, weights...)
	return sum.Sub(one).Abs().LessThan(weightTolerance)
}
