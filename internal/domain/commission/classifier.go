// Package commission classifies line items and computes rep payouts: the
// weighted four-bucket quarterly bonus and the per-order monthly commission.
package commission

import (
	"strings"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Classification tags how a line item participates in commission
type Classification string

const (
	Commissionable       Classification = "COMMISSIONABLE"
	ExcludedShipping     Classification = "EXCLUDED_SHIPPING"
	ExcludedCCProcessing Classification = "EXCLUDED_CC_PROCESSING"
	NegativeAdjustment   Classification = "NEGATIVE_ADJUSTMENT"
)

// Rules is the classification rule snapshot for one run
type Rules struct {
	ExcludeShipping     bool `json:"excludeShipping"`
	ExcludeCCProcessing bool `json:"excludeCCProcessing"`
}

// DefaultRules excludes shipping and card processing fees
func DefaultRules() Rules {
	return Rules{ExcludeShipping: true, ExcludeCCProcessing: true}
}

var ccProcessingMarkers = []string{"cc processing", "credit card processing"}

// IsCCProcessing flags card processing fee lines
func IsCCProcessing(item sales.LineItem) bool {
	name := strings.ToLower(item.ProductName)
	num := strings.ToLower(item.ProductNum)
	for _, m := range ccProcessingMarkers {
		if strings.Contains(name, m) || strings.Contains(num, m) {
			return true
		}
	}
	return false
}

// IsShipping flags shipping lines by explicit flag or product naming
func IsShipping(item sales.LineItem) bool {
	return item.IsShipping || sales.LooksLikeShipping(item.ProductNum, item.ProductName)
}

// Classify tags a line item. Negative totals always become adjustments,
// shipping credits included.
func Classify(item sales.LineItem, rules Rules) Classification {
	switch {
	case item.Amount().IsNegative():
		return NegativeAdjustment
	case rules.ExcludeShipping && IsShipping(item):
		return ExcludedShipping
	case rules.ExcludeCCProcessing && IsCCProcessing(item):
		return ExcludedCCProcessing
	default:
		return Commissionable
	}
}

// Breakdown splits an order's lines by classification
type Breakdown struct {
	Base             valueobject.Money `json:"base"`
	Negative         valueobject.Money `json:"negative"`
	ExcludedShipping valueobject.Money `json:"excludedShipping"`
	ExcludedCC       valueobject.Money `json:"excludedCC"`
}

// Net is the commissionable base after negative adjustments
func (b Breakdown) Net() valueobject.Money {
	return b.Base.Add(b.Negative)
}

// Summarize classifies every line and totals each class
func Summarize(items []sales.LineItem, rules Rules) Breakdown {
	b := Breakdown{
		Base:             valueobject.Zero(),
		Negative:         valueobject.Zero(),
		ExcludedShipping: valueobject.Zero(),
		ExcludedCC:       valueobject.Zero(),
	}
	for _, item := range items {
		amount := item.Amount()
		switch Classify(item, rules) {
		case NegativeAdjustment:
			b.Negative = b.Negative.Add(amount)
		case ExcludedShipping:
			b.ExcludedShipping = b.ExcludedShipping.Add(amount)
		case ExcludedCCProcessing:
			b.ExcludedCC = b.ExcludedCC.Add(amount)
		default:
			b.Base = b.Base.Add(amount)
		}
	}
	return b
}

// OrderCommission is base × rate / 100 plus the (negative) adjustments,
// rounded to cents. Adjustments reduce the commission itself, not the base.
func OrderCommission(items []sales.LineItem, ratePercent decimal.Decimal, rules Rules) valueobject.Money {
	b := Summarize(items, rules)
	return b.Base.Percent(ratePercent).Add(b.Negative).Cents()
}

// Tag stamps the classification onto each item and returns the tagged copy
func Tag(items []sales.LineItem, rules Rules) []sales.LineItem {
	out := make([]sales.LineItem, len(items))
	for i, item := range items {
		item.Classification = string(Classify(item, rules))
		out[i] = item
	}
	return out
}
