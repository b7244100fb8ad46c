package commission

import (
	"sort"
	"strings"
	"time"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SpiffType is how a spiff incentive is paid
type SpiffType string

const (
	SpiffFlat       SpiffType = "flat"
	SpiffPercentage SpiffType = "percentage"
)

// NormalizeSpiffType keeps only letters, lowercased: "Flat $" becomes "flat"
func NormalizeSpiffType(raw string) SpiffType {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return SpiffType(b.String())
}

// Spiff is a product incentive paid on top of commission
type Spiff struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	ProductNum string          `json:"productNum" validate:"required"`
	Type       string          `json:"incentiveType"`
	Value      decimal.Decimal `json:"incentiveValue"`
	Active     bool            `json:"isActive"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    *time.Time      `json:"endDate,omitempty"`
}

// ActiveDuring reports whether the spiff overlaps [start, end]
func (s Spiff) ActiveDuring(start, end time.Time) bool {
	if !s.Active {
		return false
	}
	if s.StartDate.After(end) {
		return false
	}
	return s.EndDate == nil || !s.EndDate.Before(start)
}

// Earning is what a line item earns: quantity × value for flat spiffs, line
// revenue × value / 100 for percentage spiffs. Unknown types earn nothing.
func (s Spiff) Earning(item sales.LineItem) valueobject.Money {
	switch NormalizeSpiffType(s.Type) {
	case SpiffFlat:
		return valueobject.NewMoney(item.Quantity.Mul(s.Value)).Cents()
	case SpiffPercentage:
		return item.Amount().Percent(s.Value).Cents()
	default:
		return valueobject.Zero()
	}
}

// SpiffBook indexes the spiffs active in a window by product number
type SpiffBook struct {
	byProduct map[string]Spiff
}

// NewSpiffBook keeps spiffs active within [start, end]; on product collisions
// the lowest spiff id wins.
func NewSpiffBook(spiffs []Spiff, start, end time.Time) *SpiffBook {
	sorted := make([]Spiff, len(spiffs))
	copy(sorted, spiffs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	b := &SpiffBook{byProduct: make(map[string]Spiff)}
	for _, s := range sorted {
		num := strings.TrimSpace(s.ProductNum)
		if num == "" || !s.ActiveDuring(start, end) {
			continue
		}
		if _, exists := b.byProduct[num]; !exists {
			b.byProduct[num] = s
		}
	}
	return b
}

// For returns the spiff for a line item's product, if any
func (b *SpiffBook) For(item sales.LineItem) (Spiff, bool) {
	if b == nil {
		return Spiff{}, false
	}
	s, ok := b.byProduct[item.ProductKey()]
	return s, ok
}

// Len returns the number of active spiffs
func (b *SpiffBook) Len() int {
	if b == nil {
		return 0
	}
	return len(b.byProduct)
}
