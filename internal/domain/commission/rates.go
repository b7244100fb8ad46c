package commission

import (
	"strings"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// Segment is the rate table's account segment
type Segment string

const (
	SegmentWholesale   Segment = "wholesale"
	SegmentDistributor Segment = "distributor"
	SegmentRetail      Segment = "retail"
)

// SegmentFor maps an account type to a segment, defaulting to distributor
func SegmentFor(accountType sales.AccountType) Segment {
	v := strings.ToLower(string(accountType))
	switch {
	case strings.Contains(v, "wholesale"):
		return SegmentWholesale
	case strings.Contains(v, "distributor"):
		return SegmentDistributor
	case strings.Contains(v, "retail"):
		return SegmentRetail
	default:
		return SegmentDistributor
	}
}

// RateKey is the status column of the rate table
type RateKey string

const (
	RateNewBusiness    RateKey = "new_business"
	RateSixMonth       RateKey = "6_month_active"
	RateTwelveMonth    RateKey = "12_month_active"
	RateKeyTransferred RateKey = "transferred"
)

// RateKeyFor maps a customer status onto the rate table
func RateKeyFor(status CustomerStatus) RateKey {
	switch status {
	case CustomerNew, CustomerOwn:
		return RateNewBusiness
	case CustomerSixMonth:
		return RateSixMonth
	case CustomerTwelveMonth:
		return RateTwelveMonth
	case CustomerTransferred:
		return RateKeyTransferred
	default:
		return RateKey(status)
	}
}

// RateRule is one configured commission rate
type RateRule struct {
	Title      string          `json:"title" validate:"required"`
	Segment    Segment         `json:"segmentId" validate:"required"`
	Status     RateKey         `json:"status" validate:"required"`
	Percentage decimal.Decimal `json:"percentage"`
	Active     *bool           `json:"active,omitempty"`
}

func (r RateRule) enabled() bool {
	return r.Active == nil || *r.Active
}

// Rate is a resolved commission rate in percent
type Rate struct {
	Percent    decimal.Decimal `json:"percent"`
	Configured bool            `json:"configured"`
}

// Source labels where the rate came from
func (r Rate) Source() string {
	if r.Configured {
		return "configured"
	}
	return "default"
}

type rateKey struct {
	title   string
	segment Segment
	status  RateKey
}

// RateTable resolves rates for a run. Earlier rules win on duplicates.
type RateTable struct {
	rules map[rateKey]decimal.Decimal
}

// NewRateTable indexes the active rules
func NewRateTable(rules []RateRule) *RateTable {
	t := &RateTable{rules: make(map[rateKey]decimal.Decimal, len(rules))}
	for _, r := range rules {
		if !r.enabled() {
			continue
		}
		k := rateKey{title: r.Title, segment: r.Segment, status: r.Status}
		if _, exists := t.rules[k]; !exists {
			t.rules[k] = r.Percentage
		}
	}
	return t
}

var (
	fallbackNewBusiness = decimal.NewFromInt(8)
	fallbackTransferred = decimal.NewFromInt(2)
	fallbackDefault     = decimal.NewFromInt(2)
	fallbackBySegment   = map[Segment]map[RateKey]decimal.Decimal{
		SegmentDistributor: {RateSixMonth: decimal.NewFromInt(5), RateTwelveMonth: decimal.NewFromInt(3)},
		SegmentWholesale:   {RateSixMonth: decimal.NewFromInt(7), RateTwelveMonth: decimal.NewFromInt(5)},
	}
)

// Lookup resolves the rate for a rep title, account type and status.
// Retail always pays 0. Unconfigured combinations use the built-in defaults.
func (t *RateTable) Lookup(title string, accountType sales.AccountType, status CustomerStatus) Rate {
	segment := SegmentFor(accountType)
	if segment == SegmentRetail {
		return Rate{Percent: decimal.Zero, Configured: true}
	}
	key := RateKeyFor(status)
	if t != nil {
		if pct, ok := t.rules[rateKey{title: title, segment: segment, status: key}]; ok {
			return Rate{Percent: pct, Configured: true}
		}
	}

	switch key {
	case RateNewBusiness:
		return Rate{Percent: fallbackNewBusiness}
	case RateKeyTransferred:
		return Rate{Percent: fallbackTransferred}
	}
	if pct, ok := fallbackBySegment[segment][key]; ok {
		return Rate{Percent: pct}
	}
	return Rate{Percent: fallbackDefault}
}
