package commission

import (
	"math"
	"sort"
	"time"

	"github.com/kanva/portal/internal/domain/sales"
)

// CustomerStatus drives the monthly commission rate for an order
type CustomerStatus string

const (
	CustomerNew         CustomerStatus = "new"
	CustomerOwn         CustomerStatus = "own"
	CustomerSixMonth    CustomerStatus = "6month"
	CustomerTwelveMonth CustomerStatus = "12month"
	CustomerTransferred CustomerStatus = "transferred"
)

// recentOrderWindow is how many prior orders are checked for a rep change
const recentOrderWindow = 10

// DefaultReorgDate is when accounts were redistributed between reps
var DefaultReorgDate = time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

// StatusRules configures status determination
type StatusRules struct {
	ApplyReorgRule bool
	ReorgDate      time.Time
}

// DefaultStatusRules enables the reorg rule at the default reorg date
func DefaultStatusRules() StatusRules {
	return StatusRules{ApplyReorgRule: true, ReorgDate: DefaultReorgDate}
}

// PriorOrder is the slice of order history status determination needs
type PriorOrder struct {
	OrderID     string
	PostingDate time.Time
	SalesPerson string
}

// StatusInput is everything known about an order's customer
type StatusInput struct {
	Override    sales.TransferStatus
	SalesPerson string
	OrderDate   time.Time
	History     []PriorOrder
}

// DetermineStatus resolves the customer status for one order. A manual
// override other than "auto" wins. Otherwise the order history before
// OrderDate decides; months are whole 30-day spans.
func DetermineStatus(in StatusInput, rules StatusRules) CustomerStatus {
	if in.Override != "" && in.Override != sales.TransferStatusAuto {
		return CustomerStatus(in.Override)
	}

	prior := make([]PriorOrder, 0, len(in.History))
	for _, o := range in.History {
		if o.PostingDate.Before(in.OrderDate) {
			prior = append(prior, o)
		}
	}
	if len(prior) == 0 {
		return CustomerNew
	}
	sort.SliceStable(prior, func(i, j int) bool {
		return prior[i].PostingDate.After(prior[j].PostingDate)
	})

	first := prior[len(prior)-1].PostingDate
	last := prior[0]
	recent := prior
	if len(recent) > recentOrderWindow {
		recent = recent[:recentOrderWindow]
	}

	if monthsBetween(last.PostingDate, in.OrderDate) >= 12 {
		return CustomerOwn
	}

	age := monthsBetween(first, in.OrderDate)
	if rules.ApplyReorgRule && !in.OrderDate.Before(rules.ReorgDate) && age > 6 {
		for _, o := range recent {
			if o.PostingDate.Before(rules.ReorgDate) && o.SalesPerson != in.SalesPerson {
				return CustomerTransferred
			}
		}
	}

	if last.SalesPerson != in.SalesPerson {
		return CustomerTransferred
	}

	switch {
	case age <= 6:
		return CustomerNew
	case age <= 12:
		return CustomerSixMonth
	default:
		return CustomerTwelveMonth
	}
}

func monthsBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / (24 * 30)))
}
