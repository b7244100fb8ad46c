package commission

import (
	"sort"
	"strings"
	"time"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ProductMixTopN is how many products share the Product Mix goal
const ProductMixTopN = 10

// ProductMixLine is one product's share of a rep's revenue
type ProductMixLine struct {
	ProductNum string            `json:"productNum"`
	Product    string            `json:"product"`
	Revenue    valueobject.Money `json:"revenue"`
	Quantity   decimal.Decimal   `json:"quantity"`
	Percentage decimal.Decimal   `json:"percentage"`
}

// ProductMix groups in-period items by product number, drops shipping and
// freight, and sorts by revenue descending. Percentages are of all in-period
// revenue, shipping included.
func ProductMix(items []sales.LineItem, period Period) []ProductMixLine {
	groups := make(map[string]*ProductMixLine)
	total := valueobject.Zero()

	for _, item := range items {
		if !inPeriod(item.PostingDate, period) {
			continue
		}
		total = total.Add(item.Amount())

		num := strings.TrimSpace(item.ProductNum)
		if num == "" {
			num = "Unknown"
		}
		g, ok := groups[num]
		if !ok {
			name := strings.TrimSpace(item.ProductName)
			if name == "" {
				name = "Unknown Product"
			}
			g = &ProductMixLine{ProductNum: num, Product: name, Revenue: valueobject.Zero(), Quantity: decimal.Zero}
			groups[num] = g
		}
		g.Revenue = g.Revenue.Add(item.Amount())
		g.Quantity = g.Quantity.Add(item.Quantity)
	}

	mix := make([]ProductMixLine, 0, len(groups))
	for _, g := range groups {
		if sales.LooksLikeShipping(g.ProductNum, g.Product) {
			continue
		}
		g.Percentage = decimal.Zero
		if total.IsPositive() {
			g.Percentage = g.Revenue.Amount().Div(total.Amount()).Mul(decimal.NewFromInt(100)).Round(2)
		}
		mix = append(mix, *g)
	}
	sort.Slice(mix, func(i, j int) bool {
		if c := mix[i].Revenue.Amount().Cmp(mix[j].Revenue.Amount()); c != 0 {
			return c > 0
		}
		return mix[i].ProductNum < mix[j].ProductNum
	})
	return mix
}

// ProductMixGoals splits the Product Mix goal evenly across the top products
// and returns the sub-goals with their revenue actuals.
func ProductMixGoals(mix []ProductMixLine, bucketGoal decimal.Decimal) ([]SubGoal, map[string]decimal.Decimal) {
	top := mix
	if len(top) > ProductMixTopN {
		top = top[:ProductMixTopN]
	}
	actuals := make(map[string]decimal.Decimal, len(top))
	if len(top) == 0 {
		return nil, actuals
	}
	perProduct := bucketGoal.Div(decimal.NewFromInt(int64(len(top))))
	subs := make([]SubGoal, 0, len(top))
	for _, p := range top {
		subs = append(subs, SubGoal{
			ID:        p.ProductNum,
			Label:     p.Product,
			Goal:      perProduct,
			SubWeight: one,
		})
		actuals[p.ProductNum] = p.Revenue.Amount()
	}
	return subs, actuals
}

// CustomerSplit separates revenue from customers first seen in the period
type CustomerSplit struct {
	NewCustomers      []string          `json:"newCustomers"`
	ExistingCustomers []string          `json:"existingCustomers"`
	NewRevenue        valueobject.Money `json:"newRevenue"`
	ExistingRevenue   valueobject.Money `json:"existingRevenue"`
}

// SplitCustomers labels a customer new when its first ever order is on or
// after periodStart. Customers with no known first order are existing.
func SplitCustomers(items []sales.LineItem, firstOrders map[string]time.Time, periodStart time.Time) CustomerSplit {
	split := CustomerSplit{NewRevenue: valueobject.Zero(), ExistingRevenue: valueobject.Zero()}
	seen := make(map[string]bool)
	for _, item := range items {
		first, ok := firstOrders[item.CustomerID]
		isNew := ok && !first.Before(periodStart)
		if isNew {
			split.NewRevenue = split.NewRevenue.Add(item.Amount())
		} else {
			split.ExistingRevenue = split.ExistingRevenue.Add(item.Amount())
		}
		if item.CustomerID == "" || seen[item.CustomerID] {
			continue
		}
		seen[item.CustomerID] = true
		if isNew {
			split.NewCustomers = append(split.NewCustomers, item.CustomerID)
		} else {
			split.ExistingCustomers = append(split.ExistingCustomers, item.CustomerID)
		}
	}
	sort.Slice(split.NewCustomers, func(i, j int) bool {
		return sales.CompareIDs(split.NewCustomers[i], split.NewCustomers[j]) < 0
	})
	sort.Slice(split.ExistingCustomers, func(i, j int) bool {
		return sales.CompareIDs(split.ExistingCustomers[i], split.ExistingCustomers[j]) < 0
	})
	return split
}

func inPeriod(at time.Time, period Period) bool {
	if !period.Start.IsZero() && at.Before(period.Start) {
		return false
	}
	if !period.End.IsZero() && at.After(period.End) {
		return false
	}
	return true
}
