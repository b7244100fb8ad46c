// Package metrics derives per-customer sales metrics from line items.
package metrics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

const (
	day         = 24 * time.Hour
	topProducts = 3
)

// WindowStat is the sales sum and distinct order count inside a time window
type WindowStat struct {
	Sales  valueobject.Money `json:"sales"`
	Orders int               `json:"orders"`
}

// ProductStat is the revenue of one product for a customer
type ProductStat struct {
	ProductKey  string            `json:"productKey"`
	ProductName string            `json:"productName,omitempty"`
	Revenue     valueobject.Money `json:"revenue"`
	Quantity    decimal.Decimal   `json:"quantity"`
}

// MonthlySale is the sales of one calendar month, keyed "YYYY-MM"
type MonthlySale struct {
	Month  string            `json:"month"`
	Sales  valueobject.Money `json:"sales"`
	Orders int               `json:"orders"`
}

// CustomerMetrics is the aggregate view of a customer's purchase history
type CustomerMetrics struct {
	CustomerID         string            `json:"customerId"`
	TotalOrders        int               `json:"totalOrders"`
	TotalSales         valueobject.Money `json:"totalSales"`
	Last30Days         WindowStat        `json:"last30Days"`
	Last90Days         WindowStat        `json:"last90Days"`
	Last12Months       WindowStat        `json:"last12Months"`
	YearToDate         WindowStat        `json:"yearToDate"`
	FirstOrderDate     *time.Time        `json:"firstOrderDate,omitempty"`
	LastOrderDate      *time.Time        `json:"lastOrderDate,omitempty"`
	DaysSinceLastOrder *int              `json:"daysSinceLastOrder,omitempty"`
	AvgOrderValue      valueobject.Money `json:"avgOrderValue"`
	Velocity           float64           `json:"velocity"`
	Trend              float64           `json:"trend"`
	LastOrderAmount    valueobject.Money `json:"lastOrderAmount"`
	TopProducts        []ProductStat     `json:"topProducts"`
	MonthlySales       []MonthlySale     `json:"monthlySales"`
	ComputedAt         time.Time         `json:"computedAt"`
}

type window struct {
	from   time.Time
	to     time.Time
	sales  decimal.Decimal
	orders map[string]struct{}
}

func newWindow(from, to time.Time) *window {
	return &window{from: from, to: to, sales: decimal.Zero, orders: make(map[string]struct{})}
}

// add counts the item when from <= at, and at < to when an upper bound is set
func (w *window) add(at time.Time, order string, amount decimal.Decimal) {
	if at.Before(w.from) {
		return
	}
	if !w.to.IsZero() && !at.Before(w.to) {
		return
	}
	w.sales = w.sales.Add(amount)
	w.orders[order] = struct{}{}
}

func (w *window) stat() WindowStat {
	return WindowStat{Sales: valueobject.NewMoney(w.sales), Orders: len(w.orders)}
}

type orderTotal struct {
	key    string
	date   time.Time
	amount decimal.Decimal
}

// Aggregate computes metrics for one customer. It depends only on its
// arguments: the same items and now always give the same result.
func Aggregate(customerID string, items []sales.LineItem, now time.Time) CustomerMetrics {
	ytdStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	w30 := newWindow(now.Add(-30*day), time.Time{})
	w90 := newWindow(now.Add(-90*day), time.Time{})
	wPrior90 := newWindow(now.Add(-180*day), now.Add(-90*day))
	w12m := newWindow(now.Add(-365*day), time.Time{})
	wYTD := newWindow(ytdStart, time.Time{})

	total := decimal.Zero
	orders := make(map[string]*orderTotal)
	products := make(map[string]*ProductStat)
	months := make(map[string]*window)
	var first, last time.Time

	for _, item := range items {
		amount := item.Amount().Amount()
		key := orderKey(item)
		total = total.Add(amount)

		o, ok := orders[key]
		if !ok {
			o = &orderTotal{key: key, amount: decimal.Zero}
			orders[key] = o
		}
		o.amount = o.amount.Add(amount)

		if pk := item.ProductKey(); pk != "" {
			p, ok := products[pk]
			if !ok {
				p = &ProductStat{ProductKey: pk, Revenue: valueobject.Zero(), Quantity: decimal.Zero}
				products[pk] = p
			}
			p.Revenue = p.Revenue.Add(item.Amount())
			p.Quantity = p.Quantity.Add(item.Quantity)
			if p.ProductName == "" {
				p.ProductName = strings.TrimSpace(item.ProductName)
			}
		}

		at := item.PostingDate
		if at.IsZero() {
			continue
		}
		if o.date.IsZero() || at.After(o.date) {
			o.date = at
		}
		if first.IsZero() || at.Before(first) {
			first = at
		}
		if last.IsZero() || at.After(last) {
			last = at
		}
		for _, w := range []*window{w30, w90, wPrior90, w12m, wYTD} {
			w.add(at, key, amount)
		}
		month := at.Format("2006-01")
		mw, ok := months[month]
		if !ok {
			mw = newWindow(time.Time{}, time.Time{})
			months[month] = mw
		}
		mw.add(at, key, amount)
	}

	m := CustomerMetrics{
		CustomerID:      customerID,
		TotalOrders:     len(orders),
		TotalSales:      valueobject.NewMoney(total),
		Last30Days:      w30.stat(),
		Last90Days:      w90.stat(),
		Last12Months:    w12m.stat(),
		YearToDate:      wYTD.stat(),
		AvgOrderValue:   valueobject.Zero(),
		LastOrderAmount: valueobject.Zero(),
		TopProducts:     rankProducts(products),
		MonthlySales:    sortMonths(months),
		ComputedAt:      now,
	}

	if len(orders) > 0 {
		avg := total.Div(decimal.NewFromInt(int64(len(orders))))
		m.AvgOrderValue = valueobject.NewMoney(avg).Cents()
	}
	m.Velocity = round2(float64(len(w12m.orders)) / 12)
	m.Trend = trend(w90.sales, wPrior90.sales)

	if !last.IsZero() {
		f, l := first, last
		m.FirstOrderDate = &f
		m.LastOrderDate = &l
		days := int(math.Floor(now.Sub(last).Hours() / 24))
		m.DaysSinceLastOrder = &days
		if latest := latestOrder(orders); latest != nil {
			m.LastOrderAmount = valueobject.NewMoney(latest.amount)
		}
	}
	return m
}

func orderKey(item sales.LineItem) string {
	if k := strings.TrimSpace(item.OrderNumber); k != "" {
		return k
	}
	return strings.TrimSpace(item.OrderID)
}

func rankProducts(products map[string]*ProductStat) []ProductStat {
	ranked := make([]ProductStat, 0, len(products))
	for _, p := range products {
		ranked = append(ranked, *p)
	}
	sort.Slice(ranked, func(i, j int) bool {
		cmp := ranked[i].Revenue.Amount().Cmp(ranked[j].Revenue.Amount())
		if cmp != 0 {
			return cmp > 0
		}
		return ranked[i].ProductKey < ranked[j].ProductKey
	})
	if len(ranked) > topProducts {
		ranked = ranked[:topProducts]
	}
	return ranked
}

func sortMonths(months map[string]*window) []MonthlySale {
	out := make([]MonthlySale, 0, len(months))
	for month, w := range months {
		out = append(out, MonthlySale{Month: month, Sales: valueobject.NewMoney(w.sales), Orders: len(w.orders)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// latestOrder picks the order with the latest posting date; equal dates
// resolve to the highest order key.
func latestOrder(orders map[string]*orderTotal) *orderTotal {
	var latest *orderTotal
	for _, o := range orders {
		if o.date.IsZero() {
			continue
		}
		if latest == nil || o.date.After(latest.date) ||
			(o.date.Equal(latest.date) && sales.CompareIDs(o.key, latest.key) > 0) {
			latest = o
		}
	}
	return latest
}

// trend is the percent change of the last 90 days against the 90 days before.
func trend(current, prior decimal.Decimal) float64 {
	if prior.IsZero() {
		return 0
	}
	pct := current.Sub(prior).Div(prior).Mul(decimal.NewFromInt(100)).Round(2)
	f, _ := pct.Float64()
	return f
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
