package commission

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MonthlyConfig is the rule snapshot for a monthly run
type MonthlyConfig struct {
	Rules  Rules
	Status StatusRules
}

// DefaultMonthlyConfig returns the default classification and status rules
func DefaultMonthlyConfig() MonthlyConfig {
	return MonthlyConfig{Rules: DefaultRules(), Status: DefaultStatusRules()}
}

// Month is a calendar month, e.g. 2025-08
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses "YYYY-MM"
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Window returns the first instant and the last millisecond of the month
func (m Month) Window(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}

// MonthlyCommission is the commission earned on one order
type MonthlyCommission struct {
	ID               string            `json:"id"`
	RepID            string            `json:"repId"`
	SalesPerson      string            `json:"salesPerson"`
	RepName          string            `json:"repName"`
	RepTitle         string            `json:"repTitle"`
	OrderID          string            `json:"orderId"`
	OrderNum         string            `json:"orderNum"`
	CustomerID       string            `json:"customerId"`
	CustomerName     string            `json:"customerName"`
	AccountType      sales.AccountType `json:"accountType"`
	Segment          Segment           `json:"customerSegment"`
	CustomerStatus   CustomerStatus    `json:"customerStatus"`
	OrderRevenue     valueobject.Money `json:"orderRevenue"`
	CommissionRate   decimal.Decimal   `json:"commissionRate"`
	CommissionAmount valueobject.Money `json:"commissionAmount"`
	RateSource       string            `json:"rateSource"`
	OrderDate        time.Time         `json:"orderDate"`
	Month            string            `json:"commissionMonth"`
	IsOverride       bool              `json:"isOverride"`
	OverrideReason   string            `json:"overrideReason,omitempty"`
	Notes            string            `json:"notes"`
	CalculatedAt     time.Time         `json:"calculatedAt"`
}

// SpiffEarning is a spiff paid on one line item
type SpiffEarning struct {
	ID          string            `json:"id"`
	RepID       string            `json:"repId"`
	SalesPerson string            `json:"salesPerson"`
	RepName     string            `json:"repName"`
	SpiffID     string            `json:"spiffId"`
	SpiffName   string            `json:"spiffName"`
	ProductNum  string            `json:"productNum"`
	OrderID     string            `json:"orderId"`
	OrderNum    string            `json:"orderNum"`
	CustomerID  string            `json:"customerId"`
	LineItemID  string            `json:"lineItemId"`
	Quantity    decimal.Decimal   `json:"quantity"`
	LineRevenue valueobject.Money `json:"lineRevenue"`
	SpiffType   SpiffType         `json:"incentiveType"`
	SpiffValue  decimal.Decimal   `json:"incentiveValue"`
	Amount      valueobject.Money `json:"spiffAmount"`
	OrderDate   time.Time         `json:"orderDate"`
	Month       string            `json:"commissionMonth"`
}

// MonthlySummary rolls up one rep's month
type MonthlySummary struct {
	ID              string            `json:"id"`
	SalesPerson     string            `json:"salesPerson"`
	RepName         string            `json:"repName"`
	Month           string            `json:"month"`
	TotalOrders     int               `json:"totalOrders"`
	TotalRevenue    valueobject.Money `json:"totalRevenue"`
	TotalCommission valueobject.Money `json:"totalCommission"`
	TotalSpiffs     valueobject.Money `json:"totalSpiffs"`
	TotalEarnings   valueobject.Money `json:"totalEarnings"`
	CalculatedAt    time.Time         `json:"calculatedAt"`
}

// MonthStats counts processed and skipped orders
type MonthStats struct {
	Processed    int `json:"processed"`
	Calculated   int `json:"commissionsCalculated"`
	Duplicate    int `json:"duplicateSkipped"`
	OutsideMonth int `json:"outsideMonthSkipped"`
	ZeroQuantity int `json:"zeroQuantitySkipped"`
	Admin        int `json:"adminSkipped"`
	Shopify      int `json:"shopifySkipped"`
	InactiveRep  int `json:"inactiveRepSkipped"`
	Retail       int `json:"retailSkipped"`
	ZeroRate     int `json:"zeroRateSkipped"`
	DefaultRate  int `json:"defaultRateUsed"`
	Overrides    int `json:"overridesPreserved"`
}

// MonthInput is the data snapshot for one monthly run
type MonthInput struct {
	Month       Month
	SalesPerson string
	Orders      []sales.Order
	Customers   []sales.Customer
	Reps        []sales.Rep
	RateRules   []RateRule
	Spiffs      []Spiff
	// History holds prior orders per customer id
	History map[string][]PriorOrder
	// Existing holds previously stored commissions by id, for override checks
	Existing map[string]MonthlyCommission
	Now      time.Time
}

// MonthResult is the outcome of CalculateMonth
type MonthResult struct {
	Month           string              `json:"month"`
	Commissions     []MonthlyCommission `json:"commissions"`
	SpiffEarnings   []SpiffEarning      `json:"spiffEarnings"`
	Summaries       []MonthlySummary    `json:"summaries"`
	Stats           MonthStats          `json:"stats"`
	TotalCommission valueobject.Money   `json:"totalCommission"`
	SkippedReps     []string            `json:"skippedReps,omitempty"`
}

// CommissionID builds salesPerson_YYYY-MM_order_orderId
func CommissionID(salesPerson, month, orderID string) string {
	return fmt.Sprintf("%s_%s_order_%s", salesPerson, month, orderID)
}

// SpiffEarningID builds salesPerson_YYYY-MM_spiff_lineItemId
func SpiffEarningID(salesPerson, month, lineItemID string) string {
	return fmt.Sprintf("%s_%s_spiff_%s", salesPerson, month, lineItemID)
}

// SummaryID builds salesPerson_YYYY-MM
func SummaryID(salesPerson, month string) string {
	return fmt.Sprintf("%s_%s", salesPerson, month)
}

type repTotals struct {
	rep        *sales.Rep
	orders     int
	revenue    valueobject.Money
	commission valueobject.Money
	spiffs     valueobject.Money
}

// CalculateMonth computes per-order commissions, spiffs and rep summaries for
// a month. It performs no I/O; the same input always yields the same output.
func CalculateMonth(in MonthInput, cfg MonthlyConfig) MonthResult {
	month := in.Month.String()
	start, end := in.Month.Window(time.UTC)
	res := MonthResult{Month: month, TotalCommission: valueobject.Zero()}

	reps := sales.NewRepDirectory(in.Reps)
	customers := sales.NewCustomerDirectory(in.Customers)
	rates := NewRateTable(in.RateRules)
	spiffs := NewSpiffBook(in.Spiffs, start, end)

	orders := make([]sales.Order, len(in.Orders))
	copy(orders, in.Orders)
	sort.SliceStable(orders, func(i, j int) bool {
		return sales.CompareIDs(orders[i].ID, orders[j].ID) < 0
	})

	seen := make(map[string]bool, len(orders))
	skippedReps := make(map[string]bool)
	totals := make(map[string]*repTotals)

	for _, order := range orders {
		if in.SalesPerson != "" && order.SalesPerson != in.SalesPerson {
			continue
		}
		res.Stats.Processed++

		if seen[order.ID] {
			res.Stats.Duplicate++
			continue
		}
		seen[order.ID] = true

		if order.PostingDate.Before(start) || order.PostingDate.After(end) {
			res.Stats.OutsideMonth++
			continue
		}
		if !hasFulfilledItems(order) {
			res.Stats.ZeroQuantity++
			continue
		}
		if strings.EqualFold(order.SalesPerson, "admin") {
			res.Stats.Admin++
			continue
		}
		if isDirectCommerce(order) {
			res.Stats.Shopify++
			continue
		}

		rep := reps.Lookup(order.SalesPerson)
		if !rep.Eligible() {
			skippedReps[order.SalesPerson] = true
			res.Stats.InactiveRep++
			continue
		}

		customer := customers.Lookup(order.CustomerID, order.CustomerNum, order.CustomerName)
		accountType := customer.EffectiveAccountType()
		if accountType == sales.AccountTypeRetail {
			res.Stats.Retail++
			continue
		}

		var override sales.TransferStatus
		if customer != nil {
			override = customer.TransferStatus
		}
		status := DetermineStatus(StatusInput{
			Override:    override,
			SalesPerson: order.SalesPerson,
			OrderDate:   order.PostingDate,
			History:     in.History[order.CustomerID],
		}, cfg.Status)

		rate := rates.Lookup(rep.Title, accountType, status)
		if !rate.Percent.IsPositive() {
			res.Stats.ZeroRate++
			continue
		}
		if !rate.Configured {
			res.Stats.DefaultRate++
		}

		breakdown := Summarize(order.Items, cfg.Rules)
		amount := OrderCommission(order.Items, rate.Percent, cfg.Rules)
		segment := SegmentFor(accountType)

		rec := MonthlyCommission{
			ID:               CommissionID(order.SalesPerson, month, order.ID),
			RepID:            rep.ID,
			SalesPerson:      order.SalesPerson,
			RepName:          rep.Name,
			RepTitle:         rep.Title,
			OrderID:          order.ID,
			OrderNum:         order.OrderNumber,
			CustomerID:       order.CustomerID,
			CustomerName:     order.CustomerName,
			AccountType:      accountType,
			Segment:          segment,
			CustomerStatus:   status,
			OrderRevenue:     breakdown.Net(),
			CommissionRate:   rate.Percent,
			CommissionAmount: amount,
			RateSource:       rate.Source(),
			OrderDate:        order.PostingDate,
			Month:            month,
			Notes:            fmt.Sprintf("%s - %s - %s", accountType, status, segment),
			CalculatedAt:     in.Now,
		}
		if prev, ok := in.Existing[rec.ID]; ok && prev.IsOverride {
			rec.CommissionAmount = prev.CommissionAmount
			rec.IsOverride = true
			rec.OverrideReason = prev.OverrideReason
			rec.Notes += " [OVERRIDE PRESERVED]"
			res.Stats.Overrides++
		}
		res.Commissions = append(res.Commissions, rec)
		res.Stats.Calculated++
		res.TotalCommission = res.TotalCommission.Add(rec.CommissionAmount)

		orderSpiffs := valueobject.Zero()
		for _, item := range order.Items {
			spiff, ok := spiffs.For(item)
			if !ok {
				continue
			}
			earned := spiff.Earning(item)
			if !earned.IsPositive() {
				continue
			}
			orderSpiffs = orderSpiffs.Add(earned)
			res.SpiffEarnings = append(res.SpiffEarnings, SpiffEarning{
				ID:          SpiffEarningID(order.SalesPerson, month, item.ID),
				RepID:       rep.ID,
				SalesPerson: order.SalesPerson,
				RepName:     rep.Name,
				SpiffID:     spiff.ID,
				SpiffName:   spiff.Name,
				ProductNum:  item.ProductKey(),
				OrderID:     order.ID,
				OrderNum:    order.OrderNumber,
				CustomerID:  order.CustomerID,
				LineItemID:  item.ID,
				Quantity:    item.Quantity,
				LineRevenue: item.Amount(),
				SpiffType:   NormalizeSpiffType(spiff.Type),
				SpiffValue:  spiff.Value,
				Amount:      earned,
				OrderDate:   order.PostingDate,
				Month:       month,
			})
		}

		canonical := rep.SalesPerson
		if canonical == "" {
			canonical = rep.Name
		}
		t, ok := totals[canonical]
		if !ok {
			t = &repTotals{rep: rep, revenue: valueobject.Zero(), commission: valueobject.Zero(), spiffs: valueobject.Zero()}
			totals[canonical] = t
		}
		t.orders++
		t.revenue = t.revenue.Add(orderRevenue(order))
		t.commission = t.commission.Add(rec.CommissionAmount)
		t.spiffs = t.spiffs.Add(orderSpiffs)
	}

	for sp, t := range totals {
		res.Summaries = append(res.Summaries, MonthlySummary{
			ID:              SummaryID(sp, month),
			SalesPerson:     sp,
			RepName:         t.rep.Name,
			Month:           month,
			TotalOrders:     t.orders,
			TotalRevenue:    t.revenue,
			TotalCommission: t.commission,
			TotalSpiffs:     t.spiffs,
			TotalEarnings:   t.commission.Add(t.spiffs),
			CalculatedAt:    in.Now,
		})
	}
	sort.Slice(res.Summaries, func(i, j int) bool { return res.Summaries[i].ID < res.Summaries[j].ID })
	sort.Slice(res.Commissions, func(i, j int) bool { return res.Commissions[i].ID < res.Commissions[j].ID })
	sort.Slice(res.SpiffEarnings, func(i, j int) bool { return res.SpiffEarnings[i].ID < res.SpiffEarnings[j].ID })

	for sp := range skippedReps {
		res.SkippedReps = append(res.SkippedReps, sp)
	}
	sort.Strings(res.SkippedReps)
	return res
}

func hasFulfilledItems(order sales.Order) bool {
	fulfilled := false
	for _, item := range order.Items {
		if item.Quantity.IsPositive() {
			fulfilled = true
			break
		}
	}
	return fulfilled && !order.TotalQuantity().IsZero()
}

func isDirectCommerce(order sales.Order) bool {
	sp := strings.ToUpper(strings.TrimSpace(order.SalesPerson))
	return sp == "SHOPIFY" || sp == "COMMERCE" || strings.HasPrefix(order.OrderNumber, "Sh")
}

func orderRevenue(order sales.Order) valueobject.Money {
	if !order.Revenue.IsZero() {
		return order.Revenue
	}
	return order.LineTotal()
}
