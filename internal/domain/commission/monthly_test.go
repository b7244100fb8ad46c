package commission

import (
	"testing"
	"time"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(id, number, customerID, salesPerson string, at time.Time, items ...sales.LineItem) sales.Order {
	o := sales.Order{
		ID:          id,
		OrderNumber: number,
		CustomerID:  customerID,
		SalesPerson: salesPerson,
		PostingDate: at,
	}
	for _, li := range items {
		o.AddItem(li)
	}
	return o
}

func monthFixture() MonthInput {
	aug := func(d int) time.Time { return day(2025, 8, d) }
	return MonthInput{
		Month: Month{Year: 2025, Month: time.August},
		Reps: []sales.Rep{
			{ID: "u1", SalesPerson: "BenW", Name: "Ben Wallner", Title: "Account Executive", Active: true, Commissioned: true},
			{ID: "u2", SalesPerson: "JS", Name: "Joe Simmons", Title: "Account Executive", Active: false, Commissioned: true},
		},
		Customers: []sales.Customer{
			{ID: "100", Name: "Acme", AccountType: sales.AccountTypeWholesale},
			{ID: "200", Name: "Zen", AccountType: sales.AccountTypeDistributor},
			{ID: "300", Name: "Corner Store", AccountType: sales.AccountTypeRetail},
			{ID: "400", Name: "Own Co", AccountType: sales.AccountTypeDistributor, TransferStatus: sales.TransferStatusOwn},
		},
		RateRules: []RateRule{
			{Title: "Account Executive", Segment: SegmentWholesale, Status: RateNewBusiness, Percentage: dec("10")},
		},
		Spiffs: []Spiff{
			{ID: "s1", Name: "Kratom push", ProductNum: "KB-1", Type: "Flat $", Value: dec("2"), Active: true, StartDate: aug(1)},
		},
		History: map[string][]PriorOrder{
			"200": {{OrderID: "old", PostingDate: day(2025, 3, 1), SalesPerson: "Ben Wallner"}},
		},
		Existing: map[string]MonthlyCommission{
			"BenW_2025-08_order_10": {ID: "BenW_2025-08_order_10", IsOverride: true, CommissionAmount: money("50"), OverrideReason: "manager"},
		},
		Orders: []sales.Order{
			order("1", "1001", "100", "BenW", aug(5),
				item("l1", "KB-1", "Kratom Shot", 10, "10000"),
				item("l1b", "CREDIT", "Credit", 1, "-500")),
			order("1", "1001", "100", "BenW", aug(5), item("l1", "KB-1", "Kratom Shot", 10, "10000")),
			order("2", "1002", "200", "BenW", aug(6), item("l2", "KB-2", "", 0, "100")),
			order("3", "1003", "200", "admin", aug(6), item("l3", "KB-2", "", 1, "100")),
			order("4", "Sh1234", "200", "BenW", aug(6), item("l4", "KB-2", "", 1, "100")),
			order("5", "1005", "200", "JS", aug(6), item("l5", "KB-2", "", 1, "100")),
			order("6", "1006", "300", "BenW", aug(6), item("l6", "KB-2", "", 1, "100")),
			order("7", "1007", "999", "BenW", aug(6), item("l7", "KB-2", "", 1, "100")),
			order("8", "1008", "200", "Ben Wallner", aug(20),
				item("l8", "KB-2", "Kava Shot", 4, "1000"),
				item("l8s", "Shipping", "Shipping", 1, "50")),
			order("9", "1009", "200", "BenW", day(2025, 7, 31), item("l9", "KB-2", "", 1, "100")),
			order("10", "1010", "400", "BenW", aug(21), item("l10a", "KB-1", "Kratom Shot", 2, "200")),
		},
		Now: day(2025, 9, 1),
	}
}

func TestCalculateMonth(t *testing.T) {
	res := CalculateMonth(monthFixture(), DefaultMonthlyConfig())

	t.Run("skip counters", func(t *testing.T) {
		s := res.Stats
		assert.Equal(t, 11, s.Processed)
		assert.Equal(t, 3, s.Calculated)
		assert.Equal(t, 1, s.Duplicate)
		assert.Equal(t, 1, s.ZeroQuantity)
		assert.Equal(t, 1, s.Admin)
		assert.Equal(t, 1, s.Shopify)
		assert.Equal(t, 1, s.InactiveRep)
		assert.Equal(t, 2, s.Retail)
		assert.Equal(t, 1, s.OutsideMonth)
		assert.Equal(t, 2, s.DefaultRate)
		assert.Equal(t, 1, s.Overrides)
		assert.Equal(t, []string{"JS"}, res.SkippedReps)
	})

	t.Run("commissions", func(t *testing.T) {
		require.Len(t, res.Commissions, 3)
		byID := make(map[string]MonthlyCommission)
		for _, c := range res.Commissions {
			byID[c.ID] = c
		}

		first := byID["BenW_2025-08_order_1"]
		assert.Equal(t, CustomerNew, first.CustomerStatus)
		assert.Equal(t, SegmentWholesale, first.Segment)
		assert.Equal(t, "configured", first.RateSource)
		assert.Equal(t, "9500.00", first.OrderRevenue.String())
		assert.Equal(t, "500.00", first.CommissionAmount.String())

		eighth := byID["Ben Wallner_2025-08_order_8"]
		assert.Equal(t, "u1", eighth.RepID)
		assert.Equal(t, CustomerNew, eighth.CustomerStatus)
		assert.Equal(t, "default", eighth.RateSource)
		assert.Equal(t, "80.00", eighth.CommissionAmount.String())

		tenth := byID["BenW_2025-08_order_10"]
		assert.Equal(t, CustomerOwn, tenth.CustomerStatus)
		assert.True(t, tenth.IsOverride)
		assert.Equal(t, "50.00", tenth.CommissionAmount.String())
		assert.Equal(t, "manager", tenth.OverrideReason)

		assert.Equal(t, "630.00", res.TotalCommission.String())
	})

	t.Run("spiffs", func(t *testing.T) {
		require.Len(t, res.SpiffEarnings, 2)
		assert.Equal(t, "BenW_2025-08_spiff_l1", res.SpiffEarnings[0].ID)
		assert.Equal(t, "20.00", res.SpiffEarnings[0].Amount.String())
		assert.Equal(t, SpiffFlat, res.SpiffEarnings[0].SpiffType)
		assert.Equal(t, "BenW_2025-08_spiff_l10a", res.SpiffEarnings[1].ID)
		assert.Equal(t, "4.00", res.SpiffEarnings[1].Amount.String())
	})

	t.Run("summary uses the canonical sales person", func(t *testing.T) {
		require.Len(t, res.Summaries, 1)
		s := res.Summaries[0]
		assert.Equal(t, "BenW_2025-08", s.ID)
		assert.Equal(t, 3, s.TotalOrders)
		assert.Equal(t, "10750.00", s.TotalRevenue.String())
		assert.Equal(t, "630.00", s.TotalCommission.String())
		assert.Equal(t, "24.00", s.TotalSpiffs.String())
		assert.Equal(t, "654.00", s.TotalEarnings.String())
	})
}

func TestCalculateMonth_SalesPersonFilter(t *testing.T) {
	in := monthFixture()
	in.SalesPerson = "JS"
	res := CalculateMonth(in, DefaultMonthlyConfig())
	assert.Equal(t, 1, res.Stats.Processed)
	assert.Empty(t, res.Commissions)
}

func TestCalculateMonth_Deterministic(t *testing.T) {
	a := CalculateMonth(monthFixture(), DefaultMonthlyConfig())
	b := CalculateMonth(monthFixture(), DefaultMonthlyConfig())
	assert.Equal(t, a, b)
}

func TestMonth(t *testing.T) {
	m, err := ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-02", m.String())

	start, end := m.Window(time.UTC)
	assert.Equal(t, day(2024, 2, 1), start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999000000, time.UTC), end)

	_, err = ParseMonth("August")
	assert.Error(t, err)
}
