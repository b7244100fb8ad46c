package metrics

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

func money(s string) valueobject.Money {
	m, err := valueobject.NewMoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func line(order, product string, posted time.Time, revenue string, qty int64) sales.LineItem {
	return sales.LineItem{
		OrderNumber: order,
		ProductNum:  product,
		PostingDate: posted,
		Revenue:     money(revenue),
		Quantity:    decimal.NewFromInt(qty),
	}
}

func sampleItems() []sales.LineItem {
	return []sales.LineItem{
		line("SO-1", "KB-1", date(2025, 8, 10), "100", 2),
		line("SO-1", "KB-2", date(2025, 8, 10), "50", 1),
		{OrderNumber: "SO-2", ProductNum: "KB-1", PostingDate: date(2025, 6, 1), TotalPrice: money("200"), Quantity: decimal.NewFromInt(4)},
		line("SO-3", "KB-3", date(2024, 12, 1), "300", 6),
		line("SO-4", "KB-4", date(2024, 3, 1), "10", 1),
		line("SO-5", "KB-5", date(2025, 4, 1), "175", 3),
	}
}

func TestAggregate(t *testing.T) {
	m := Aggregate("100", sampleItems(), now)

	assert.Equal(t, "100", m.CustomerID)
	assert.Equal(t, 5, m.TotalOrders)
	assert.Equal(t, "835.00", m.TotalSales.String())

	t.Run("windows", func(t *testing.T) {
		assert.Equal(t, "150.00", m.Last30Days.Sales.String())
		assert.Equal(t, 1, m.Last30Days.Orders)
		assert.Equal(t, "350.00", m.Last90Days.Sales.String())
		assert.Equal(t, 2, m.Last90Days.Orders)
		assert.Equal(t, "825.00", m.Last12Months.Sales.String())
		assert.Equal(t, 4, m.Last12Months.Orders)
		assert.Equal(t, "525.00", m.YearToDate.Sales.String())
		assert.Equal(t, 3, m.YearToDate.Orders)
	})

	t.Run("dates", func(t *testing.T) {
		require.NotNil(t, m.FirstOrderDate)
		require.NotNil(t, m.LastOrderDate)
		assert.Equal(t, date(2024, 3, 1), *m.FirstOrderDate)
		assert.Equal(t, date(2025, 8, 10), *m.LastOrderDate)
		require.NotNil(t, m.DaysSinceLastOrder)
		assert.Equal(t, 5, *m.DaysSinceLastOrder)
	})

	t.Run("derived figures", func(t *testing.T) {
		assert.Equal(t, "167.00", m.AvgOrderValue.String())
		assert.Equal(t, 0.33, m.Velocity)
		assert.Equal(t, 100.0, m.Trend)
		assert.Equal(t, "150.00", m.LastOrderAmount.String())
	})

	t.Run("top products break ties by key", func(t *testing.T) {
		require.Len(t, m.TopProducts, 3)
		assert.Equal(t, "KB-1", m.TopProducts[0].ProductKey)
		assert.Equal(t, "300.00", m.TopProducts[0].Revenue.String())
		assert.Equal(t, "KB-3", m.TopProducts[1].ProductKey)
		assert.Equal(t, "KB-5", m.TopProducts[2].ProductKey)
	})

	t.Run("monthly sales are sorted", func(t *testing.T) {
		months := make([]string, 0, len(m.MonthlySales))
		for _, s := range m.MonthlySales {
			months = append(months, s.Month)
		}
		assert.Equal(t, []string{"2024-03", "2024-12", "2025-04", "2025-06", "2025-08"}, months)
	})
}

func TestAggregate_WindowLowerBoundIsInclusive(t *testing.T) {
	items := []sales.LineItem{line("SO-1", "KB-1", now.Add(-30*day), "10", 1)}
	m := Aggregate("1", items, now)
	assert.Equal(t, 1, m.Last30Days.Orders)
	assert.Equal(t, 30, *m.DaysSinceLastOrder)
}

func TestAggregate_NoItems(t *testing.T) {
	m := Aggregate("1", nil, now)
	assert.Zero(t, m.TotalOrders)
	assert.True(t, m.TotalSales.IsZero())
	assert.Nil(t, m.DaysSinceLastOrder)
	assert.Nil(t, m.LastOrderDate)
	assert.Zero(t, m.Trend)
	assert.Empty(t, m.TopProducts)
}

func TestAggregate_Idempotent(t *testing.T) {
	first := Aggregate("100", sampleItems(), now)
	second := Aggregate("100", sampleItems(), now)

	assert.True(t, reflect.DeepEqual(first, second))

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAggregate_InputOrderDoesNotChangeTotals(t *testing.T) {
	items := sampleItems()
	reversed := make([]sales.LineItem, len(items))
	for i, item := range items {
		reversed[len(items)-1-i] = item
	}
	a := Aggregate("100", items, now)
	b := Aggregate("100", reversed, now)
	assert.Equal(t, a.TotalSales.String(), b.TotalSales.String())
	assert.Equal(t, a.TopProducts[0].ProductKey, b.TopProducts[0].ProductKey)
	assert.Equal(t, a.MonthlySales, b.MonthlySales)
}
