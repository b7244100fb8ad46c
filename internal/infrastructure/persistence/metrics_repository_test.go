package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/kanva/portal/internal/domain/metrics"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormMetricsRepository(t *testing.T) {
	repo := NewGormMetricsRepository(newSQLiteDB(t), 0)
	ctx := context.Background()
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

	items := []sales.LineItem{
		{ID: "a", OrderNumber: "SO-1", ProductNum: "KB-1", Quantity: decimal.NewFromInt(2), Revenue: money("200"), PostingDate: day(2025, 8, 1)},
		{ID: "b", OrderNumber: "SO-2", ProductNum: "KB-2", Quantity: decimal.NewFromInt(1), Revenue: money("50"), PostingDate: day(2025, 2, 1)},
	}
	computed := metrics.Aggregate("100", items, now)

	require.NoError(t, repo.UpsertBatch(ctx, []*metrics.CustomerMetrics{&computed}))
	require.NoError(t, repo.UpsertBatch(ctx, []*metrics.CustomerMetrics{&computed}))

	got, err := repo.FindByCustomerID(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalOrders)
	assert.Equal(t, "250.00", got.TotalSales.String())
	assert.Equal(t, 1, got.Last30Days.Orders)
	assert.Equal(t, "200.00", got.Last30Days.Sales.String())
	require.Len(t, got.TopProducts, 2)
	assert.Equal(t, "KB-1", got.TopProducts[0].ProductKey)
	require.Len(t, got.MonthlySales, len(computed.MonthlySales))
	for i, ms := range computed.MonthlySales {
		assert.Equal(t, ms.Month, got.MonthlySales[i].Month)
		assert.Equal(t, ms.Sales.String(), got.MonthlySales[i].Sales.String())
	}
	require.NotNil(t, got.DaysSinceLastOrder)
	assert.Equal(t, *computed.DaysSinceLastOrder, *got.DaysSinceLastOrder)

	_, err = repo.FindByCustomerID(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
