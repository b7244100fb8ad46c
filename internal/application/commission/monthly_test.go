package commissionapp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kanva/portal/internal/domain/commission"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/kanva/portal/internal/infrastructure/cache"
	"github.com/kanva/portal/internal/infrastructure/scheduler"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func money(s string) valueobject.Money {
	return valueobject.NewMoney(decimal.RequireFromString(s))
}

func order(id, customerID string, at time.Time, items ...sales.LineItem) sales.Order {
	o := sales.Order{ID: id, OrderNumber: "SO-" + id, CustomerID: customerID, SalesPerson: "BenW", PostingDate: at}
	for _, li := range items {
		o.AddItem(li)
	}
	return o
}

func line(id, product string, qty int64, revenue string) sales.LineItem {
	return sales.LineItem{ID: id, ProductNum: product, Quantity: decimal.NewFromInt(qty), Revenue: money(revenue)}
}

var benW = sales.Rep{
	ID:           "u1",
	SalesPerson:  "BenW",
	Name:         "Ben Wallner",
	Email:        "ben@kanva.test",
	Title:        "Account Executive",
	Active:       true,
	Commissioned: true,
}

type monthlyFixture struct {
	orders    *MockOrderRepository
	customers *MockCustomerRepository
	reps      *MockRepRepository
	config    *MockConfigRepository
	monthly   *MockMonthlyRepository
}

func newMonthlyFixture() *monthlyFixture {
	f := &monthlyFixture{
		orders:    new(MockOrderRepository),
		customers: new(MockCustomerRepository),
		reps:      new(MockRepRepository),
		config:    new(MockConfigRepository),
		monthly:   new(MockMonthlyRepository),
	}
	f.customers.On("FindAll", mock.Anything).Return([]sales.Customer{
		{ID: "100", Name: "Acme", AccountType: sales.AccountTypeWholesale},
		{ID: "200", Name: "Zen", AccountType: sales.AccountTypeWholesale},
	}, nil)
	f.reps.On("FindAll", mock.Anything).Return([]sales.Rep{benW}, nil)
	f.config.On("FindRateRules", mock.Anything).Return([]commission.RateRule{
		{Title: "Account Executive", Segment: commission.SegmentWholesale, Status: commission.RateNewBusiness, Percentage: decimal.NewFromInt(10)},
	}, nil)
	f.config.On("FindSpiffs", mock.Anything).Return([]commission.Spiff{
		{ID: "s1", Name: "Shot push", ProductNum: "KB-1", Type: "Flat $", Value: decimal.NewFromInt(2), Active: true, StartDate: day(2025, 8, 1)},
	}, nil)
	return f
}

func (f *monthlyFixture) service(runner *scheduler.Runner) *Service {
	svc := NewService(Deps{
		Orders:    f.orders,
		Customers: f.customers,
		Reps:      f.reps,
		Config:    f.config,
		Monthly:   f.monthly,
		Runner:    runner,
		Logger:    zap.NewNop(),
	}, DefaultSettings())
	svc.now = func() time.Time { return day(2025, 9, 1) }
	return svc
}

func monthOrders() []sales.Order {
	return []sales.Order{
		order("1", "100", day(2025, 8, 5), line("l1", "KB-1", 10, "1000")),
		order("2", "200", day(2025, 8, 10), line("l2", "KB-2", 1, "500")),
	}
}

func headerFilter(f sales.OrderFilter) bool  { return len(f.CustomerIDs) == 0 }
func historyFilter(f sales.OrderFilter) bool { return len(f.CustomerIDs) > 0 }

func TestService_CalculateMonthly(t *testing.T) {
	ctx := context.Background()

	t.Run("writes commissions spiffs and summaries", func(t *testing.T) {
		f := newMonthlyFixture()
		start, end := day(2025, 8, 1), day(2025, 9, 1).Add(-time.Millisecond)
		f.orders.On("FindOrders", mock.Anything, sales.OrderFilter{From: start, To: end}).Return(monthOrders(), nil)
		f.orders.On("FindOrders", mock.Anything, sales.OrderFilter{CustomerIDs: []string{"100", "200"}, To: end}).
			Return(append(monthOrders(), order("0", "200", day(2025, 6, 1), line("l0", "KB-2", 1, "100"))), nil)
		f.monthly.On("FindByMonth", mock.Anything, "2025-08").Return([]commission.MonthlyCommission{
			{ID: "BenW_2025-08_order_2", IsOverride: true, CommissionAmount: money("75"), OverrideReason: "manager"},
		}, nil)

		var commissions []commission.MonthlyCommission
		f.monthly.On("UpsertCommissions", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { commissions = args.Get(1).([]commission.MonthlyCommission) }).
			Return(nil)
		var earnings []commission.SpiffEarning
		f.monthly.On("UpsertSpiffEarnings", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { earnings = args.Get(1).([]commission.SpiffEarning) }).
			Return(nil)
		f.monthly.On("UpsertSummaries", mock.Anything, mock.Anything).Return(nil)

		res, err := f.service(nil).CalculateMonthly(ctx, MonthlyRequest{Month: "2025-08"})
		require.NoError(t, err)

		assert.Equal(t, "completed", res.Status)
		assert.Equal(t, "2025-08", res.Month)
		assert.Equal(t, 2, res.Stats.Calculated)
		assert.Equal(t, 1, res.Stats.Overrides)
		assert.Equal(t, "175.00", res.TotalCommission.String())
		assert.Equal(t, "20.00", res.TotalSpiffs.String())
		assert.Equal(t, 2, res.Commissions)
		assert.Equal(t, 1, res.SpiffEarnings)

		require.Len(t, commissions, 2)
		assert.Equal(t, "100.00", commissions[0].CommissionAmount.String())
		assert.Equal(t, commission.CustomerNew, commissions[0].CustomerStatus)
		assert.True(t, commissions[1].IsOverride)
		assert.Equal(t, "75.00", commissions[1].CommissionAmount.String())

		require.Len(t, earnings, 1)
		assert.Equal(t, "l1", earnings[0].LineItemID)

		require.Len(t, res.Summaries, 1)
		assert.Equal(t, "195.00", res.Summaries[0].TotalEarnings.String())
	})

	t.Run("invalid month is rejected before running", func(t *testing.T) {
		f := newMonthlyFixture()
		_, err := f.service(nil).CalculateMonthly(ctx, MonthlyRequest{Month: "August"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		f.orders.AssertNotCalled(t, "FindOrders", mock.Anything, mock.Anything)
	})

	t.Run("storage failure fails the run", func(t *testing.T) {
		f := newMonthlyFixture()
		f.orders.On("FindOrders", mock.Anything, mock.MatchedBy(headerFilter)).Return(monthOrders(), nil)
		f.orders.On("FindOrders", mock.Anything, mock.MatchedBy(historyFilter)).Return(monthOrders(), nil)
		f.monthly.On("FindByMonth", mock.Anything, "2025-08").Return([]commission.MonthlyCommission{}, nil)
		f.monthly.On("UpsertCommissions", mock.Anything, mock.Anything).Return(errors.New("deadlock detected"))

		res, err := f.service(nil).CalculateMonthly(ctx, MonthlyRequest{Month: "2025-08"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "write commissions")
		require.NotNil(t, res)
		assert.Equal(t, "failed", res.Status)
		f.monthly.AssertNotCalled(t, "UpsertSummaries", mock.Anything, mock.Anything)
	})

	t.Run("single rep filter reaches the order query", func(t *testing.T) {
		f := newMonthlyFixture()
		f.orders.On("FindOrders", mock.Anything, mock.MatchedBy(func(f sales.OrderFilter) bool {
			return f.SalesPerson == "BenW" && len(f.CustomerIDs) == 0
		})).Return([]sales.Order{}, nil)
		f.monthly.On("FindByMonth", mock.Anything, "2025-08").Return([]commission.MonthlyCommission{}, nil)
		f.monthly.On("UpsertSummaries", mock.Anything, mock.Anything).Return(nil)

		res, err := f.service(nil).CalculateMonthly(ctx, MonthlyRequest{Month: "2025-08", SalesPerson: "BenW"})
		require.NoError(t, err)
		assert.Zero(t, res.Stats.Processed)
		assert.Equal(t, "0.00", res.TotalCommission.String())
		f.monthly.AssertNotCalled(t, "UpsertCommissions", mock.Anything, mock.Anything)
	})

	t.Run("second run for the same month conflicts", func(t *testing.T) {
		f := newMonthlyFixture()
		guard := cache.NewInMemoryRunGuard()
		release, err := guard.Acquire(ctx, "commission:monthly:2025-08", time.Minute)
		require.NoError(t, err)
		defer func() { _ = release(ctx) }()

		runner := scheduler.NewRunner(scheduler.Config{}, guard, nil, zap.NewNop())
		res, err := f.service(runner).CalculateMonthly(ctx, MonthlyRequest{Month: "2025-08"})
		assert.Nil(t, res)
		assert.ErrorIs(t, err, shared.ErrConflict)
	})
}
