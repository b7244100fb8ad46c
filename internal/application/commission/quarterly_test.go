package commissionapp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kanva/portal/internal/domain/commission"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/infrastructure/copper"
	"github.com/kanva/portal/internal/infrastructure/justcall"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	q3Start = day(2025, 7, 1)
	q3End   = day(2025, 10, 1).Add(-time.Millisecond)
)

func q3Request() QuarterlyRequest {
	return QuarterlyRequest{RepID: "u1", PeriodID: "Q3-2025", Start: q3Start, End: q3End}
}

func q3Items() []sales.LineItem {
	return []sales.LineItem{
		{ID: "l1", CustomerID: "100", ProductNum: "KB-1", ProductName: "Kava Shot", Quantity: decimal.NewFromInt(10), Revenue: money("1000"), PostingDate: day(2025, 7, 10)},
		{ID: "l2", CustomerID: "200", ProductNum: "KB-2", ProductName: "Kratom Shot", Quantity: decimal.NewFromInt(5), Revenue: money("500"), PostingDate: day(2025, 8, 1)},
		{ID: "l3", CustomerID: "200", ProductNum: "Shipping", ProductName: "Shipping", Quantity: decimal.NewFromInt(1), Revenue: money("50"), PostingDate: day(2025, 8, 1), IsShipping: true},
	}
}

type quarterlyFixture struct {
	orders     *MockOrderRepository
	customers  *MockCustomerRepository
	reps       *MockRepRepository
	config     *MockConfigRepository
	entries    *MockEntryRepository
	calls      *MockCallSource
	activities *MockActivitySource
}

func newQuarterlyFixture() *quarterlyFixture {
	f := &quarterlyFixture{
		orders:     new(MockOrderRepository),
		customers:  new(MockCustomerRepository),
		reps:       new(MockRepRepository),
		config:     new(MockConfigRepository),
		entries:    new(MockEntryRepository),
		calls:      new(MockCallSource),
		activities: new(MockActivitySource),
	}
	first100 := day(2025, 7, 10)
	first200 := day(2024, 1, 15)
	f.customers.On("FindAll", mock.Anything).Return([]sales.Customer{
		{ID: "100", FirstOrderDate: &first100},
		{ID: "200", FirstOrderDate: &first200},
	}, nil)
	f.reps.On("FindAll", mock.Anything).Return([]sales.Rep{benW}, nil)
	f.orders.On("FindLineItems", mock.Anything, sales.OrderFilter{SalesPerson: "BenW", From: q3Start, To: q3End}).
		Return(q3Items(), nil)
	return f
}

func (f *quarterlyFixture) service() *Service {
	return NewService(Deps{
		Orders:     f.orders,
		Customers:  f.customers,
		Reps:       f.reps,
		Config:     f.config,
		Entries:    f.entries,
		Calls:      f.calls,
		Activities: f.activities,
		Logger:     zap.NewNop(),
	}, DefaultSettings())
}

func step(t *testing.T, steps []StepResult, name string) StepResult {
	t.Helper()
	for _, s := range steps {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("step %s not reported", name)
	return StepResult{}
}

func TestService_CalculateQuarterly(t *testing.T) {
	ctx := context.Background()

	t.Run("scores every bucket and stores entries", func(t *testing.T) {
		f := newQuarterlyFixture()
		f.config.On("FindBudget", mock.Anything, "Account Executive", "Q3-2025").Return(&commission.Budget{
			Title:    "Account Executive",
			PeriodID: "Q3-2025",
			BucketA:  dec("1000"),
			BucketB:  dec("400"),
			BucketC:  dec("1000"),
			BucketD:  dec("100"),
		}, nil)
		f.config.On("FindActivityGoals", mock.Anything, "Q3-2025").Return([]commission.SubGoal{
			{ID: GoalPhoneCalls, Goal: dec("100"), SubWeight: dec("0.5")},
			{ID: GoalTalkTime, Goal: dec("60"), SubWeight: dec("0.5")},
		}, nil)
		f.calls.On("PeriodMetricsFor", mock.Anything, "ben@kanva.test", q3Start, q3End).
			Return(justcall.PeriodMetrics{TotalCalls: 80}, justcall.CallMetrics{TotalCalls: 80, TotalDuration: 3600}, nil)

		var entries []commission.Entry
		f.entries.On("UpsertEntries", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { entries = args.Get(1).([]commission.Entry) }).
			Return(nil)

		res, err := f.service().CalculateQuarterly(ctx, q3Request())
		require.NoError(t, err)
		assert.Equal(t, "completed", res.Status)

		assert.Equal(t, []string{"100"}, res.Customers.NewCustomers)
		assert.Equal(t, "1000.00", res.Customers.NewRevenue.String())
		assert.Equal(t, "500.00", res.Customers.ExistingRevenue.String())
		require.Len(t, res.ProductMix, 2)
		assert.Equal(t, "KB-1", res.ProductMix[0].ProductNum)

		r := res.Result
		assert.Empty(t, r.Warnings)
		assert.True(t, r.BlendedScore.Equal(dec("0.9225")), r.BlendedScore.String())
		assert.True(t, r.CappedScore.Equal(dec("0.9225")))
		assert.True(t, r.Eligible)
		assert.Equal(t, "23062.50", r.Payout.String())
		mixScore := r.BucketScores[1]
		assert.True(t, mixScore.Attainment.Equal(dec("3.75")), "raw attainment is kept")
		assert.True(t, mixScore.Contribution.Equal(dec("0.1875")))

		require.Len(t, entries, 6)
		assert.Equal(t, 6, res.Written)

		calls := step(t, res.Steps, StepCalls)
		assert.True(t, calls.OK)
		assert.Equal(t, 80, calls.Count)
		assert.True(t, calls.Value.Equal(dec("60")))
		assert.True(t, step(t, res.Steps, StepActivities).Skipped)
		require.NotNil(t, res.Calls)
	})

	t.Run("effort sources fail independently", func(t *testing.T) {
		f := newQuarterlyFixture()
		f.config.On("FindBudget", mock.Anything, mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
		f.config.On("FindActivityGoals", mock.Anything, mock.Anything).Return([]commission.SubGoal{
			{ID: "2001", Goal: dec("10"), SubWeight: dec("1")},
		}, nil)
		f.calls.On("PeriodMetricsFor", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(justcall.PeriodMetrics{}, justcall.CallMetrics{}, errors.New("justcall: 503"))
		f.activities.On("SearchActivities", mock.Anything, copper.ActivityFilter{UserIDs: []int64{42}, From: q3Start, To: q3End}).
			Return([]copper.Activity{
				{ID: 1, Type: copper.ActivityType{Category: "user", ID: 2001}},
				{ID: 2, Type: copper.ActivityType{Category: "user", ID: 2001}},
				{ID: 3, Type: copper.ActivityType{Category: "user", ID: 3000}},
			}, nil)
		f.activities.On("SearchOpportunities", mock.Anything, mock.Anything).
			Return([]copper.Opportunity{
				{ID: 7, Status: "Won", MonetaryValue: dec("1200")},
				{ID: 8, Status: "Lost", MonetaryValue: dec("900")},
			}, nil)
		f.entries.On("UpsertEntries", mock.Anything, mock.Anything).Return(nil)

		req := q3Request()
		req.CopperUserID = 42
		res, err := f.service().CalculateQuarterly(ctx, req)
		require.NoError(t, err)

		calls := step(t, res.Steps, StepCalls)
		assert.False(t, calls.OK)
		assert.Contains(t, calls.Error, "503")
		assert.Nil(t, res.Calls)

		activities := step(t, res.Steps, StepActivities)
		assert.True(t, activities.OK)
		assert.Equal(t, 3, activities.Count)

		won := step(t, res.Steps, StepOpportunities)
		assert.True(t, won.OK)
		assert.Equal(t, 1, won.Count)
		assert.True(t, won.Value.Equal(dec("1200")))

		r := res.Result
		assert.False(t, r.Eligible)
		assert.True(t, r.Payout.IsZero())
		// no budget: A, B and C warn; D is scored from its activity goal
		assert.Len(t, r.Warnings, 3)
		var effort commission.BucketScore
		for _, b := range r.BucketScores {
			if b.Code == commission.BucketEffort {
				effort = b
			}
		}
		assert.True(t, effort.HasGoal)
		assert.True(t, effort.Attainment.Equal(dec("0.2")))
	})

	t.Run("won opportunities feed their effort sub-goals", func(t *testing.T) {
		f := newQuarterlyFixture()
		f.config.On("FindBudget", mock.Anything, mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
		f.config.On("FindActivityGoals", mock.Anything, mock.Anything).Return([]commission.SubGoal{
			{ID: GoalWonDeals, Goal: dec("2"), SubWeight: dec("0.5")},
			{ID: GoalWonValue, Goal: dec("2400"), SubWeight: dec("0.5")},
		}, nil)
		f.calls.On("PeriodMetricsFor", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(justcall.PeriodMetrics{}, justcall.CallMetrics{}, nil)
		f.activities.On("SearchActivities", mock.Anything, mock.Anything).Return([]copper.Activity{}, nil)
		f.activities.On("SearchOpportunities", mock.Anything, mock.Anything).
			Return([]copper.Opportunity{
				{ID: 7, Status: "Won", MonetaryValue: dec("1200")},
				{ID: 8, Status: "Lost", MonetaryValue: dec("900")},
			}, nil)
		f.entries.On("UpsertEntries", mock.Anything, mock.Anything).Return(nil)

		req := q3Request()
		req.CopperUserID = 42
		res, err := f.service().CalculateQuarterly(ctx, req)
		require.NoError(t, err)

		actual := map[string]decimal.Decimal{}
		for _, e := range res.Result.Entries {
			if e.BucketCode == commission.BucketEffort {
				actual[e.SubGoalID] = e.Actual
			}
		}
		assert.True(t, actual[GoalWonDeals].Equal(dec("1")))
		assert.True(t, actual[GoalWonValue].Equal(dec("1200")))
		effort := res.Result.BucketScores[3]
		assert.Equal(t, commission.BucketEffort, effort.Code)
		assert.True(t, effort.Attainment.Equal(dec("0.5")), effort.Attainment.String())
	})

	t.Run("unknown rep", func(t *testing.T) {
		f := newQuarterlyFixture()
		req := q3Request()
		req.RepID = "u404"
		res, err := f.service().CalculateQuarterly(ctx, req)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		require.NotNil(t, res)
		assert.Equal(t, "failed", res.Status)
	})

	t.Run("rejects an inverted period", func(t *testing.T) {
		req := q3Request()
		req.Start, req.End = req.End, req.Start
		_, err := newQuarterlyFixture().service().CalculateQuarterly(ctx, req)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}
