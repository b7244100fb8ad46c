package commissionapp

import (
	"context"
	"time"

	"github.com/kanva/portal/internal/domain/commission"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/infrastructure/copper"
	"github.com/kanva/portal/internal/infrastructure/justcall"
	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) UpsertBatch(ctx context.Context, orders []*sales.Order) error {
	return m.Called(ctx, orders).Error(0)
}

func (m *MockOrderRepository) FindOrders(ctx context.Context, filter sales.OrderFilter) ([]sales.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.Order), args.Error(1)
}

func (m *MockOrderRepository) FindLineItems(ctx context.Context, filter sales.OrderFilter) ([]sales.LineItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.LineItem), args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindAll(ctx context.Context) ([]sales.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id string) (*sales.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Customer), args.Error(1)
}

func (m *MockCustomerRepository) UpsertBatch(ctx context.Context, customers []*sales.Customer) error {
	return m.Called(ctx, customers).Error(0)
}

type MockRepRepository struct {
	mock.Mock
}

func (m *MockRepRepository) FindAll(ctx context.Context) ([]sales.Rep, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.Rep), args.Error(1)
}

type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) FindRateRules(ctx context.Context) ([]commission.RateRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.RateRule), args.Error(1)
}

func (m *MockConfigRepository) FindSpiffs(ctx context.Context) ([]commission.Spiff, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.Spiff), args.Error(1)
}

func (m *MockConfigRepository) FindBudget(ctx context.Context, title, periodID string) (*commission.Budget, error) {
	args := m.Called(ctx, title, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Budget), args.Error(1)
}

func (m *MockConfigRepository) FindActivityGoals(ctx context.Context, periodID string) ([]commission.SubGoal, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.SubGoal), args.Error(1)
}

type MockMonthlyRepository struct {
	mock.Mock
}

func (m *MockMonthlyRepository) FindByMonth(ctx context.Context, month string) ([]commission.MonthlyCommission, error) {
	args := m.Called(ctx, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.MonthlyCommission), args.Error(1)
}

func (m *MockMonthlyRepository) UpsertCommissions(ctx context.Context, records []commission.MonthlyCommission) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockMonthlyRepository) UpsertSpiffEarnings(ctx context.Context, earnings []commission.SpiffEarning) error {
	return m.Called(ctx, earnings).Error(0)
}

func (m *MockMonthlyRepository) UpsertSummaries(ctx context.Context, summaries []commission.MonthlySummary) error {
	return m.Called(ctx, summaries).Error(0)
}

type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) UpsertEntries(ctx context.Context, entries []commission.Entry) error {
	return m.Called(ctx, entries).Error(0)
}

func (m *MockEntryRepository) FindEntries(ctx context.Context, repID, periodID string) ([]commission.Entry, error) {
	args := m.Called(ctx, repID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.Entry), args.Error(1)
}

type MockCallSource struct {
	mock.Mock
}

func (m *MockCallSource) PeriodMetricsFor(ctx context.Context, email string, start, end time.Time) (justcall.PeriodMetrics, justcall.CallMetrics, error) {
	args := m.Called(ctx, email, start, end)
	return args.Get(0).(justcall.PeriodMetrics), args.Get(1).(justcall.CallMetrics), args.Error(2)
}

type MockActivitySource struct {
	mock.Mock
}

func (m *MockActivitySource) SearchActivities(ctx context.Context, filter copper.ActivityFilter) ([]copper.Activity, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]copper.Activity), args.Error(1)
}

func (m *MockActivitySource) SearchOpportunities(ctx context.Context, filter copper.OpportunityFilter) ([]copper.Opportunity, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]copper.Opportunity), args.Error(1)
}
