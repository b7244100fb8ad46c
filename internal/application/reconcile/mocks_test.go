package reconcile

import (
	"context"

	"github.com/kanva/portal/internal/domain/matching"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/infrastructure/copper"
	"github.com/stretchr/testify/mock"
)

// MockCompanySource is a mock implementation of CompanySource
type MockCompanySource struct {
	mock.Mock
}

func (m *MockCompanySource) SearchCompanies(ctx context.Context, filter copper.CompanyFilter) ([]copper.Company, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]copper.Company), args.Error(1)
}

// MockCustomerRepository is a mock implementation of sales.CustomerRepository
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
	args := m.Called(ctx, customers)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of sales.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) UpsertBatch(ctx context.Context, orders []*sales.Order) error {
	args := m.Called(ctx, orders)
	return args.Error(0)
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

// MockMatchRecordRepository is a mock implementation of matching.MatchRecordRepository
type MockMatchRecordRepository struct {
	mock.Mock
}

func (m *MockMatchRecordRepository) UpsertBatch(ctx context.Context, records []*matching.MatchRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockMatchRecordRepository) FindBySource(ctx context.Context, system matching.SourceSystem, keys []string) ([]matching.MatchRecord, error) {
	args := m.Called(ctx, system, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]matching.MatchRecord), args.Error(1)
}

// MockReportArchive is a mock implementation of ReportArchive
type MockReportArchive struct {
	mock.Mock
}

func (m *MockReportArchive) Archive(ctx context.Context, kind, runID string, report any) (string, error) {
	args := m.Called(ctx, kind, runID, report)
	return args.String(0), args.Error(1)
}
