package handler

import (
	"context"

	commissionapp "github.com/kanva/portal/internal/application/commission"
	historyapp "github.com/kanva/portal/internal/application/history"
	metricsapp "github.com/kanva/portal/internal/application/metrics"
	"github.com/kanva/portal/internal/application/reconcile"
	"github.com/kanva/portal/internal/domain/commission"
	"github.com/stretchr/testify/mock"
)

type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) ReconcileCompanies(ctx context.Context, req reconcile.CompanyRequest) (*reconcile.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconcile.Result), args.Error(1)
}

func (m *MockReconcileService) ImportOrders(ctx context.Context, req reconcile.OrderRequest) (*reconcile.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconcile.Result), args.Error(1)
}

type MockMetricsService struct {
	mock.Mock
}

func (m *MockMetricsService) Refresh(ctx context.Context, req metricsapp.RefreshRequest) (*metricsapp.RefreshResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*metricsapp.RefreshResult), args.Error(1)
}

type MockCommissionService struct {
	mock.Mock
}

func (m *MockCommissionService) CalculateMonthly(ctx context.Context, req commissionapp.MonthlyRequest) (*commissionapp.MonthlyResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.MonthlyResult), args.Error(1)
}

func (m *MockCommissionService) CalculateQuarterly(ctx context.Context, req commissionapp.QuarterlyRequest) (*commissionapp.QuarterlyResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.QuarterlyResult), args.Error(1)
}

func (m *MockCommissionService) Preview(req commissionapp.PreviewRequest) (commission.Result, error) {
	args := m.Called(req)
	return args.Get(0).(commission.Result), args.Error(1)
}

type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) List(ctx context.Context, req historyapp.ListRequest) ([]historyapp.RunView, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]historyapp.RunView), args.Error(1)
}

func (m *MockHistoryService) Get(ctx context.Context, id string) (*historyapp.RunView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*historyapp.RunView), args.Error(1)
}
