package models

import (
	"time"

	"github.com/kanva/portal/internal/domain/commission"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CommissionEntryModel stores one bucket or sub-goal row of a quarterly run
type CommissionEntryModel struct {
	ID           string            `gorm:"type:varchar(255);primaryKey"`
	RepID        string            `gorm:"type:varchar(64);not null;index:idx_entry_rep_period,priority:1"`
	RepName      string            `gorm:"type:varchar(255)"`
	PeriodID     string            `gorm:"type:varchar(32);not null;index:idx_entry_rep_period,priority:2"`
	BucketCode   string            `gorm:"type:varchar(1);not null"`
	SubGoalID    string            `gorm:"type:varchar(100)"`
	SubGoalLabel string            `gorm:"type:varchar(255)"`
	Goal         decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Actual       decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Attainment   decimal.Decimal   `gorm:"type:decimal(12,6);not null"`
	SubWeight    decimal.Decimal   `gorm:"type:decimal(12,6);not null"`
	Contribution decimal.Decimal   `gorm:"type:decimal(12,6);not null"`
	BucketMax    valueobject.Money `gorm:"type:decimal(18,4);not null"`
	Status       string            `gorm:"type:varchar(10);not null"`
	Timestamps
}

// TableName returns the table name for GORM
func (CommissionEntryModel) TableName() string {
	return "commission_entries"
}

// ToDomain converts the model to a commission.Entry
func (m *CommissionEntryModel) ToDomain() commission.Entry {
	return commission.Entry{
		ID:           m.ID,
		RepID:        m.RepID,
		RepName:      m.RepName,
		PeriodID:     m.PeriodID,
		BucketCode:   commission.BucketCode(m.BucketCode),
		SubGoalID:    m.SubGoalID,
		SubGoalLabel: m.SubGoalLabel,
		Goal:         m.Goal,
		Actual:       m.Actual,
		Attainment:   m.Attainment,
		SubWeight:    m.SubWeight,
		Contribution: m.Contribution,
		BucketMax:    m.BucketMax,
		Status:       commission.AttainmentStatus(m.Status),
	}
}

// CommissionEntryModelFromDomain converts a commission.Entry
func CommissionEntryModelFromDomain(e *commission.Entry) *CommissionEntryModel {
	return &CommissionEntryModel{
		ID:           e.ID,
		RepID:        e.RepID,
		RepName:      e.RepName,
		PeriodID:     e.PeriodID,
		BucketCode:   string(e.BucketCode),
		SubGoalID:    e.SubGoalID,
		SubGoalLabel: e.SubGoalLabel,
		Goal:         e.Goal,
		Actual:       e.Actual,
		Attainment:   e.Attainment,
		SubWeight:    e.SubWeight,
		Contribution: e.Contribution,
		BucketMax:    e.BucketMax,
		Status:       string(e.Status),
	}
}

// MonthlyCommissionModel stores one per-order monthly commission
type MonthlyCommissionModel struct {
	ID               string            `gorm:"type:varchar(255);primaryKey"`
	RepID            string            `gorm:"type:varchar(64)"`
	SalesPerson      string            `gorm:"type:varchar(100);not null;index:idx_mc_month_rep,priority:2"`
	RepName          string            `gorm:"type:varchar(255)"`
	RepTitle         string            `gorm:"type:varchar(100)"`
	OrderID          string            `gorm:"type:varchar(64);not null"`
	OrderNum         string            `gorm:"type:varchar(64)"`
	CustomerID       string            `gorm:"type:varchar(64)"`
	CustomerName     string            `gorm:"type:varchar(255)"`
	AccountType      string            `gorm:"type:varchar(20)"`
	Segment          string            `gorm:"type:varchar(20)"`
	CustomerStatus   string            `gorm:"type:varchar(20)"`
	OrderRevenue     valueobject.Money `gorm:"type:decimal(18,4);not null"`
	CommissionRate   decimal.Decimal   `gorm:"type:decimal(8,4);not null"`
	CommissionAmount valueobject.Money `gorm:"type:decimal(18,4);not null"`
	RateSource       string            `gorm:"type:varchar(20)"`
	OrderDate        time.Time         `gorm:"not null"`
	Month            string            `gorm:"type:varchar(7);not null;index:idx_mc_month_rep,priority:1"`
	IsOverride       bool              `gorm:"not null"`
	OverrideReason   string            `gorm:"type:text"`
	Notes            string            `gorm:"type:text"`
	CalculatedAt     time.Time         `gorm:"not null"`
	Timestamps
}

// TableName returns the table name for GORM
func (MonthlyCommissionModel) TableName() string {
	return "monthly_commissions"
}

// ToDomain converts the model to a commission.MonthlyCommission
func (m *MonthlyCommissionModel) ToDomain() commission.MonthlyCommission {
	return commission.MonthlyCommission{
		ID:               m.ID,
		RepID:            m.RepID,
		SalesPerson:      m.SalesPerson,
		RepName:          m.RepName,
		RepTitle:         m.RepTitle,
		OrderID:          m.OrderID,
		OrderNum:         m.OrderNum,
		CustomerID:       m.CustomerID,
		CustomerName:     m.CustomerName,
		AccountType:      sales.AccountType(m.AccountType),
		Segment:          commission.Segment(m.Segment),
		CustomerStatus:   commission.CustomerStatus(m.CustomerStatus),
		OrderRevenue:     m.OrderRevenue,
		CommissionRate:   m.CommissionRate,
		CommissionAmount: m.CommissionAmount,
		RateSource:       m.RateSource,
		OrderDate:        m.OrderDate,
		Month:            m.Month,
		IsOverride:       m.IsOverride,
		OverrideReason:   m.OverrideReason,
		Notes:            m.Notes,
		CalculatedAt:     m.CalculatedAt,
	}
}

// MonthlyCommissionModelFromDomain converts a commission.MonthlyCommission
func MonthlyCommissionModelFromDomain(c *commission.MonthlyCommission) *MonthlyCommissionModel {
	return &MonthlyCommissionModel{
		ID:               c.ID,
		RepID:            c.RepID,
		SalesPerson:      c.SalesPerson,
		RepName:          c.RepName,
		RepTitle:         c.RepTitle,
		OrderID:          c.OrderID,
		OrderNum:         c.OrderNum,
		CustomerID:       c.CustomerID,
		CustomerName:     c.CustomerName,
		AccountType:      string(c.AccountType),
		Segment:          string(c.Segment),
		CustomerStatus:   string(c.CustomerStatus),
		OrderRevenue:     c.OrderRevenue,
		CommissionRate:   c.CommissionRate,
		CommissionAmount: c.CommissionAmount,
		RateSource:       c.RateSource,
		OrderDate:        c.OrderDate,
		Month:            c.Month,
		IsOverride:       c.IsOverride,
		OverrideReason:   c.OverrideReason,
		Notes:            c.Notes,
		CalculatedAt:     c.CalculatedAt,
	}
}

// SpiffEarningModel stores one line-level spiff payout
type SpiffEarningModel struct {
	ID          string            `gorm:"type:varchar(255);primaryKey"`
	RepID       string            `gorm:"type:varchar(64)"`
	SalesPerson string            `gorm:"type:varchar(100);not null;index:idx_se_month_rep,priority:2"`
	RepName     string            `gorm:"type:varchar(255)"`
	SpiffID     string            `gorm:"type:varchar(64);not null"`
	SpiffName   string            `gorm:"type:varchar(255)"`
	ProductNum  string            `gorm:"type:varchar(100)"`
	OrderID     string            `gorm:"type:varchar(64)"`
	OrderNum    string            `gorm:"type:varchar(64)"`
	CustomerID  string            `gorm:"type:varchar(64)"`
	LineItemID  string            `gorm:"type:varchar(64)"`
	Quantity    decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	LineRevenue valueobject.Money `gorm:"type:decimal(18,4);not null"`
	SpiffType   string            `gorm:"type:varchar(20)"`
	SpiffValue  decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Amount      valueobject.Money `gorm:"type:decimal(18,4);not null"`
	OrderDate   time.Time         `gorm:"not null"`
	Month       string            `gorm:"type:varchar(7);not null;index:idx_se_month_rep,priority:1"`
	Timestamps
}

// TableName returns the table name for GORM
func (SpiffEarningModel) TableName() string {
	return "spiff_earnings"
}

// ToDomain converts the model to a commission.SpiffEarning
func (m *SpiffEarningModel) ToDomain() commission.SpiffEarning {
	return commission.SpiffEarning{
		ID:          m.ID,
		RepID:       m.RepID,
		SalesPerson: m.SalesPerson,
		RepName:     m.RepName,
		SpiffID:     m.SpiffID,
		SpiffName:   m.SpiffName,
		ProductNum:  m.ProductNum,
		OrderID:     m.OrderID,
		OrderNum:    m.OrderNum,
		CustomerID:  m.CustomerID,
		LineItemID:  m.LineItemID,
		Quantity:    m.Quantity,
		LineRevenue: m.LineRevenue,
		SpiffType:   commission.SpiffType(m.SpiffType),
		SpiffValue:  m.SpiffValue,
		Amount:      m.Amount,
		OrderDate:   m.OrderDate,
		Month:       m.Month,
	}
}

// SpiffEarningModelFromDomain converts a commission.SpiffEarning
func SpiffEarningModelFromDomain(e *commission.SpiffEarning) *SpiffEarningModel {
	return &SpiffEarningModel{
		ID:          e.ID,
		RepID:       e.RepID,
		SalesPerson: e.SalesPerson,
		RepName:     e.RepName,
		SpiffID:     e.SpiffID,
		SpiffName:   e.SpiffName,
		ProductNum:  e.ProductNum,
		OrderID:     e.OrderID,
		OrderNum:    e.OrderNum,
		CustomerID:  e.CustomerID,
		LineItemID:  e.LineItemID,
		Quantity:    e.Quantity,
		LineRevenue: e.LineRevenue,
		SpiffType:   string(e.SpiffType),
		SpiffValue:  e.SpiffValue,
		Amount:      e.Amount,
		OrderDate:   e.OrderDate,
		Month:       e.Month,
	}
}

// MonthlySummaryModel stores the per-rep monthly rollup
type MonthlySummaryModel struct {
	ID              string            `gorm:"type:varchar(128);primaryKey"`
	SalesPerson     string            `gorm:"type:varchar(100);not null"`
	RepName         string            `gorm:"type:varchar(255)"`
	Month           string            `gorm:"type:varchar(7);not null;index"`
	TotalOrders     int               `gorm:"not null"`
	TotalRevenue    valueobject.Money `gorm:"type:decimal(18,4);not null"`
	TotalCommission valueobject.Money `gorm:"type:decimal(18,4);not null"`
	TotalSpiffs     valueobject.Money `gorm:"type:decimal(18,4);not null"`
	TotalEarnings   valueobject.Money `gorm:"type:decimal(18,4);not null"`
	CalculatedAt    time.Time         `gorm:"not null"`
	Timestamps
}

// TableName returns the table name for GORM
func (MonthlySummaryModel) TableName() string {
	return "monthly_summaries"
}

// ToDomain converts the model to a commission.MonthlySummary
func (m *MonthlySummaryModel) ToDomain() commission.MonthlySummary {
	return commission.MonthlySummary{
		ID:              m.ID,
		SalesPerson:     m.SalesPerson,
		RepName:         m.RepName,
		Month:           m.Month,
		TotalOrders:     m.TotalOrders,
		TotalRevenue:    m.TotalRevenue,
		TotalCommission: m.TotalCommission,
		TotalSpiffs:     m.TotalSpiffs,
		TotalEarnings:   m.TotalEarnings,
		CalculatedAt:    m.CalculatedAt,
	}
}

// MonthlySummaryModelFromDomain converts a commission.MonthlySummary
func MonthlySummaryModelFromDomain(s *commission.MonthlySummary) *MonthlySummaryModel {
	return &MonthlySummaryModel{
		ID:              s.ID,
		SalesPerson:     s.SalesPerson,
		RepName:         s.RepName,
		Month:           s.Month,
		TotalOrders:     s.TotalOrders,
		TotalRevenue:    s.TotalRevenue,
		TotalCommission: s.TotalCommission,
		TotalSpiffs:     s.TotalSpiffs,
		TotalEarnings:   s.TotalEarnings,
		CalculatedAt:    s.CalculatedAt,
	}
}
