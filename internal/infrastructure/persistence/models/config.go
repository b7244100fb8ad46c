package models

import (
	"time"

	"github.com/kanva/portal/internal/domain/commission"
	"github.com/shopspring/decimal"
)

// RateRuleModel is one row of the commission rate table
type RateRuleModel struct {
	Title      string          `gorm:"type:varchar(100);primaryKey"`
	Segment    string          `gorm:"type:varchar(20);primaryKey"`
	Status     string          `gorm:"type:varchar(32);primaryKey"`
	Percentage decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	Active     *bool
	Timestamps
}

// TableName returns the table name for GORM
func (RateRuleModel) TableName() string {
	return "rate_rules"
}

// ToDomain converts the model to a commission.RateRule
func (m *RateRuleModel) ToDomain() commission.RateRule {
	return commission.RateRule{
		Title:      m.Title,
		Segment:    commission.Segment(m.Segment),
		Status:     commission.RateKey(m.Status),
		Percentage: m.Percentage,
		Active:     m.Active,
	}
}

// RateRuleModelFromDomain converts a commission.RateRule
func RateRuleModelFromDomain(r *commission.RateRule) *RateRuleModel {
	return &RateRuleModel{
		Title:      r.Title,
		Segment:    string(r.Segment),
		Status:     string(r.Status),
		Percentage: r.Percentage,
		Active:     r.Active,
	}
}

// SpiffModel is a product incentive definition
type SpiffModel struct {
	ID         string          `gorm:"type:varchar(64);primaryKey"`
	Name       string          `gorm:"type:varchar(255)"`
	ProductNum string          `gorm:"type:varchar(100);not null;index"`
	Type       string          `gorm:"type:varchar(20);not null"`
	Value      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Active     bool            `gorm:"not null"`
	StartDate  time.Time       `gorm:"not null"`
	EndDate    *time.Time
	Timestamps
}

// TableName returns the table name for GORM
func (SpiffModel) TableName() string {
	return "spiffs"
}

// ToDomain converts the model to a commission.Spiff
func (m *SpiffModel) ToDomain() commission.Spiff {
	return commission.Spiff{
		ID:         m.ID,
		Name:       m.Name,
		ProductNum: m.ProductNum,
		Type:       m.Type,
		Value:      m.Value,
		Active:     m.Active,
		StartDate:  m.StartDate,
		EndDate:    timePtr(m.EndDate),
	}
}

// SpiffModelFromDomain converts a commission.Spiff
func SpiffModelFromDomain(s *commission.Spiff) *SpiffModel {
	return &SpiffModel{
		ID:         s.ID,
		Name:       s.Name,
		ProductNum: s.ProductNum,
		Type:       s.Type,
		Value:      s.Value,
		Active:     s.Active,
		StartDate:  s.StartDate,
		EndDate:    timePtr(s.EndDate),
	}
}

// BudgetModel holds the quarterly bucket goals per title
type BudgetModel struct {
	Title    string          `gorm:"type:varchar(100);primaryKey"`
	PeriodID string          `gorm:"type:varchar(32);primaryKey"`
	BucketA  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BucketB  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BucketC  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BucketD  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Timestamps
}

// TableName returns the table name for GORM
func (BudgetModel) TableName() string {
	return "budgets"
}

// ToDomain converts the model to a commission.Budget
func (m *BudgetModel) ToDomain() commission.Budget {
	return commission.Budget{
		Title:    m.Title,
		PeriodID: m.PeriodID,
		BucketA:  m.BucketA,
		BucketB:  m.BucketB,
		BucketC:  m.BucketC,
		BucketD:  m.BucketD,
	}
}

// BudgetModelFromDomain converts a commission.Budget
func BudgetModelFromDomain(b *commission.Budget) *BudgetModel {
	return &BudgetModel{
		Title:    b.Title,
		PeriodID: b.PeriodID,
		BucketA:  b.BucketA,
		BucketB:  b.BucketB,
		BucketC:  b.BucketC,
		BucketD:  b.BucketD,
	}
}

// ActivityGoalModel is one Effort-bucket sub-goal for a period
type ActivityGoalModel struct {
	PeriodID  string          `gorm:"type:varchar(32);primaryKey"`
	GoalID    string          `gorm:"type:varchar(100);primaryKey"`
	Label     string          `gorm:"type:varchar(255)"`
	Goal      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SubWeight decimal.Decimal `gorm:"type:decimal(8,6);not null"`
	Timestamps
}

// TableName returns the table name for GORM
func (ActivityGoalModel) TableName() string {
	return "activity_goals"
}

// ToDomain converts the model to a commission.SubGoal
func (m *ActivityGoalModel) ToDomain() commission.SubGoal {
	return commission.SubGoal{ID: m.GoalID, Label: m.Label, Goal: m.Goal, SubWeight: m.SubWeight}
}
