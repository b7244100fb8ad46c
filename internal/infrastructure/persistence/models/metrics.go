package models

import (
	"time"

	"github.com/kanva/portal/internal/domain/metrics"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
)

// CustomerMetricsModel stores the aggregator output for one customer. Window
// stats and product lists are JSON columns.
type CustomerMetricsModel struct {
	CustomerID         string                `gorm:"type:varchar(64);primaryKey"`
	TotalOrders        int                   `gorm:"not null"`
	TotalSales         valueobject.Money     `gorm:"type:decimal(18,4);not null"`
	Last30Days         metrics.WindowStat    `gorm:"type:jsonb;serializer:json"`
	Last90Days         metrics.WindowStat    `gorm:"type:jsonb;serializer:json"`
	Last12Months       metrics.WindowStat    `gorm:"type:jsonb;serializer:json"`
	YearToDate         metrics.WindowStat    `gorm:"type:jsonb;serializer:json"`
	FirstOrderDate     *time.Time
	LastOrderDate      *time.Time
	DaysSinceLastOrder *int
	AvgOrderValue      valueobject.Money     `gorm:"type:decimal(18,4);not null"`
	Velocity           float64               `gorm:"not null"`
	Trend              float64               `gorm:"not null"`
	LastOrderAmount    valueobject.Money     `gorm:"type:decimal(18,4);not null"`
	TopProducts        []metrics.ProductStat `gorm:"type:jsonb;serializer:json"`
	MonthlySales       []metrics.MonthlySale `gorm:"type:jsonb;serializer:json"`
	ComputedAt         time.Time             `gorm:"not null"`
	Timestamps
}

// TableName returns the table name for GORM
func (CustomerMetricsModel) TableName() string {
	return "customer_metrics"
}

// ToDomain converts the model to metrics.CustomerMetrics
func (m *CustomerMetricsModel) ToDomain() metrics.CustomerMetrics {
	return metrics.CustomerMetrics{
		CustomerID:         m.CustomerID,
		TotalOrders:        m.TotalOrders,
		TotalSales:         m.TotalSales,
		Last30Days:         m.Last30Days,
		Last90Days:         m.Last90Days,
		Last12Months:       m.Last12Months,
		YearToDate:         m.YearToDate,
		FirstOrderDate:     timePtr(m.FirstOrderDate),
		LastOrderDate:      timePtr(m.LastOrderDate),
		DaysSinceLastOrder: m.DaysSinceLastOrder,
		AvgOrderValue:      m.AvgOrderValue,
		Velocity:           m.Velocity,
		Trend:              m.Trend,
		LastOrderAmount:    m.LastOrderAmount,
		TopProducts:        m.TopProducts,
		MonthlySales:       m.MonthlySales,
		ComputedAt:         m.ComputedAt,
	}
}

// CustomerMetricsModelFromDomain converts metrics.CustomerMetrics
func CustomerMetricsModelFromDomain(cm *metrics.CustomerMetrics) *CustomerMetricsModel {
	return &CustomerMetricsModel{
		CustomerID:         cm.CustomerID,
		TotalOrders:        cm.TotalOrders,
		TotalSales:         cm.TotalSales,
		Last30Days:         cm.Last30Days,
		Last90Days:         cm.Last90Days,
		Last12Months:       cm.Last12Months,
		YearToDate:         cm.YearToDate,
		FirstOrderDate:     timePtr(cm.FirstOrderDate),
		LastOrderDate:      timePtr(cm.LastOrderDate),
		DaysSinceLastOrder: cm.DaysSinceLastOrder,
		AvgOrderValue:      cm.AvgOrderValue,
		Velocity:           cm.Velocity,
		Trend:              cm.Trend,
		LastOrderAmount:    cm.LastOrderAmount,
		TopProducts:        cm.TopProducts,
		MonthlySales:       cm.MonthlySales,
		ComputedAt:         cm.ComputedAt,
	}
}
