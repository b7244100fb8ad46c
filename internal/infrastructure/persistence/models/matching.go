package models

import (
	"time"

	"github.com/kanva/portal/internal/domain/matching"
)

// MatchRecordModel stores how a source identity was linked to a customer
type MatchRecordModel struct {
	SourceSystem string    `gorm:"type:varchar(20);primaryKey"`
	SourceKey    string    `gorm:"type:varchar(128);primaryKey"`
	CustomerID   string    `gorm:"type:varchar(64);index"`
	Method       string    `gorm:"type:varchar(20);not null"`
	Confidence   float64   `gorm:"not null"`
	Ambiguous    bool      `gorm:"not null"`
	MatchedAt    time.Time `gorm:"not null"`
	Timestamps
}

// TableName returns the table name for GORM
func (MatchRecordModel) TableName() string {
	return "match_records"
}

// ToDomain converts the model to a matching.MatchRecord
func (m *MatchRecordModel) ToDomain() matching.MatchRecord {
	return matching.MatchRecord{
		SourceSystem: matching.SourceSystem(m.SourceSystem),
		SourceKey:    m.SourceKey,
		CustomerID:   m.CustomerID,
		Method:       matching.Method(m.Method),
		Confidence:   m.Confidence,
		Ambiguous:    m.Ambiguous,
		MatchedAt:    m.MatchedAt,
	}
}

// MatchRecordModelFromDomain converts a matching.MatchRecord
func MatchRecordModelFromDomain(r *matching.MatchRecord) *MatchRecordModel {
	return &MatchRecordModel{
		SourceSystem: string(r.SourceSystem),
		SourceKey:    r.SourceKey,
		CustomerID:   r.CustomerID,
		Method:       string(r.Method),
		Confidence:   r.Confidence,
		Ambiguous:    r.Ambiguous,
		MatchedAt:    r.MatchedAt,
	}
}
