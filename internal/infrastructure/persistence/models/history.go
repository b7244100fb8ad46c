package models

import (
	"encoding/json"
	"time"

	"github.com/kanva/portal/internal/domain/history"
)

// RunLogModel stores one finished batch run
type RunLogModel struct {
	ID         string    `gorm:"type:varchar(64);primaryKey"`
	Job        string    `gorm:"type:varchar(40);not null;index:idx_run_logs_job_started,priority:1"`
	JobKey     string    `gorm:"type:varchar(128)"`
	Status     string    `gorm:"type:varchar(20);not null"`
	StartedAt  time.Time `gorm:"not null;index:idx_run_logs_job_started,priority:2"`
	FinishedAt time.Time `gorm:"not null"`
	Rows       int       `gorm:"column:rows_processed;not null"`
	Failed     int       `gorm:"column:rows_failed;not null"`
	Summary    []byte    `gorm:"type:jsonb"`
	ReportKey  string    `gorm:"type:varchar(255)"`
	Error      string    `gorm:"type:text"`
	Timestamps
}

// TableName returns the table name for GORM
func (RunLogModel) TableName() string {
	return "run_logs"
}

// ToDomain converts the model to a history.RunLog
func (m *RunLogModel) ToDomain() history.RunLog {
	var summary json.RawMessage
	if len(m.Summary) > 0 {
		summary = json.RawMessage(m.Summary)
	}
	return history.RunLog{
		ID:         m.ID,
		Job:        m.Job,
		JobKey:     m.JobKey,
		Status:     history.Status(m.Status),
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		Rows:       m.Rows,
		Failed:     m.Failed,
		Summary:    summary,
		ReportKey:  m.ReportKey,
		Error:      m.Error,
	}
}

// RunLogModelFromDomain converts a history.RunLog
func RunLogModelFromDomain(l *history.RunLog) *RunLogModel {
	var summary []byte
	if len(l.Summary) > 0 {
		summary = []byte(l.Summary)
	}
	return &RunLogModel{
		ID:         l.ID,
		Job:        l.Job,
		JobKey:     l.JobKey,
		Status:     string(l.Status),
		StartedAt:  l.StartedAt,
		FinishedAt: l.FinishedAt,
		Rows:       l.Rows,
		Failed:     l.Failed,
		Summary:    summary,
		ReportKey:  l.ReportKey,
		Error:      l.Error,
	}
}
