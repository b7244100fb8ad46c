// Package history keeps a log of finished batch runs: what ran, how it
// ended, how much it processed and where its report was archived.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kanva/portal/internal/domain/shared"
)

// Status is the final state of a logged run
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusFailed:
		return true
	}
	return false
}

// RunLog is the record of one finished run
type RunLog struct {
	ID         string          `json:"id"`
	Job        string          `json:"job"`
	JobKey     string          `json:"jobKey"`
	Status     Status          `json:"status"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Rows       int             `json:"rows"`
	Failed     int             `json:"failed"`
	Summary    json.RawMessage `json:"summary,omitempty"`
	ReportKey  string          `json:"reportKey,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// NewRunLog validates and builds a log entry
func NewRunLog(id, job, jobKey string, status Status, startedAt, finishedAt time.Time) (*RunLog, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, shared.NewDomainError("INVALID_RUN_ID", "Run ID cannot be empty")
	}
	job = strings.TrimSpace(job)
	if job == "" {
		return nil, shared.NewDomainError("INVALID_JOB", "Job cannot be empty")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid run status: %s", status))
	}
	if finishedAt.Before(startedAt) {
		return nil, shared.NewDomainError("INVALID_TIMING", "Run cannot finish before it starts")
	}
	return &RunLog{
		ID:         id,
		Job:        job,
		JobKey:     jobKey,
		Status:     status,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}, nil
}

// SetSummary stores v as the run summary
func (l *RunLog) SetSummary(v any) error {
	if v == nil {
		l.Summary = nil
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	l.Summary = data
	return nil
}

// Duration returns how long the run took
func (l *RunLog) Duration() time.Duration {
	return l.FinishedAt.Sub(l.StartedAt)
}

// RowsPerSecond is the processing rate, floored. Zero for instant runs.
func (l *RunLog) RowsPerSecond() int {
	secs := l.Duration().Seconds()
	if secs <= 0 {
		return 0
	}
	return int(float64(l.Rows) / secs)
}

// SuccessRate returns the share of rows that did not fail, 0-100
func (l *RunLog) SuccessRate() float64 {
	if l.Rows == 0 {
		return 0
	}
	ok := l.Rows - l.Failed
	if ok < 0 {
		ok = 0
	}
	return float64(ok) / float64(l.Rows) * 100
}

// Filter narrows run log queries
type Filter struct {
	Job    string
	Status Status
	Since  time.Time
	Limit  int
}

// Repository persists run logs
type Repository interface {
	Save(ctx context.Context, log *RunLog) error
	FindByID(ctx context.Context, id string) (*RunLog, error)
	FindRecent(ctx context.Context, filter Filter) ([]RunLog, error)
}
