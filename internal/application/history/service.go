// Package historyapp answers questions about past batch runs
package historyapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kanva/portal/internal/domain/history"
	"github.com/kanva/portal/internal/domain/shared"
)

// MaxLimit bounds how many runs one listing returns
const MaxLimit = 200

// ListRequest filters the run listing. Zero values mean no filter.
type ListRequest struct {
	Job    string    `form:"job"`
	Status string    `form:"status"`
	Since  time.Time `form:"since" time_format:"2006-01-02" time_utc:"1"`
	Limit  int       `form:"limit"`
}

// RunView is a run log with its derived figures
type RunView struct {
	history.RunLog
	DurationMs    int64   `json:"durationMs"`
	RowsPerSecond int     `json:"rowsPerSecond"`
	SuccessRate   float64 `json:"successRate"`
}

func newRunView(log history.RunLog) RunView {
	return RunView{
		RunLog:        log,
		DurationMs:    log.Duration().Milliseconds(),
		RowsPerSecond: log.RowsPerSecond(),
		SuccessRate:   log.SuccessRate(),
	}
}

// Service reads the run log
type Service struct {
	repo history.Repository
}

// NewService creates a Service
func NewService(repo history.Repository) *Service {
	return &Service{repo: repo}
}

// List returns the newest runs first
func (s *Service) List(ctx context.Context, req ListRequest) ([]RunView, error) {
	filter := history.Filter{
		Job:   strings.TrimSpace(req.Job),
		Since: req.Since,
		Limit: req.Limit,
	}
	if req.Status != "" {
		status := history.Status(strings.ToLower(req.Status))
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, req.Status)
		}
		filter.Status = status
	}
	if req.Limit < 0 || req.Limit > MaxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", shared.ErrInvalidInput, MaxLimit)
	}

	logs, err := s.repo.FindRecent(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	views := make([]RunView, len(logs))
	for i := range logs {
		views[i] = newRunView(logs[i])
	}
	return views, nil
}

// Get returns one run. Unknown ids yield shared.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*RunView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: run id is required", shared.ErrInvalidInput)
	}
	log, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := newRunView(*log)
	return &view, nil
}
