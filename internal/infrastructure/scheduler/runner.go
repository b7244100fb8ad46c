// Package scheduler runs batch jobs under a wall-clock budget, a run guard
// and per-run logging, tracing and metrics.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kanva/portal/internal/domain/history"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/infrastructure/logger"
	"github.com/kanva/portal/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// RunStatus is the final state of a run
type RunStatus string

const (
	RunStatusCompleted RunStatus = telemetry.RunCompleted
	RunStatusPartial   RunStatus = telemetry.RunPartial
	RunStatusFailed    RunStatus = telemetry.RunFailed
)

// Run describes one execution of a job
type Run struct {
	ID         string
	Job        string
	Key        string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

// Elapsed returns how long the run took
func (r *Run) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Partial reports whether the budget expired before the job finished
func (r *Run) Partial() bool {
	return r.Status == RunStatusPartial
}

// JobFunc does the work of a run. It must stop promptly once ctx is done;
// work committed before that point stays.
type JobFunc func(ctx context.Context, run *Run) error

// Config holds runner settings
type Config struct {
	Budget   time.Duration // zero disables the deadline
	GuardTTL time.Duration
}

// Recorder keeps the log of finished runs
type Recorder interface {
	Save(ctx context.Context, log *history.RunLog) error
}

// Outcome is what a job reports about its finished run
type Outcome struct {
	Rows      int
	Failed    int
	ReportKey string
	Summary   any
}

// Runner executes jobs one at a time per job key
type Runner struct {
	cfg      Config
	guard    shared.RunGuard
	metrics  *telemetry.BatchMetrics
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewRunner creates a Runner. A nil guard never blocks; nil metrics are skipped.
func NewRunner(cfg Config, guard shared.RunGuard, metrics *telemetry.BatchMetrics, logger *zap.Logger) *Runner {
	if guard == nil {
		guard = shared.NoopRunGuard{}
	}
	if cfg.GuardTTL <= 0 {
		cfg.GuardTTL = cfg.Budget + time.Minute
	}
	return &Runner{cfg: cfg, guard: guard, metrics: metrics, logger: logger, now: time.Now}
}

// WithRecorder makes Record persist run logs through rec
func (r *Runner) WithRecorder(rec Recorder) *Runner {
	r.recorder = rec
	return r
}

// Run executes fn under the configured budget. It returns shared.ErrConflict
// without running fn when another run holds jobKey. A budget expiry is not an
// error: the returned Run has status partial.
func (r *Runner) Run(ctx context.Context, job, jobKey string, fn JobFunc) (*Run, error) {
	release, err := r.guard.Acquire(ctx, jobKey, r.cfg.GuardTTL)
	if err != nil {
		return nil, err
	}

	run := &Run{ID: uuid.NewString(), Job: job, Key: jobKey, StartedAt: r.now()}
	ctx, log := logger.WithRunID(ctx, r.logger.With(zap.String("job", job)), run.ID)
	ctx, span := telemetry.StartSpan(ctx, "batch", job,
		attribute.String("run_id", run.ID),
		attribute.String("job_key", jobKey),
	)

	defer func() {
		// release on a fresh context so an expired budget still frees the key
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			log.Warn("Failed to release run guard", zap.Error(err))
		}
	}()

	budgetCtx := ctx
	if r.cfg.Budget > 0 {
		var cancel context.CancelFunc
		budgetCtx, cancel = context.WithTimeout(ctx, r.cfg.Budget)
		defer cancel()
	}

	log.Info("Batch run started", zap.String("job_key", jobKey), zap.Duration("budget", r.cfg.Budget))
	err = fn(budgetCtx, run)
	run.FinishedAt = r.now()

	switch {
	case err == nil:
		run.Status = RunStatusCompleted
	case errors.Is(budgetCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		run.Status = RunStatusPartial
		run.Err = shared.ErrBudgetExceeded
		err = nil
	default:
		run.Status = RunStatusFailed
		run.Err = err
	}

	telemetry.End(span, err)
	r.metrics.RecordRun(ctx, job, string(run.Status), run.Elapsed())
	log.Info("Batch run finished",
		zap.String("status", string(run.Status)),
		zap.Duration("elapsed", run.Elapsed()),
		zap.Error(run.Err),
	)
	if run.Status == RunStatusFailed {
		return run, err
	}
	return run, nil
}

// Record logs the outcome of a finished run. Failures are logged and
// never reach the caller; the run itself already happened.
func (r *Runner) Record(ctx context.Context, run *Run, out Outcome) {
	if r.recorder == nil || run == nil {
		return
	}
	log := r.logger.With(zap.String("run_id", run.ID), zap.String("job", run.Job))

	entry, err := history.NewRunLog(run.ID, run.Job, run.Key, history.Status(run.Status), run.StartedAt, run.FinishedAt)
	if err != nil {
		log.Warn("Invalid run log", zap.Error(err))
		return
	}
	entry.Rows = out.Rows
	entry.Failed = out.Failed
	entry.ReportKey = out.ReportKey
	if run.Err != nil {
		entry.Error = run.Err.Error()
	}
	if err := entry.SetSummary(out.Summary); err != nil {
		log.Warn("Run summary dropped", zap.Error(err))
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.recorder.Save(saveCtx, entry); err != nil {
		log.Warn("Failed to save run log", zap.Error(err))
	}
}

// CheckBudget returns a non-nil error once ctx is done. Loops call it between
// chunks.
func CheckBudget(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return shared.ErrBudgetExceeded
		}
		return err
	}
	return nil
}
