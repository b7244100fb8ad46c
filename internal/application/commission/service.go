// Package commissionapp runs the monthly commission calculation and the
// quarterly bonus engine against stored orders and configuration.
package commissionapp

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kanva/portal/internal/domain/commission"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/kanva/portal/internal/infrastructure/config"
	"github.com/kanva/portal/internal/infrastructure/copper"
	"github.com/kanva/portal/internal/infrastructure/justcall"
	"github.com/kanva/portal/internal/infrastructure/scheduler"
	"github.com/kanva/portal/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Job names recorded on runs and metrics
const (
	JobMonthly   = "commission_monthly"
	JobQuarterly = "commission_quarterly"
)

// CallSource provides telephony effort for a rep
type CallSource interface {
	PeriodMetricsFor(ctx context.Context, email string, start, end time.Time) (justcall.PeriodMetrics, justcall.CallMetrics, error)
}

// ActivitySource provides CRM effort for a rep
type ActivitySource interface {
	SearchActivities(ctx context.Context, filter copper.ActivityFilter) ([]copper.Activity, error)
	SearchOpportunities(ctx context.Context, filter copper.OpportunityFilter) ([]copper.Opportunity, error)
}

// Deps are the collaborators of Service. Calls and Activities are optional.
type Deps struct {
	Orders     sales.OrderRepository
	Customers  sales.CustomerRepository
	Reps       sales.RepRepository
	Config     commission.ConfigRepository
	Monthly    commission.MonthlyRepository
	Entries    commission.EntryRepository
	Calls      CallSource
	Activities ActivitySource
	Runner     *scheduler.Runner
	Metrics    *telemetry.BatchMetrics
	Logger     *zap.Logger
}

// Settings is the rule snapshot every run starts from
type Settings struct {
	Engine    commission.EngineConfig
	Monthly   commission.MonthlyConfig
	Location  *time.Location
	ChunkSize int
}

// DefaultMaxBonus is the quarterly bonus at 100% attainment
var DefaultMaxBonus = decimal.NewFromInt(25000)

// DefaultSettings uses the default engine and monthly rules in UTC
func DefaultSettings() Settings {
	return Settings{
		Engine:    commission.DefaultEngineConfig(valueobject.NewMoney(DefaultMaxBonus)),
		Monthly:   commission.DefaultMonthlyConfig(),
		Location:  time.UTC,
		ChunkSize: shared.DefaultBatchSize,
	}
}

// SettingsFromConfig builds Settings from the loaded configuration
func SettingsFromConfig(cfg config.CommissionConfig, batch config.BatchConfig) Settings {
	engine := commission.DefaultEngineConfig(valueobject.NewMoney(cfg.MaxBonus))
	if !cfg.Threshold.IsZero() {
		engine.Threshold = cfg.Threshold
	}
	if !cfg.Cap.IsZero() {
		engine.Cap = cfg.Cap
	}
	status := commission.StatusRules{ApplyReorgRule: cfg.ApplyReorgRule, ReorgDate: cfg.ReorgDate}
	if status.ReorgDate.IsZero() {
		status.ReorgDate = commission.DefaultReorgDate
	}
	return Settings{
		Engine: engine,
		Monthly: commission.MonthlyConfig{
			Rules: commission.Rules{
				ExcludeShipping:     cfg.ExcludeShipping,
				ExcludeCCProcessing: cfg.ExcludeCCProcessing,
			},
			Status: status,
		},
		Location:  cfg.Location(),
		ChunkSize: batch.ChunkSize,
	}
}

// Service orchestrates commission runs
type Service struct {
	deps     Deps
	settings Settings
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates a Service
func NewService(deps Deps, settings Settings) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Runner == nil {
		deps.Runner = scheduler.NewRunner(scheduler.Config{}, nil, deps.Metrics, deps.Logger)
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.ChunkSize <= 0 || settings.ChunkSize > shared.DefaultBatchSize {
		settings.ChunkSize = shared.DefaultBatchSize
	}
	if len(settings.Engine.Buckets) == 0 {
		settings.Engine.Buckets = commission.DefaultBuckets()
	}
	return &Service{
		deps:     deps,
		settings: settings,
		validate: validator.New(),
		now:      time.Now,
	}
}

// runInfo copies run bookkeeping into a response
type runInfo struct {
	RunID   string `json:"runId"`
	Status  string `json:"status"`
	Elapsed string `json:"elapsed"`
}

func (r *runInfo) fill(run *scheduler.Run) {
	r.RunID = run.ID
	r.Status = string(run.Status)
	r.Elapsed = run.Elapsed().Round(time.Millisecond).String()
}

// writeChunked writes records in chunks, checking the run budget between them
func writeChunked[T any](ctx context.Context, records []T, size int, write func(context.Context, []T) error) error {
	for _, chunk := range shared.Chunk(records, size) {
		if err := scheduler.CheckBudget(ctx); err != nil {
			return err
		}
		if err := write(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}
