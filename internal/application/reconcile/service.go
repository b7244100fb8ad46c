// Package reconcile links CRM companies and imported orders to canonical
// customers and writes the results back in budgeted, chunked batches.
package reconcile

import (
	"context"
	"time"

	"github.com/kanva/portal/internal/domain/matching"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/infrastructure/copper"
	"github.com/kanva/portal/internal/infrastructure/scheduler"
	"github.com/kanva/portal/internal/infrastructure/storage"
	"github.com/kanva/portal/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Job names used for run guards, logs and metrics
const (
	JobCompanies = "reconcile_companies"
	JobOrders    = "reconcile_orders"
)

// errorSamples is how many row errors a response carries
const errorSamples = 10

// CompanySource lists CRM companies
type CompanySource interface {
	SearchCompanies(ctx context.Context, filter copper.CompanyFilter) ([]copper.Company, error)
}

// ReportArchive keeps a copy of each run report
type ReportArchive interface {
	Archive(ctx context.Context, kind, runID string, report any) (string, error)
}

// Deps are the collaborators of a Service. Companies, Cache, Archive and
// Metrics are optional.
type Deps struct {
	Companies CompanySource
	Customers sales.CustomerRepository
	Orders    sales.OrderRepository
	Records   matching.MatchRecordRepository
	Cache     matching.MatchCache
	Runner    *scheduler.Runner
	Archive   ReportArchive
	Metrics   *telemetry.BatchMetrics
	Logger    *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithChunkSize sets how many rows are committed per write
func WithChunkSize(size int) Option {
	return func(s *Service) {
		if size > 0 && size <= shared.DefaultBatchSize {
			s.chunkSize = size
		}
	}
}

// WithLocation sets the zone for import dates without one
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithResolver replaces the default identity resolver
func WithResolver(r *matching.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service runs company and order reconciliation
type Service struct {
	companies CompanySource
	customers sales.CustomerRepository
	orders    sales.OrderRepository
	records   matching.MatchRecordRepository
	cache     matching.MatchCache
	runner    *scheduler.Runner
	archive   ReportArchive
	metrics   *telemetry.BatchMetrics
	logger    *zap.Logger
	resolver  *matching.Resolver
	chunkSize int
	loc       *time.Location
	now       func() time.Time
}

// NewService creates a Service
func NewService(deps Deps, opts ...Option) *Service {
	s := &Service{
		companies: deps.Companies,
		customers: deps.Customers,
		orders:    deps.Orders,
		records:   deps.Records,
		cache:     deps.Cache,
		runner:    deps.Runner,
		archive:   deps.Archive,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		resolver:  matching.NewResolver(),
		chunkSize: shared.DefaultBatchSize,
		loc:       time.UTC,
		now:       time.Now,
	}
	if s.archive == nil {
		s.archive = storage.DiscardArchive{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.runner == nil {
		s.runner = scheduler.NewRunner(scheduler.Config{}, nil, deps.Metrics, s.logger)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// knownMatches returns previously stored matches for keys, reading the cache
// first and the match table for the misses. Hits from the table warm the cache.
func (s *Service) knownMatches(ctx context.Context, system matching.SourceSystem, keys []string) (map[string]*matching.MatchRecord, error) {
	known := make(map[string]*matching.MatchRecord, len(keys))
	var misses []string
	for _, key := range keys {
		if s.cache != nil {
			rec, err := s.cache.Get(ctx, system, key)
			if err != nil {
				s.logger.Warn("Match cache read failed", zap.String("key", key), zap.Error(err))
			} else if rec != nil {
				known[key] = rec
				continue
			}
		}
		misses = append(misses, key)
	}
	if len(misses) == 0 || s.records == nil {
		return known, nil
	}

	stored, err := s.records.FindBySource(ctx, system, misses)
	if err != nil {
		return nil, err
	}
	for i := range stored {
		rec := stored[i]
		known[rec.SourceKey] = &rec
		s.remember(ctx, &rec)
	}
	return known, nil
}

// remember writes a match to the cache. Failures only cost a later lookup.
func (s *Service) remember(ctx context.Context, rec *matching.MatchRecord) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, rec); err != nil {
		s.logger.Warn("Match cache write failed", zap.String("key", rec.Key()), zap.Error(err))
	}
}

// writeCustomers upserts changed customers in chunks, checking the budget
// between chunks.
func (s *Service) writeCustomers(ctx context.Context, customers []*sales.Customer) (int, error) {
	written := 0
	for _, chunk := range shared.Chunk(customers, s.chunkSize) {
		if err := scheduler.CheckBudget(ctx); err != nil {
			return written, err
		}
		if err := s.customers.UpsertBatch(ctx, chunk); err != nil {
			return written, err
		}
		written += len(chunk)
	}
	return written, nil
}

func (s *Service) writeRecords(ctx context.Context, records []*matching.MatchRecord) error {
	if s.records == nil || len(records) == 0 {
		return nil
	}
	for _, chunk := range shared.Chunk(records, s.chunkSize) {
		if err := s.records.UpsertBatch(ctx, chunk); err != nil {
			return err
		}
	}
	for _, rec := range records {
		s.remember(ctx, rec)
	}
	return nil
}

// finish stamps the run outcome on the result, archives it and records
// the run in the history log
func (s *Service) finish(ctx context.Context, run *scheduler.Run, result *Result) {
	result.RunID = run.ID
	result.Status = string(run.Status)
	result.Elapsed = run.Elapsed().Round(time.Millisecond).String()
	result.Stats.finish()

	key, err := s.archive.Archive(ctx, run.Job, run.ID, result)
	if err != nil {
		s.logger.Warn("Failed to archive run report",
			zap.String("run_id", run.ID),
			zap.String("job", run.Job),
			zap.Error(err),
		)
	} else {
		result.ReportKey = key
	}

	s.runner.Record(ctx, run, scheduler.Outcome{
		Rows:      result.Stats.Total,
		Failed:    result.Stats.Failed,
		ReportKey: result.ReportKey,
		Summary:   result.Stats,
	})
}
