// Package metricsapp recomputes per-customer purchase metrics from stored
// line items.
package metricsapp

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kanva/portal/internal/domain/metrics"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/infrastructure/logger"
	"github.com/kanva/portal/internal/infrastructure/scheduler"
	"github.com/kanva/portal/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// JobRefresh is the job name of a metrics refresh
const JobRefresh = "metrics_refresh"

// RefreshRequest limits a refresh to some customers; empty means all
type RefreshRequest struct {
	CustomerIDs []string `json:"customerIds"`
}

// RefreshResult is the response of a refresh run
type RefreshResult struct {
	RunID     string `json:"runId"`
	Status    string `json:"status"`
	Elapsed   string `json:"elapsed"`
	Customers int    `json:"customers"`
	Written   int    `json:"written"`
	Chunks    int    `json:"chunks"`
}

// Service aggregates customer metrics in bounded parallel chunks
type Service struct {
	customers sales.CustomerRepository
	orders    sales.OrderRepository
	metrics   metrics.Repository
	runner    *scheduler.Runner
	batch     *telemetry.BatchMetrics
	logger    *zap.Logger
	chunkSize int
	workers   int
	now       func() time.Time
}

// NewService creates a Service. workers bounds concurrent aggregations and
// chunkSize the customers per write.
func NewService(
	customers sales.CustomerRepository,
	orders sales.OrderRepository,
	repo metrics.Repository,
	runner *scheduler.Runner,
	batch *telemetry.BatchMetrics,
	logger *zap.Logger,
	chunkSize, workers int,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = scheduler.NewRunner(scheduler.Config{}, nil, batch, logger)
	}
	if chunkSize <= 0 || chunkSize > shared.DefaultBatchSize {
		chunkSize = shared.DefaultBatchSize
	}
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		customers: customers,
		orders:    orders,
		metrics:   repo,
		runner:    runner,
		batch:     batch,
		logger:    logger,
		chunkSize: chunkSize,
		workers:   workers,
		now:       time.Now,
	}
}

// Refresh recomputes and overwrites metrics. Every chunk is written before
// the next one starts, so a run cut short by its budget keeps its progress.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResult, error) {
	result := &RefreshResult{}
	run, err := s.runner.Run(ctx, JobRefresh, "metrics:refresh", func(ctx context.Context, _ *scheduler.Run) error {
		return s.refresh(ctx, req, result)
	})
	if run == nil {
		return nil, err
	}
	result.RunID = run.ID
	result.Status = string(run.Status)
	result.Elapsed = run.Elapsed().Round(time.Millisecond).String()
	s.runner.Record(ctx, run, scheduler.Outcome{Rows: result.Customers, Summary: result})
	return result, err
}

func (s *Service) refresh(ctx context.Context, req RefreshRequest, result *RefreshResult) error {
	log := logger.L(ctx)

	ids, err := s.customerIDs(ctx, req.CustomerIDs)
	if err != nil {
		return err
	}
	result.Customers = len(ids)
	now := s.now()

	for n, chunk := range shared.Chunk(ids, s.chunkSize) {
		if err := scheduler.CheckBudget(ctx); err != nil {
			return err
		}
		batch, err := s.aggregateChunk(ctx, chunk, now)
		if err != nil {
			return err
		}
		if err := s.metrics.UpsertBatch(ctx, batch); err != nil {
			return fmt.Errorf("write metrics chunk %d: %w", n, err)
		}
		result.Written += len(batch)
		result.Chunks++
		s.batch.RecordRows(ctx, JobRefresh, "customer_metrics", len(batch))
		log.Debug("Metrics chunk written", zap.Int("chunk", n), zap.Int("written", result.Written))
	}

	log.Info("Metrics refreshed",
		zap.Int("customers", result.Customers),
		zap.Int("written", result.Written),
	)
	return nil
}

// customerIDs returns the requested ids, or every customer id, in id order
func (s *Service) customerIDs(ctx context.Context, requested []string) ([]string, error) {
	ids := make([]string, 0, len(requested))
	if len(requested) > 0 {
		seen := make(map[string]bool, len(requested))
		for _, id := range requested {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	} else {
		customers, err := s.customers.FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("load customers: %w", err)
		}
		for _, c := range customers {
			ids = append(ids, c.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return sales.CompareIDs(ids[i], ids[j]) < 0 })
	return ids, nil
}

// aggregateChunk loads the chunk's line items once and aggregates each
// customer on the worker pool. Output order follows the input ids.
func (s *Service) aggregateChunk(ctx context.Context, ids []string, now time.Time) ([]*metrics.CustomerMetrics, error) {
	items, err := s.orders.FindLineItems(ctx, sales.OrderFilter{CustomerIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("load line items: %w", err)
	}
	byCustomer := make(map[string][]sales.LineItem, len(ids))
	for _, item := range items {
		byCustomer[item.CustomerID] = append(byCustomer[item.CustomerID], item)
	}

	out := make([]*metrics.CustomerMetrics, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m := metrics.Aggregate(id, byCustomer[id], now)
			out[i] = &m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
