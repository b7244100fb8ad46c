package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Run statuses recorded on kanva.batch.runs
const (
	RunCompleted = "completed"
	RunPartial   = "partial"
	RunFailed    = "failed"
)

// BatchMetrics records the outcome of reconciliation, metrics refresh and
// commission runs.
type BatchMetrics struct {
	runs         metric.Int64Counter
	runDuration  metric.Float64Histogram
	rows         metric.Int64Counter
	matches      metric.Int64Counter
	payouts      metric.Float64Counter
	importErrors metric.Int64Counter
}

// NewBatchMetrics registers the instruments on meter; nil uses the global provider
func NewBatchMetrics(meter metric.Meter) (*BatchMetrics, error) {
	if meter == nil {
		meter = otel.Meter(TracerName)
	}
	bm := &BatchMetrics{}
	var err error

	if bm.runs, err = meter.Int64Counter("kanva.batch.runs",
		metric.WithDescription("Batch runs by job and final status"),
		metric.WithUnit("{run}")); err != nil {
		return nil, fmt.Errorf("kanva.batch.runs: %w", err)
	}
	if bm.runDuration, err = meter.Float64Histogram("kanva.batch.duration",
		metric.WithDescription("Wall-clock duration of batch runs"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("kanva.batch.duration: %w", err)
	}
	if bm.rows, err = meter.Int64Counter("kanva.batch.rows",
		metric.WithDescription("Rows written by batch runs"),
		metric.WithUnit("{row}")); err != nil {
		return nil, fmt.Errorf("kanva.batch.rows: %w", err)
	}
	if bm.matches, err = meter.Int64Counter("kanva.match.results",
		metric.WithDescription("Entity match outcomes by method"),
		metric.WithUnit("{match}")); err != nil {
		return nil, fmt.Errorf("kanva.match.results: %w", err)
	}
	if bm.payouts, err = meter.Float64Counter("kanva.commission.payout",
		metric.WithDescription("Commission dollars computed, by kind"),
		metric.WithUnit("USD")); err != nil {
		return nil, fmt.Errorf("kanva.commission.payout: %w", err)
	}
	if bm.importErrors, err = meter.Int64Counter("kanva.import.row_errors",
		metric.WithDescription("Rows rejected during file import"),
		metric.WithUnit("{row}")); err != nil {
		return nil, fmt.Errorf("kanva.import.row_errors: %w", err)
	}
	return bm, nil
}

// RecordRun counts one finished run and its duration
func (bm *BatchMetrics) RecordRun(ctx context.Context, job, status string, elapsed time.Duration) {
	if bm == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("job", job), attribute.String("status", status))
	bm.runs.Add(ctx, 1, attrs)
	bm.runDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordRows counts rows written to a table
func (bm *BatchMetrics) RecordRows(ctx context.Context, job, table string, n int) {
	if bm == nil || n <= 0 {
		return
	}
	bm.rows.Add(ctx, int64(n), metric.WithAttributes(attribute.String("job", job), attribute.String("table", table)))
}

// RecordMatches adds one data point per match method
func (bm *BatchMetrics) RecordMatches(ctx context.Context, source string, byMethod map[string]int) {
	if bm == nil {
		return
	}
	for method, n := range byMethod {
		if n <= 0 {
			continue
		}
		bm.matches.Add(ctx, int64(n), metric.WithAttributes(attribute.String("source", source), attribute.String("method", method)))
	}
}

// RecordPayout adds a computed amount. kind is "bonus", "commission" or "spiff".
func (bm *BatchMetrics) RecordPayout(ctx context.Context, kind string, amount decimal.Decimal) {
	if bm == nil || !amount.IsPositive() {
		return
	}
	bm.payouts.Add(ctx, amount.InexactFloat64(), metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordImportErrors counts rejected import rows
func (bm *BatchMetrics) RecordImportErrors(ctx context.Context, source string, n int) {
	if bm == nil || n <= 0 {
		return
	}
	bm.importErrors.Add(ctx, int64(n), metric.WithAttributes(attribute.String("source", source)))
}
