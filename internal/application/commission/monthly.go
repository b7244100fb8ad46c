package commissionapp

import (
	"context"
	"fmt"
	"time"

	"github.com/kanva/portal/internal/domain/commission"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/kanva/portal/internal/infrastructure/logger"
	"github.com/kanva/portal/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// MonthlyRequest selects the month and optionally a single rep
type MonthlyRequest struct {
	Month       string `json:"month" binding:"required,datetime=2006-01"`
	SalesPerson string `json:"salesPerson"`
}

// MonthlyResult is the response of a monthly run
type MonthlyResult struct {
	runInfo
	Month           string                      `json:"month"`
	Stats           commission.MonthStats       `json:"stats"`
	TotalCommission valueobject.Money           `json:"totalCommission"`
	TotalSpiffs     valueobject.Money           `json:"totalSpiffs"`
	Commissions     int                         `json:"commissionsWritten"`
	SpiffEarnings   int                         `json:"spiffEarningsWritten"`
	Summaries       []commission.MonthlySummary `json:"summaries"`
	SkippedReps     []string                    `json:"skippedReps,omitempty"`
}

// CalculateMonthly computes and stores one month of order commissions,
// spiff earnings and per-rep summaries. Rerunning a month overwrites the
// calculated records and leaves manual overrides alone.
func (s *Service) CalculateMonthly(ctx context.Context, req MonthlyRequest) (*MonthlyResult, error) {
	month, err := commission.ParseMonth(req.Month)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	result := &MonthlyResult{
		Month:           month.String(),
		TotalCommission: valueobject.Zero(),
		TotalSpiffs:     valueobject.Zero(),
	}
	jobKey := "commission:monthly:" + month.String()
	run, err := s.deps.Runner.Run(ctx, JobMonthly, jobKey, func(ctx context.Context, _ *scheduler.Run) error {
		return s.calculateMonthly(ctx, month, req.SalesPerson, result)
	})
	if run == nil {
		return nil, err
	}
	result.fill(run)
	s.deps.Runner.Record(ctx, run, scheduler.Outcome{Rows: result.Stats.Processed, Summary: result.Stats})
	s.deps.Metrics.RecordPayout(ctx, "commission", result.TotalCommission.Amount())
	s.deps.Metrics.RecordPayout(ctx, "spiff", result.TotalSpiffs.Amount())
	return result, err
}

func (s *Service) calculateMonthly(ctx context.Context, month commission.Month, salesPerson string, result *MonthlyResult) error {
	log := logger.L(ctx).With(zap.String("month", month.String()))

	in, err := s.monthInput(ctx, month, salesPerson)
	if err != nil {
		return err
	}
	log.Info("Monthly inputs loaded",
		zap.Int("orders", len(in.Orders)),
		zap.Int("reps", len(in.Reps)),
		zap.Int("rate_rules", len(in.RateRules)),
		zap.Int("spiffs", len(in.Spiffs)),
	)

	calc := commission.CalculateMonth(in, s.settings.Monthly)
	result.Stats = calc.Stats
	result.TotalCommission = calc.TotalCommission
	result.Summaries = calc.Summaries
	result.SkippedReps = calc.SkippedReps
	for _, summary := range calc.Summaries {
		result.TotalSpiffs = result.TotalSpiffs.Add(summary.TotalSpiffs)
	}
	if len(calc.SkippedReps) > 0 {
		log.Warn("Orders skipped for ineligible reps", zap.Strings("sales_persons", calc.SkippedReps))
	}

	size := s.settings.ChunkSize
	if err := writeChunked(ctx, calc.Commissions, size, s.deps.Monthly.UpsertCommissions); err != nil {
		return fmt.Errorf("write commissions: %w", err)
	}
	result.Commissions = len(calc.Commissions)
	s.deps.Metrics.RecordRows(ctx, JobMonthly, "monthly_commissions", len(calc.Commissions))

	if err := writeChunked(ctx, calc.SpiffEarnings, size, s.deps.Monthly.UpsertSpiffEarnings); err != nil {
		return fmt.Errorf("write spiff earnings: %w", err)
	}
	result.SpiffEarnings = len(calc.SpiffEarnings)
	s.deps.Metrics.RecordRows(ctx, JobMonthly, "spiff_earnings", len(calc.SpiffEarnings))

	if err := s.deps.Monthly.UpsertSummaries(ctx, calc.Summaries); err != nil {
		return fmt.Errorf("write summaries: %w", err)
	}
	s.deps.Metrics.RecordRows(ctx, JobMonthly, "monthly_commission_summary", len(calc.Summaries))

	log.Info("Monthly commissions calculated",
		zap.Int("calculated", calc.Stats.Calculated),
		zap.Int("overrides", calc.Stats.Overrides),
		zap.String("total", calc.TotalCommission.String()),
	)
	return nil
}

// monthInput loads the data snapshot for a month. History covers every
// order the month's customers placed up to the end of the month.
func (s *Service) monthInput(ctx context.Context, month commission.Month, salesPerson string) (commission.MonthInput, error) {
	start, end := month.Window(s.settings.Location)
	in := commission.MonthInput{Month: month, SalesPerson: salesPerson, Now: s.now()}

	var err error
	if in.Orders, err = s.deps.Orders.FindOrders(ctx, sales.OrderFilter{From: start, To: end, SalesPerson: salesPerson}); err != nil {
		return in, fmt.Errorf("load orders: %w", err)
	}
	if in.Customers, err = s.deps.Customers.FindAll(ctx); err != nil {
		return in, fmt.Errorf("load customers: %w", err)
	}
	if in.Reps, err = s.deps.Reps.FindAll(ctx); err != nil {
		return in, fmt.Errorf("load reps: %w", err)
	}
	if in.RateRules, err = s.deps.Config.FindRateRules(ctx); err != nil {
		return in, fmt.Errorf("load rate rules: %w", err)
	}
	if in.Spiffs, err = s.deps.Config.FindSpiffs(ctx); err != nil {
		return in, fmt.Errorf("load spiffs: %w", err)
	}
	if err := scheduler.CheckBudget(ctx); err != nil {
		return in, err
	}

	if in.History, err = s.history(ctx, in.Orders, end); err != nil {
		return in, err
	}

	existing, err := s.deps.Monthly.FindByMonth(ctx, month.String())
	if err != nil {
		return in, fmt.Errorf("load existing commissions: %w", err)
	}
	in.Existing = make(map[string]commission.MonthlyCommission, len(existing))
	for _, c := range existing {
		in.Existing[c.ID] = c
	}
	return in, nil
}

func (s *Service) history(ctx context.Context, orders []sales.Order, end time.Time) (map[string][]commission.PriorOrder, error) {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, o := range orders {
		if o.CustomerID == "" || seen[o.CustomerID] {
			continue
		}
		seen[o.CustomerID] = true
		ids = append(ids, o.CustomerID)
	}

	history := make(map[string][]commission.PriorOrder, len(ids))
	for _, chunk := range shared.Chunk(ids, s.settings.ChunkSize) {
		prior, err := s.deps.Orders.FindOrders(ctx, sales.OrderFilter{CustomerIDs: chunk, To: end})
		if err != nil {
			return nil, fmt.Errorf("load order history: %w", err)
		}
		for _, o := range prior {
			history[o.CustomerID] = append(history[o.CustomerID], commission.PriorOrder{
				OrderID:     o.ID,
				PostingDate: o.PostingDate,
				SalesPerson: o.SalesPerson,
			})
		}
	}
	return history, nil
}
