package commissionapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kanva/portal/internal/domain/commission"
	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/kanva/portal/internal/infrastructure/copper"
	"github.com/kanva/portal/internal/infrastructure/justcall"
	"github.com/kanva/portal/internal/infrastructure/logger"
	"github.com/kanva/portal/internal/infrastructure/scheduler"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Effort sub-goal ids fed by telephony and won CRM opportunities
const (
	GoalPhoneCalls = "phone_call_quantity"
	GoalTalkTime   = "talk_time_minutes"
	GoalWonDeals   = "won_opportunities"
	GoalWonValue   = "won_opportunity_value"
)

// Effort step names
const (
	StepCalls         = "calls"
	StepActivities    = "activities"
	StepOpportunities = "opportunities"
)

// QuarterlyRequest identifies the rep and the bonus period
type QuarterlyRequest struct {
	RepID        string    `json:"repId" binding:"required"`
	PeriodID     string    `json:"periodId" binding:"required"`
	Start        time.Time `json:"start" binding:"required"`
	End          time.Time `json:"end" binding:"required"`
	CopperUserID int64     `json:"copperUserId"`
}

// StepResult reports one effort source. A failed step leaves its actuals at
// zero and does not fail the run.
type StepResult struct {
	Name    string          `json:"name"`
	OK      bool            `json:"ok"`
	Skipped bool            `json:"skipped,omitempty"`
	Error   string          `json:"error,omitempty"`
	Count   int             `json:"count"`
	Value   decimal.Decimal `json:"value"`
}

// QuarterlyResult is the response of a quarterly run
type QuarterlyResult struct {
	runInfo
	Result     commission.Result           `json:"result"`
	ProductMix []commission.ProductMixLine `json:"productMix"`
	Customers  commission.CustomerSplit    `json:"customers"`
	Calls      *justcall.CallMetrics       `json:"calls,omitempty"`
	Steps      []StepResult                `json:"steps"`
	Written    int                         `json:"entriesWritten"`
}

// CalculateQuarterly scores one rep for one period and stores the bucket
// entries. Missing goals surface as warnings on the result.
func (s *Service) CalculateQuarterly(ctx context.Context, req QuarterlyRequest) (*QuarterlyResult, error) {
	if err := validatePeriod(req.PeriodID, req.Start, req.End); err != nil {
		return nil, err
	}
	if err := s.settings.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	result := &QuarterlyResult{}
	jobKey := "commission:quarterly:" + req.RepID + ":" + req.PeriodID
	run, err := s.deps.Runner.Run(ctx, JobQuarterly, jobKey, func(ctx context.Context, _ *scheduler.Run) error {
		return s.calculateQuarterly(ctx, req, result)
	})
	if run == nil {
		return nil, err
	}
	result.fill(run)
	s.deps.Runner.Record(ctx, run, scheduler.Outcome{
		Rows:    len(result.Steps),
		Failed:  result.failedSteps(),
		Summary: result.Steps,
	})
	if result.Result.Eligible {
		s.deps.Metrics.RecordPayout(ctx, "bonus", result.Result.Payout.Amount())
	}
	return result, err
}

func (r *QuarterlyResult) failedSteps() int {
	n := 0
	for _, step := range r.Steps {
		if !step.OK && !step.Skipped {
			n++
		}
	}
	return n
}

func validatePeriod(id string, start, end time.Time) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: period id is required", shared.ErrInvalidInput)
	}
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return fmt.Errorf("%w: period end must be after its start", shared.ErrInvalidInput)
	}
	return nil
}

func (s *Service) calculateQuarterly(ctx context.Context, req QuarterlyRequest, result *QuarterlyResult) error {
	log := logger.L(ctx).With(zap.String("rep_id", req.RepID), zap.String("period_id", req.PeriodID))
	period := commission.Period{ID: req.PeriodID, Start: req.Start, End: req.End}

	rep, err := s.findRep(ctx, req.RepID)
	if err != nil {
		return err
	}

	goals := commission.Goals{
		Buckets:  make(map[commission.BucketCode]decimal.Decimal),
		SubGoals: make(map[commission.BucketCode][]commission.SubGoal),
	}
	actuals := commission.Actuals{
		Buckets:  make(map[commission.BucketCode]decimal.Decimal),
		SubGoals: make(map[commission.BucketCode]map[string]decimal.Decimal),
	}

	budget, err := s.deps.Config.FindBudget(ctx, rep.Title, req.PeriodID)
	switch {
	case err != nil && !errors.Is(err, shared.ErrNotFound):
		return fmt.Errorf("load budget: %w", err)
	case budget == nil:
		log.Warn("No budget for rep title", zap.String("title", rep.Title))
	default:
		goals.Buckets[commission.BucketNewBusiness] = budget.BucketA
		goals.Buckets[commission.BucketProductMix] = budget.BucketB
		goals.Buckets[commission.BucketMaintainBusiness] = budget.BucketC
		goals.Buckets[commission.BucketEffort] = budget.BucketD
	}

	if err := s.revenueActuals(ctx, rep, period, &goals, &actuals, result); err != nil {
		return err
	}
	if err := scheduler.CheckBudget(ctx); err != nil {
		return err
	}

	activityGoals, err := s.deps.Config.FindActivityGoals(ctx, req.PeriodID)
	if err != nil {
		return fmt.Errorf("load activity goals: %w", err)
	}
	effort := s.effort(ctx, rep, req, result)
	actuals.Buckets[commission.BucketEffort] = effort.total()
	if len(activityGoals) > 0 {
		goals.SubGoals[commission.BucketEffort] = activityGoals
		actuals.SubGoals[commission.BucketEffort] = effort.byGoal(activityGoals)
	}

	res := commission.Compute(commission.RepRef{ID: rep.ID, Name: rep.Name}, period, actuals, goals, s.settings.Engine)
	result.Result = res
	for _, w := range res.Warnings {
		log.Warn("Bonus configuration warning",
			zap.String("code", w.Code),
			zap.String("bucket", string(w.Bucket)),
			zap.String("sub_goal", w.SubGoalID),
		)
	}

	if err := writeChunked(ctx, res.Entries, s.settings.ChunkSize, s.deps.Entries.UpsertEntries); err != nil {
		return fmt.Errorf("write bonus entries: %w", err)
	}
	result.Written = len(res.Entries)
	s.deps.Metrics.RecordRows(ctx, JobQuarterly, "commission_entries", len(res.Entries))

	log.Info("Quarterly bonus calculated",
		zap.String("blended", res.BlendedScore.StringFixed(4)),
		zap.Bool("eligible", res.Eligible),
		zap.String("payout", res.Payout.String()),
	)
	return nil
}

func (s *Service) findRep(ctx context.Context, id string) (sales.Rep, error) {
	reps, err := s.deps.Reps.FindAll(ctx)
	if err != nil {
		return sales.Rep{}, fmt.Errorf("load reps: %w", err)
	}
	for _, r := range reps {
		if r.ID == id {
			return r, nil
		}
	}
	for _, r := range reps {
		if strings.EqualFold(r.SalesPerson, id) {
			return r, nil
		}
	}
	return sales.Rep{}, fmt.Errorf("%w: rep %s", shared.ErrNotFound, id)
}

// revenueActuals fills buckets A, B and C from the rep's line items. New and
// existing business use commissionable revenue; product mix uses all of it.
func (s *Service) revenueActuals(ctx context.Context, rep sales.Rep, period commission.Period, goals *commission.Goals, actuals *commission.Actuals, result *QuarterlyResult) error {
	items, err := s.deps.Orders.FindLineItems(ctx, sales.OrderFilter{
		SalesPerson: rep.SalesPerson,
		From:        period.Start,
		To:          period.End,
	})
	if err != nil {
		return fmt.Errorf("load line items: %w", err)
	}
	customers, err := s.deps.Customers.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	firstOrders := make(map[string]time.Time, len(customers))
	for _, c := range customers {
		if c.FirstOrderDate != nil {
			firstOrders[c.ID] = *c.FirstOrderDate
		}
	}

	rules := s.settings.Monthly.Rules
	revenue := make([]sales.LineItem, 0, len(items))
	for _, item := range items {
		switch commission.Classify(item, rules) {
		case commission.ExcludedShipping, commission.ExcludedCCProcessing:
			continue
		}
		revenue = append(revenue, item)
	}

	split := commission.SplitCustomers(revenue, firstOrders, period.Start)
	result.Customers = split
	actuals.Buckets[commission.BucketNewBusiness] = split.NewRevenue.Amount()
	actuals.Buckets[commission.BucketMaintainBusiness] = split.ExistingRevenue.Amount()

	mix := commission.ProductMix(items, period)
	result.ProductMix = mix
	mixTotal := valueobject.Zero()
	for _, line := range mix {
		mixTotal = mixTotal.Add(line.Revenue)
	}
	actuals.Buckets[commission.BucketProductMix] = mixTotal.Amount()
	if goal := goals.Buckets[commission.BucketProductMix]; goal.IsPositive() {
		subs, mixActuals := commission.ProductMixGoals(mix, goal)
		if len(subs) > 0 {
			goals.SubGoals[commission.BucketProductMix] = subs
			actuals.SubGoals[commission.BucketProductMix] = mixActuals
		}
	}
	return nil
}

// effortTotals collects effort counts from every source
type effortTotals struct {
	calls      int
	talkTime   decimal.Decimal
	activities map[int64]int
	wonDeals   int
	wonValue   decimal.Decimal
}

func (e effortTotals) total() decimal.Decimal {
	n := e.calls
	for _, c := range e.activities {
		n += c
	}
	return decimal.NewFromInt(int64(n))
}

// byGoal maps effort onto sub-goal ids. Numeric ids are CRM activity types.
func (e effortTotals) byGoal(goals []commission.SubGoal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(goals))
	for _, g := range goals {
		switch g.ID {
		case GoalPhoneCalls:
			out[g.ID] = decimal.NewFromInt(int64(e.calls))
		case GoalTalkTime:
			out[g.ID] = e.talkTime
		case GoalWonDeals:
			out[g.ID] = decimal.NewFromInt(int64(e.wonDeals))
		case GoalWonValue:
			out[g.ID] = e.wonValue
		default:
			if typeID, err := strconv.ParseInt(g.ID, 10, 64); err == nil {
				out[g.ID] = decimal.NewFromInt(int64(e.activities[typeID]))
			}
		}
	}
	return out
}

// effort queries telephony and CRM independently; each source that fails
// is recorded as a failed step.
func (s *Service) effort(ctx context.Context, rep sales.Rep, req QuarterlyRequest, result *QuarterlyResult) effortTotals {
	log := logger.L(ctx)
	totals := effortTotals{talkTime: decimal.Zero, activities: map[int64]int{}, wonValue: decimal.Zero}

	calls := StepResult{Name: StepCalls, Value: decimal.Zero}
	switch {
	case s.deps.Calls == nil || rep.Email == "":
		calls.Skipped = true
	default:
		period, metrics, err := s.deps.Calls.PeriodMetricsFor(ctx, rep.Email, req.Start, req.End)
		if err != nil {
			calls.Error = err.Error()
			log.Warn("Call metrics unavailable", zap.Error(err))
			break
		}
		calls.OK = true
		calls.Count = period.TotalCalls
		totals.calls = period.TotalCalls
		totals.talkTime = decimal.NewFromInt(metrics.TotalDuration).Div(decimal.NewFromInt(60)).Round(1)
		calls.Value = totals.talkTime
		result.Calls = &metrics
	}
	result.Steps = append(result.Steps, calls)

	activities := StepResult{Name: StepActivities, Value: decimal.Zero}
	won := StepResult{Name: StepOpportunities, Value: decimal.Zero}
	if s.deps.Activities == nil || req.CopperUserID == 0 {
		activities.Skipped = true
		won.Skipped = true
		result.Steps = append(result.Steps, activities, won)
		return totals
	}

	found, err := s.deps.Activities.SearchActivities(ctx, copper.ActivityFilter{
		UserIDs: []int64{req.CopperUserID},
		From:    req.Start,
		To:      req.End,
	})
	if err != nil {
		activities.Error = err.Error()
		log.Warn("CRM activities unavailable", zap.Error(err))
	} else {
		activities.OK = true
		activities.Count = len(found)
		totals.activities = copper.ActivityCounts(found)
	}

	opps, err := s.deps.Activities.SearchOpportunities(ctx, copper.OpportunityFilter{
		AssigneeIDs: []int64{req.CopperUserID},
		Status:      "Won",
		CloseFrom:   req.Start,
		CloseTo:     req.End,
	})
	if err != nil {
		won.Error = err.Error()
		log.Warn("CRM opportunities unavailable", zap.Error(err))
	} else {
		won.OK = true
		for _, o := range opps {
			if o.Won() {
				won.Count++
				won.Value = won.Value.Add(o.MonetaryValue)
			}
		}
		totals.wonDeals = won.Count
		totals.wonValue = won.Value
	}
	result.Steps = append(result.Steps, activities, won)
	return totals
}
