package commission

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BucketCode identifies one of the four bonus buckets
type BucketCode string

const (
	BucketNewBusiness      BucketCode = "A"
	BucketProductMix       BucketCode = "B"
	BucketMaintainBusiness BucketCode = "C"
	BucketEffort           BucketCode = "D"
)

// Bucket is a weighted component of the quarterly bonus
type Bucket struct {
	Code   BucketCode      `json:"code"`
	Name   string          `json:"name"`
	Weight decimal.Decimal `json:"weight"`
}

// DefaultBuckets returns the standard 50/15/20/15 split
func DefaultBuckets() []Bucket {
	return []Bucket{
		{Code: BucketNewBusiness, Name: "New Business", Weight: decimal.RequireFromString("0.50")},
		{Code: BucketProductMix, Name: "Product Mix", Weight: decimal.RequireFromString("0.15")},
		{Code: BucketMaintainBusiness, Name: "Maintain Business", Weight: decimal.RequireFromString("0.20")},
		{Code: BucketEffort, Name: "Effort", Weight: decimal.RequireFromString("0.15")},
	}
}

// EngineConfig is the immutable configuration snapshot for a run
type EngineConfig struct {
	MaxBonus  valueobject.Money
	Threshold decimal.Decimal
	Cap       decimal.Decimal
	Buckets   []Bucket
}

// DefaultEngineConfig uses the standard buckets, a 75% threshold and a 125% cap
func DefaultEngineConfig(maxBonus valueobject.Money) EngineConfig {
	return EngineConfig{
		MaxBonus:  maxBonus,
		Threshold: DefaultThreshold,
		Cap:       DefaultCap,
		Buckets:   DefaultBuckets(),
	}
}

// Validate checks bucket weights and the threshold/cap ordering
func (c EngineConfig) Validate() error {
	weights := make([]decimal.Decimal, 0, len(c.Buckets))
	for _, b := range c.Buckets {
		weights = append(weights, b.Weight)
	}
	if !ValidateWeights(weights...) {
		return shared.NewDomainError("INVALID_WEIGHTS", "Bucket weights must sum to 100%")
	}
	if c.Threshold.IsNegative() || c.Cap.LessThan(c.Threshold) {
		return shared.NewDomainError("INVALID_THRESHOLD", "Cap must not be below threshold")
	}
	if c.MaxBonus.IsNegative() {
		return shared.NewDomainError("INVALID_MAX_BONUS", "Max bonus cannot be negative")
	}
	return nil
}

// SubGoal is a weighted target inside a bucket (products in B, activities in D)
type SubGoal struct {
	ID        string          `json:"id" validate:"required"`
	Label     string          `json:"label,omitempty"`
	Goal      decimal.Decimal `json:"goal"`
	SubWeight decimal.Decimal `json:"subWeight"`
}

// Goals are the targets for one rep and period. A bucket with sub-goals
// ignores its entry in Buckets.
type Goals struct {
	Buckets  map[BucketCode]decimal.Decimal `json:"buckets"`
	SubGoals map[BucketCode][]SubGoal       `json:"subGoals,omitempty"`
}

// Actuals are the achieved values for one rep and period
type Actuals struct {
	Buckets  map[BucketCode]decimal.Decimal            `json:"buckets"`
	SubGoals map[BucketCode]map[string]decimal.Decimal `json:"subGoals,omitempty"`
}

// Period is a commission period such as a quarter
type Period struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RepRef identifies whom a result belongs to
type RepRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ConfigWarning reports missing or unusable configuration. The affected
// bucket contributes nothing; the run continues.
type ConfigWarning struct {
	Code      string     `json:"code"`
	Bucket    BucketCode `json:"bucket,omitempty"`
	SubGoalID string     `json:"subGoalId,omitempty"`
	Message   string     `json:"message"`
}

// BucketScore is the per-bucket outcome
type BucketScore struct {
	Code         BucketCode        `json:"code"`
	Name         string            `json:"name"`
	Weight       decimal.Decimal   `json:"weight"`
	HasGoal      bool              `json:"hasGoal"`
	Attainment   decimal.Decimal   `json:"attainment"`
	Contribution decimal.Decimal   `json:"contribution"`
	BucketMax    valueobject.Money `json:"bucketMax"`
	Status       AttainmentStatus  `json:"status"`
}

// Entry is one persisted (rep, bucket, period[, sub-goal]) row
type Entry struct {
	ID           string            `json:"id"`
	RepID        string            `json:"repId"`
	RepName      string            `json:"repName,omitempty"`
	PeriodID     string            `json:"periodId"`
	BucketCode   BucketCode        `json:"bucketCode"`
	SubGoalID    string            `json:"subGoalId,omitempty"`
	SubGoalLabel string            `json:"subGoalLabel,omitempty"`
	Goal         decimal.Decimal   `json:"goal"`
	Actual       decimal.Decimal   `json:"actual"`
	Attainment   decimal.Decimal   `json:"attainment"`
	SubWeight    decimal.Decimal   `json:"subWeight"`
	Contribution decimal.Decimal   `json:"contribution"`
	BucketMax    valueobject.Money `json:"bucketMax"`
	Status       AttainmentStatus  `json:"status"`
}

// EntryID builds repId_bucket[_subGoal]_periodId
func EntryID(repID string, bucket BucketCode, subGoalID, periodID string) string {
	parts := []string{repID, string(bucket)}
	if subGoalID != "" {
		parts = append(parts, subGoalID)
	}
	parts = append(parts, periodID)
	return strings.Join(parts, "_")
}

// Result is the outcome of Compute
type Result struct {
	RepID        string            `json:"repId"`
	PeriodID     string            `json:"periodId"`
	BucketScores []BucketScore     `json:"bucketScores"`
	BlendedScore decimal.Decimal   `json:"blendedScore"`
	CappedScore  decimal.Decimal   `json:"cappedScore"`
	Eligible     bool              `json:"eligible"`
	Payout       valueobject.Money `json:"payout"`
	Entries      []Entry           `json:"entries"`
	Warnings     []ConfigWarning   `json:"warnings,omitempty"`
}

// Compute scores every bucket, blends the capped attainments by weight and
// applies the threshold (inclusive) and payout cap. Missing goals contribute zero and
// missing actuals count as zero.
func Compute(rep RepRef, period Period, actuals Actuals, goals Goals, cfg EngineConfig) Result {
	res := Result{
		RepID:        rep.ID,
		PeriodID:     period.ID,
		BlendedScore: decimal.Zero,
		CappedScore:  decimal.Zero,
		Payout:       valueobject.Zero(),
	}

	for _, bucket := range cfg.Buckets {
		var score BucketScore
		var entries []Entry
		var warnings []ConfigWarning
		if subs := goals.SubGoals[bucket.Code]; len(subs) > 0 {
			score, entries, warnings = scoreSubGoals(rep, period, bucket, subs, actuals.SubGoals[bucket.Code], cfg)
		} else {
			score, entries, warnings = scoreBucket(rep, period, bucket, goals.Buckets[bucket.Code], actuals.Buckets[bucket.Code], cfg)
		}
		res.BucketScores = append(res.BucketScores, score)
		res.Entries = append(res.Entries, entries...)
		res.Warnings = append(res.Warnings, warnings...)
		res.BlendedScore = res.BlendedScore.Add(score.Contribution)
	}

	res.CappedScore = decimal.Min(res.BlendedScore, cfg.Cap)
	res.Eligible = res.BlendedScore.GreaterThanOrEqual(cfg.Threshold)
	if res.Eligible {
		res.Payout = cfg.MaxBonus.Multiply(res.CappedScore).Cents()
	}
	return res
}

func scoreBucket(rep RepRef, period Period, bucket Bucket, goal, actual decimal.Decimal, cfg EngineConfig) (BucketScore, []Entry, []ConfigWarning) {
	score := BucketScore{
		Code:         bucket.Code,
		Name:         bucket.Name,
		Weight:       bucket.Weight,
		Attainment:   decimal.Zero,
		Contribution: decimal.Zero,
		BucketMax:    BucketMax(cfg.MaxBonus, bucket.Weight, decimal.Zero),
		Status:       StatusLow,
	}
	var warnings []ConfigWarning
	if goal.IsPositive() {
		score.HasGoal = true
		score.Attainment = Attainment(actual, goal)
		score.Contribution = bucket.Weight.Mul(cfg.payable(score.Attainment))
		score.Status = StatusFor(score.Attainment)
	} else {
		warnings = append(warnings, missingGoal(bucket.Code, ""))
	}
	entry := Entry{
		ID:           EntryID(rep.ID, bucket.Code, "", period.ID),
		RepID:        rep.ID,
		RepName:      rep.Name,
		PeriodID:     period.ID,
		BucketCode:   bucket.Code,
		Goal:         goal,
		Actual:       actual,
		Attainment:   score.Attainment,
		SubWeight:    decimal.Zero,
		Contribution: score.Contribution,
		BucketMax:    score.BucketMax,
		Status:       score.Status,
	}
	return score, []Entry{entry}, warnings
}

// scoreSubGoals combines sub-goal attainments by sub-weight, normalized over
// sub-goals that carry a goal. Equal weights apply when none is configured.
// Each sub-goal is capped before it is weighted; Attainment stays raw.
func scoreSubGoals(rep RepRef, period Period, bucket Bucket, subs []SubGoal, actuals map[string]decimal.Decimal, cfg EngineConfig) (BucketScore, []Entry, []ConfigWarning) {
	sorted := make([]SubGoal, len(subs))
	copy(sorted, subs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var warnings []ConfigWarning
	totalWeight := decimal.Zero
	withGoal := 0
	for _, s := range sorted {
		if s.Goal.IsPositive() {
			totalWeight = totalWeight.Add(s.SubWeight)
			withGoal++
		} else {
			warnings = append(warnings, missingGoal(bucket.Code, s.ID))
		}
	}
	equalWeights := totalWeight.IsZero() && withGoal > 0
	if equalWeights {
		totalWeight = decimal.NewFromInt(int64(withGoal))
	}

	score := BucketScore{
		Code:         bucket.Code,
		Name:         bucket.Name,
		Weight:       bucket.Weight,
		HasGoal:      withGoal > 0,
		Attainment:   decimal.Zero,
		Contribution: decimal.Zero,
		BucketMax:    BucketMax(cfg.MaxBonus, bucket.Weight, decimal.Zero),
		Status:       StatusLow,
	}

	cappedSum := decimal.Zero
	entries := make([]Entry, 0, len(sorted))
	for _, s := range sorted {
		actual := actuals[s.ID]
		entry := Entry{
			ID:           EntryID(rep.ID, bucket.Code, s.ID, period.ID),
			RepID:        rep.ID,
			RepName:      rep.Name,
			PeriodID:     period.ID,
			BucketCode:   bucket.Code,
			SubGoalID:    s.ID,
			SubGoalLabel: s.Label,
			Goal:         s.Goal,
			Actual:       actual,
			Attainment:   decimal.Zero,
			SubWeight:    decimal.Zero,
			Contribution: decimal.Zero,
			BucketMax:    valueobject.Zero(),
			Status:       StatusLow,
		}
		if s.Goal.IsPositive() {
			share := s.SubWeight
			if equalWeights {
				share = one
			}
			share = share.Div(totalWeight)
			entry.Attainment = Attainment(actual, s.Goal)
			entry.SubWeight = share
			capped := cfg.payable(entry.Attainment)
			entry.Contribution = bucket.Weight.Mul(share).Mul(capped)
			entry.BucketMax = BucketMax(cfg.MaxBonus, bucket.Weight, share)
			entry.Status = StatusFor(entry.Attainment)
			score.Attainment = score.Attainment.Add(share.Mul(entry.Attainment))
			cappedSum = cappedSum.Add(share.Mul(capped))
		}
		entries = append(entries, entry)
	}

	if score.HasGoal {
		score.Contribution = bucket.Weight.Mul(cappedSum)
		score.Status = StatusFor(score.Attainment)
	}
	return score, entries, warnings
}

// payable clamps a single bucket or sub-goal attainment to the payout cap.
// The threshold applies to the blended score, not here.
func (c EngineConfig) payable(attainment decimal.Decimal) decimal.Decimal {
	return ApplyFloorAndCap(attainment, decimal.Zero, c.Cap)
}

func missingGoal(bucket BucketCode, subGoalID string) ConfigWarning {
	msg := fmt.Sprintf("no goal configured for bucket %s", bucket)
	if subGoalID != "" {
		msg = fmt.Sprintf("no goal configured for bucket %s sub-goal %s", bucket, subGoalID)
	}
	return ConfigWarning{Code: "MISSING_GOAL", Bucket: bucket, SubGoalID: subGoalID, Message: msg}
}
