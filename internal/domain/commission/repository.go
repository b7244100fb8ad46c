package commission

import (
	"context"

	"github.com/shopspring/decimal"
)

// Budget holds the quarterly bucket goals for a rep title
type Budget struct {
	Title    string          `json:"title" validate:"required"`
	PeriodID string          `json:"periodId" validate:"required"`
	BucketA  decimal.Decimal `json:"bucketA"`
	BucketB  decimal.Decimal `json:"bucketB"`
	BucketC  decimal.Decimal `json:"bucketC"`
	BucketD  decimal.Decimal `json:"bucketD"`
}

// EntryRepository stores bucket entries keyed by their deterministic id
type EntryRepository interface {
	UpsertEntries(ctx context.Context, entries []Entry) error
	FindEntries(ctx context.Context, repID, periodID string) ([]Entry, error)
}

// MonthlyRepository stores monthly commission output
type MonthlyRepository interface {
	FindByMonth(ctx context.Context, month string) ([]MonthlyCommission, error)
	UpsertCommissions(ctx context.Context, records []MonthlyCommission) error
	UpsertSpiffEarnings(ctx context.Context, earnings []SpiffEarning) error
	UpsertSummaries(ctx context.Context, summaries []MonthlySummary) error
}

// ConfigRepository reads rate, spiff and goal configuration
type ConfigRepository interface {
	FindRateRules(ctx context.Context) ([]RateRule, error)
	FindSpiffs(ctx context.Context) ([]Spiff, error)
	FindBudget(ctx context.Context, title, periodID string) (*Budget, error)
	FindActivityGoals(ctx context.Context, periodID string) ([]SubGoal, error)
}
