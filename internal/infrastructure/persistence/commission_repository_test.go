package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/kanva/portal/internal/domain/commission"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCommissionRepository_Entries(t *testing.T) {
	repo := NewGormCommissionRepository(newSQLiteDB(t), 0)
	ctx := context.Background()

	result := commission.Compute(
		commission.RepRef{ID: "rep1", Name: "Ben Wallace"},
		commission.Period{ID: "Q3-2025", Start: day(2025, 7, 1), End: day(2025, 9, 30)},
		commission.Actuals{Buckets: map[commission.BucketCode]decimal.Decimal{
			commission.BucketNewBusiness:      decimal.NewFromInt(90000),
			commission.BucketMaintainBusiness: decimal.NewFromInt(40000),
		}},
		commission.Goals{Buckets: map[commission.BucketCode]decimal.Decimal{
			commission.BucketNewBusiness:      decimal.NewFromInt(100000),
			commission.BucketMaintainBusiness: decimal.NewFromInt(50000),
		}},
		commission.DefaultEngineConfig(money("25000")),
	)

	require.NoError(t, repo.UpsertEntries(ctx, result.Entries))
	require.NoError(t, repo.UpsertEntries(ctx, result.Entries))

	got, err := repo.FindEntries(ctx, "rep1", "Q3-2025")
	require.NoError(t, err)
	require.Len(t, got, len(result.Entries))
	assert.Equal(t, "rep1_A_Q3-2025", got[0].ID)
	assert.True(t, got[0].Attainment.Equal(decimal.RequireFromString("0.9")))
	assert.Equal(t, commission.StatusClose, got[0].Status)
}

func TestGormCommissionRepository_OverridesSurviveRecalculation(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormCommissionRepository(db, 0)
	ctx := context.Background()
	at := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	override := commission.MonthlyCommission{
		ID:               commission.CommissionID("BenW", "2025-08", "9001"),
		SalesPerson:      "BenW",
		OrderID:          "9001",
		OrderRevenue:     money("1000"),
		CommissionRate:   decimal.NewFromInt(8),
		CommissionAmount: money("50"),
		OrderDate:        day(2025, 8, 4),
		Month:            "2025-08",
		IsOverride:       true,
		OverrideReason:   "manager adjustment",
		CalculatedAt:     at,
	}
	regular := override
	regular.ID = commission.CommissionID("BenW", "2025-08", "9002")
	regular.OrderID = "9002"
	regular.IsOverride = false
	regular.OverrideReason = ""
	regular.CommissionAmount = money("80")
	require.NoError(t, repo.UpsertCommissions(ctx, []commission.MonthlyCommission{override, regular}))

	recalculated := override
	recalculated.IsOverride = false
	recalculated.CommissionAmount = money("80")
	updated := regular
	updated.CommissionAmount = money("96")
	require.NoError(t, repo.UpsertCommissions(ctx, []commission.MonthlyCommission{recalculated, updated}))

	got, err := repo.FindByMonth(ctx, "2025-08")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsOverride)
	assert.Equal(t, "50.00", got[0].CommissionAmount.String())
	assert.Equal(t, "96.00", got[1].CommissionAmount.String())

	var other int64
	require.NoError(t, db.Model(&models.MonthlyCommissionModel{}).Where("month = ?", "2025-07").Count(&other).Error)
	assert.Zero(t, other)
}

func TestGormCommissionRepository_SpiffsAndSummaries(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormCommissionRepository(db, 0)
	ctx := context.Background()

	earning := commission.SpiffEarning{
		ID:          commission.SpiffEarningID("BenW", "2025-08", "9001-1"),
		SalesPerson: "BenW",
		SpiffID:     "sp1",
		Quantity:    decimal.NewFromInt(4),
		SpiffValue:  decimal.NewFromInt(5),
		Amount:      money("20"),
		OrderDate:   day(2025, 8, 4),
		Month:       "2025-08",
	}
	summary := commission.MonthlySummary{
		ID:            commission.SummaryID("BenW", "2025-08"),
		SalesPerson:   "BenW",
		Month:         "2025-08",
		TotalOrders:   3,
		TotalEarnings: money("654"),
		CalculatedAt:  day(2025, 9, 1),
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.UpsertSpiffEarnings(ctx, []commission.SpiffEarning{earning}))
		require.NoError(t, repo.UpsertSummaries(ctx, []commission.MonthlySummary{summary}))
	}

	var stored models.MonthlySummaryModel
	require.NoError(t, db.First(&stored, "id = ?", summary.ID).Error)
	assert.Equal(t, "654.00", stored.TotalEarnings.String())

	var earnings int64
	require.NoError(t, db.Model(&models.SpiffEarningModel{}).Count(&earnings).Error)
	assert.Equal(t, int64(1), earnings)
}

func TestGormCommissionConfigRepository(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormCommissionConfigRepository(db)
	ctx := context.Background()

	inactive := false
	require.NoError(t, db.Create(&[]models.RateRuleModel{
		{Title: "Account Executive", Segment: "wholesale", Status: "new_business", Percentage: decimal.NewFromInt(8)},
		{Title: "Account Executive", Segment: "distributor", Status: "transferred", Percentage: decimal.NewFromInt(2), Active: &inactive},
	}).Error)
	require.NoError(t, db.Create(&models.SpiffModel{ID: "sp1", ProductNum: "KB-1", Type: "flat", Value: decimal.NewFromInt(5), Active: true, StartDate: day(2025, 1, 1)}).Error)
	require.NoError(t, db.Create(&models.BudgetModel{Title: "Account Executive", PeriodID: "Q3-2025", BucketA: decimal.NewFromInt(100000)}).Error)
	require.NoError(t, db.Create(&[]models.ActivityGoalModel{
		{PeriodID: "Q3-2025", GoalID: "phone_calls", Label: "Phone Calls", Goal: decimal.NewFromInt(1200), SubWeight: decimal.RequireFromString("0.5")},
		{PeriodID: "Q3-2025", GoalID: "emails", Label: "Emails", Goal: decimal.NewFromInt(600), SubWeight: decimal.RequireFromString("0.5")},
	}).Error)

	rules, err := repo.FindRateRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, commission.Segment("distributor"), rules[0].Segment)
	require.NotNil(t, rules[0].Active)
	assert.False(t, *rules[0].Active)
	assert.Nil(t, rules[1].Active)

	spiffs, err := repo.FindSpiffs(ctx)
	require.NoError(t, err)
	require.Len(t, spiffs, 1)
	assert.Nil(t, spiffs[0].EndDate)

	budget, err := repo.FindBudget(ctx, "Account Executive", "Q3-2025")
	require.NoError(t, err)
	assert.True(t, budget.BucketA.Equal(decimal.NewFromInt(100000)))

	_, err = repo.FindBudget(ctx, "Account Executive", "Q4-2025")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	goals, err := repo.FindActivityGoals(ctx, "Q3-2025")
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "emails", goals[0].ID)
}
