package persistence

import (
	"context"
	"errors"

	"github.com/kanva/portal/internal/domain/commission"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCommissionRepository stores quarterly entries and monthly output
type GormCommissionRepository struct {
	db        *gorm.DB
	chunkSize int
}

// NewGormCommissionRepository creates a GormCommissionRepository
func NewGormCommissionRepository(db *gorm.DB, size int) *GormCommissionRepository {
	return &GormCommissionRepository{db: db, chunkSize: chunkSize(size)}
}

// UpsertEntries writes bucket entries keyed by their deterministic id
func (r *GormCommissionRepository) UpsertEntries(ctx context.Context, entries []commission.Entry) error {
	rows := make([]*models.CommissionEntryModel, len(entries))
	for i := range entries {
		rows[i] = models.CommissionEntryModelFromDomain(&entries[i])
	}
	return upsertInChunks(ctx, r.db, rows, r.chunkSize, upsertOn("id"))
}

// FindEntries loads a rep's entries for one period
func (r *GormCommissionRepository) FindEntries(ctx context.Context, repID, periodID string) ([]commission.Entry, error) {
	var rows []models.CommissionEntryModel
	err := r.db.WithContext(ctx).
		Where("rep_id = ? AND period_id = ?", repID, periodID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	entries := make([]commission.Entry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// FindByMonth loads every stored monthly commission for a YYYY-MM month
func (r *GormCommissionRepository) FindByMonth(ctx context.Context, month string) ([]commission.MonthlyCommission, error) {
	var rows []models.MonthlyCommissionModel
	if err := r.db.WithContext(ctx).Where("month = ?", month).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]commission.MonthlyCommission, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// UpsertCommissions writes monthly records. A stored row flagged as a manual
// override is left untouched.
func (r *GormCommissionRepository) UpsertCommissions(ctx context.Context, records []commission.MonthlyCommission) error {
	rows := make([]*models.MonthlyCommissionModel, len(records))
	for i := range records {
		rows[i] = models.MonthlyCommissionModelFromDomain(&records[i])
	}
	conflict := upsertOn("id")
	conflict.Where = clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.Column{Table: models.MonthlyCommissionModel{}.TableName(), Name: "is_override"}, Value: false},
	}}
	return upsertInChunks(ctx, r.db, rows, r.chunkSize, conflict)
}

// UpsertSpiffEarnings writes spiff earnings keyed by id
func (r *GormCommissionRepository) UpsertSpiffEarnings(ctx context.Context, earnings []commission.SpiffEarning) error {
	rows := make([]*models.SpiffEarningModel, len(earnings))
	for i := range earnings {
		rows[i] = models.SpiffEarningModelFromDomain(&earnings[i])
	}
	return upsertInChunks(ctx, r.db, rows, r.chunkSize, upsertOn("id"))
}

// UpsertSummaries writes per-rep monthly summaries keyed by id
func (r *GormCommissionRepository) UpsertSummaries(ctx context.Context, summaries []commission.MonthlySummary) error {
	rows := make([]*models.MonthlySummaryModel, len(summaries))
	for i := range summaries {
		rows[i] = models.MonthlySummaryModelFromDomain(&summaries[i])
	}
	return upsertInChunks(ctx, r.db, rows, r.chunkSize, upsertOn("id"))
}

var (
	_ commission.EntryRepository   = (*GormCommissionRepository)(nil)
	_ commission.MonthlyRepository = (*GormCommissionRepository)(nil)
)

// GormCommissionConfigRepository reads rates, spiffs and goals
type GormCommissionConfigRepository struct {
	db *gorm.DB
}

// NewGormCommissionConfigRepository creates a GormCommissionConfigRepository
func NewGormCommissionConfigRepository(db *gorm.DB) *GormCommissionConfigRepository {
	return &GormCommissionConfigRepository{db: db}
}

// FindRateRules loads the whole rate table
func (r *GormCommissionConfigRepository) FindRateRules(ctx context.Context) ([]commission.RateRule, error) {
	var rows []models.RateRuleModel
	if err := r.db.WithContext(ctx).Order("title, segment, status").Find(&rows).Error; err != nil {
		return nil, err
	}
	rules := make([]commission.RateRule, len(rows))
	for i := range rows {
		rules[i] = rows[i].ToDomain()
	}
	return rules, nil
}

// FindSpiffs loads every spiff; activity windows are applied by the calculator
func (r *GormCommissionConfigRepository) FindSpiffs(ctx context.Context) ([]commission.Spiff, error) {
	var rows []models.SpiffModel
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	spiffs := make([]commission.Spiff, len(rows))
	for i := range rows {
		spiffs[i] = rows[i].ToDomain()
	}
	return spiffs, nil
}

// FindBudget returns shared.ErrNotFound when the title has no budget for the period
func (r *GormCommissionConfigRepository) FindBudget(ctx context.Context, title, periodID string) (*commission.Budget, error) {
	var model models.BudgetModel
	err := r.db.WithContext(ctx).First(&model, "title = ? AND period_id = ?", title, periodID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	b := model.ToDomain()
	return &b, nil
}

// FindActivityGoals loads the Effort sub-goals of a period
func (r *GormCommissionConfigRepository) FindActivityGoals(ctx context.Context, periodID string) ([]commission.SubGoal, error) {
	var rows []models.ActivityGoalModel
	if err := r.db.WithContext(ctx).Where("period_id = ?", periodID).Order("goal_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	goals := make([]commission.SubGoal, len(rows))
	for i := range rows {
		goals[i] = rows[i].ToDomain()
	}
	return goals, nil
}

var _ commission.ConfigRepository = (*GormCommissionConfigRepository)(nil)
