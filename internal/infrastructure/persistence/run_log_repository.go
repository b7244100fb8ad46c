package persistence

import (
	"context"
	"errors"

	"github.com/kanva/portal/internal/domain/history"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultRunLogLimit = 20
	maxRunLogLimit     = 200
)

// GormRunLogRepository implements history.Repository
type GormRunLogRepository struct {
	db *gorm.DB
}

// NewGormRunLogRepository creates a GormRunLogRepository
func NewGormRunLogRepository(db *gorm.DB) *GormRunLogRepository {
	return &GormRunLogRepository{db: db}
}

// Save inserts the log, overwriting an entry with the same run id
func (r *GormRunLogRepository) Save(ctx context.Context, log *history.RunLog) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(models.RunLogModelFromDomain(log)).Error
}

// FindByID returns shared.ErrNotFound for an unknown run
func (r *GormRunLogRepository) FindByID(ctx context.Context, id string) (*history.RunLog, error) {
	var model models.RunLogModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	log := model.ToDomain()
	return &log, nil
}

// FindRecent returns the newest runs first
func (r *GormRunLogRepository) FindRecent(ctx context.Context, filter history.Filter) ([]history.RunLog, error) {
	query := r.db.WithContext(ctx).Model(&models.RunLogModel{})
	if filter.Job != "" {
		query = query.Where("job = ?", filter.Job)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if !filter.Since.IsZero() {
		query = query.Where("started_at >= ?", filter.Since)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultRunLogLimit
	}
	limit = min(limit, maxRunLogLimit)

	var rows []models.RunLogModel
	if err := query.Order("started_at DESC").Order("id").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]history.RunLog, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ history.Repository = (*GormRunLogRepository)(nil)
