package persistence

import (
	"context"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRepRepository implements sales.RepRepository
type GormRepRepository struct {
	db *gorm.DB
}

// NewGormRepRepository creates a GormRepRepository
func NewGormRepRepository(db *gorm.DB) *GormRepRepository {
	return &GormRepRepository{db: db}
}

// FindAll loads the rep roster ordered by sales person code
func (r *GormRepRepository) FindAll(ctx context.Context) ([]sales.Rep, error) {
	var rows []models.RepModel
	if err := r.db.WithContext(ctx).Order("sales_person").Find(&rows).Error; err != nil {
		return nil, err
	}
	reps := make([]sales.Rep, len(rows))
	for i := range rows {
		reps[i] = rows[i].ToDomain()
	}
	return reps, nil
}

// UpsertBatch writes reps keyed by id
func (r *GormRepRepository) UpsertBatch(ctx context.Context, reps []*sales.Rep) error {
	rows := make([]*models.RepModel, len(reps))
	for i, rep := range reps {
		rows[i] = models.RepModelFromDomain(rep)
	}
	return upsertInChunks(ctx, r.db, rows, 0, upsertOn("id"))
}

var _ sales.RepRepository = (*GormRepRepository)(nil)
