package persistence

import (
	"context"
	"errors"

	"github.com/kanva/portal/internal/domain/metrics"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMetricsRepository implements metrics.Repository
type GormMetricsRepository struct {
	db        *gorm.DB
	chunkSize int
}

// NewGormMetricsRepository creates a GormMetricsRepository
func NewGormMetricsRepository(db *gorm.DB, size int) *GormMetricsRepository {
	return &GormMetricsRepository{db: db, chunkSize: chunkSize(size)}
}

// UpsertBatch overwrites the stored metrics of each customer
func (r *GormMetricsRepository) UpsertBatch(ctx context.Context, batch []*metrics.CustomerMetrics) error {
	rows := make([]*models.CustomerMetricsModel, len(batch))
	for i, m := range batch {
		rows[i] = models.CustomerMetricsModelFromDomain(m)
	}
	return upsertInChunks(ctx, r.db, rows, r.chunkSize, upsertOn("customer_id"))
}

// FindByCustomerID returns shared.ErrNotFound when no metrics are stored
func (r *GormMetricsRepository) FindByCustomerID(ctx context.Context, customerID string) (*metrics.CustomerMetrics, error) {
	var model models.CustomerMetricsModel
	if err := r.db.WithContext(ctx).First(&model, "customer_id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	m := model.ToDomain()
	return &m, nil
}

var _ metrics.Repository = (*GormMetricsRepository)(nil)
