package persistence

import (
	"context"

	"github.com/kanva/portal/internal/domain/matching"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMatchRecordRepository implements matching.MatchRecordRepository
type GormMatchRecordRepository struct {
	db        *gorm.DB
	chunkSize int
}

// NewGormMatchRecordRepository creates a GormMatchRecordRepository
func NewGormMatchRecordRepository(db *gorm.DB, size int) *GormMatchRecordRepository {
	return &GormMatchRecordRepository{db: db, chunkSize: chunkSize(size)}
}

// UpsertBatch writes match records keyed by (source_system, source_key)
func (r *GormMatchRecordRepository) UpsertBatch(ctx context.Context, records []*matching.MatchRecord) error {
	rows := make([]*models.MatchRecordModel, len(records))
	for i, rec := range records {
		rows[i] = models.MatchRecordModelFromDomain(rec)
	}
	return upsertInChunks(ctx, r.db, rows, r.chunkSize, upsertOn("source_system", "source_key"))
}

// FindBySource loads stored records for the given source keys
func (r *GormMatchRecordRepository) FindBySource(ctx context.Context, system matching.SourceSystem, keys []string) ([]matching.MatchRecord, error) {
	var out []matching.MatchRecord
	for _, chunk := range shared.Chunk(keys, r.chunkSize) {
		var rows []models.MatchRecordModel
		err := r.db.WithContext(ctx).
			Where("source_system = ? AND source_key IN ?", string(system), chunk).
			Order("source_key").
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		for i := range rows {
			out = append(out, rows[i].ToDomain())
		}
	}
	return out, nil
}

var _ matching.MatchRecordRepository = (*GormMatchRecordRepository)(nil)
