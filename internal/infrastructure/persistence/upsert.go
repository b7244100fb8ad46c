package persistence

import (
	"context"
	"fmt"

	"github.com/kanva/portal/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertOn builds an ON CONFLICT clause that overwrites every non-key column
func upsertOn(keys ...string) clause.OnConflict {
	cols := make([]clause.Column, len(keys))
	for i, k := range keys {
		cols[i] = clause.Column{Name: k}
	}
	return clause.OnConflict{Columns: cols, UpdateAll: true}
}

// upsertInChunks writes rows in chunks of at most size, one transaction per
// chunk. A failure stops the loop; earlier chunks stay committed. The context
// is checked between chunks so an expired batch budget stops cleanly.
func upsertInChunks[T any](ctx context.Context, db *gorm.DB, rows []T, size int, conflict clause.OnConflict) error {
	for i, chunk := range shared.Chunk(rows, size) {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(conflict).Create(&chunk).Error
		})
		if err != nil {
			return fmt.Errorf("upsert chunk %d: %w", i, err)
		}
	}
	return nil
}

// chunkSize clamps a configured size to the write limit
func chunkSize(size int) int {
	if size <= 0 || size > shared.DefaultBatchSize {
		return shared.DefaultBatchSize
	}
	return size
}
