package persistence

import (
	"context"
	"fmt"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements sales.OrderRepository. Headers and their
// line items are written in the same chunk transaction.
type GormOrderRepository struct {
	db        *gorm.DB
	chunkSize int
}

// NewGormOrderRepository creates a GormOrderRepository
func NewGormOrderRepository(db *gorm.DB, size int) *GormOrderRepository {
	return &GormOrderRepository{db: db, chunkSize: chunkSize(size)}
}

// UpsertBatch writes orders and their items keyed by id
func (r *GormOrderRepository) UpsertBatch(ctx context.Context, orders []*sales.Order) error {
	for i, chunk := range shared.Chunk(orders, r.chunkSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		headers := make([]*models.OrderModel, 0, len(chunk))
		var items []*models.LineItemModel
		for _, o := range chunk {
			headers = append(headers, models.OrderModelFromDomain(o))
			for j := range o.Items {
				items = append(items, models.LineItemModelFromDomain(&o.Items[j]))
			}
		}
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(upsertOn("id")).Create(&headers).Error; err != nil {
				return err
			}
			if len(items) == 0 {
				return nil
			}
			return tx.Clauses(upsertOn("id")).CreateInBatches(&items, r.chunkSize).Error
		})
		if err != nil {
			return fmt.Errorf("upsert order chunk %d: %w", i, err)
		}
	}
	return nil
}

// FindOrders loads order headers matching the filter with their line items
func (r *GormOrderRepository) FindOrders(ctx context.Context, filter sales.OrderFilter) ([]sales.Order, error) {
	var headers []models.OrderModel
	q := applyOrderFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)
	if err := q.Order("posting_date, id").Find(&headers).Error; err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, nil
	}

	ids := make([]string, len(headers))
	for i := range headers {
		ids[i] = headers[i].ID
	}
	byOrder := make(map[string][]sales.LineItem, len(headers))
	for _, chunk := range shared.Chunk(ids, r.chunkSize) {
		var items []models.LineItemModel
		if err := r.db.WithContext(ctx).Where("order_id IN ?", chunk).Order("id").Find(&items).Error; err != nil {
			return nil, err
		}
		for i := range items {
			byOrder[items[i].OrderID] = append(byOrder[items[i].OrderID], items[i].ToDomain())
		}
	}

	orders := make([]sales.Order, len(headers))
	for i := range headers {
		orders[i] = headers[i].ToDomain()
		orders[i].Items = byOrder[headers[i].ID]
	}
	return orders, nil
}

// FindLineItems loads line items matching the filter
func (r *GormOrderRepository) FindLineItems(ctx context.Context, filter sales.OrderFilter) ([]sales.LineItem, error) {
	var rows []models.LineItemModel
	q := applyOrderFilter(r.db.WithContext(ctx).Model(&models.LineItemModel{}), filter)
	if err := q.Order("posting_date, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]sales.LineItem, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, nil
}

// applyOrderFilter works for both orders and line_items, which share the
// filtered column names
func applyOrderFilter(q *gorm.DB, f sales.OrderFilter) *gorm.DB {
	if len(f.CustomerIDs) > 0 {
		q = q.Where("customer_id IN ?", f.CustomerIDs)
	}
	if !f.From.IsZero() {
		q = q.Where("posting_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("posting_date <= ?", f.To)
	}
	if f.SalesPerson != "" {
		q = q.Where("sales_person = ?", f.SalesPerson)
	}
	return q
}

var _ sales.OrderRepository = (*GormOrderRepository)(nil)
