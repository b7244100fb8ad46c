package sales

import (
	"context"
	"time"
)

// CustomerRepository persists canonical customers. Writes are keyed upserts so
// a re-run overwrites instead of duplicating.
type CustomerRepository interface {
	FindAll(ctx context.Context) ([]Customer, error)
	FindByID(ctx context.Context, id string) (*Customer, error)
	UpsertBatch(ctx context.Context, customers []*Customer) error
}

// OrderFilter narrows order and line item queries
type OrderFilter struct {
	CustomerIDs []string
	From        time.Time
	To          time.Time
	SalesPerson string
}

// OrderRepository persists orders with their line items
type OrderRepository interface {
	UpsertBatch(ctx context.Context, orders []*Order) error
	FindOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	FindLineItems(ctx context.Context, filter OrderFilter) ([]LineItem, error)
}

// RepRepository reads the sales rep roster
type RepRepository interface {
	FindAll(ctx context.Context) ([]Rep, error)
}
