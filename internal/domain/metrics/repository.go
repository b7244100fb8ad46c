package metrics

import "context"

// Repository stores the latest metrics per customer, overwriting on write
type Repository interface {
	UpsertBatch(ctx context.Context, metrics []*CustomerMetrics) error
	FindByCustomerID(ctx context.Context, customerID string) (*CustomerMetrics, error)
}
