package shared

import (
	"context"
	"time"
)

// RunGuard keeps two batch runs with the same job key from overlapping.
// Acquire returns ErrConflict while another holder owns the key; the lease
// expires after ttl if the holder never releases it.
type RunGuard interface {
	Acquire(ctx context.Context, jobKey string, ttl time.Duration) (release func(context.Context) error, err error)
}

// NoopRunGuard always grants the lease
type NoopRunGuard struct{}

// Acquire implements RunGuard
func (NoopRunGuard) Acquire(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
