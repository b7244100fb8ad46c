// Package cache provides the match-record cache and batch run guard, backed by
// Redis when configured and by process memory otherwise.
package cache

import (
	"context"
	"fmt"

	"github.com/kanva/portal/internal/domain/matching"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the cache-backed collaborators used by batch services
type Stores struct {
	MatchCache matching.MatchCache
	RunGuard   shared.RunGuard
	closers    []func() error
}

// Close releases the Redis client or stops the in-memory sweeper
func (s *Stores) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// in-memory stores. Default true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowFallback = allow
	}
}

// Factory creates Stores from configuration
type Factory struct {
	cfg           config.RedisConfig
	logger        *zap.Logger
	allowFallback bool
}

// NewFactory creates a Factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{cfg: cfg, logger: zap.NewNop(), allowFallback: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create uses Redis when a host is configured and reachable
func (f *Factory) Create(ctx context.Context) (*Stores, error) {
	if !f.cfg.Enabled() {
		f.logger.Info("Redis not configured, using in-memory match cache and run guard")
		return f.inMemory(), nil
	}

	client, err := NewRedisClient(ctx, f.cfg)
	if err != nil {
		if !f.allowFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
			"Concurrent runs on other instances will not be detected.",
			zap.Error(err),
		)
		return f.inMemory(), nil
	}

	f.logger.Info("Using Redis match cache and run guard", zap.String("addr", f.cfg.Addr()))
	return f.fromClient(client), nil
}

func (f *Factory) fromClient(client *redis.Client) *Stores {
	return &Stores{
		MatchCache: NewRedisMatchCache(client, f.cfg.MatchTTL),
		RunGuard:   NewRedisRunGuard(client),
		closers:    []func() error{client.Close},
	}
}

func (f *Factory) inMemory() *Stores {
	mc := NewInMemoryMatchCache(f.cfg.MatchTTL)
	return &Stores{
		MatchCache: mc,
		RunGuard:   NewInMemoryRunGuard(),
		closers:    []func() error{mc.Close},
	}
}
