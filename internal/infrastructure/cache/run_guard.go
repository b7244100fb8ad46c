package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const guardKeyPrefix = "kanva:run:"

// releaseScript deletes the lease only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRunGuard leases job keys with SET NX
type RedisRunGuard struct {
	client *redis.Client
}

// NewRedisRunGuard creates a guard backed by client
func NewRedisRunGuard(client *redis.Client) *RedisRunGuard {
	return &RedisRunGuard{client: client}
}

// Acquire implements shared.RunGuard
func (g *RedisRunGuard) Acquire(ctx context.Context, jobKey string, ttl time.Duration) (func(context.Context) error, error) {
	key := guardKeyPrefix + jobKey
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run guard %s: %w", jobKey, err)
	}
	if !ok {
		return nil, shared.ErrConflict
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release run guard %s: %w", jobKey, err)
		}
		return nil
	}, nil
}

// InMemoryRunGuard is a process-local RunGuard
type InMemoryRunGuard struct {
	mu     sync.Mutex
	leases map[string]lease
	now    func() time.Time
}

type lease struct {
	token     string
	expiresAt time.Time
}

// NewInMemoryRunGuard creates an empty guard
func NewInMemoryRunGuard() *InMemoryRunGuard {
	return &InMemoryRunGuard{leases: make(map[string]lease), now: time.Now}
}

// Acquire implements shared.RunGuard
func (g *InMemoryRunGuard) Acquire(_ context.Context, jobKey string, ttl time.Duration) (func(context.Context) error, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if l, held := g.leases[jobKey]; held && g.now().Before(l.expiresAt) {
		return nil, shared.ErrConflict
	}
	token := uuid.NewString()
	g.leases[jobKey] = lease{token: token, expiresAt: g.now().Add(ttl)}

	return func(context.Context) error {
		g.mu.Lock()
		defer g.mu.Unlock()
		if l, held := g.leases[jobKey]; held && l.token == token {
			delete(g.leases, jobKey)
		}
		return nil
	}, nil
}

var (
	_ shared.RunGuard = (*RedisRunGuard)(nil)
	_ shared.RunGuard = (*InMemoryRunGuard)(nil)
)
