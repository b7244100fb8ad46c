package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kanva/portal/internal/domain/matching"
	"github.com/redis/go-redis/v9"
)

const matchKeyPrefix = "kanva:match:"

type cachedMatch struct {
	System     matching.SourceSystem `json:"system"`
	SourceKey  string                `json:"sourceKey"`
	CustomerID string                `json:"customerId"`
	Method     matching.Method       `json:"method"`
	Confidence float64               `json:"confidence"`
	Ambiguous  bool                  `json:"ambiguous,omitempty"`
	MatchedAt  time.Time             `json:"matchedAt"`
}

func toCached(r *matching.MatchRecord) cachedMatch {
	return cachedMatch{
		System:     r.SourceSystem,
		SourceKey:  r.SourceKey,
		CustomerID: r.CustomerID,
		Method:     r.Method,
		Confidence: r.Confidence,
		Ambiguous:  r.Ambiguous,
		MatchedAt:  r.MatchedAt,
	}
}

func (c cachedMatch) record() *matching.MatchRecord {
	return &matching.MatchRecord{
		SourceSystem: c.System,
		SourceKey:    c.SourceKey,
		CustomerID:   c.CustomerID,
		Method:       c.Method,
		Confidence:   c.Confidence,
		Ambiguous:    c.Ambiguous,
		MatchedAt:    c.MatchedAt,
	}
}

// RedisMatchCache stores match records as JSON under kanva:match:<system>:<key>
type RedisMatchCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMatchCache creates a cache whose entries expire after ttl
func NewRedisMatchCache(client *redis.Client, ttl time.Duration) *RedisMatchCache {
	return &RedisMatchCache{client: client, ttl: ttl}
}

// Get returns (nil, nil) on a miss
func (c *RedisMatchCache) Get(ctx context.Context, system matching.SourceSystem, sourceKey string) (*matching.MatchRecord, error) {
	raw, err := c.client.Get(ctx, matchKeyPrefix+matching.RecordKey(system, sourceKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read match cache: %w", err)
	}

	var cm cachedMatch
	if err := json.Unmarshal(raw, &cm); err != nil {
		return nil, fmt.Errorf("corrupt match cache entry: %w", err)
	}
	return cm.record(), nil
}

// Set stores a record. Unmatched records are not cached.
func (c *RedisMatchCache) Set(ctx context.Context, record *matching.MatchRecord) error {
	if record == nil || record.CustomerID == "" {
		return nil
	}
	raw, err := json.Marshal(toCached(record))
	if err != nil {
		return fmt.Errorf("failed to encode match record: %w", err)
	}
	if err := c.client.Set(ctx, matchKeyPrefix+record.Key(), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write match cache: %w", err)
	}
	return nil
}

var _ matching.MatchCache = (*RedisMatchCache)(nil)
