package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kanva/portal/internal/domain/matching"
)

type memoryEntry struct {
	record    matching.MatchRecord
	expiresAt time.Time
}

// InMemoryMatchCache is a process-local MatchCache used when Redis is not
// configured. Expired entries are swept periodically until Close.
type InMemoryMatchCache struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryMatchCache starts a cache with the given entry ttl
func NewInMemoryMatchCache(ttl time.Duration) *InMemoryMatchCache {
	c := &InMemoryMatchCache{
		entries:  make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.sweepLoop(5 * time.Minute)
	return c
}

// Get returns a copy of the cached record, or (nil, nil) when absent or expired
func (c *InMemoryMatchCache) Get(_ context.Context, system matching.SourceSystem, sourceKey string) (*matching.MatchRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[matching.RecordKey(system, sourceKey)]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, nil
	}
	r := e.record
	return &r, nil
}

// Set stores a copy of record. Unmatched records are not cached.
func (c *InMemoryMatchCache) Set(_ context.Context, record *matching.MatchRecord) error {
	if record == nil || record.CustomerID == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[record.Key()] = memoryEntry{record: *record, expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *InMemoryMatchCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the sweeper. Safe to call more than once.
func (c *InMemoryMatchCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryMatchCache) sweepLoop(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *InMemoryMatchCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

var _ matching.MatchCache = (*InMemoryMatchCache)(nil)
