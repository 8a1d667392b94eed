/*-------------------------------------------------------------------------
 *
 * cache.go
 *    Fast-path cache of unresolved approval requests
 *
 * Keeps pending and approved requests in memory so decision handling and
 * listing do not round-trip to Postgres for the common case. The durable
 * store remains the source of truth; entries expire on TTL and are purged
 * the moment a request reaches a terminal status.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/approval/cache.go
 *
 *-------------------------------------------------------------------------
 */

package approval

import (
	"context"
	"sync"
	"time"

	"github.com/perchlabs/PerchAgent/internal/scheduler"
)

type cacheEntry struct {
	req       *Request
	expiresAt time.Time
}

/* PendingCache is a TTL-bounded map of unresolved approval requests */
type PendingCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	clock   scheduler.Clock
	done    chan struct{}
	once    sync.Once
}

/* NewPendingCache creates a cache whose entries expire after ttl */
func NewPendingCache(ttl time.Duration) *PendingCache {
	c := &PendingCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		clock:   scheduler.WallClock{},
		done:    make(chan struct{}),
	}
	go c.evictLoop()
	return c
}

/* Seed loads unresolved requests from the durable store, typically at
 * startup so decisions made while the agent was down are still served
 * from the fast path */
func (c *PendingCache) Seed(ctx context.Context, store DecisionStore) (int, error) {
	total := 0
	for _, status := range []Status{StatusPending, StatusApproved} {
		rows, err := store.ListByStatus(ctx, status, 0, 0)
		if err != nil {
			return total, &StoreError{Op: "seed cache", Err: err}
		}
		for _, row := range rows {
			c.Set(row)
			total++
		}
	}
	return total, nil
}

/* Get returns the cached request, or nil when absent or expired */
func (c *PendingCache) Get(id string) *Request {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	if !ok || c.clock.Now().After(entry.expiresAt) {
		return nil
	}
	clone := *entry.req
	return &clone
}

/* Set inserts or refreshes a request, resetting its TTL */
func (c *PendingCache) Set(req *Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	clone := *req
	c.entries[req.ID] = &cacheEntry{
		req:       &clone,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

/* Delete removes a request, called when it reaches a terminal status */
func (c *PendingCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

/* Len returns the number of live entries */
func (c *PendingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.clock.Now()
	n := 0
	for _, entry := range c.entries {
		if now.Before(entry.expiresAt) {
			n++
		}
	}
	return n
}

/* Close stops the background eviction loop */
func (c *PendingCache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *PendingCache) evictLoop() {
	interval := c.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.done:
			return
		}
	}
}

func (c *PendingCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
		}
	}
}
