/*-------------------------------------------------------------------------
 *
 * queue.go
 *    Serialized platform request queue
 *
 * The platform rate-limits and fingerprints burst traffic, so every
 * outbound request funnels through a single queue that spaces requests
 * with a randomized delay and retries transient failures with
 * exponential backoff.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/platform/queue.go
 *
 *-------------------------------------------------------------------------
 */

package platform

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/perchlabs/PerchAgent/internal/metrics"
	"github.com/perchlabs/PerchAgent/internal/scheduler"
)

/* RequestQueue serializes platform requests with pacing and retry */
type RequestQueue struct {
	mu       sync.Mutex
	minDelay time.Duration
	maxDelay time.Duration
	backoff  scheduler.Backoff
	lastRun  time.Time
}

/* NewRequestQueue creates a queue that waits a random duration between
 * minDelay and maxDelay before each request */
func NewRequestQueue(minDelay, maxDelay time.Duration) *RequestQueue {
	if minDelay <= 0 {
		minDelay = 1500 * time.Millisecond
	}
	if maxDelay < minDelay {
		maxDelay = minDelay + 2*time.Second
	}
	return &RequestQueue{
		minDelay: minDelay,
		maxDelay: maxDelay,
		backoff:  scheduler.DefaultBackoff(),
	}
}

/* Do runs fn exclusively after the pacing delay, retrying transient
 * failures with exponential backoff. Holds the queue for the full call
 * including retries. */
func (q *RequestQueue) Do(ctx context.Context, fn func() error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.pace(ctx); err != nil {
		return err
	}
	defer func() { q.lastRun = time.Now() }()

	attempt := 0
	return q.backoff.Retry(ctx, func() error {
		if attempt > 0 {
			metrics.RecordPlatformRetry()
		}
		attempt++
		return fn()
	})
}

func (q *RequestQueue) pace(ctx context.Context) error {
	spread := q.maxDelay - q.minDelay
	delay := q.minDelay
	if spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread)))
	}

	elapsed := time.Since(q.lastRun)
	if elapsed >= delay {
		return nil
	}

	timer := time.NewTimer(delay - elapsed)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
