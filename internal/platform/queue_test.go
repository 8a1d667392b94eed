/*-------------------------------------------------------------------------
 *
 * queue_test.go
 *    Tests for the serialized platform request queue
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/platform/queue_test.go
 *
 *-------------------------------------------------------------------------
 */

package platform

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchlabs/PerchAgent/internal/scheduler"
)

func TestQueueSerializesRequests(t *testing.T) {
	q := NewRequestQueue(time.Millisecond, 2*time.Millisecond)

	var inFlight, maxInFlight atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(context.Background(), func() error {
				n := inFlight.Add(1)
				if n > maxInFlight.Load() {
					maxInFlight.Store(n)
				}
				time.Sleep(2 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load(), "requests must never overlap")
}

func TestQueueRetriesTransientFailures(t *testing.T) {
	q := NewRequestQueue(time.Millisecond, 2*time.Millisecond)
	q.backoff = scheduler.Backoff{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2.0}

	calls := 0
	err := q.Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("rate limited")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestQueueHonorsContextDuringPacing(t *testing.T) {
	q := NewRequestQueue(time.Second, 2*time.Second)

	/* first call sets lastRun so the second has to wait out the delay */
	require.NoError(t, q.Do(context.Background(), func() error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := q.Do(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDryRunClientRecordsWithoutPublishing(t *testing.T) {
	c := NewDryRunClient("perch_agent")
	ctx := context.Background()

	result, err := c.Post(ctx, "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.Contains(t, result.PermanentURL, "perch_agent")

	_, err = c.Reply(ctx, "hi back", "tweet-1")
	require.NoError(t, err)
	require.NoError(t, c.Like(ctx, "tweet-2"))

	actions := c.Actions()
	require.Len(t, actions, 3)
	assert.Equal(t, "post", actions[0].Operation)
	assert.Equal(t, "reply", actions[1].Operation)
	assert.Equal(t, "tweet-1", actions[1].TargetID)
	assert.Equal(t, "like", actions[2].Operation)
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession(SessionConfig{Username: "perch_agent", DryRun: true})

	_, err := s.Client()
	assert.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, s.Connect(context.Background()))
	client, err := s.Client()
	require.NoError(t, err)
	assert.NotNil(t, client)

	s.Close()
	_, err = s.Client()
	assert.ErrorIs(t, err, ErrNotReady)
}
