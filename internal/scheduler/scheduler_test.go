/*-------------------------------------------------------------------------
 *
 * scheduler_test.go
 *    Tests for backoff and periodic task scheduling
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/scheduler/scheduler_test.go
 *
 *-------------------------------------------------------------------------
 */

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelayGrowth(t *testing.T) {
	b := Backoff{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}

	assert.Equal(t, time.Second, b.Delay(0))
	assert.Equal(t, 2*time.Second, b.Delay(1))
	assert.Equal(t, 4*time.Second, b.Delay(2))
	assert.Equal(t, 8*time.Second, b.Delay(3))
	assert.Equal(t, 10*time.Second, b.Delay(4), "delay caps at MaxDelay")
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	b := Backoff{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1.0}

	calls := 0
	err := b.Retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	b := Backoff{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1.0}

	sentinel := errors.New("permanent")
	calls := 0
	err := b.Retry(context.Background(), func() error {
		calls++
		return sentinel
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	b := Backoff{MaxAttempts: 10, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1.0}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := b.Retry(ctx, func() error { return errors.New("keep going") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJitterStaysWithinFraction(t *testing.T) {
	d := time.Second
	for i := 0; i < 100; i++ {
		j := Jitter(d, 0.25)
		assert.GreaterOrEqual(t, j, 750*time.Millisecond)
		assert.LessOrEqual(t, j, 1250*time.Millisecond)
	}
}

func TestPeriodicRunsImmediatelyThenOnInterval(t *testing.T) {
	var runs atomic.Int32
	p := NewPeriodic("test", 20*time.Millisecond, 0, func(ctx context.Context) {
		runs.Add(1)
	})

	p.Start()
	defer p.Stop()

	time.Sleep(70 * time.Millisecond)
	assert.GreaterOrEqual(t, runs.Load(), int32(3), "one run at start plus interval runs")
}

func TestPeriodicStopHaltsTask(t *testing.T) {
	var runs atomic.Int32
	p := NewPeriodic("test", 10*time.Millisecond, 0, func(ctx context.Context) {
		runs.Add(1)
	})

	p.Start()
	time.Sleep(25 * time.Millisecond)
	p.Stop()

	settled := runs.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, settled, runs.Load())
}

func TestPeriodicStopWithoutStartReturns(t *testing.T) {
	p := NewPeriodic("idle", time.Hour, 0, func(ctx context.Context) {})

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked for a task that never started")
	}
}

func TestPeriodicRecoversFromPanic(t *testing.T) {
	var runs atomic.Int32
	p := NewPeriodic("test", 10*time.Millisecond, 0, func(ctx context.Context) {
		runs.Add(1)
		panic("task blew up")
	})

	p.Start()
	defer p.Stop()

	time.Sleep(45 * time.Millisecond)
	assert.GreaterOrEqual(t, runs.Load(), int32(2), "a panicking task keeps its schedule")
}
