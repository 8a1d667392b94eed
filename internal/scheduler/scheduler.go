/*-------------------------------------------------------------------------
 *
 * scheduler.go
 *    Timer-driven task scheduling for PerchAgent
 *
 * Provides a cancellable periodic task with configurable jitter and a
 * reusable backoff policy. Time is injected through the Clock interface so
 * tests can drive schedules without sleeping.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/scheduler/scheduler.go
 *
 *-------------------------------------------------------------------------
 */

package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/perchlabs/PerchAgent/internal/metrics"
)

/* Clock provides the current time. Production code uses WallClock; tests
 * inject a fake. */
type Clock interface {
	Now() time.Time
}

/* WallClock is the default clock */
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

/* Backoff is an exponential backoff policy */
type Backoff struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

/* DefaultBackoff returns the backoff policy used for transient failures */
func DefaultBackoff() Backoff {
	return Backoff{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

/* Delay returns the delay before the given attempt (0-based) */
func (b Backoff) Delay(attempt int) time.Duration {
	delay := b.InitialDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * b.Multiplier)
		if delay > b.MaxDelay {
			return b.MaxDelay
		}
	}
	if delay > b.MaxDelay {
		delay = b.MaxDelay
	}
	return delay
}

/* Retry runs fn up to MaxAttempts times, sleeping per the policy between
 * attempts. The context cancels the wait. */
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < b.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < b.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.Delay(attempt)):
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", b.MaxAttempts, lastErr)
}

/* Jitter returns d varied by ±fraction (e.g. 0.25 for ±25%) */
func Jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	spread := float64(d) * fraction
	return d + time.Duration(spread*(rand.Float64()*2-1))
}

/* Periodic runs a function on a jittered interval until stopped */
type Periodic struct {
	name     string
	interval time.Duration
	jitter   float64
	task     func(context.Context)
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

/* NewPeriodic creates a periodic task. jitterFraction of 0 disables jitter. */
func NewPeriodic(name string, interval time.Duration, jitterFraction float64, task func(context.Context)) *Periodic {
	ctx, cancel := context.WithCancel(context.Background())
	return &Periodic{
		name:     name,
		interval: interval,
		jitter:   jitterFraction,
		task:     task,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

/* Start starts the task loop */
func (p *Periodic) Start() {
	p.started = true
	go p.run()
}

/* Stop stops scheduling new runs and waits for the loop to exit. An
 * in-flight run is not interrupted beyond context cancellation. Stopping
 * a task that was never started returns immediately. */
func (p *Periodic) Stop() {
	p.cancel()
	if !p.started {
		return
	}
	<-p.done
}

func (p *Periodic) run() {
	defer close(p.done)

	/* Run once on start, then on the jittered interval */
	p.safeRun()

	for {
		timer := time.NewTimer(Jitter(p.interval, p.jitter))
		select {
		case <-p.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			p.safeRun()
		}
	}
}

/* safeRun keeps one run's panic from killing the scheduling loop */
func (p *Periodic) safeRun() {
	defer func() {
		if r := recover(); r != nil {
			metrics.ErrorWithContext(p.ctx, "Panic in periodic task", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"task": p.name,
			})
		}
	}()

	p.task(p.ctx)
}
