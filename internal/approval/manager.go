/*-------------------------------------------------------------------------
 *
 * manager.go
 *    Approval pipeline manager
 *
 * Owns the lifecycle of outbound actions: generators enqueue candidates,
 * reviewers decide via webhook or directly in the durable store, and the
 * manager reconciles decisions into exactly-once platform executions.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/approval/manager.go
 *
 *-------------------------------------------------------------------------
 */

package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/perchlabs/PerchAgent/internal/metrics"
	"github.com/perchlabs/PerchAgent/internal/scheduler"
	"github.com/perchlabs/PerchAgent/internal/utils"
)

/* Executor carries an approved request to the platform. It owns the
 * approved -> sent|error transition and the ledger appends, guarded so a
 * request executes at most once even when webhook and poller race. */
type Executor interface {
	Execute(ctx context.Context, req *Request) error
}

/* Notifier announces a newly queued request to an external review surface.
 * Delivery is best-effort; failures never block the enqueue. */
type Notifier interface {
	NotifyEnqueued(ctx context.Context, req *Request) error
}

/* ManagerConfig tunes the pipeline */
type ManagerConfig struct {
	PollInterval  time.Duration /* how often to sweep the store for decisions */
	RecencyWindow time.Duration /* how far back a sweep looks */
}

/* DefaultManagerConfig returns the standard pipeline tuning */
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		PollInterval:  30 * time.Second,
		RecencyWindow: time.Hour,
	}
}

/* Manager coordinates the approval pipeline */
type Manager struct {
	store    DecisionStore
	cache    *PendingCache
	executor Executor
	notifier Notifier
	config   ManagerConfig
	poller   *scheduler.Periodic
}

/* NewManager creates a pipeline manager. notifier may be nil when no
 * review surface wants enqueue pings. */
func NewManager(store DecisionStore, cache *PendingCache, executor Executor, notifier Notifier, config ManagerConfig) *Manager {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultManagerConfig().PollInterval
	}
	if config.RecencyWindow <= 0 {
		config.RecencyWindow = DefaultManagerConfig().RecencyWindow
	}
	m := &Manager{
		store:    store,
		cache:    cache,
		executor: executor,
		notifier: notifier,
		config:   config,
	}
	m.poller = scheduler.NewPeriodic("approval-poller", config.PollInterval, 0.1, func(ctx context.Context) {
		if err := m.PollForDecisions(ctx); err != nil {
			metrics.ErrorWithContext(ctx, "Decision poll failed", err, nil)
		}
	})
	return m
}

/* Enqueue validates a candidate, applies dedupe, and durably records it as
 * a pending approval request. A nil request with nil error means the
 * candidate was suppressed as a duplicate. */
func (m *Manager) Enqueue(ctx context.Context, candidate Candidate) (*Request, error) {
	if !candidate.Kind.IsValid() {
		metrics.RecordEnqueue(string(candidate.Kind), "invalid")
		return nil, fmt.Errorf("unknown action kind %q", candidate.Kind)
	}
	if candidate.Kind.IsTargetBound() && candidate.TargetRef == "" {
		metrics.RecordEnqueue(string(candidate.Kind), "invalid")
		return nil, fmt.Errorf("action kind %s requires a target ref", candidate.Kind)
	}
	if candidate.Content == "" && candidate.Kind != KindLike && candidate.Kind != KindRetweet {
		metrics.RecordEnqueue(string(candidate.Kind), "invalid")
		return nil, fmt.Errorf("action kind %s requires content", candidate.Kind)
	}

	if candidate.Kind.IsTargetBound() {
		exists, err := m.store.ActiveExists(ctx, candidate.Kind, candidate.TargetRef)
		if err != nil {
			return nil, &StoreError{Op: "dedupe lookup", Err: err}
		}
		if exists {
			metrics.RecordEnqueue(string(candidate.Kind), "duplicate")
			metrics.DebugWithContext(ctx, "Suppressed duplicate candidate", map[string]interface{}{
				"kind":       string(candidate.Kind),
				"target_ref": candidate.TargetRef,
			})
			return nil, nil
		}
	}
	if candidate.Kind == KindReply || candidate.Kind == KindMention {
		replied, err := m.store.SentReplyExists(ctx, candidate.TargetRef)
		if err != nil {
			return nil, &StoreError{Op: "replied lookup", Err: err}
		}
		if replied {
			metrics.RecordEnqueue(string(candidate.Kind), "duplicate")
			return nil, nil
		}
	}

	req := &Request{
		ID:        utils.GenerateApprovalID(),
		Kind:      candidate.Kind,
		Content:   candidate.Content,
		TargetRef: candidate.TargetRef,
		Context:   candidate.Context,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	if err := m.store.Create(ctx, req); err != nil {
		if errors.Is(err, ErrDuplicate) {
			metrics.RecordEnqueue(string(candidate.Kind), "duplicate")
			metrics.DebugWithContext(ctx, "Suppressed duplicate candidate on insert", map[string]interface{}{
				"kind":       string(candidate.Kind),
				"target_ref": candidate.TargetRef,
			})
			return nil, nil
		}
		metrics.RecordEnqueue(string(candidate.Kind), "error")
		return nil, &StoreError{Op: "create", Err: err}
	}
	m.cache.Set(req)
	metrics.RecordEnqueue(string(candidate.Kind), "queued")

	if m.notifier != nil {
		if err := m.notifier.NotifyEnqueued(ctx, req); err != nil {
			metrics.WarnWithContext(ctx, "Enqueue notification failed", map[string]interface{}{
				"approval_id": req.ID,
				"error":       err.Error(),
			})
		}
	}

	metrics.InfoWithContext(ctx, "Queued action for approval", map[string]interface{}{
		"approval_id": req.ID,
		"kind":        string(req.Kind),
		"target_ref":  req.TargetRef,
	})
	return req, nil
}

/* HandleDecision applies an external verdict to a request. Unknown ids
 * return ErrNotFound; a verdict for a request already past pending is a
 * silent no-op so webhook and poller can race without harm. */
func (m *Manager) HandleDecision(ctx context.Context, id string, approved bool, modifiedContent, reviewer, reason string) error {
	ctx = metrics.WithApprovalLogContext(ctx, id)

	req := m.cache.Get(id)
	if req == nil {
		var err error
		req, err = m.store.Get(ctx, id)
		if err != nil {
			if err == ErrNotFound {
				return ErrNotFound
			}
			return &StoreError{Op: "get", Err: err}
		}
	}
	if req.Status.IsTerminal() {
		m.cache.Delete(id)
		metrics.DebugWithContext(ctx, "Ignoring decision for settled request", map[string]interface{}{
			"status": string(req.Status),
		})
		return nil
	}

	if !approved {
		changed, err := m.store.MarkRejected(ctx, id, reviewer, reason)
		if err != nil {
			return &StoreError{Op: "mark rejected", Err: err}
		}
		if changed {
			m.cache.Delete(id)
			metrics.RecordDecision(string(req.Kind), "rejected")
			metrics.InfoWithContext(ctx, "Request rejected", map[string]interface{}{
				"kind":     string(req.Kind),
				"reviewer": reviewer,
				"reason":   reason,
			})
		}
		return nil
	}

	changed, err := m.store.MarkApproved(ctx, id, modifiedContent, reviewer)
	if err != nil {
		return &StoreError{Op: "mark approved", Err: err}
	}
	if !changed {
		/* someone else decided first */
		return nil
	}
	metrics.RecordDecision(string(req.Kind), "approved")

	if modifiedContent != "" {
		req.ModifiedContent = modifiedContent
	}
	req.Status = StatusApproved
	req.Reviewer = reviewer

	defer m.cache.Delete(id)
	return m.executor.Execute(ctx, req)
}

/* PollForDecisions sweeps the durable store for verdicts written there
 * directly, reconciling them in store order. One failing row is logged
 * and skipped so the rest of the batch still settles. */
func (m *Manager) PollForDecisions(ctx context.Context) error {
	start := time.Now()

	resolved, err := m.store.ListResolved(ctx, m.config.RecencyWindow)
	if err != nil {
		metrics.RecordPollCycle("error", time.Since(start))
		return &StoreError{Op: "list resolved", Err: err}
	}

	for _, req := range resolved {
		if err := m.reconcile(ctx, req); err != nil {
			metrics.ErrorWithContext(ctx, "Failed to reconcile decided request", err, map[string]interface{}{
				"approval_id": req.ID,
				"status":      string(req.Status),
			})
		}
	}

	/* refresh the pending gauge from the store each sweep */
	if pending, err := m.store.CountPending(ctx); err == nil {
		metrics.SetPendingApprovals(pending)
	}

	metrics.RecordPollCycle("success", time.Since(start))
	return nil
}

func (m *Manager) reconcile(ctx context.Context, req *Request) error {
	ctx = metrics.WithApprovalLogContext(ctx, req.ID)

	switch req.Status {
	case StatusRejected:
		if m.cache.Get(req.ID) != nil {
			m.cache.Delete(req.ID)
			metrics.RecordDecision(string(req.Kind), "rejected")
		}
		return nil
	case StatusApproved:
		if m.cache.Get(req.ID) != nil {
			metrics.RecordDecision(string(req.Kind), "approved")
		}
		defer m.cache.Delete(req.ID)
		return m.executor.Execute(ctx, req)
	default:
		return nil
	}
}

/* PendingCount returns the number of undecided requests in the store */
func (m *Manager) PendingCount(ctx context.Context) (int, error) {
	return m.store.CountPending(ctx)
}

/* List returns requests in the given status, newest first */
func (m *Manager) List(ctx context.Context, status Status, limit, offset int) ([]*Request, error) {
	return m.store.ListByStatus(ctx, status, limit, offset)
}

/* Get returns a single request by id */
func (m *Manager) Get(ctx context.Context, id string) (*Request, error) {
	if req := m.cache.Get(id); req != nil {
		return req, nil
	}
	return m.store.Get(ctx, id)
}

/* StartPolling begins the periodic decision sweep */
func (m *Manager) StartPolling() {
	m.poller.Start()
}

/* StopPolling halts the periodic decision sweep */
func (m *Manager) StopPolling() {
	m.poller.Stop()
}
