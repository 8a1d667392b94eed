/*-------------------------------------------------------------------------
 *
 * executor.go
 *    Approved action executor
 *
 * Carries approved requests to the platform and settles them to a
 * terminal status. The webhook handler and the decision poller can hand
 * over the same request; an in-process in-flight claim plus a durable
 * status re-read before the platform call, and the status-guarded
 * approved -> sent transition behind it, collapse the hand-offs to
 * exactly one execution.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/executor/executor.go
 *
 *-------------------------------------------------------------------------
 */

package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/perchlabs/PerchAgent/internal/approval"
	"github.com/perchlabs/PerchAgent/internal/metrics"
	"github.com/perchlabs/PerchAgent/internal/platform"
	"github.com/perchlabs/PerchAgent/internal/scheduler"
)

/* Executor publishes approved requests through the platform session */
type Executor struct {
	store   approval.DecisionStore
	session *platform.Session
	queue   *platform.RequestQueue
	resolve scheduler.Backoff

	mu       sync.Mutex
	inflight map[string]struct{}
}

/* New creates an executor bound to a store and a platform session */
func New(store approval.DecisionStore, session *platform.Session, queue *platform.RequestQueue) *Executor {
	return &Executor{
		store:    store,
		session:  session,
		queue:    queue,
		resolve:  scheduler.DefaultBackoff(),
		inflight: make(map[string]struct{}),
	}
}

/* SetResolveBackoff overrides the session resolution retry policy */
func (e *Executor) SetResolveBackoff(b scheduler.Backoff) {
	e.resolve = b
}

/* Execute publishes an approved request. On success it marks the request
 * sent and appends the matching ledger row; on failure it marks the
 * request error with the failure reason. A request no longer in approved
 * status, or one whose execution is already in flight, is a no-op. */
func (e *Executor) Execute(ctx context.Context, req *approval.Request) error {
	start := time.Now()
	ctx = metrics.WithLogContext(ctx, "", req.ID, string(req.Kind), req.TargetRef)

	if !e.claim(req.ID) {
		metrics.DebugWithContext(ctx, "Execution already in flight", nil)
		return nil
	}
	defer e.release(req.ID)

	/* Re-read the durable status before the side effect. The caller may
	 * hold a row listed before the other hand-off path settled it. */
	current, err := e.store.Get(ctx, req.ID)
	if err != nil {
		return &approval.StoreError{Op: "get", Err: err}
	}
	if current.Status != approval.StatusApproved {
		metrics.DebugWithContext(ctx, "Skipping settled request", map[string]interface{}{
			"status": string(current.Status),
		})
		return nil
	}

	client, err := e.resolveClient(ctx)
	if err != nil {
		reason := "platform session unavailable"
		e.settle(ctx, req, "", reason)
		metrics.RecordExecution(string(req.Kind), "error", time.Since(start))
		return &approval.ExecutionError{Kind: req.Kind, ID: req.ID, Reason: reason, Err: err}
	}

	result, err := e.dispatch(ctx, client, req)
	if err != nil {
		e.settle(ctx, req, "", err.Error())
		metrics.RecordExecution(string(req.Kind), "error", time.Since(start))
		return &approval.ExecutionError{Kind: req.Kind, ID: req.ID, Reason: "platform call failed", Err: err}
	}

	e.settle(ctx, req, result.ID, "")
	metrics.RecordExecution(string(req.Kind), "sent", time.Since(start))
	return nil
}

/* claim registers an in-flight execution for the id. The second caller
 * to hand over the same request while the first is still talking to the
 * platform gets a no-op instead of a duplicate publish. */
func (e *Executor) claim(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[id]; busy {
		return false
	}
	e.inflight[id] = struct{}{}
	return true
}

func (e *Executor) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, id)
}

/* resolveClient fetches a live platform client, retrying with backoff
 * while the session is still coming up */
func (e *Executor) resolveClient(ctx context.Context) (platform.Client, error) {
	var client platform.Client
	err := e.resolve.Retry(ctx, func() error {
		var cerr error
		client, cerr = e.session.Client()
		return cerr
	})
	if err != nil {
		if errors.Is(err, platform.ErrNotReady) {
			return nil, approval.ErrExecutorUnavailable
		}
		return nil, err
	}
	return client, nil
}

func (e *Executor) dispatch(ctx context.Context, client platform.Client, req *approval.Request) (*platform.Result, error) {
	content := renderContent(req)

	var result *platform.Result
	err := e.queue.Do(ctx, func() error {
		var derr error
		switch req.Kind {
		case approval.KindPost:
			result, derr = client.Post(ctx, content)
		case approval.KindReply, approval.KindMention:
			result, derr = client.Reply(ctx, content, req.TargetRef)
		case approval.KindDirectMessage:
			conversationID := req.TargetRef
			if cid, ok := req.Context["conversation_id"].(string); ok && cid != "" {
				conversationID = cid
			}
			result, derr = client.DirectMessage(ctx, content, conversationID)
		case approval.KindLike:
			derr = client.Like(ctx, req.TargetRef)
			result = &platform.Result{ID: req.TargetRef}
		case approval.KindRetweet:
			derr = client.Retweet(ctx, req.TargetRef)
			result = &platform.Result{ID: req.TargetRef}
		default:
			return fmt.Errorf("unsupported action kind %q", req.Kind)
		}
		return derr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

/* settle moves the request to its terminal status and appends the ledger
 * row. The status-guarded update is what makes concurrent execution
 * attempts collapse to one: the loser sees zero rows changed and skips
 * the ledger. */
func (e *Executor) settle(ctx context.Context, req *approval.Request, resultRef, failure string) {
	if failure != "" {
		changed, err := e.store.MarkError(ctx, req.ID, failure)
		if err != nil {
			metrics.ErrorWithContext(ctx, "Failed to mark request errored", err, nil)
			return
		}
		if changed {
			metrics.WarnWithContext(ctx, "Request settled as error", map[string]interface{}{
				"reason": failure,
			})
		}
		return
	}

	changed, err := e.store.MarkSent(ctx, req.ID, resultRef)
	if err != nil {
		metrics.ErrorWithContext(ctx, "Failed to mark request sent", err, nil)
		return
	}
	if !changed {
		/* lost the race; the winner wrote the ledger */
		return
	}

	req.Status = approval.StatusSent
	req.ResultRef = resultRef

	var lerr error
	if req.Kind == approval.KindPost {
		lerr = e.store.AppendSentPost(ctx, req, resultRef)
	} else {
		lerr = e.store.AppendSentInteraction(ctx, req, resultRef)
	}
	if lerr != nil {
		metrics.ErrorWithContext(ctx, "Failed to append ledger row", lerr, map[string]interface{}{
			"result_ref": resultRef,
		})
	}

	metrics.InfoWithContext(ctx, "Request executed", map[string]interface{}{
		"result_ref": resultRef,
	})
}

/* renderContent produces the text to publish: the reviewer's replacement
 * wins over the original, generator output wrapped in a JSON code fence
 * is unwrapped, and replies to mentions lead with the author's handle. */
func renderContent(req *approval.Request) string {
	content := approval.ExtractText(req.EffectiveContent())

	if req.Kind == approval.KindReply || req.Kind == approval.KindMention {
		if author, ok := req.Context["author_username"].(string); ok && author != "" {
			handle := "@" + strings.TrimPrefix(author, "@")
			if !strings.Contains(content, handle) {
				content = handle + " " + content
			}
		}
	}
	return content
}
