/*-------------------------------------------------------------------------
 *
 * executor_test.go
 *    Tests for the approved action executor
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/executor/executor_test.go
 *
 *-------------------------------------------------------------------------
 */

package executor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchlabs/PerchAgent/internal/approval"
	"github.com/perchlabs/PerchAgent/internal/platform"
	"github.com/perchlabs/PerchAgent/internal/scheduler"
)

func fastBackoff() scheduler.Backoff {
	return scheduler.Backoff{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func newTestExecutor(t *testing.T, connect bool) (*Executor, *approval.MemoryStore, *platform.Session) {
	t.Helper()

	store := approval.NewMemoryStore()
	session := platform.NewSession(platform.SessionConfig{
		Username: "perch_agent",
		DryRun:   true,
	})
	if connect {
		require.NoError(t, session.Connect(context.Background()))
	}

	exec := New(store, session, platform.NewRequestQueue(time.Millisecond, 2*time.Millisecond))
	exec.SetResolveBackoff(fastBackoff())
	return exec, store, session
}

func approvedRequest(t *testing.T, store *approval.MemoryStore, kind approval.ActionKind, content, targetRef string, reqContext map[string]interface{}) *approval.Request {
	t.Helper()

	req := &approval.Request{
		ID:        "req-" + string(kind),
		Kind:      kind,
		Content:   content,
		TargetRef: targetRef,
		Context:   reqContext,
		Status:    approval.StatusPending,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Create(context.Background(), req))
	changed, err := store.MarkApproved(context.Background(), req.ID, "", "reviewer")
	require.NoError(t, err)
	require.True(t, changed)
	req.Status = approval.StatusApproved
	return req
}

func TestExecutePostSettlesSent(t *testing.T) {
	exec, store, _ := newTestExecutor(t, true)
	ctx := context.Background()

	req := approvedRequest(t, store, approval.KindPost, "hello", "", nil)
	require.NoError(t, exec.Execute(ctx, req))

	row, err := store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusSent, row.Status)
	assert.NotEmpty(t, row.ResultRef)
	assert.Len(t, store.SentPosts(), 1)
	assert.Empty(t, store.SentInteractions())
}

func TestExecuteReplyRecordsInteraction(t *testing.T) {
	exec, store, _ := newTestExecutor(t, true)
	ctx := context.Background()

	req := approvedRequest(t, store, approval.KindReply, "good point", "tweet-1", map[string]interface{}{
		"author_username": "somebody",
	})
	require.NoError(t, exec.Execute(ctx, req))

	row, err := store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusSent, row.Status)
	assert.Len(t, store.SentInteractions(), 1)
	assert.Empty(t, store.SentPosts())
}

func TestExecuteLikeNeedsNoContent(t *testing.T) {
	exec, store, _ := newTestExecutor(t, true)
	ctx := context.Background()

	req := approvedRequest(t, store, approval.KindLike, "", "tweet-2", nil)
	require.NoError(t, exec.Execute(ctx, req))

	row, err := store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusSent, row.Status)
	assert.Equal(t, "tweet-2", row.ResultRef)
}

func TestExecuteWithoutSessionSettlesError(t *testing.T) {
	exec, store, _ := newTestExecutor(t, false)
	ctx := context.Background()

	req := approvedRequest(t, store, approval.KindPost, "doomed", "", nil)

	err := exec.Execute(ctx, req)
	require.Error(t, err)
	var execErr *approval.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, err, approval.ErrExecutorUnavailable)

	row, gerr := store.Get(ctx, req.ID)
	require.NoError(t, gerr)
	assert.Equal(t, approval.StatusError, row.Status)
	assert.Empty(t, store.SentPosts())
}

func TestExecuteLosingRaceSkipsLedger(t *testing.T) {
	exec, store, _ := newTestExecutor(t, true)
	ctx := context.Background()

	req := approvedRequest(t, store, approval.KindPost, "raced", "", nil)

	/* another executor settled the row first */
	changed, err := store.MarkSent(ctx, req.ID, "winner-result")
	require.NoError(t, err)
	require.True(t, changed)

	require.NoError(t, exec.Execute(ctx, req))

	row, err := store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "winner-result", row.ResultRef, "the losing attempt must not overwrite the winner")
	assert.Empty(t, store.SentPosts(), "the losing attempt must not write the ledger")
}

/* slowPublisher counts Post calls and holds each one long enough for a
 * concurrent hand-off to arrive mid-flight */
type slowPublisher struct {
	platform.Client
	delay time.Duration

	mu    sync.Mutex
	posts int
}

func (c *slowPublisher) Post(ctx context.Context, content string) (*platform.Result, error) {
	c.mu.Lock()
	c.posts++
	n := c.posts
	c.mu.Unlock()

	time.Sleep(c.delay)
	return &platform.Result{ID: fmt.Sprintf("slow-%d", n)}, nil
}

func (c *slowPublisher) postCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posts
}

func TestDecisionAndPollRacePublishOnce(t *testing.T) {
	ctx := context.Background()

	store := approval.NewMemoryStore()
	cache := approval.NewPendingCache(time.Minute)
	t.Cleanup(cache.Close)

	publisher := &slowPublisher{delay: 200 * time.Millisecond}
	session := platform.NewSession(platform.SessionConfig{Username: "perch_agent"})
	session.SetClient(publisher)

	exec := New(store, session, platform.NewRequestQueue(time.Millisecond, 2*time.Millisecond))
	exec.SetResolveBackoff(fastBackoff())
	mgr := approval.NewManager(store, cache, exec, nil, approval.ManagerConfig{
		PollInterval:  time.Hour,
		RecencyWindow: time.Hour,
	})

	req, err := mgr.Enqueue(ctx, approval.Candidate{Kind: approval.KindPost, Content: "one announcement"})
	require.NoError(t, err)
	require.NotNil(t, req)

	/* the webhook path approves and executes while the poller sweeps the
	 * same approved row from the store */
	decided := make(chan error, 1)
	go func() {
		decided <- mgr.HandleDecision(ctx, req.ID, true, "", "reviewer", "")
	}()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, mgr.PollForDecisions(ctx))
	require.NoError(t, <-decided)

	assert.Equal(t, 1, publisher.postCount(), "both hand-off paths must collapse to one publish")
	assert.Len(t, store.SentPosts(), 1)

	row, err := store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusSent, row.Status)
}

func TestRenderContentReplyPrefix(t *testing.T) {
	tests := []struct {
		name string
		req  *approval.Request
		want string
	}{
		{
			name: "reply gains author prefix",
			req: &approval.Request{
				Kind:    approval.KindReply,
				Content: "agreed",
				Context: map[string]interface{}{"author_username": "carol"},
			},
			want: "@carol agreed",
		},
		{
			name: "existing prefix not doubled",
			req: &approval.Request{
				Kind:    approval.KindReply,
				Content: "@carol agreed",
				Context: map[string]interface{}{"author_username": "carol"},
			},
			want: "@carol agreed",
		},
		{
			name: "handle mid-content counts as a reference",
			req: &approval.Request{
				Kind:    approval.KindReply,
				Content: "thanks @carol, good point",
				Context: map[string]interface{}{"author_username": "carol"},
			},
			want: "thanks @carol, good point",
		},
		{
			name: "modified content supersedes original",
			req: &approval.Request{
				Kind:            approval.KindPost,
				Content:         "draft",
				ModifiedContent: "final",
			},
			want: "final",
		},
		{
			name: "fenced generator output unwrapped",
			req: &approval.Request{
				Kind:    approval.KindPost,
				Content: "```json\n{\"text\": \"clean\"}\n```",
			},
			want: "clean",
		},
		{
			name: "post never prefixed",
			req: &approval.Request{
				Kind:    approval.KindPost,
				Content: "standalone",
				Context: map[string]interface{}{"author_username": "carol"},
			},
			want: "standalone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderContent(tt.req))
		})
	}
}
