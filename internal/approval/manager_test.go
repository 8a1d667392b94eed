/*-------------------------------------------------------------------------
 *
 * manager_test.go
 *    Tests for the approval pipeline manager
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/approval/manager_test.go
 *
 *-------------------------------------------------------------------------
 */

package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* fakeExecutor settles requests the way the real executor does, without
 * touching a platform */
type fakeExecutor struct {
	store    DecisionStore
	failIDs  map[string]bool
	executed []string
}

func newFakeExecutor(store DecisionStore) *fakeExecutor {
	return &fakeExecutor{store: store, failIDs: make(map[string]bool)}
}

func (f *fakeExecutor) Execute(ctx context.Context, req *Request) error {
	f.executed = append(f.executed, req.ID)

	if f.failIDs[req.ID] {
		f.store.MarkError(ctx, req.ID, "simulated platform failure")
		return &ExecutionError{Kind: req.Kind, ID: req.ID, Reason: "simulated platform failure"}
	}

	resultRef := "result-" + req.ID
	changed, err := f.store.MarkSent(ctx, req.ID, resultRef)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if req.Kind == KindPost {
		return f.store.AppendSentPost(ctx, req, resultRef)
	}
	return f.store.AppendSentInteraction(ctx, req, resultRef)
}

func newTestManager(t *testing.T) (*Manager, *MemoryStore, *fakeExecutor) {
	t.Helper()
	store := NewMemoryStore()
	cache := NewPendingCache(time.Minute)
	t.Cleanup(cache.Close)
	exec := newFakeExecutor(store)
	mgr := NewManager(store, cache, exec, nil, ManagerConfig{
		PollInterval:  time.Hour,
		RecencyWindow: time.Hour,
	})
	return mgr, store, exec
}

func TestEnqueueCreatesPendingRequest(t *testing.T) {
	mgr, store, _ := newTestManager(t)
	ctx := context.Background()

	req, err := mgr.Enqueue(ctx, Candidate{Kind: KindPost, Content: "hello world"})
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, StatusPending, req.Status)

	stored, err := store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", stored.Content)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestEnqueueRejectsInvalidCandidates(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Enqueue(ctx, Candidate{Kind: "shout", Content: "hi"})
	assert.Error(t, err)

	_, err = mgr.Enqueue(ctx, Candidate{Kind: KindReply, Content: "hi"})
	assert.Error(t, err, "reply without a target should be refused")

	_, err = mgr.Enqueue(ctx, Candidate{Kind: KindPost})
	assert.Error(t, err, "post without content should be refused")

	_, err = mgr.Enqueue(ctx, Candidate{Kind: KindLike, TargetRef: "12345"})
	assert.NoError(t, err, "likes carry no content")
}

func TestEnqueueSuppressesDuplicateTarget(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	first, err := mgr.Enqueue(ctx, Candidate{Kind: KindReply, Content: "first", TargetRef: "tweet-1"})
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := mgr.Enqueue(ctx, Candidate{Kind: KindReply, Content: "second", TargetRef: "tweet-1"})
	require.NoError(t, err)
	assert.Nil(t, second, "active request for the same target must suppress the candidate")
}

/* blindDedupeStore never sees an active row in the dedupe lookup, so a
 * concurrent enqueue for the same target only collides at insert time */
type blindDedupeStore struct {
	*MemoryStore
}

func (s *blindDedupeStore) ActiveExists(ctx context.Context, kind ActionKind, targetRef string) (bool, error) {
	return false, nil
}

func TestEnqueueInsertCollisionSuppressed(t *testing.T) {
	store := &blindDedupeStore{MemoryStore: NewMemoryStore()}
	cache := NewPendingCache(time.Minute)
	t.Cleanup(cache.Close)
	mgr := NewManager(store, cache, newFakeExecutor(store), nil, ManagerConfig{
		PollInterval:  time.Hour,
		RecencyWindow: time.Hour,
	})
	ctx := context.Background()

	first, err := mgr.Enqueue(ctx, Candidate{Kind: KindReply, Content: "first", TargetRef: "tweet-7"})
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := mgr.Enqueue(ctx, Candidate{Kind: KindReply, Content: "second", TargetRef: "tweet-7"})
	require.NoError(t, err, "an insert collision is a suppressed duplicate, not a failure")
	assert.Nil(t, second)
}

func TestEnqueueSuppressesAlreadyRepliedTarget(t *testing.T) {
	mgr, store, exec := newTestManager(t)
	ctx := context.Background()

	first, err := mgr.Enqueue(ctx, Candidate{Kind: KindMention, Content: "hi", TargetRef: "tweet-2"})
	require.NoError(t, err)
	require.NoError(t, mgr.HandleDecision(ctx, first.ID, true, "", "reviewer", ""))
	require.Len(t, exec.executed, 1)
	require.Len(t, store.SentInteractions(), 1)

	/* the sent row is terminal but the interactions ledger still blocks
	 * a second reply to the same tweet */
	again, err := mgr.Enqueue(ctx, Candidate{Kind: KindReply, Content: "hi again", TargetRef: "tweet-2"})
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestHandleDecisionUnknownID(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	err := mgr.HandleDecision(context.Background(), "never-created", true, "", "reviewer", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandleDecisionReject(t *testing.T) {
	mgr, store, exec := newTestManager(t)
	ctx := context.Background()

	req, err := mgr.Enqueue(ctx, Candidate{Kind: KindPost, Content: "draft"})
	require.NoError(t, err)

	require.NoError(t, mgr.HandleDecision(ctx, req.ID, false, "", "alex", "off brand"))

	stored, err := store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, stored.Status)
	assert.Equal(t, "alex", stored.Reviewer)
	assert.Equal(t, "off brand", stored.Reason)
	assert.Empty(t, exec.executed, "rejected requests never reach the platform")
	assert.Empty(t, store.SentPosts())
}

func TestHandleDecisionApproveExecutes(t *testing.T) {
	mgr, store, exec := newTestManager(t)
	ctx := context.Background()

	req, err := mgr.Enqueue(ctx, Candidate{Kind: KindPost, Content: "ship it"})
	require.NoError(t, err)

	require.NoError(t, mgr.HandleDecision(ctx, req.ID, true, "", "alex", ""))

	stored, err := store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, stored.Status)
	assert.Equal(t, "result-"+req.ID, stored.ResultRef)
	assert.Equal(t, []string{req.ID}, exec.executed)
	require.Len(t, store.SentPosts(), 1)
}

func TestHandleDecisionModifiedContentSupersedes(t *testing.T) {
	mgr, store, _ := newTestManager(t)
	ctx := context.Background()

	req, err := mgr.Enqueue(ctx, Candidate{Kind: KindPost, Content: "orig"})
	require.NoError(t, err)

	require.NoError(t, mgr.HandleDecision(ctx, req.ID, true, "edited by reviewer", "alex", ""))

	stored, err := store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited by reviewer", stored.ModifiedContent)
	assert.Equal(t, "edited by reviewer", stored.EffectiveContent())
}

func TestHandleDecisionIdempotent(t *testing.T) {
	mgr, _, exec := newTestManager(t)
	ctx := context.Background()

	req, err := mgr.Enqueue(ctx, Candidate{Kind: KindPost, Content: "once"})
	require.NoError(t, err)

	require.NoError(t, mgr.HandleDecision(ctx, req.ID, true, "", "alex", ""))
	require.NoError(t, mgr.HandleDecision(ctx, req.ID, true, "", "sam", ""))
	require.NoError(t, mgr.HandleDecision(ctx, req.ID, false, "", "sam", "changed my mind"))

	assert.Len(t, exec.executed, 1, "a settled request must not execute again")
}

func TestPollReconcilesStoreDecisions(t *testing.T) {
	mgr, store, exec := newTestManager(t)
	ctx := context.Background()

	approved, err := mgr.Enqueue(ctx, Candidate{Kind: KindPost, Content: "a"})
	require.NoError(t, err)
	rejected, err := mgr.Enqueue(ctx, Candidate{Kind: KindPost, Content: "b"})
	require.NoError(t, err)

	/* reviewer writes verdicts straight into the store */
	store.SetStatus(approved.ID, StatusApproved)
	store.SetStatus(rejected.ID, StatusRejected)

	require.NoError(t, mgr.PollForDecisions(ctx))

	assert.Equal(t, []string{approved.ID}, exec.executed)

	row, err := store.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, row.Status)

	row, err = store.Get(ctx, rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, row.Status)
}

func TestPollContainsPerRowFailures(t *testing.T) {
	mgr, store, exec := newTestManager(t)
	ctx := context.Background()

	broken, err := mgr.Enqueue(ctx, Candidate{Kind: KindPost, Content: "will fail"})
	require.NoError(t, err)
	healthy, err := mgr.Enqueue(ctx, Candidate{Kind: KindPost, Content: "will send"})
	require.NoError(t, err)

	exec.failIDs[broken.ID] = true
	store.SetStatus(broken.ID, StatusApproved)
	store.SetStatus(healthy.ID, StatusApproved)

	require.NoError(t, mgr.PollForDecisions(ctx), "a failing row must not abort the sweep")
	assert.Equal(t, []string{broken.ID, healthy.ID}, exec.executed)

	row, err := store.Get(ctx, broken.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusError, row.Status)

	row, err = store.Get(ctx, healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, row.Status)
}

func TestPollRepeatSweepIsNoOp(t *testing.T) {
	mgr, store, exec := newTestManager(t)
	ctx := context.Background()

	req, err := mgr.Enqueue(ctx, Candidate{Kind: KindPost, Content: "solo"})
	require.NoError(t, err)
	store.SetStatus(req.ID, StatusApproved)

	require.NoError(t, mgr.PollForDecisions(ctx))
	require.NoError(t, mgr.PollForDecisions(ctx))
	require.NoError(t, mgr.PollForDecisions(ctx))

	assert.Len(t, exec.executed, 1)
	assert.Len(t, store.SentPosts(), 1, "repeated sweeps must not duplicate ledger rows")
}

func TestCacheSeedAndExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		require.NoError(t, store.Create(ctx, &Request{
			ID: id, Kind: KindPost, Content: "x", Status: StatusPending, CreatedAt: time.Now(),
		}))
	}

	cache := NewPendingCache(50 * time.Millisecond)
	defer cache.Close()

	n, err := cache.Seed(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NotNil(t, cache.Get("a"))

	time.Sleep(80 * time.Millisecond)
	assert.Nil(t, cache.Get("a"), "entries expire after the TTL")
}

func TestRequestRoundTripThroughStore(t *testing.T) {
	mgr, store, _ := newTestManager(t)
	ctx := context.Background()

	req, err := mgr.Enqueue(ctx, Candidate{
		Kind:      KindReply,
		Content:   "thanks!",
		TargetRef: "tweet-9",
		Context: map[string]interface{}{
			"author_username": "someone",
			"conversation_id": "conv-1",
		},
	})
	require.NoError(t, err)

	stored, err := store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.Kind, stored.Kind)
	assert.Equal(t, req.TargetRef, stored.TargetRef)
	assert.Equal(t, "someone", stored.Context["author_username"])
	assert.Equal(t, "conv-1", stored.Context["conversation_id"])
}
