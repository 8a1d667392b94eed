/*-------------------------------------------------------------------------
 *
 * generators_test.go
 *    Tests for the post generator and mention scanner
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/generators/generators_test.go
 *
 *-------------------------------------------------------------------------
 */

package generators

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchlabs/PerchAgent/internal/approval"
	"github.com/perchlabs/PerchAgent/internal/platform"
)

/* cannedGenerator returns a fixed string for every prompt */
type cannedGenerator struct {
	text  string
	calls int
}

func (g *cannedGenerator) GenerateText(ctx context.Context, state string) (string, error) {
	g.calls++
	return g.text, nil
}

/* stubClient serves fixed mentions and timeline */
type stubClient struct {
	platform.Client
	mentions []*platform.Tweet
	timeline []*platform.Tweet
}

func (c *stubClient) Timeline(ctx context.Context, count int) ([]*platform.Tweet, error) {
	return c.timeline, nil
}

func (c *stubClient) Mentions(ctx context.Context, count int) ([]*platform.Tweet, error) {
	return c.mentions, nil
}

type noopExecutor struct{}

func (noopExecutor) Execute(ctx context.Context, req *approval.Request) error { return nil }

func newTestPipeline(t *testing.T) (*approval.Manager, *approval.MemoryStore) {
	t.Helper()
	store := approval.NewMemoryStore()
	cache := approval.NewPendingCache(time.Minute)
	t.Cleanup(cache.Close)
	mgr := approval.NewManager(store, cache, noopExecutor{}, nil, approval.ManagerConfig{
		PollInterval:  time.Hour,
		RecencyWindow: time.Hour,
	})
	return mgr, store
}

func testPersona() Persona {
	return Persona{
		Name:     "Perch",
		Username: "perch_agent",
		Bio:      "a curious bird",
		Topics:   []string{"rivers", "fish"},
	}
}

func TestPosterEnqueuesGeneratedPost(t *testing.T) {
	mgr, store := newTestPipeline(t)
	session := platform.NewSession(platform.SessionConfig{Username: "perch_agent", DryRun: true})
	require.NoError(t, session.Connect(context.Background()))

	gen := &cannedGenerator{text: "fresh thoughts about rivers"}
	poster := NewPoster(mgr, session, PromptComposer{}, gen, testPersona(), PosterConfig{})

	require.NoError(t, poster.GenerateOnce(context.Background()))

	pending, err := store.ListByStatus(context.Background(), approval.StatusPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, approval.KindPost, pending[0].Kind)
	assert.Equal(t, "fresh thoughts about rivers", pending[0].Content)
}

func TestPosterUnwrapsFencedGeneratorOutput(t *testing.T) {
	mgr, store := newTestPipeline(t)
	session := platform.NewSession(platform.SessionConfig{Username: "perch_agent", DryRun: true})
	require.NoError(t, session.Connect(context.Background()))

	gen := &cannedGenerator{text: "```json\n{\"text\": \"the real post\"}\n```"}
	poster := NewPoster(mgr, session, PromptComposer{}, gen, testPersona(), PosterConfig{})

	require.NoError(t, poster.GenerateOnce(context.Background()))

	pending, err := store.ListByStatus(context.Background(), approval.StatusPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "the real post", pending[0].Content)
}

func TestPosterDraftsWithoutSession(t *testing.T) {
	mgr, store := newTestPipeline(t)
	session := platform.NewSession(platform.SessionConfig{Username: "perch_agent"})

	gen := &cannedGenerator{text: "no timeline needed"}
	poster := NewPoster(mgr, session, PromptComposer{}, gen, testPersona(), PosterConfig{})

	require.NoError(t, poster.GenerateOnce(context.Background()))

	pending, err := store.ListByStatus(context.Background(), approval.StatusPending, 0, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func newScannerWithMentions(t *testing.T, mgr *approval.Manager, mentions []*platform.Tweet, config ScannerConfig) *Scanner {
	t.Helper()
	session := platform.NewSession(platform.SessionConfig{Username: "perch_agent"})
	session.SetClient(&stubClient{mentions: mentions})

	gen := &cannedGenerator{text: "thanks for the mention"}
	return NewScanner(mgr, session, PromptComposer{}, gen, testPersona(), config)
}

func mention(id, username, text string) *platform.Tweet {
	return &platform.Tweet{
		ID:             id,
		Text:           text,
		Username:       username,
		Name:           username,
		ConversationID: "conv-" + id,
		PermanentURL:   "https://x.com/" + username + "/status/" + id,
		Timestamp:      time.Now(),
	}
}

func TestScannerProbabilitySplit(t *testing.T) {
	mgr, store := newTestPipeline(t)
	scanner := newScannerWithMentions(t, mgr, []*platform.Tweet{
		mention("t1", "alice", "hey @perch_agent"),
		mention("t2", "bob", "yo @perch_agent"),
		mention("t3", "carol", "hi @perch_agent"),
		mention("t4", "dave", "@perch_agent thoughts?"),
	}, ScannerConfig{
		LikeProbability:    0.3,
		RetweetProbability: 0.2,
		ReplyProbability:   0.3,
	})

	rolls := []float64{0.1, 0.4, 0.7, 0.9}
	i := 0
	scanner.roll = func() float64 { r := rolls[i]; i++; return r }

	require.NoError(t, scanner.ScanOnce(context.Background()))

	pending, err := store.ListByStatus(context.Background(), approval.StatusPending, 0, 0)
	require.NoError(t, err)

	kinds := map[string]approval.ActionKind{}
	for _, req := range pending {
		kinds[req.TargetRef] = req.Kind
	}
	assert.Equal(t, approval.KindLike, kinds["t1"])
	assert.Equal(t, approval.KindRetweet, kinds["t2"])
	assert.Equal(t, approval.KindReply, kinds["t3"])
	_, decided := kinds["t4"]
	assert.False(t, decided, "a roll above the split ignores the mention")
}

func TestScannerSkipsOwnPosts(t *testing.T) {
	mgr, store := newTestPipeline(t)
	scanner := newScannerWithMentions(t, mgr, []*platform.Tweet{
		mention("t1", "perch_agent", "talking to myself"),
	}, ScannerConfig{LikeProbability: 1.0})
	scanner.roll = func() float64 { return 0 }

	require.NoError(t, scanner.ScanOnce(context.Background()))

	pending, err := store.ListByStatus(context.Background(), approval.StatusPending, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestScannerRescanDeduped(t *testing.T) {
	mgr, store := newTestPipeline(t)
	scanner := newScannerWithMentions(t, mgr, []*platform.Tweet{
		mention("t1", "alice", "hey @perch_agent"),
	}, ScannerConfig{LikeProbability: 1.0})
	scanner.roll = func() float64 { return 0 }

	require.NoError(t, scanner.ScanOnce(context.Background()))
	require.NoError(t, scanner.ScanOnce(context.Background()))

	pending, err := store.ListByStatus(context.Background(), approval.StatusPending, 0, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "rescanning the same mention must not enqueue twice")
}

func TestScannerReplyCarriesMentionContext(t *testing.T) {
	mgr, store := newTestPipeline(t)
	scanner := newScannerWithMentions(t, mgr, []*platform.Tweet{
		mention("t9", "alice", "what do you think @perch_agent?"),
	}, ScannerConfig{ReplyProbability: 1.0})
	scanner.roll = func() float64 { return 0 }

	require.NoError(t, scanner.ScanOnce(context.Background()))

	pending, err := store.ListByStatus(context.Background(), approval.StatusPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	req := pending[0]
	assert.Equal(t, approval.KindReply, req.Kind)
	assert.Equal(t, "t9", req.TargetRef)
	assert.Equal(t, "alice", req.Context["author_username"])
	assert.Equal(t, "what do you think @perch_agent?", req.Context["original_text"])
	assert.Equal(t, "conv-t9", req.Context["conversation_id"])
}

func TestPromptComposerIncludesPersonaAndTimeline(t *testing.T) {
	state, err := PromptComposer{}.ComposeState(context.Background(), testPersona(), "do the thing", []*platform.Tweet{
		mention("t1", "alice", "rivers are nice"),
	})
	require.NoError(t, err)

	assert.Contains(t, state, "Perch")
	assert.Contains(t, state, "@perch_agent")
	assert.Contains(t, state, "rivers are nice")
	assert.Contains(t, state, "do the thing")
}
