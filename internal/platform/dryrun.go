/*-------------------------------------------------------------------------
 *
 * dryrun.go
 *    Recording platform client for dry runs
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/platform/dryrun.go
 *
 *-------------------------------------------------------------------------
 */

package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

/* RecordedAction is one action captured by the dry-run client */
type RecordedAction struct {
	Operation string
	Content   string
	TargetID  string
	Timestamp time.Time
}

/* DryRunClient records actions instead of publishing them */
type DryRunClient struct {
	mu       sync.Mutex
	username string
	seq      int
	actions  []RecordedAction
}

/* NewDryRunClient creates a recording client acting as username */
func NewDryRunClient(username string) *DryRunClient {
	return &DryRunClient{username: username}
}

func (c *DryRunClient) Post(ctx context.Context, content string) (*Result, error) {
	return c.record("post", content, ""), nil
}

func (c *DryRunClient) Reply(ctx context.Context, content, targetID string) (*Result, error) {
	return c.record("reply", content, targetID), nil
}

func (c *DryRunClient) DirectMessage(ctx context.Context, content, conversationID string) (*Result, error) {
	return c.record("direct_message", content, conversationID), nil
}

func (c *DryRunClient) Like(ctx context.Context, targetID string) error {
	c.record("like", "", targetID)
	return nil
}

func (c *DryRunClient) Retweet(ctx context.Context, targetID string) error {
	c.record("retweet", "", targetID)
	return nil
}

func (c *DryRunClient) Timeline(ctx context.Context, count int) ([]*Tweet, error) {
	return nil, nil
}

func (c *DryRunClient) Mentions(ctx context.Context, count int) ([]*Tweet, error) {
	return nil, nil
}

/* Actions returns a copy of everything recorded so far */
func (c *DryRunClient) Actions() []RecordedAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RecordedAction(nil), c.actions...)
}

func (c *DryRunClient) record(operation, content, targetID string) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.actions = append(c.actions, RecordedAction{
		Operation: operation,
		Content:   content,
		TargetID:  targetID,
		Timestamp: time.Now(),
	})
	log.Info().
		Str("operation", operation).
		Str("target_id", targetID).
		Str("username", c.username).
		Msg("Dry run: action recorded, not published")

	id := fmt.Sprintf("dry-run-%d", c.seq)
	return &Result{
		ID:           id,
		PermanentURL: fmt.Sprintf("https://x.com/%s/status/%s", c.username, id),
	}
}
