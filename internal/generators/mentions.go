/*-------------------------------------------------------------------------
 *
 * mentions.go
 *    Mention scanner and interaction candidate generator
 *
 * On a jittered interval, fetches recent mentions and rolls each one into
 * at most one interaction candidate: a like, a retweet, or a generated
 * reply, split by configured probabilities. Every candidate goes through
 * the approval queue; the queue's dedupe keeps rescans of the same
 * mention from piling up.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/generators/mentions.go
 *
 *-------------------------------------------------------------------------
 */

package generators

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/perchlabs/PerchAgent/internal/approval"
	"github.com/perchlabs/PerchAgent/internal/metrics"
	"github.com/perchlabs/PerchAgent/internal/platform"
	"github.com/perchlabs/PerchAgent/internal/scheduler"
)

const replyDirective = "Write a reply to the post above in your voice. " +
	"Keep it under 280 characters. Respond with the reply text only."

/* ScannerConfig tunes the mention scanner. The probabilities are a split:
 * a roll below Like likes, below Like+Retweet retweets, below
 * Like+Retweet+Reply replies, and anything above ignores the mention. */
type ScannerConfig struct {
	Interval           time.Duration
	FetchCount         int
	LikeProbability    float64
	RetweetProbability float64
	ReplyProbability   float64
}

/* Scanner watches mentions and produces interaction candidates */
type Scanner struct {
	manager   *approval.Manager
	session   *platform.Session
	composer  StateComposer
	generator TextGenerator
	persona   Persona
	config    ScannerConfig
	periodic  *scheduler.Periodic
	roll      func() float64
}

/* NewScanner creates the mention scanner */
func NewScanner(manager *approval.Manager, session *platform.Session, composer StateComposer, generator TextGenerator, persona Persona, config ScannerConfig) *Scanner {
	if config.Interval <= 0 {
		config.Interval = 2 * time.Minute
	}
	if config.FetchCount <= 0 {
		config.FetchCount = 20
	}
	s := &Scanner{
		manager:   manager,
		session:   session,
		composer:  composer,
		generator: generator,
		persona:   persona,
		config:    config,
		roll:      rand.Float64,
	}
	s.periodic = scheduler.NewPeriodic("mention-scanner", config.Interval, 0.25, func(ctx context.Context) {
		if err := s.ScanOnce(ctx); err != nil {
			metrics.ErrorWithContext(ctx, "Mention scan failed", err, nil)
		}
	})
	return s
}

/* ScanOnce fetches mentions and enqueues interaction candidates. One
 * mention's failure never aborts the rest of the batch. */
func (s *Scanner) ScanOnce(ctx context.Context) error {
	client, err := s.session.Client()
	if err != nil {
		return fmt.Errorf("cannot scan mentions: %w", err)
	}

	mentions, err := client.Mentions(ctx, s.config.FetchCount)
	if err != nil {
		return fmt.Errorf("failed to fetch mentions: %w", err)
	}

	for _, mention := range mentions {
		/* Skip the agent's own posts; compare against the session's
		 * logged-in handle rather than the persona */
		if strings.EqualFold(mention.Username, s.session.Username()) {
			continue
		}
		if err := s.handleMention(ctx, mention); err != nil {
			metrics.ErrorWithContext(ctx, "Failed to handle mention", err, map[string]interface{}{
				"tweet_id": mention.ID,
				"author":   mention.Username,
			})
		}
	}
	return nil
}

func (s *Scanner) handleMention(ctx context.Context, mention *platform.Tweet) error {
	r := s.roll()

	switch {
	case r < s.config.LikeProbability:
		return s.enqueue(ctx, approval.KindLike, "", mention)
	case r < s.config.LikeProbability+s.config.RetweetProbability:
		return s.enqueue(ctx, approval.KindRetweet, "", mention)
	case r < s.config.LikeProbability+s.config.RetweetProbability+s.config.ReplyProbability:
		content, err := s.draftReply(ctx, mention)
		if err != nil {
			return err
		}
		return s.enqueue(ctx, approval.KindReply, content, mention)
	default:
		return nil
	}
}

func (s *Scanner) draftReply(ctx context.Context, mention *platform.Tweet) (string, error) {
	directive := fmt.Sprintf("@%s said: %q\n\n%s", mention.Username, mention.Text, replyDirective)
	state, err := s.composer.ComposeState(ctx, s.persona, directive, nil)
	if err != nil {
		return "", fmt.Errorf("failed to compose state: %w", err)
	}
	text, err := s.generator.GenerateText(ctx, state)
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}
	return approval.ExtractText(text), nil
}

func (s *Scanner) enqueue(ctx context.Context, kind approval.ActionKind, content string, mention *platform.Tweet) error {
	req, err := s.manager.Enqueue(ctx, approval.Candidate{
		Kind:      kind,
		Content:   content,
		TargetRef: mention.ID,
		Context: map[string]interface{}{
			"author_username": mention.Username,
			"author_name":     mention.Name,
			"original_text":   mention.Text,
			"conversation_id": mention.ConversationID,
			"permanent_url":   mention.PermanentURL,
			"in_reply_to_id":  mention.InReplyToID,
		},
	})
	if err != nil {
		return err
	}
	if req != nil {
		metrics.RecordCandidateGenerated("mention-scanner", string(kind))
	}
	return nil
}

/* Start begins the periodic scan loop */
func (s *Scanner) Start() {
	s.periodic.Start()
}

/* Stop halts the loop */
func (s *Scanner) Stop() {
	s.periodic.Stop()
}
