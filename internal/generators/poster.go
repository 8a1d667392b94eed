/*-------------------------------------------------------------------------
 *
 * poster.go
 *    Periodic post generator
 *
 * On a jittered interval, composes the agent's state from its persona and
 * recent timeline, generates a new post, and enqueues it for approval.
 * Nothing here publishes; the approval pipeline owns everything outbound.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/generators/poster.go
 *
 *-------------------------------------------------------------------------
 */

package generators

import (
	"context"
	"fmt"
	"time"

	"github.com/perchlabs/PerchAgent/internal/approval"
	"github.com/perchlabs/PerchAgent/internal/metrics"
	"github.com/perchlabs/PerchAgent/internal/platform"
	"github.com/perchlabs/PerchAgent/internal/scheduler"
)

const postDirective = "Write a single new post in your voice. " +
	"Keep it under 280 characters. Respond with the post text only."

/* PosterConfig tunes the periodic post generator */
type PosterConfig struct {
	Interval      time.Duration
	TimelineCount int
}

/* Poster periodically drafts posts and queues them for approval */
type Poster struct {
	manager   *approval.Manager
	session   *platform.Session
	composer  StateComposer
	generator TextGenerator
	persona   Persona
	config    PosterConfig
	periodic  *scheduler.Periodic
}

/* NewPoster creates the periodic post generator */
func NewPoster(manager *approval.Manager, session *platform.Session, composer StateComposer, generator TextGenerator, persona Persona, config PosterConfig) *Poster {
	if config.Interval <= 0 {
		config.Interval = 4 * time.Hour
	}
	if config.TimelineCount <= 0 {
		config.TimelineCount = 10
	}
	p := &Poster{
		manager:   manager,
		session:   session,
		composer:  composer,
		generator: generator,
		persona:   persona,
		config:    config,
	}
	p.periodic = scheduler.NewPeriodic("post-generator", config.Interval, 0.25, func(ctx context.Context) {
		if err := p.GenerateOnce(ctx); err != nil {
			metrics.ErrorWithContext(ctx, "Post generation failed", err, nil)
		}
	})
	return p
}

/* GenerateOnce drafts and enqueues a single post */
func (p *Poster) GenerateOnce(ctx context.Context) error {
	timeline := p.fetchTimeline(ctx)

	state, err := p.composer.ComposeState(ctx, p.persona, postDirective, timeline)
	if err != nil {
		return fmt.Errorf("failed to compose state: %w", err)
	}

	text, err := p.generator.GenerateText(ctx, state)
	if err != nil {
		return fmt.Errorf("failed to generate post: %w", err)
	}
	content := approval.ExtractText(text)

	req, err := p.manager.Enqueue(ctx, approval.Candidate{
		Kind:    approval.KindPost,
		Content: content,
	})
	if err != nil {
		return err
	}
	if req != nil {
		metrics.RecordCandidateGenerated("poster", string(approval.KindPost))
	}
	return nil
}

/* fetchTimeline pulls recent timeline context, tolerating an unavailable
 * session: a post can still be drafted from the persona alone */
func (p *Poster) fetchTimeline(ctx context.Context) []*platform.Tweet {
	client, err := p.session.Client()
	if err != nil {
		return nil
	}
	timeline, err := client.Timeline(ctx, p.config.TimelineCount)
	if err != nil {
		metrics.WarnWithContext(ctx, "Timeline fetch failed, drafting without it", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return timeline
}

/* Start begins the periodic generation loop */
func (p *Poster) Start() {
	p.periodic.Start()
}

/* Stop halts the loop */
func (p *Poster) Stop() {
	p.periodic.Stop()
}
