/*-------------------------------------------------------------------------
 *
 * capabilities.go
 *    Text generation capabilities consumed by the generators
 *
 * Candidate production is split into two injected capabilities: composing
 * the agent's working state into a prompt, and turning that prompt into
 * platform-ready text. Both stay behind interfaces so tests and dry runs
 * swap in canned implementations.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/generators/capabilities.go
 *
 *-------------------------------------------------------------------------
 */

package generators

import (
	"context"
	"fmt"
	"strings"

	"github.com/perchlabs/PerchAgent/internal/platform"
)

/* Persona describes the agent whose voice the generators write in */
type Persona struct {
	Name     string
	Username string
	Bio      string
	Topics   []string
}

/* StateComposer assembles the agent's working context for one generation */
type StateComposer interface {
	ComposeState(ctx context.Context, persona Persona, directive string, timeline []*platform.Tweet) (string, error)
}

/* TextGenerator turns composed state into platform-ready text */
type TextGenerator interface {
	GenerateText(ctx context.Context, state string) (string, error)
}

/* PromptComposer is the default StateComposer: a flat prompt holding the
 * persona, the directive, and recent timeline context */
type PromptComposer struct{}

func (PromptComposer) ComposeState(ctx context.Context, persona Persona, directive string, timeline []*platform.Tweet) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s (@%s).\n", persona.Name, persona.Username)
	if persona.Bio != "" {
		fmt.Fprintf(&b, "About you: %s\n", persona.Bio)
	}
	if len(persona.Topics) > 0 {
		fmt.Fprintf(&b, "Topics you care about: %s\n", strings.Join(persona.Topics, ", "))
	}

	if len(timeline) > 0 {
		b.WriteString("\nRecent timeline:\n")
		for _, tweet := range timeline {
			fmt.Fprintf(&b, "- @%s: %s\n", tweet.Username, tweet.Text)
		}
	}

	b.WriteString("\n")
	b.WriteString(directive)
	return b.String(), nil
}
