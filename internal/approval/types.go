/*-------------------------------------------------------------------------
 *
 * types.go
 *    Approval pipeline data model for PerchAgent
 *
 * Defines the approval request, its action kinds and statuses, and the
 * error taxonomy of the pipeline.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/approval/types.go
 *
 *-------------------------------------------------------------------------
 */

package approval

import (
	"errors"
	"fmt"
	"time"
)

/* ActionKind identifies the outbound platform operation */
type ActionKind string

const (
	KindPost          ActionKind = "post"
	KindReply         ActionKind = "reply"
	KindMention       ActionKind = "mention"
	KindDirectMessage ActionKind = "direct_message"
	KindLike          ActionKind = "like"
	KindRetweet       ActionKind = "retweet"
)

/* IsTargetBound reports whether the kind acts on an existing external
 * object and therefore requires a target ref and participates in dedupe */
func (k ActionKind) IsTargetBound() bool {
	switch k {
	case KindReply, KindMention, KindDirectMessage, KindLike, KindRetweet:
		return true
	}
	return false
}

/* IsValid reports whether the kind is known */
func (k ActionKind) IsValid() bool {
	switch k {
	case KindPost, KindReply, KindMention, KindDirectMessage, KindLike, KindRetweet:
		return true
	}
	return false
}

/* Status is the lifecycle state of an approval request.
 *
 * Transitions are monotonic and one-way:
 *   pending -> approved | rejected
 *   approved -> sent | error
 * rejected, sent, and error are terminal. */
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusSent     Status = "sent"
	StatusError    Status = "error"
)

/* IsTerminal reports whether no further transition is possible */
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusSent || s == StatusError
}

/* Request is one unit of work in the approval pipeline */
type Request struct {
	ID              string                 `json:"approval_id"`
	Kind            ActionKind             `json:"content_type"`
	Content         string                 `json:"content"`
	ModifiedContent string                 `json:"modified_content,omitempty"`
	TargetRef       string                 `json:"target_ref,omitempty"`
	Context         map[string]interface{} `json:"context,omitempty"`
	Status          Status                 `json:"status"`
	CreatedAt       time.Time              `json:"timestamp"`
	ReviewedAt      *time.Time             `json:"review_timestamp,omitempty"`
	Reviewer        string                 `json:"reviewer,omitempty"`
	Reason          string                 `json:"reason,omitempty"`
	ResultRef       string                 `json:"tweet_id,omitempty"`
}

/* EffectiveContent returns the text to publish: a reviewer-supplied
 * replacement supersedes the original for every action kind */
func (r *Request) EffectiveContent() string {
	if r.ModifiedContent != "" {
		return r.ModifiedContent
	}
	return r.Content
}

/* Candidate is a not-yet-queued action produced by a generator */
type Candidate struct {
	Kind      ActionKind
	Content   string
	TargetRef string
	Context   map[string]interface{}
}

/* ErrNotFound signals a decision referencing an id with no record at all */
var ErrNotFound = errors.New("approval request not found")

/* ErrDuplicate signals a create that collided with the unique index
 * guarding active target-bound requests. The candidate lost an enqueue
 * race and should be suppressed, not surfaced as a failure. */
var ErrDuplicate = errors.New("active request already exists for target")

/* ErrExecutorUnavailable signals that no live platform executor handle
 * could be resolved. Transient; retried with backoff before converting to
 * an ExecutionError. */
var ErrExecutorUnavailable = errors.New("executor unavailable")

/* ExecutionError is the terminal failure of an approved action */
type ExecutionError struct {
	Kind   ActionKind
	ID     string
	Reason string
	Err    error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("execution of %s %s failed: %s: %v", e.Kind, e.ID, e.Reason, e.Err)
	}
	return fmt.Sprintf("execution of %s %s failed: %s", e.Kind, e.ID, e.Reason)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

/* StoreError wraps a durable store failure. The operation in progress is
 * not-yet-committed and safe to retry from the top. */
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("approval store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
