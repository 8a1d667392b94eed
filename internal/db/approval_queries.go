/*-------------------------------------------------------------------------
 *
 * approval_queries.go
 *    Database queries for the durable approval store
 *
 * Provides query functions for approval rows and the sent ledgers. Status
 * transitions are guarded in SQL (WHERE status = ...) so that a decision
 * delivered twice affects zero rows the second time.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/db/approval_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

/* Queries wraps the database pool with approval store operations */
type Queries struct {
	DB *sqlx.DB
}

/* NewQueries creates a new query wrapper */
func NewQueries(db *sqlx.DB) *Queries {
	return &Queries{DB: db}
}

/* Approval store queries */
const (
	createApprovalQuery = `
		INSERT INTO perch_agent.approvals
		(approval_id, content_type, content, modified_content, context, agent_name, agent_username, status, timestamp, review_timestamp, reviewer, reason, tweet_id)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, NULL, NULL, NULL, NULL)`

	getApprovalQuery = `SELECT * FROM perch_agent.approvals WHERE approval_id = $1`

	listResolvedQuery = `
		SELECT * FROM perch_agent.approvals
		WHERE status IN ('approved', 'rejected')
		AND timestamp >= $1
		ORDER BY timestamp ASC`

	listByStatusQuery = `
		SELECT * FROM perch_agent.approvals
		WHERE status = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3`

	activeForTargetQuery = `
		SELECT COUNT(*) FROM perch_agent.approvals
		WHERE content_type = $1
		AND context->>'target_ref' = $2
		AND status IN ('pending', 'approved', 'sent')`

	sentReplyForTargetQuery = `
		SELECT COUNT(*) FROM perch_agent.sent_interactions
		WHERE tweet_id = $1 AND type IN ('reply', 'mention')`

	markApprovedQuery = `
		UPDATE perch_agent.approvals
		SET status = 'approved', modified_content = COALESCE($2, modified_content),
		    reviewer = $3, review_timestamp = NOW()
		WHERE approval_id = $1 AND status = 'pending'`

	markRejectedQuery = `
		UPDATE perch_agent.approvals
		SET status = 'rejected', reviewer = $2, reason = $3, review_timestamp = NOW()
		WHERE approval_id = $1 AND status = 'pending'`

	markSentQuery = `
		UPDATE perch_agent.approvals
		SET status = 'sent', tweet_id = $2, review_timestamp = NOW()
		WHERE approval_id = $1 AND status = 'approved'`

	markErrorQuery = `
		UPDATE perch_agent.approvals
		SET status = 'error', reason = $2, review_timestamp = NOW()
		WHERE approval_id = $1 AND status = 'approved'`

	countPendingQuery = `SELECT COUNT(*) FROM perch_agent.approvals WHERE status = 'pending'`

	insertSentPostQuery = `
		INSERT INTO perch_agent.sent_posts
		(tweet_id, content, media_urls, timestamp, permanent_url, in_reply_to_id, conversation_id, approval_id, agent_name, agent_username, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	insertSentInteractionQuery = `
		INSERT INTO perch_agent.sent_interactions
		(type, tweet_id, content, author_username, author_name, timestamp, permanent_url, in_reply_to_id, conversation_id, agent_response, response_tweet_id, agent_name, agent_username, context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb)`
)

/* CreateApproval inserts a pending approval row. This is the durable commit
 * point for an enqueued candidate. */
func (q *Queries) CreateApproval(ctx context.Context, row *Approval) error {
	contextValue, err := row.Context.Value()
	if err != nil {
		return fmt.Errorf("failed to convert context: %w", err)
	}

	_, err = q.DB.ExecContext(ctx, createApprovalQuery,
		row.ApprovalID, row.ContentType, row.Content, row.ModifiedContent,
		contextValue, row.AgentName, row.AgentUsername, row.Status, row.Timestamp)
	if err != nil {
		return fmt.Errorf("approval creation failed: %w", err)
	}
	return nil
}

/* GetApproval fetches an approval row by id */
func (q *Queries) GetApproval(ctx context.Context, id string) (*Approval, error) {
	var row Approval
	err := q.DB.GetContext(ctx, &row, getApprovalQuery, id)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval %s: %w", id, err)
	}
	return &row, nil
}

/* ListResolved lists rows whose status has moved past pending, bounded by a
 * recency window to avoid reprocessing stale history. Rows come back in
 * store order. */
func (q *Queries) ListResolved(ctx context.Context, since time.Time) ([]Approval, error) {
	var rows []Approval
	err := q.DB.SelectContext(ctx, &rows, listResolvedQuery, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolved approvals: %w", err)
	}
	return rows, nil
}

/* ListByStatus lists approval rows with the given status. A non-positive
 * limit falls back to a bounded default. */
func (q *Queries) ListByStatus(ctx context.Context, status string, limit, offset int) ([]Approval, error) {
	if limit <= 0 {
		limit = 1000
	}
	var rows []Approval
	err := q.DB.SelectContext(ctx, &rows, listByStatusQuery, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	return rows, nil
}

/* ActiveExistsForTarget reports whether any row for the dedupe key
 * (content_type, target_ref) is pending, approved, or sent */
func (q *Queries) ActiveExistsForTarget(ctx context.Context, contentType, targetRef string) (bool, error) {
	var count int
	err := q.DB.GetContext(ctx, &count, activeForTargetQuery, contentType, targetRef)
	if err != nil {
		return false, fmt.Errorf("dedupe check failed for %s/%s: %w", contentType, targetRef, err)
	}
	return count > 0, nil
}

/* SentReplyExistsForTarget reports whether the interactions ledger already
 * records a reply or mention response to the given target */
func (q *Queries) SentReplyExistsForTarget(ctx context.Context, targetRef string) (bool, error) {
	var count int
	err := q.DB.GetContext(ctx, &count, sentReplyForTargetQuery, targetRef)
	if err != nil {
		return false, fmt.Errorf("sent ledger check failed for %s: %w", targetRef, err)
	}
	return count > 0, nil
}

/* MarkApproved transitions pending -> approved. Returns false when the row
 * was not pending (already resolved or unknown). */
func (q *Queries) MarkApproved(ctx context.Context, id string, modifiedContent *string, reviewer string) (bool, error) {
	result, err := q.DB.ExecContext(ctx, markApprovedQuery, id, modifiedContent, reviewer)
	if err != nil {
		return false, fmt.Errorf("failed to mark approval %s approved: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}

/* MarkRejected transitions pending -> rejected */
func (q *Queries) MarkRejected(ctx context.Context, id, reviewer, reason string) (bool, error) {
	result, err := q.DB.ExecContext(ctx, markRejectedQuery, id, reviewer, reason)
	if err != nil {
		return false, fmt.Errorf("failed to mark approval %s rejected: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}

/* MarkSent transitions approved -> sent and records the resulting external id */
func (q *Queries) MarkSent(ctx context.Context, id, tweetID string) (bool, error) {
	result, err := q.DB.ExecContext(ctx, markSentQuery, id, tweetID)
	if err != nil {
		return false, fmt.Errorf("failed to mark approval %s sent: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}

/* MarkError transitions approved -> error with a reason */
func (q *Queries) MarkError(ctx context.Context, id, reason string) (bool, error) {
	result, err := q.DB.ExecContext(ctx, markErrorQuery, id, reason)
	if err != nil {
		return false, fmt.Errorf("failed to mark approval %s errored: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}

/* CountPending returns the number of rows still awaiting review */
func (q *Queries) CountPending(ctx context.Context) (int, error) {
	var count int
	err := q.DB.GetContext(ctx, &count, countPendingQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending approvals: %w", err)
	}
	return count, nil
}

/* InsertSentPost appends a row to the posts ledger */
func (q *Queries) InsertSentPost(ctx context.Context, row *SentPost) error {
	_, err := q.DB.ExecContext(ctx, insertSentPostQuery,
		row.TweetID, row.Content, row.MediaURLs, row.Timestamp, row.PermanentURL,
		row.InReplyToID, row.ConversationID, row.ApprovalID, row.AgentName,
		row.AgentUsername, row.Status)
	if err != nil {
		return fmt.Errorf("failed to insert sent post: %w", err)
	}
	return nil
}

/* InsertSentInteraction appends a row to the interactions ledger */
func (q *Queries) InsertSentInteraction(ctx context.Context, row *SentInteraction) error {
	contextValue, err := row.Context.Value()
	if err != nil {
		return fmt.Errorf("failed to convert context: %w", err)
	}

	_, err = q.DB.ExecContext(ctx, insertSentInteractionQuery,
		row.Type, row.TweetID, row.Content, row.AuthorUsername, row.AuthorName,
		row.Timestamp, row.PermanentURL, row.InReplyToID, row.ConversationID,
		row.AgentResponse, row.ResponseTweetID, row.AgentName, row.AgentUsername,
		contextValue)
	if err != nil {
		return fmt.Errorf("failed to insert sent interaction: %w", err)
	}
	return nil
}
