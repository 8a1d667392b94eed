/*-------------------------------------------------------------------------
 *
 * models.go
 *    Database models for PerchAgent
 *
 * Defines row structures for the approvals table and the sent posts and
 * sent interactions ledgers. Column names and order follow the durable
 * approval store layout.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/db/models.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"time"

	"github.com/lib/pq"
)

/* Approval is one row of the durable approval store.
 *
 * The target of a target-bound action (reply, like, retweet) is carried in
 * the context column under target_ref; tweet_id holds the external id
 * produced by a successful execution and is set only when status is sent. */
type Approval struct {
	ApprovalID      string     `db:"approval_id"`
	ContentType     string     `db:"content_type"`
	Content         string     `db:"content"`
	ModifiedContent *string    `db:"modified_content"`
	Context         JSONBMap   `db:"context"`
	AgentName       string     `db:"agent_name"`
	AgentUsername   string     `db:"agent_username"`
	Status          string     `db:"status"`
	Timestamp       time.Time  `db:"timestamp"`
	ReviewTimestamp *time.Time `db:"review_timestamp"`
	Reviewer        *string    `db:"reviewer"`
	Reason          *string    `db:"reason"`
	TweetID         *string    `db:"tweet_id"`
}

/* SentPost is one row of the posts ledger */
type SentPost struct {
	TweetID        string         `db:"tweet_id"`
	Content        string         `db:"content"`
	MediaURLs      pq.StringArray `db:"media_urls"`
	Timestamp      time.Time      `db:"timestamp"`
	PermanentURL   *string        `db:"permanent_url"`
	InReplyToID    *string        `db:"in_reply_to_id"`
	ConversationID *string        `db:"conversation_id"`
	ApprovalID     string         `db:"approval_id"`
	AgentName      string         `db:"agent_name"`
	AgentUsername  string         `db:"agent_username"`
	Status         string         `db:"status"`
}

/* SentInteraction is one row of the interactions ledger */
type SentInteraction struct {
	Type            string    `db:"type"`
	TweetID         string    `db:"tweet_id"`
	Content         *string   `db:"content"`
	AuthorUsername  *string   `db:"author_username"`
	AuthorName      *string   `db:"author_name"`
	Timestamp       time.Time `db:"timestamp"`
	PermanentURL    *string   `db:"permanent_url"`
	InReplyToID     *string   `db:"in_reply_to_id"`
	ConversationID  *string   `db:"conversation_id"`
	AgentResponse   *string   `db:"agent_response"`
	ResponseTweetID *string   `db:"response_tweet_id"`
	AgentName       string    `db:"agent_name"`
	AgentUsername   string    `db:"agent_username"`
	Context         JSONBMap  `db:"context"`
}
