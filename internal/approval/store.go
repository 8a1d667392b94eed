/*-------------------------------------------------------------------------
 *
 * store.go
 *    DecisionStore interface and Postgres adapter
 *
 * The durable approval store is the single source of truth for decisions
 * made outside the process. The concrete backing sits behind the
 * DecisionStore interface so tests can substitute an in-memory fake.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/approval/store.go
 *
 *-------------------------------------------------------------------------
 */

package approval

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/perchlabs/PerchAgent/internal/db"
)

/* DecisionStore is the durable approval store contract */
type DecisionStore interface {
	/* Create durably records a pending request. The write is the commit
	 * point of enqueue. */
	Create(ctx context.Context, req *Request) error

	/* Get fetches a request by id, ErrNotFound when no row exists */
	Get(ctx context.Context, id string) (*Request, error)

	/* ListResolved lists rows whose status is approved or rejected and
	 * whose creation time falls within the recency window, in store order */
	ListResolved(ctx context.Context, window time.Duration) ([]*Request, error)

	/* ListByStatus lists rows with the given status, newest first */
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Request, error)

	/* CountPending returns the number of rows awaiting review */
	CountPending(ctx context.Context) (int, error)

	/* ActiveExists reports whether a row for the dedupe key is pending,
	 * approved, or sent */
	ActiveExists(ctx context.Context, kind ActionKind, targetRef string) (bool, error)

	/* SentReplyExists reports whether the interactions ledger records a
	 * prior reply or mention response to the target */
	SentReplyExists(ctx context.Context, targetRef string) (bool, error)

	/* Status transitions. Each returns false when the guard did not match
	 * (row missing or already past the expected state). */
	MarkApproved(ctx context.Context, id, modifiedContent, reviewer string) (bool, error)
	MarkRejected(ctx context.Context, id, reviewer, reason string) (bool, error)
	MarkSent(ctx context.Context, id, resultRef string) (bool, error)
	MarkError(ctx context.Context, id, reason string) (bool, error)

	/* AppendSentPost / AppendSentInteraction write the terminal ledgers */
	AppendSentPost(ctx context.Context, req *Request, resultRef string) error
	AppendSentInteraction(ctx context.Context, req *Request, resultRef string) error
}

/* Identity names the agent account rows are written for */
type Identity struct {
	AgentName     string
	AgentUsername string
}

/* PostgresStore adapts the sqlx query layer to DecisionStore */
type PostgresStore struct {
	queries  *db.Queries
	identity Identity
}

/* NewPostgresStore creates a Postgres-backed decision store */
func NewPostgresStore(queries *db.Queries, identity Identity) *PostgresStore {
	return &PostgresStore{queries: queries, identity: identity}
}

func (s *PostgresStore) Create(ctx context.Context, req *Request) error {
	row := s.toRow(req)
	if err := s.queries.CreateApproval(ctx, row); err != nil {
		/* a unique violation means another enqueue won the race for this
		 * target between the dedupe lookup and the insert */
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicate
		}
		return &StoreError{Op: "create", Err: err}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Request, error) {
	row, err := s.queries.GetApproval(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "get", Err: err}
	}
	return s.fromRow(row), nil
}

func (s *PostgresStore) ListResolved(ctx context.Context, window time.Duration) ([]*Request, error) {
	rows, err := s.queries.ListResolved(ctx, time.Now().Add(-window))
	if err != nil {
		return nil, &StoreError{Op: "list_resolved", Err: err}
	}

	reqs := make([]*Request, len(rows))
	for i := range rows {
		reqs[i] = s.fromRow(&rows[i])
	}
	return reqs, nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Request, error) {
	rows, err := s.queries.ListByStatus(ctx, string(status), limit, offset)
	if err != nil {
		return nil, &StoreError{Op: "list_by_status", Err: err}
	}

	reqs := make([]*Request, len(rows))
	for i := range rows {
		reqs[i] = s.fromRow(&rows[i])
	}
	return reqs, nil
}

func (s *PostgresStore) CountPending(ctx context.Context) (int, error) {
	count, err := s.queries.CountPending(ctx)
	if err != nil {
		return 0, &StoreError{Op: "count_pending", Err: err}
	}
	return count, nil
}

func (s *PostgresStore) ActiveExists(ctx context.Context, kind ActionKind, targetRef string) (bool, error) {
	exists, err := s.queries.ActiveExistsForTarget(ctx, string(kind), targetRef)
	if err != nil {
		return false, &StoreError{Op: "dedupe_check", Err: err}
	}
	return exists, nil
}

func (s *PostgresStore) SentReplyExists(ctx context.Context, targetRef string) (bool, error) {
	exists, err := s.queries.SentReplyExistsForTarget(ctx, targetRef)
	if err != nil {
		return false, &StoreError{Op: "ledger_check", Err: err}
	}
	return exists, nil
}

func (s *PostgresStore) MarkApproved(ctx context.Context, id, modifiedContent, reviewer string) (bool, error) {
	var modified *string
	if modifiedContent != "" {
		modified = &modifiedContent
	}
	ok, err := s.queries.MarkApproved(ctx, id, modified, reviewer)
	if err != nil {
		return false, &StoreError{Op: "mark_approved", Err: err}
	}
	return ok, nil
}

func (s *PostgresStore) MarkRejected(ctx context.Context, id, reviewer, reason string) (bool, error) {
	ok, err := s.queries.MarkRejected(ctx, id, reviewer, reason)
	if err != nil {
		return false, &StoreError{Op: "mark_rejected", Err: err}
	}
	return ok, nil
}

func (s *PostgresStore) MarkSent(ctx context.Context, id, resultRef string) (bool, error) {
	ok, err := s.queries.MarkSent(ctx, id, resultRef)
	if err != nil {
		return false, &StoreError{Op: "mark_sent", Err: err}
	}
	return ok, nil
}

func (s *PostgresStore) MarkError(ctx context.Context, id, reason string) (bool, error) {
	ok, err := s.queries.MarkError(ctx, id, reason)
	if err != nil {
		return false, &StoreError{Op: "mark_error", Err: err}
	}
	return ok, nil
}

func (s *PostgresStore) AppendSentPost(ctx context.Context, req *Request, resultRef string) error {
	row := &db.SentPost{
		TweetID:       resultRef,
		Content:       req.EffectiveContent(),
		Timestamp:     time.Now(),
		ApprovalID:    req.ID,
		AgentName:     s.identity.AgentName,
		AgentUsername: s.identity.AgentUsername,
		Status:        string(StatusSent),
	}
	if req.TargetRef != "" {
		row.InReplyToID = &req.TargetRef
	}
	if conv := contextString(req.Context, "conversation_id"); conv != "" {
		row.ConversationID = &conv
	}
	if url := contextString(req.Context, "permanent_url"); url != "" {
		row.PermanentURL = &url
	}

	if err := s.queries.InsertSentPost(ctx, row); err != nil {
		return &StoreError{Op: "append_sent_post", Err: err}
	}
	return nil
}

func (s *PostgresStore) AppendSentInteraction(ctx context.Context, req *Request, resultRef string) error {
	row := &db.SentInteraction{
		Type:          string(req.Kind),
		TweetID:       req.TargetRef,
		Timestamp:     time.Now(),
		AgentName:     s.identity.AgentName,
		AgentUsername: s.identity.AgentUsername,
		Context:       db.FromMap(req.Context),
	}
	if content := req.EffectiveContent(); content != "" {
		row.AgentResponse = &content
	}
	if resultRef != "" {
		row.ResponseTweetID = &resultRef
	}
	if original := contextString(req.Context, "original_text"); original != "" {
		row.Content = &original
	}
	if username := contextString(req.Context, "author_username"); username != "" {
		row.AuthorUsername = &username
	}
	if name := contextString(req.Context, "author_name"); name != "" {
		row.AuthorName = &name
	}
	if conv := contextString(req.Context, "conversation_id"); conv != "" {
		row.ConversationID = &conv
	}
	if reply := contextString(req.Context, "in_reply_to_id"); reply != "" {
		row.InReplyToID = &reply
	}

	if err := s.queries.InsertSentInteraction(ctx, row); err != nil {
		return &StoreError{Op: "append_sent_interaction", Err: err}
	}
	return nil
}

/* toRow maps the domain request onto the store's fixed column set. The
 * target ref travels in the context column. */
func (s *PostgresStore) toRow(req *Request) *db.Approval {
	rowContext := make(map[string]interface{}, len(req.Context)+1)
	for k, v := range req.Context {
		rowContext[k] = v
	}
	if req.TargetRef != "" {
		rowContext["target_ref"] = req.TargetRef
	}

	row := &db.Approval{
		ApprovalID:    req.ID,
		ContentType:   string(req.Kind),
		Content:       req.Content,
		Context:       db.FromMap(rowContext),
		AgentName:     s.identity.AgentName,
		AgentUsername: s.identity.AgentUsername,
		Status:        string(req.Status),
		Timestamp:     req.CreatedAt,
	}
	if req.ModifiedContent != "" {
		row.ModifiedContent = &req.ModifiedContent
	}
	return row
}

func (s *PostgresStore) fromRow(row *db.Approval) *Request {
	req := &Request{
		ID:         row.ApprovalID,
		Kind:       ActionKind(row.ContentType),
		Content:    row.Content,
		Context:    row.Context.ToMap(),
		Status:     Status(row.Status),
		CreatedAt:  row.Timestamp,
		ReviewedAt: row.ReviewTimestamp,
		TargetRef:  contextString(row.Context.ToMap(), "target_ref"),
	}
	if row.ModifiedContent != nil {
		req.ModifiedContent = *row.ModifiedContent
	}
	if row.Reviewer != nil {
		req.Reviewer = *row.Reviewer
	}
	if row.Reason != nil {
		req.Reason = *row.Reason
	}
	if row.TweetID != nil {
		req.ResultRef = *row.TweetID
	}
	return req
}

func contextString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
