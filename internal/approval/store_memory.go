/*-------------------------------------------------------------------------
 *
 * store_memory.go
 *    In-memory DecisionStore
 *
 * Backs unit tests and dry runs. Mirrors the Postgres adapter's semantics,
 * including the status guards on transitions.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/approval/store_memory.go
 *
 *-------------------------------------------------------------------------
 */

package approval

import (
	"context"
	"sync"
	"time"
)

/* MemoryStore is an in-memory DecisionStore */
type MemoryStore struct {
	mu           sync.Mutex
	rows         map[string]*Request
	order        []string
	posts        []*Request
	interactions []*Request
}

/* NewMemoryStore creates an empty in-memory store */
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[string]*Request),
	}
}

func (s *MemoryStore) Create(ctx context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	/* enforce the same constraint as the partial unique index on active
	 * target-bound rows */
	if req.TargetRef != "" {
		for _, row := range s.rows {
			if row.Kind == req.Kind && row.TargetRef == req.TargetRef &&
				(row.Status == StatusPending || row.Status == StatusApproved) {
				return ErrDuplicate
			}
		}
	}

	clone := *req
	s.rows[req.ID] = &clone
	s.order = append(s.order, req.ID)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *row
	return &clone, nil
}

func (s *MemoryStore) ListResolved(ctx context.Context, window time.Duration) ([]*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-window)
	var out []*Request
	for _, id := range s.order {
		row := s.rows[id]
		if (row.Status == StatusApproved || row.Status == StatusRejected) && !row.CreatedAt.Before(cutoff) {
			clone := *row
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Request
	for i := len(s.order) - 1; i >= 0; i-- {
		row := s.rows[s.order[i]]
		if row.Status == status {
			clone := *row
			out = append(out, &clone)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CountPending(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, row := range s.rows {
		if row.Status == StatusPending {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ActiveExists(ctx context.Context, kind ActionKind, targetRef string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.Kind == kind && row.TargetRef == targetRef {
			switch row.Status {
			case StatusPending, StatusApproved, StatusSent:
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *MemoryStore) SentReplyExists(ctx context.Context, targetRef string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.interactions {
		if row.TargetRef == targetRef && (row.Kind == KindReply || row.Kind == KindMention) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) MarkApproved(ctx context.Context, id, modifiedContent, reviewer string) (bool, error) {
	return s.transition(id, StatusPending, func(row *Request) {
		row.Status = StatusApproved
		if modifiedContent != "" {
			row.ModifiedContent = modifiedContent
		}
		row.Reviewer = reviewer
		now := time.Now()
		row.ReviewedAt = &now
	})
}

func (s *MemoryStore) MarkRejected(ctx context.Context, id, reviewer, reason string) (bool, error) {
	return s.transition(id, StatusPending, func(row *Request) {
		row.Status = StatusRejected
		row.Reviewer = reviewer
		row.Reason = reason
		now := time.Now()
		row.ReviewedAt = &now
	})
}

func (s *MemoryStore) MarkSent(ctx context.Context, id, resultRef string) (bool, error) {
	return s.transition(id, StatusApproved, func(row *Request) {
		row.Status = StatusSent
		row.ResultRef = resultRef
		now := time.Now()
		row.ReviewedAt = &now
	})
}

func (s *MemoryStore) MarkError(ctx context.Context, id, reason string) (bool, error) {
	return s.transition(id, StatusApproved, func(row *Request) {
		row.Status = StatusError
		row.Reason = reason
		now := time.Now()
		row.ReviewedAt = &now
	})
}

func (s *MemoryStore) AppendSentPost(ctx context.Context, req *Request, resultRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *req
	clone.ResultRef = resultRef
	s.posts = append(s.posts, &clone)
	return nil
}

func (s *MemoryStore) AppendSentInteraction(ctx context.Context, req *Request, resultRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *req
	clone.ResultRef = resultRef
	s.interactions = append(s.interactions, &clone)
	return nil
}

/* SentPosts returns the posts ledger (test helper) */
func (s *MemoryStore) SentPosts() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Request(nil), s.posts...)
}

/* SentInteractions returns the interactions ledger (test helper) */
func (s *MemoryStore) SentInteractions() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Request(nil), s.interactions...)
}

/* SetStatus force-sets a row's status, standing in for a reviewer editing
 * the external store directly (test helper) */
func (s *MemoryStore) SetStatus(id string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[id]; ok {
		row.Status = status
	}
}

func (s *MemoryStore) transition(id string, from Status, apply func(*Request)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || row.Status != from {
		return false, nil
	}
	apply(row)
	return true, nil
}
