/*-------------------------------------------------------------------------
 *
 * client.go
 *    Social platform client interface and session management
 *
 * The agent talks to the platform through a gateway service that owns the
 * authenticated browser session. Session lazily establishes and caches the
 * gateway connection; callers resolve a live client per operation so a
 * dropped session surfaces as ErrNotReady instead of a stale handle.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/platform/client.go
 *
 *-------------------------------------------------------------------------
 */

package platform

import (
	"context"
	"errors"
	"sync"
	"time"
)

/* ErrNotReady signals that no authenticated platform session exists yet */
var ErrNotReady = errors.New("platform session not ready")

/* Tweet is a platform post as seen on a timeline or in mentions */
type Tweet struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	Username       string    `json:"username"`
	Name           string    `json:"name"`
	ConversationID string    `json:"conversation_id"`
	InReplyToID    string    `json:"in_reply_to_id,omitempty"`
	PermanentURL   string    `json:"permanent_url"`
	Timestamp      time.Time `json:"timestamp"`
}

/* Result identifies a successfully published action */
type Result struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id,omitempty"`
	PermanentURL   string `json:"permanent_url,omitempty"`
}

/* Client is the outbound platform surface */
type Client interface {
	Post(ctx context.Context, content string) (*Result, error)
	Reply(ctx context.Context, content, targetID string) (*Result, error)
	DirectMessage(ctx context.Context, content, conversationID string) (*Result, error)
	Like(ctx context.Context, targetID string) error
	Retweet(ctx context.Context, targetID string) error
	Timeline(ctx context.Context, count int) ([]*Tweet, error)
	Mentions(ctx context.Context, count int) ([]*Tweet, error)
}

/* SessionConfig configures the platform session */
type SessionConfig struct {
	GatewayURL string        /* base URL of the platform gateway */
	AuthToken  string        /* bearer token for the gateway */
	Username   string        /* handle the agent posts as */
	Timeout    time.Duration /* per-request timeout */
	DryRun     bool          /* route actions to the dry-run recorder */
}

/* Session resolves live platform clients */
type Session struct {
	mu     sync.Mutex
	config SessionConfig
	client Client
}

/* NewSession creates an unconnected session */
func NewSession(config SessionConfig) *Session {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Session{config: config}
}

/* Connect establishes the gateway session. In dry-run mode it installs
 * the recording client and performs no network calls. */
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.DryRun {
		s.client = NewDryRunClient(s.config.Username)
		return nil
	}

	gw := newGatewayClient(s.config)
	if err := gw.login(ctx); err != nil {
		return err
	}
	s.client = gw
	return nil
}

/* SetClient installs a pre-built client, bypassing gateway login */
func (s *Session) SetClient(client Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

/* Client returns the live client, or ErrNotReady before Connect succeeds */
func (s *Session) Client() (Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil, ErrNotReady
	}
	return s.client, nil
}

/* Close tears down the session */
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
}

/* Username returns the handle the agent acts as */
func (s *Session) Username() string {
	return s.config.Username
}
