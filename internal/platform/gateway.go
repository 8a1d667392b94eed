/*-------------------------------------------------------------------------
 *
 * gateway.go
 *    HTTP client for the platform gateway service
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/platform/gateway.go
 *
 *-------------------------------------------------------------------------
 */

package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/perchlabs/PerchAgent/internal/metrics"
)

/* gatewayClient implements Client against the gateway REST API */
type gatewayClient struct {
	baseURL    string
	authToken  string
	username   string
	httpClient *http.Client
}

func newGatewayClient(config SessionConfig) *gatewayClient {
	return &gatewayClient{
		baseURL:   strings.TrimRight(config.GatewayURL, "/"),
		authToken: config.AuthToken,
		username:  config.Username,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

func (c *gatewayClient) login(ctx context.Context) error {
	payload := map[string]string{"username": c.username}
	var resp struct {
		LoggedIn bool `json:"logged_in"`
	}
	if err := c.do(ctx, http.MethodPost, "/session/login", payload, &resp); err != nil {
		return fmt.Errorf("gateway login failed: %w", err)
	}
	if !resp.LoggedIn {
		return fmt.Errorf("gateway refused login for %s", c.username)
	}
	return nil
}

func (c *gatewayClient) Post(ctx context.Context, content string) (*Result, error) {
	payload := map[string]string{"text": content}
	var result Result
	if err := c.do(ctx, http.MethodPost, "/tweets", payload, &result); err != nil {
		metrics.RecordPlatformRequest("post", "error")
		return nil, err
	}
	metrics.RecordPlatformRequest("post", "success")
	return &result, nil
}

func (c *gatewayClient) Reply(ctx context.Context, content, targetID string) (*Result, error) {
	payload := map[string]string{"text": content, "in_reply_to": targetID}
	var result Result
	if err := c.do(ctx, http.MethodPost, "/tweets", payload, &result); err != nil {
		metrics.RecordPlatformRequest("reply", "error")
		return nil, err
	}
	metrics.RecordPlatformRequest("reply", "success")
	return &result, nil
}

func (c *gatewayClient) DirectMessage(ctx context.Context, content, conversationID string) (*Result, error) {
	payload := map[string]string{"text": content, "conversation_id": conversationID}
	var result Result
	if err := c.do(ctx, http.MethodPost, "/messages", payload, &result); err != nil {
		metrics.RecordPlatformRequest("direct_message", "error")
		return nil, err
	}
	metrics.RecordPlatformRequest("direct_message", "success")
	return &result, nil
}

func (c *gatewayClient) Like(ctx context.Context, targetID string) error {
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/tweets/%s/like", targetID), nil, nil); err != nil {
		metrics.RecordPlatformRequest("like", "error")
		return err
	}
	metrics.RecordPlatformRequest("like", "success")
	return nil
}

func (c *gatewayClient) Retweet(ctx context.Context, targetID string) error {
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/tweets/%s/retweet", targetID), nil, nil); err != nil {
		metrics.RecordPlatformRequest("retweet", "error")
		return err
	}
	metrics.RecordPlatformRequest("retweet", "success")
	return nil
}

func (c *gatewayClient) Timeline(ctx context.Context, count int) ([]*Tweet, error) {
	var tweets []*Tweet
	path := fmt.Sprintf("/timeline?count=%d", count)
	if err := c.do(ctx, http.MethodGet, path, nil, &tweets); err != nil {
		metrics.RecordPlatformRequest("timeline", "error")
		return nil, err
	}
	metrics.RecordPlatformRequest("timeline", "success")
	return tweets, nil
}

func (c *gatewayClient) Mentions(ctx context.Context, count int) ([]*Tweet, error) {
	var tweets []*Tweet
	path := fmt.Sprintf("/mentions?count=%d", count)
	if err := c.do(ctx, http.MethodGet, path, nil, &tweets); err != nil {
		metrics.RecordPlatformRequest("mentions", "error")
		return nil, err
	}
	metrics.RecordPlatformRequest("mentions", "success")
	return tweets, nil
}

func (c *gatewayClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
