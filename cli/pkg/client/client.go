/*-------------------------------------------------------------------------
 *
 * client.go
 *    HTTP client for the PerchAgent approval API
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/cli/pkg/client/client.go
 *
 *-------------------------------------------------------------------------
 */

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

/* ApprovalRequest mirrors the server's approval request shape */
type ApprovalRequest struct {
	ID              string                 `json:"approval_id"`
	Kind            string                 `json:"content_type"`
	Content         string                 `json:"content"`
	ModifiedContent string                 `json:"modified_content,omitempty"`
	TargetRef       string                 `json:"target_ref,omitempty"`
	Context         map[string]interface{} `json:"context,omitempty"`
	Status          string                 `json:"status"`
	CreatedAt       time.Time              `json:"timestamp"`
	Reviewer        string                 `json:"reviewer,omitempty"`
	Reason          string                 `json:"reason,omitempty"`
	ResultRef       string                 `json:"tweet_id,omitempty"`
}

func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) ListApprovals(status string, limit int) ([]*ApprovalRequest, error) {
	url := fmt.Sprintf("%s/api/v1/approvals?status=%s&limit=%d", c.baseURL, status, limit)

	var reqs []*ApprovalRequest
	if err := c.get(url, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func (c *Client) GetApproval(id string) (*ApprovalRequest, error) {
	url := fmt.Sprintf("%s/api/v1/approvals/%s", c.baseURL, id)

	var req ApprovalRequest
	if err := c.get(url, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Client) Approve(id, reviewer, modifiedContent string) error {
	url := fmt.Sprintf("%s/api/v1/approvals/%s/approve", c.baseURL, id)
	body := map[string]string{"reviewer": reviewer}
	if modifiedContent != "" {
		body["modified_content"] = modifiedContent
	}
	return c.post(url, body, nil)
}

func (c *Client) Reject(id, reviewer, reason string) error {
	url := fmt.Sprintf("%s/api/v1/approvals/%s/reject", c.baseURL, id)
	body := map[string]string{"reviewer": reviewer}
	if reason != "" {
		body["reason"] = reason
	}
	return c.post(url, body, nil)
}

func (c *Client) get(url string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(url string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return c.decode(resp, out)
}

func (c *Client) decode(resp *http.Response, out interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Message)
			}
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
