/*-------------------------------------------------------------------------
 *
 * webhook.go
 *    Outbound webhook notifier for queued approval requests
 *
 * Pings an external review surface whenever a candidate lands in the
 * queue, so a human sees it without polling. Delivery is best-effort:
 * a failed ping is logged and the pipeline moves on, because the store
 * poller reconciles decisions regardless.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/notify/webhook.go
 *
 *-------------------------------------------------------------------------
 */

package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/perchlabs/PerchAgent/internal/approval"
)

/* WebhookNotifier delivers enqueue pings over HTTP */
type WebhookNotifier struct {
	url    string
	secret string
	client *http.Client
}

/* NewWebhookNotifier creates a notifier for the given URL. secret, when
 * set, signs each payload with HMAC-SHA256. */
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

/* NotifyEnqueued announces a newly queued request */
func (n *WebhookNotifier) NotifyEnqueued(ctx context.Context, req *approval.Request) error {
	payload, err := json.Marshal(map[string]interface{}{
		"type": "approval_request",
		"data": req,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Webhook-Event", "approval.requested")
	if n.secret != "" {
		httpReq.Header.Set("X-Webhook-Signature", generateSignature(payload, n.secret))
	}

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("notification delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

/* generateSignature generates the HMAC signature for a payload */
func generateSignature(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

/* VerifySignature verifies a webhook signature */
func VerifySignature(payload []byte, signature, secret string) bool {
	return hmac.Equal([]byte(generateSignature(payload, secret)), []byte(signature))
}
