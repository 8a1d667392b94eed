/*-------------------------------------------------------------------------
 *
 * validation.go
 *    Request validation helpers
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/api/validation.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/perchlabs/PerchAgent/internal/approval"
	"github.com/perchlabs/PerchAgent/internal/utils"
)

const webhookPayloadType = "approval_response"

/* Sanity cap on reviewer-supplied replacement text */
const maxModifiedContentLength = 10000

func validateWebhookPayload(payload *webhookPayload) error {
	if payload.Type != webhookPayloadType {
		return fmt.Errorf("unsupported payload type %q", payload.Type)
	}
	if err := utils.ValidateRequiredWithError(payload.Data.ApprovalID, "approval_id"); err != nil {
		return err
	}
	if payload.Data.Approved == nil {
		return fmt.Errorf("approved is required")
	}
	if err := validateModifiedContent(payload.Data.ModifiedContent); err != nil {
		return err
	}
	return nil
}

func validateModifiedContent(content string) error {
	if !utils.ValidateMaxLength(content, maxModifiedContentLength) {
		return fmt.Errorf("modified_content exceeds %d characters", maxModifiedContentLength)
	}
	return nil
}

func validateStatus(status approval.Status) error {
	if !utils.ValidateIn(string(status),
		string(approval.StatusPending), string(approval.StatusApproved),
		string(approval.StatusRejected), string(approval.StatusSent),
		string(approval.StatusError)) {
		return fmt.Errorf("unknown status %q", status)
	}
	return nil
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
