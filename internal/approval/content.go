/*-------------------------------------------------------------------------
 *
 * content.go
 *    Generator output normalization
 *
 * Text generators sometimes return their answer wrapped in a fenced JSON
 * object instead of bare text. ExtractText tolerates both shapes so a
 * formatting quirk upstream never publishes raw JSON to the platform.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/approval/content.go
 *
 *-------------------------------------------------------------------------
 */

package approval

import (
	"encoding/json"
	"strings"
)

/* ExtractText returns the publishable text inside raw. It strips a
 * surrounding ```json code fence when present and pulls the "text" field
 * out of a JSON object; anything that does not parse comes back
 * unchanged. */
func ExtractText(raw string) string {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil && payload.Text != "" {
			return payload.Text
		}
	}

	if trimmed == "" {
		return raw
	}
	return trimmed
}
