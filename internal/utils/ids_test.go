/*-------------------------------------------------------------------------
 *
 * ids_test.go
 *    Tests for identifier and validation utilities
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/utils/ids_test.go
 *
 *-------------------------------------------------------------------------
 */

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateApprovalIDFormat(t *testing.T) {
	id := GenerateApprovalID()
	assert.Regexp(t, `^\d{13}-\d{6}$`, id)
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID(GenerateUUIDString()))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID(""))
}

func TestFormatConnectionInfo(t *testing.T) {
	assert.Equal(t, "perch@localhost:5432/perch_agent",
		FormatConnectionInfo("localhost", 5432, "perch_agent", "perch"))
}

func TestValidateRequiredWithError(t *testing.T) {
	assert.NoError(t, ValidateRequiredWithError("value", "field"))
	err := ValidateRequiredWithError("", "approval_id")
	assert.EqualError(t, err, "approval_id is required")
}

func TestValidateMaxLength(t *testing.T) {
	assert.True(t, ValidateMaxLength("short", 10))
	assert.True(t, ValidateMaxLength("exact", 5))
	assert.False(t, ValidateMaxLength("too long for this", 5))
}

func TestValidateIn(t *testing.T) {
	assert.True(t, ValidateIn("pending", "pending", "approved"))
	assert.False(t, ValidateIn("bogus", "pending", "approved"))
	assert.False(t, ValidateIn("pending"))
}
