/*-------------------------------------------------------------------------
 *
 * ids.go
 *    Identifier utilities for PerchAgent
 *
 * Provides approval ID generation and formatting helpers used throughout
 * the application.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/utils/ids.go
 *
 *-------------------------------------------------------------------------
 */

package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

/* GenerateApprovalID generates a unique approval identifier.
 * Format: millisecond timestamp plus a random suffix, which keeps rows
 * sortable by creation time in the durable store. */
func GenerateApprovalID() string {
	return fmt.Sprintf("%d-%06d", time.Now().UnixMilli(), rand.Intn(1000000))
}

/* GenerateUUIDString generates a new UUID as string */
func GenerateUUIDString() string {
	return uuid.New().String()
}

/* IsValidUUID checks if a string is a valid UUID */
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

/* FormatConnectionInfo returns a printable description of a database connection */
func FormatConnectionInfo(host string, port int, database, user string) string {
	return fmt.Sprintf("%s@%s:%d/%s", user, host, port, database)
}

/* ValidateRequiredWithError returns an error when a required field is empty */
func ValidateRequiredWithError(value, field string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

/* ValidateMaxLength checks that a string does not exceed max characters */
func ValidateMaxLength(value string, max int) bool {
	return len(value) <= max
}

/* ValidateIn checks that a value is one of the allowed options */
func ValidateIn(value string, options ...string) bool {
	for _, opt := range options {
		if value == opt {
			return true
		}
	}
	return false
}
