/*-------------------------------------------------------------------------
 *
 * log_context.go
 *    Log context helpers for structured logging
 *
 * Provides helpers for consistent structured logging with request_id,
 * approval_id, action_kind, target_ref fields across all components.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/metrics/log_context.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	approvalIDKey contextKey = "approval_id"
	actionKindKey contextKey = "action_kind"
	targetRefKey  contextKey = "target_ref"
)

/* WithLogContext adds logging fields to context */
func WithLogContext(ctx context.Context, requestID, approvalID, actionKind, targetRef string) context.Context {
	if requestID != "" {
		ctx = context.WithValue(ctx, requestIDKey, requestID)
	}
	if approvalID != "" {
		ctx = context.WithValue(ctx, approvalIDKey, approvalID)
	}
	if actionKind != "" {
		ctx = context.WithValue(ctx, actionKindKey, actionKind)
	}
	if targetRef != "" {
		ctx = context.WithValue(ctx, targetRefKey, targetRef)
	}
	return ctx
}

/* WithApprovalLogContext adds approval ID to log context */
func WithApprovalLogContext(ctx context.Context, approvalID string) context.Context {
	return context.WithValue(ctx, approvalIDKey, approvalID)
}

/* GetRequestIDFromContext gets request ID from context */
func GetRequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

/* GetApprovalIDFromContext gets approval ID from context */
func GetApprovalIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(approvalIDKey).(string); ok {
		return id
	}
	return ""
}

/* LoggerFromContext creates a zerolog logger with fields from context */
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	logger := log.Logger

	if id := GetRequestIDFromContext(ctx); id != "" {
		logger = logger.With().Str("request_id", id).Logger()
	}
	if id := GetApprovalIDFromContext(ctx); id != "" {
		logger = logger.With().Str("approval_id", id).Logger()
	}
	if kind, ok := ctx.Value(actionKindKey).(string); ok && kind != "" {
		logger = logger.With().Str("action_kind", kind).Logger()
	}
	if ref, ok := ctx.Value(targetRefKey).(string); ok && ref != "" {
		logger = logger.With().Str("target_ref", ref).Logger()
	}

	return logger
}

/* LogWithContext logs a message with context fields */
func LogWithContext(ctx context.Context, level zerolog.Level, message string, fields map[string]interface{}) {
	logger := LoggerFromContext(ctx)
	event := logger.WithLevel(level)

	for key, value := range fields {
		event = event.Interface(key, value)
	}

	event.Msg(message)
}

/* DebugWithContext logs a debug message with context */
func DebugWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.DebugLevel, message, fields)
}

/* InfoWithContext logs an info message with context */
func InfoWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.InfoLevel, message, fields)
}

/* WarnWithContext logs a warning message with context */
func WarnWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.WarnLevel, message, fields)
}

/* ErrorWithContext logs an error message with context */
func ErrorWithContext(ctx context.Context, message string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogWithContext(ctx, zerolog.ErrorLevel, message, fields)
}
