/*-------------------------------------------------------------------------
 *
 * middleware_test.go
 *    Tests for the HTTP middleware chain
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/api/middleware_test.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perchlabs/PerchAgent/internal/utils"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDMiddlewareGeneratesID(t *testing.T) {
	handler := RequestIDMiddleware(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/approvals", nil))

	assert.True(t, utils.IsValidUUID(rec.Header().Get("X-Request-ID")))
}

func TestRequestIDMiddlewareKeepsValidCallerID(t *testing.T) {
	handler := RequestIDMiddleware(okHandler())

	callerID := utils.GenerateUUIDString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/approvals", nil)
	req.Header.Set("X-Request-ID", callerID)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, callerID, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDMiddlewareReplacesMalformedCallerID(t *testing.T) {
	handler := RequestIDMiddleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/approvals", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	got := rec.Header().Get("X-Request-ID")
	assert.NotEqual(t, "not-a-uuid", got)
	assert.True(t, utils.IsValidUUID(got))
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware("hunter2")(okHandler())

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"valid token", "/api/v1/approvals", "Bearer hunter2", http.StatusOK},
		{"missing token", "/api/v1/approvals", "", http.StatusUnauthorized},
		{"wrong token", "/api/v1/approvals", "Bearer wrong", http.StatusUnauthorized},
		{"wrong scheme", "/api/v1/approvals", "Basic hunter2", http.StatusUnauthorized},
		{"health is open", "/health", "", http.StatusOK},
		{"metrics is open", "/metrics", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
