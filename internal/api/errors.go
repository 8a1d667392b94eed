/*-------------------------------------------------------------------------
 *
 * errors.go
 *    API error envelope and response helpers
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/api/errors.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

/* APIError carries an HTTP status plus request context for the envelope */
type APIError struct {
	Code      int
	Message   string
	Err       error
	RequestID string
	Path      string
	Method    string
	Resource  string
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

/* Error templates */
var (
	ErrNotFound     = &APIError{Code: http.StatusNotFound, Message: "resource not found"}
	ErrUnauthorized = &APIError{Code: http.StatusUnauthorized, Message: "unauthorized"}
)

/* NewErrorWithContext creates an API error with request context attached */
func NewErrorWithContext(code int, message string, err error, requestID, path, method, resource string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Err:       err,
		RequestID: requestID,
		Path:      path,
		Method:    method,
		Resource:  resource,
	}
}

/* WrapError stamps a request ID onto an error template */
func WrapError(template *APIError, requestID string) *APIError {
	clone := *template
	clone.RequestID = requestID
	return &clone
}

/* ErrorResponse is the wire shape of an API error */
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err *APIError) {
	response := ErrorResponse{
		Error: err.Message,
		Code:  err.Code,
	}
	if err.Err != nil {
		response.Message = err.Err.Error()
	}
	if err.RequestID != "" {
		w.Header().Set("X-Request-ID", err.RequestID)
	}
	respondJSON(w, err.Code, response)
}
