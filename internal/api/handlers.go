/*-------------------------------------------------------------------------
 *
 * handlers.go
 *    HTTP handlers for the approval pipeline
 *
 * The webhook is a shortcut into the same decision path the store poller
 * drives; everything funnels through the manager so verdicts arriving on
 * both surfaces stay idempotent.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/api/handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/perchlabs/PerchAgent/internal/approval"
	"github.com/perchlabs/PerchAgent/internal/db"
	"github.com/perchlabs/PerchAgent/internal/metrics"
)

/* Handlers holds the API dependencies */
type Handlers struct {
	manager *approval.Manager
	db      *db.DB
}

/* NewHandlers creates the API handlers. database may be nil; the health
 * endpoint then reports only process liveness. */
func NewHandlers(manager *approval.Manager, database *db.DB) *Handlers {
	return &Handlers{manager: manager, db: database}
}

/* RegisterRoutes attaches all routes to the router */
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/webhook/approval", h.HandleApprovalWebhook).Methods(http.MethodPost)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/approvals", h.ListApprovals).Methods(http.MethodGet)
	v1.HandleFunc("/approvals/{id}", h.GetApproval).Methods(http.MethodGet)
	v1.HandleFunc("/approvals/{id}/approve", h.ApproveRequest).Methods(http.MethodPost)
	v1.HandleFunc("/approvals/{id}/reject", h.RejectRequest).Methods(http.MethodPost)
}

/* webhookPayload is the envelope review surfaces POST back */
type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		ApprovalID      string `json:"approval_id"`
		Approved        *bool  `json:"approved"`
		ModifiedContent string `json:"modified_content,omitempty"`
		Reviewer        string `json:"reviewer,omitempty"`
		Reason          string `json:"reason,omitempty"`
	} `json:"data"`
}

/* webhookResponse is the acknowledgement shape */
type webhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

/* HandleApprovalWebhook applies a reviewer verdict delivered over HTTP */
func (h *Handlers) HandleApprovalWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, NewErrorWithContext(http.StatusBadRequest, "invalid request body", err, requestID, r.URL.Path, r.Method, "approval"))
		return
	}
	if err := validateWebhookPayload(&payload); err != nil {
		respondError(w, NewErrorWithContext(http.StatusBadRequest, err.Error(), nil, requestID, r.URL.Path, r.Method, "approval"))
		return
	}

	err := h.manager.HandleDecision(r.Context(), payload.Data.ApprovalID, *payload.Data.Approved,
		payload.Data.ModifiedContent, payload.Data.Reviewer, payload.Data.Reason)
	if err != nil {
		if errors.Is(err, approval.ErrNotFound) {
			respondError(w, NewErrorWithContext(http.StatusNotFound, "approval request not found", nil, requestID, r.URL.Path, r.Method, "approval"))
			return
		}
		respondError(w, NewErrorWithContext(http.StatusInternalServerError, "failed to handle decision", err, requestID, r.URL.Path, r.Method, "approval"))
		return
	}

	verdict := "rejected"
	if *payload.Data.Approved {
		verdict = "approved"
	}
	respondJSON(w, http.StatusOK, webhookResponse{
		Success: true,
		Message: "approval request " + verdict,
	})
}

/* ListApprovals lists approval requests by status */
func (h *Handlers) ListApprovals(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	status := approval.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = approval.StatusPending
	}
	if err := validateStatus(status); err != nil {
		respondError(w, NewErrorWithContext(http.StatusBadRequest, err.Error(), nil, requestID, r.URL.Path, r.Method, "approval"))
		return
	}
	limit, offset := parsePagination(r)

	reqs, err := h.manager.List(r.Context(), status, limit, offset)
	if err != nil {
		respondError(w, NewErrorWithContext(http.StatusInternalServerError, "failed to list approval requests", err, requestID, r.URL.Path, r.Method, "approval"))
		return
	}
	if reqs == nil {
		reqs = []*approval.Request{}
	}

	respondJSON(w, http.StatusOK, reqs)
}

/* GetApproval returns a single approval request */
func (h *Handlers) GetApproval(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	id := mux.Vars(r)["id"]

	req, err := h.manager.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, approval.ErrNotFound) {
			respondError(w, WrapError(ErrNotFound, requestID))
			return
		}
		respondError(w, NewErrorWithContext(http.StatusInternalServerError, "failed to get approval request", err, requestID, r.URL.Path, r.Method, "approval"))
		return
	}

	respondJSON(w, http.StatusOK, req)
}

/* ApproveRequest approves an approval request */
func (h *Handlers) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	id := mux.Vars(r)["id"]

	var body struct {
		Reviewer        string `json:"reviewer"`
		ModifiedContent string `json:"modified_content,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, NewErrorWithContext(http.StatusBadRequest, "invalid request body", err, requestID, r.URL.Path, r.Method, "approval"))
		return
	}
	if body.Reviewer == "" {
		respondError(w, NewErrorWithContext(http.StatusBadRequest, "reviewer is required", nil, requestID, r.URL.Path, r.Method, "approval"))
		return
	}
	if err := validateModifiedContent(body.ModifiedContent); err != nil {
		respondError(w, NewErrorWithContext(http.StatusBadRequest, err.Error(), nil, requestID, r.URL.Path, r.Method, "approval"))
		return
	}

	if err := h.manager.HandleDecision(r.Context(), id, true, body.ModifiedContent, body.Reviewer, ""); err != nil {
		if errors.Is(err, approval.ErrNotFound) {
			respondError(w, WrapError(ErrNotFound, requestID))
			return
		}
		respondError(w, NewErrorWithContext(http.StatusInternalServerError, "failed to approve request", err, requestID, r.URL.Path, r.Method, "approval"))
		return
	}

	respondJSON(w, http.StatusOK, webhookResponse{Success: true, Message: "approval request approved"})
}

/* RejectRequest rejects an approval request */
func (h *Handlers) RejectRequest(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	id := mux.Vars(r)["id"]

	var body struct {
		Reviewer string `json:"reviewer"`
		Reason   string `json:"reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, NewErrorWithContext(http.StatusBadRequest, "invalid request body", err, requestID, r.URL.Path, r.Method, "approval"))
		return
	}
	if body.Reviewer == "" {
		respondError(w, NewErrorWithContext(http.StatusBadRequest, "reviewer is required", nil, requestID, r.URL.Path, r.Method, "approval"))
		return
	}

	if err := h.manager.HandleDecision(r.Context(), id, false, "", body.Reviewer, body.Reason); err != nil {
		if errors.Is(err, approval.ErrNotFound) {
			respondError(w, WrapError(ErrNotFound, requestID))
			return
		}
		respondError(w, NewErrorWithContext(http.StatusInternalServerError, "failed to reject request", err, requestID, r.URL.Path, r.Method, "approval"))
		return
	}

	respondJSON(w, http.StatusOK, webhookResponse{Success: true, Message: "approval request rejected"})
}

/* Health reports process and store health */
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
	}

	if h.db != nil {
		if err := h.db.HealthCheck(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}

	if pending, err := h.manager.PendingCount(r.Context()); err == nil {
		status["pending_approvals"] = pending
	}

	respondJSON(w, http.StatusOK, status)
}
