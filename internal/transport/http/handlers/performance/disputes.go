package performancehandler

import (
	"net/http"
	"strings"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/performance"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

const entityDispute = "appraisal_dispute"

func (h *Handler) handleSubmitDispute(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	recordID, ok := pathID(w, r, "appraisalID")
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	var payload disputeRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}
	employeeID, ok := h.callerEmployeeID(w, r, user)
	if !ok {
		return
	}

	dispute, err := h.Service.SubmitDispute(r.Context(), user.TenantID, recordID, employeeID,
		performance.DisputeInput{Reason: strings.TrimSpace(payload.Reason), Details: payload.Details})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.recordAudit(r, user, audit.ActionDisputeCreate, entityDispute, dispute.ID, nil, dispute)
	api.Created(w, dispute, reqID)
}

func (h *Handler) handleListDisputes(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	cycleID, ok := queryID(w, r, "cycleId")
	if !ok {
		return
	}
	disputes, err := h.Service.ListDisputes(r.Context(), user.TenantID, performance.DisputeFilter{
		CycleID: cycleID,
		Status:  strings.ToUpper(r.URL.Query().Get("status")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, disputes, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetDispute(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "disputeID")
	if !ok {
		return
	}
	dispute, err := h.Service.GetDispute(r.Context(), user.TenantID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, dispute, middleware.GetRequestID(r.Context()))
}

// handleResolveDispute records the caller as the resolver. Moving to
// UNDER_REVIEW leaves the dispute open; any other closing status ends it.
func (h *Handler) handleResolveDispute(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "disputeID")
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	var payload resolveDisputeRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}
	resolverID, ok := h.callerEmployeeID(w, r, user)
	if !ok {
		return
	}

	before, err := h.Service.GetDispute(r.Context(), user.TenantID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dispute, err := h.Service.ResolveDispute(r.Context(), user.TenantID, id, resolverID, performance.ResolveInput{
		Status:            payload.Status,
		ResolutionSummary: payload.ResolutionSummary,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.recordAudit(r, user, audit.ActionDisputeResolve, entityDispute, id, before, dispute)
	api.Success(w, dispute, reqID)
}
