package performancehandler

import (
	"fmt"
	"net/http"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/performance"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

const entityRecord = "appraisal_record"

// handleListManagerAssignments lists a manager's review queue. Managers only
// see their own; HR may look at anyone's.
func (h *Handler) handleListManagerAssignments(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	managerID, ok := pathID(w, r, "managerProfileID")
	if !ok {
		return
	}
	cycleID, ok := queryID(w, r, "cycleId")
	if !ok {
		return
	}
	if !user.IsHR() {
		self, ok := h.callerEmployeeID(w, r, user)
		if !ok {
			return
		}
		if self != managerID {
			api.Fail(w, http.StatusForbidden, "forbidden", "caller may only list their own review assignments", middleware.GetRequestID(r.Context()))
			return
		}
	}
	h.listAssignments(w, r, user.TenantID, performance.AssignmentFilter{ManagerID: managerID, CycleID: cycleID})
}

func (h *Handler) handleListEmployeeAssignments(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	employeeID, ok := pathID(w, r, "employeeProfileID")
	if !ok {
		return
	}
	cycleID, ok := queryID(w, r, "cycleId")
	if !ok {
		return
	}
	if !h.requireSelfOrHR(w, r, user, employeeID) {
		return
	}
	h.listAssignments(w, r, user.TenantID, performance.AssignmentFilter{EmployeeID: employeeID, CycleID: cycleID})
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request, tenantID string, filter performance.AssignmentFilter) {
	items, err := h.Service.ListAssignments(r.Context(), tenantID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

// handleUpsertRecord saves the caller's draft for an assignment. The manager
// is always the caller; the body cannot name one.
func (h *Handler) handleUpsertRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	assignmentID, ok := pathID(w, r, "assignmentID")
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	var payload upsertRecordRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}
	managerID, ok := h.callerEmployeeID(w, r, user)
	if !ok {
		return
	}

	record, err := h.Service.UpsertRecord(r.Context(), user.TenantID, assignmentID, managerID, payload.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.recordAudit(r, user, audit.ActionRecordUpsert, entityRecord, record.ID, nil, record)
	api.Success(w, record, reqID)
}

func (h *Handler) handleSubmitRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "appraisalID")
	if !ok {
		return
	}
	managerID, ok := h.callerEmployeeID(w, r, user)
	if !ok {
		return
	}
	record, err := h.Service.SubmitRecord(r.Context(), user.TenantID, id, managerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.recordAudit(r, user, audit.ActionRecordSubmit, entityRecord, id, nil, record)
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEmployeeAppraisals(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	employeeID, ok := pathID(w, r, "employeeProfileID")
	if !ok {
		return
	}
	if !h.requireSelfOrHR(w, r, user, employeeID) {
		return
	}
	records, err := h.Service.ListEmployeeAppraisals(r.Context(), user.TenantID, employeeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "appraisalID")
	if !ok {
		return
	}
	viewer, err := h.viewer(r, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	record, err := h.Service.GetRecord(r.Context(), user.TenantID, id, viewer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecordPDF(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "appraisalID")
	if !ok {
		return
	}
	viewer, err := h.viewer(r, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pdf, err := h.Service.RecordPDF(r.Context(), user.TenantID, id, viewer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "appraisal-"+id+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
