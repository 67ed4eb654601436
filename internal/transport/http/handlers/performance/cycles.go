package performancehandler

import (
	"context"
	"net/http"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/performance"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

const entityCycle = "appraisal_cycle"

func (h *Handler) handleCreateCycle(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	var payload createCycleRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	in := payload.toDomain(v)
	if v.Reject(w, reqID) {
		return
	}

	created, err := h.Service.CreateCycle(r.Context(), user.TenantID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.recordAudit(r, user, audit.ActionCycleCreate, entityCycle, created.Cycle.ID, nil, created.Cycle)
	api.Created(w, created, reqID)
}

func (h *Handler) handleListCycles(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	cycles, err := h.Service.ListCycles(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, cycles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cycleID")
	if !ok {
		return
	}
	cycle, err := h.Service.GetCycle(r.Context(), user.TenantID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, cycle, middleware.GetRequestID(r.Context()))
}

type cycleTransition func(ctx context.Context, tenantID, id string) (performance.Cycle, error)

func (h *Handler) handleActivateCycle(w http.ResponseWriter, r *http.Request) {
	h.transitionCycle(w, r, audit.ActionCycleActivate, h.Service.ActivateCycle)
}

func (h *Handler) handleCloseCycle(w http.ResponseWriter, r *http.Request) {
	h.transitionCycle(w, r, audit.ActionCycleClose, h.Service.CloseCycle)
}

func (h *Handler) handleArchiveCycle(w http.ResponseWriter, r *http.Request) {
	h.transitionCycle(w, r, audit.ActionCycleArchive, h.Service.ArchiveCycle)
}

func (h *Handler) transitionCycle(w http.ResponseWriter, r *http.Request, action string, apply cycleTransition) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cycleID")
	if !ok {
		return
	}
	before, err := h.Service.GetCycle(r.Context(), user.TenantID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cycle, err := apply(r.Context(), user.TenantID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.recordAudit(r, user, action, entityCycle, id, before, cycle)
	api.Success(w, cycle, middleware.GetRequestID(r.Context()))
}

// handlePublishCycle publishes every submitted record and closes the cycle.
func (h *Handler) handlePublishCycle(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cycleID")
	if !ok {
		return
	}
	before, err := h.Service.GetCycle(r.Context(), user.TenantID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.Service.PublishCycle(r.Context(), user.TenantID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.RecordsPublished(result.PublishedCount)
	h.recordAudit(r, user, audit.ActionCyclePublish, entityCycle, id, before, result)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}
