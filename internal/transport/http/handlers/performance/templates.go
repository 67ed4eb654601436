package performancehandler

import (
	"net/http"

	"appraisal/internal/domain/audit"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

const entityTemplate = "appraisal_template"

func (h *Handler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	var payload createTemplateRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	tmpl, err := h.Service.CreateTemplate(r.Context(), user.TenantID, payload.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.recordAudit(r, user, audit.ActionTemplateCreate, entityTemplate, tmpl.ID, nil, tmpl)
	api.Created(w, tmpl, reqID)
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	templates, err := h.Service.ListTemplates(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, templates, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "templateID")
	if !ok {
		return
	}
	tmpl, err := h.Service.GetTemplate(r.Context(), user.TenantID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, tmpl, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	id, ok := pathID(w, r, "templateID")
	if !ok {
		return
	}
	var payload updateTemplateRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	before, err := h.Service.GetTemplate(r.Context(), user.TenantID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tmpl, err := h.Service.UpdateTemplate(r.Context(), user.TenantID, id, payload.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.recordAudit(r, user, audit.ActionTemplateUpdate, entityTemplate, id, before, tmpl)
	api.Success(w, tmpl, reqID)
}

func (h *Handler) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "templateID")
	if !ok {
		return
	}
	if err := h.Service.DeleteTemplate(r.Context(), user.TenantID, id); err != nil {
		writeError(w, r, err)
		return
	}
	h.recordAudit(r, user, audit.ActionTemplateDelete, entityTemplate, id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
