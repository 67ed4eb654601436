package audithandler

import (
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Reader interface {
	List(ctx context.Context, tenantID string, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
	Count(ctx context.Context, tenantID string, filter audit.Filter) (int, error)
	ListExport(ctx context.Context, tenantID string, filter audit.Filter) ([]audit.Event, error)
}

type Handler struct {
	Service Reader
	Perms   middleware.PermissionStore
}

func NewHandler(service Reader, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

// RegisterRoutes exposes the audit trail to HR. Appraisal data is
// HR-owned, so finalize is the gate rather than a separate audit permission.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermPerformanceFinalize, h.Perms))
		r.Get("/events", h.handleListEvents)
		r.Get("/events/export", h.handleExportEvents)
	})
}

func filterFrom(r *http.Request) audit.Filter {
	q := r.URL.Query()
	return audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
		ActorUser:  q.Get("actorUserId"),
	}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	filter := filterFrom(r)
	includeDetails := r.URL.Query().Get("includeDetails") == "true"
	total, err := h.Service.Count(r.Context(), user.TenantID, filter)
	if err != nil {
		requestctx.Logger(r.Context()).Warn("audit count failed", zap.Error(err))
	}

	events, err := h.Service.List(r.Context(), user.TenantID, filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		requestctx.Logger(r.Context()).Error("audit list failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, shared.NewPage(events, total, page), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	events, err := h.Service.ListExport(r.Context(), user.TenantID, filterFrom(r))
	if err != nil {
		requestctx.Logger(r.Context()).Error("audit export failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", middleware.GetRequestID(r.Context()))
		return
	}

	log := requestctx.Logger(r.Context())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "actor_user_id", "action", "entity_type", "entity_id", "request_id", "ip", "created_at"}); err != nil {
		log.Warn("audit export header failed", zap.Error(err))
	}
	for _, evt := range events {
		row := []string{evt.ID, evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, evt.RequestID, evt.IP, evt.CreatedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(row); err != nil {
			log.Warn("audit export row failed", zap.Error(err))
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Warn("audit export flush failed", zap.Error(err))
	}
}
