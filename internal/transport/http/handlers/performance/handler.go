package performancehandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/performance"
	"appraisal/internal/platform/metrics"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

// Service is the slice of performance.Service the handlers call.
type Service interface {
	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)

	CreateTemplate(ctx context.Context, tenantID string, in performance.TemplateInput) (performance.Template, error)
	ListTemplates(ctx context.Context, tenantID string) ([]performance.Template, error)
	GetTemplate(ctx context.Context, tenantID, id string) (performance.Template, error)
	UpdateTemplate(ctx context.Context, tenantID, id string, patch performance.TemplatePatch) (performance.Template, error)
	DeleteTemplate(ctx context.Context, tenantID, id string) error

	CreateCycle(ctx context.Context, tenantID string, in performance.CycleInput) (performance.CycleWithAssignments, error)
	ListCycles(ctx context.Context, tenantID string) ([]performance.Cycle, error)
	GetCycle(ctx context.Context, tenantID, id string) (performance.Cycle, error)
	ActivateCycle(ctx context.Context, tenantID, id string) (performance.Cycle, error)
	PublishCycle(ctx context.Context, tenantID, id string) (performance.PublishResult, error)
	CloseCycle(ctx context.Context, tenantID, id string) (performance.Cycle, error)
	ArchiveCycle(ctx context.Context, tenantID, id string) (performance.Cycle, error)

	ListAssignments(ctx context.Context, tenantID string, filter performance.AssignmentFilter) ([]performance.AssignmentView, error)
	UpsertRecord(ctx context.Context, tenantID, assignmentID, managerID string, in performance.RecordInput) (performance.Record, error)
	SubmitRecord(ctx context.Context, tenantID, recordID, managerID string) (performance.Record, error)
	ListEmployeeAppraisals(ctx context.Context, tenantID, employeeID string) ([]performance.RecordView, error)
	GetRecord(ctx context.Context, tenantID, recordID string, viewer performance.Viewer) (performance.Record, error)
	RecordPDF(ctx context.Context, tenantID, recordID string, viewer performance.Viewer) ([]byte, error)

	SubmitDispute(ctx context.Context, tenantID, recordID, employeeID string, in performance.DisputeInput) (performance.Dispute, error)
	ResolveDispute(ctx context.Context, tenantID, disputeID, resolverID string, in performance.ResolveInput) (performance.Dispute, error)
	GetDispute(ctx context.Context, tenantID, id string) (performance.Dispute, error)
	ListDisputes(ctx context.Context, tenantID string, filter performance.DisputeFilter) ([]performance.Dispute, error)
}

type Handler struct {
	Service     Service
	Perms       middleware.PermissionStore
	Audit       audit.Recorder
	Metrics     *metrics.Collector
	Idempotency middleware.IdempotencyBackend
}

func NewHandler(service Service, perms middleware.PermissionStore, auditLog audit.Recorder, collector *metrics.Collector, idem middleware.IdempotencyBackend) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditLog, Metrics: collector, Idempotency: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermPerformanceRead, h.Perms)
	write := middleware.RequirePermission(auth.PermPerformanceWrite, h.Perms)
	review := middleware.RequirePermission(auth.PermPerformanceReview, h.Perms)
	finalize := middleware.RequirePermission(auth.PermPerformanceFinalize, h.Perms)

	r.Route("/performance", func(r chi.Router) {
		r.With(write).Post("/templates", h.handleCreateTemplate)
		r.With(read).Get("/templates", h.handleListTemplates)
		r.With(read).Get("/templates/{templateID}", h.handleGetTemplate)
		r.With(write).Patch("/templates/{templateID}", h.handleUpdateTemplate)
		r.With(write).Delete("/templates/{templateID}", h.handleDeleteTemplate)

		r.With(finalize, middleware.Idempotent(h.Idempotency)).Post("/cycles", h.handleCreateCycle)
		r.With(read).Get("/cycles", h.handleListCycles)
		r.With(read).Get("/cycles/{cycleID}", h.handleGetCycle)
		r.With(finalize).Patch("/cycles/{cycleID}/activate", h.handleActivateCycle)
		r.With(finalize).Patch("/cycles/{cycleID}/publish", h.handlePublishCycle)
		r.With(finalize).Patch("/cycles/{cycleID}/close", h.handleCloseCycle)
		r.With(finalize).Patch("/cycles/{cycleID}/archive", h.handleArchiveCycle)

		r.With(review).Get("/assignments/manager/{managerProfileID}", h.handleListManagerAssignments)
		r.With(read).Get("/assignments/employee/{employeeProfileID}", h.handleListEmployeeAssignments)
		r.With(review).Post("/assignments/{assignmentID}/records", h.handleUpsertRecord)

		r.With(review).Patch("/appraisals/{appraisalID}/submit", h.handleSubmitRecord)
		r.With(read).Get("/appraisals/employee/{employeeProfileID}", h.handleListEmployeeAppraisals)
		r.With(read).Get("/appraisals/{appraisalID}", h.handleGetRecord)
		r.With(read).Get("/appraisals/{appraisalID}/pdf", h.handleRecordPDF)
		r.With(read).Post("/appraisals/{appraisalID}/disputes", h.handleSubmitDispute)

		r.With(finalize).Get("/disputes", h.handleListDisputes)
		r.With(finalize).Get("/disputes/{disputeID}", h.handleGetDispute)
		r.With(finalize).Patch("/disputes/{disputeID}/resolve", h.handleResolveDispute)
	})
}

// callerEmployeeID maps the authenticated user to their employee profile.
// It writes the error response itself and returns false on failure.
func (h *Handler) callerEmployeeID(w http.ResponseWriter, r *http.Request, user auth.UserContext) (string, bool) {
	id, err := h.Service.EmployeeIDByUserID(r.Context(), user.TenantID, user.UserID)
	if errors.Is(err, performance.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusForbidden, "forbidden", "caller has no employee profile", middleware.GetRequestID(r.Context()))
		return "", false
	}
	if err != nil {
		writeError(w, r, err)
		return "", false
	}
	return id, true
}

// requireSelfOrHR lets HR through and otherwise requires the caller's own
// employee profile to be the one in the path.
func (h *Handler) requireSelfOrHR(w http.ResponseWriter, r *http.Request, user auth.UserContext, employeeID string) bool {
	if user.IsHR() {
		return true
	}
	self, ok := h.callerEmployeeID(w, r, user)
	if !ok {
		return false
	}
	if self != employeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "caller may only access their own appraisals", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

// viewer builds the read identity for record endpoints. HR users without a
// profile still get HR visibility.
func (h *Handler) viewer(r *http.Request, user auth.UserContext) (performance.Viewer, error) {
	v := performance.Viewer{IsHR: user.IsHR()}
	id, err := h.Service.EmployeeIDByUserID(r.Context(), user.TenantID, user.UserID)
	switch {
	case err == nil:
		v.EmployeeID = id
	case errors.Is(err, performance.ErrEmployeeNotFound):
	default:
		return v, err
	}
	return v, nil
}

func (h *Handler) recordAudit(r *http.Request, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, action, entityType, entityID, reqID, shared.ClientIP(r), before, after); err != nil {
		requestctx.Logger(r.Context()).Warn("audit record failed", zap.String("action", action), zap.String("entityId", entityID), zap.Error(err))
	}
}

type failure struct {
	status int
	code   string
	field  string
}

var failures = []struct {
	err error
	failure
}{
	{performance.ErrTemplateNotFound, failure{http.StatusNotFound, "not_found", ""}},
	{performance.ErrCycleNotFound, failure{http.StatusNotFound, "not_found", ""}},
	{performance.ErrAssignmentNotFound, failure{http.StatusNotFound, "not_found", ""}},
	{performance.ErrRecordNotFound, failure{http.StatusNotFound, "not_found", ""}},
	{performance.ErrDisputeNotFound, failure{http.StatusNotFound, "not_found", ""}},
	{performance.ErrEmployeeNotFound, failure{http.StatusNotFound, "not_found", ""}},

	{performance.ErrInvalidWeights, failure{http.StatusBadRequest, "validation_error", "criteria"}},
	{performance.ErrDuplicateCriterionKey, failure{http.StatusBadRequest, "validation_error", "criteria"}},
	{performance.ErrInvalidMaxScore, failure{http.StatusBadRequest, "validation_error", "criteria"}},
	{performance.ErrInvalidRatingScale, failure{http.StatusBadRequest, "validation_error", "ratingScale"}},
	{performance.ErrInvalidTemplateType, failure{http.StatusBadRequest, "validation_error", "type"}},
	{performance.ErrInvalidDateRange, failure{http.StatusBadRequest, "validation_error", "startDate"}},
	{performance.ErrInvalidRating, failure{http.StatusBadRequest, "validation_error", "ratings"}},
	{performance.ErrMissingRequiredRating, failure{http.StatusBadRequest, "validation_error", "ratings"}},
	{performance.ErrInvalidDisputeStatus, failure{http.StatusBadRequest, "validation_error", "status"}},

	{performance.ErrInvalidTransition, failure{http.StatusBadRequest, "invalid_state", ""}},
	{performance.ErrTemplateInactive, failure{http.StatusBadRequest, "invalid_state", ""}},
	{performance.ErrRecordPublished, failure{http.StatusBadRequest, "invalid_state", ""}},
	{performance.ErrRecordNotPublished, failure{http.StatusBadRequest, "invalid_state", ""}},
	{performance.ErrDisputeClosed, failure{http.StatusBadRequest, "invalid_state", ""}},
	{performance.ErrCycleNotOpen, failure{http.StatusBadRequest, "invalid_state", ""}},

	{performance.ErrNotAssignedManager, failure{http.StatusForbidden, "forbidden", ""}},
	{performance.ErrNotRecordEmployee, failure{http.StatusForbidden, "forbidden", ""}},
	{performance.ErrResolverIsRaiser, failure{http.StatusForbidden, "forbidden", ""}},
	{performance.ErrRecordAccessDenied, failure{http.StatusForbidden, "forbidden", ""}},

	{performance.ErrDuplicateAssignment, failure{http.StatusConflict, "conflict", ""}},
	{performance.ErrTemplateInUse, failure{http.StatusConflict, "conflict", ""}},
	{performance.ErrTemplateNameTaken, failure{http.StatusConflict, "conflict", ""}},
}

// writeError maps a service error onto the response envelope. Anything
// unrecognised is logged and reported as a 500 without its message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	for _, f := range failures {
		if !errors.Is(err, f.err) {
			continue
		}
		if f.field != "" {
			shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: f.field, Reason: err.Error()}})
			return
		}
		api.Fail(w, f.status, f.code, err.Error(), reqID)
		return
	}
	requestctx.Logger(r.Context()).Error("performance request failed", zap.String("path", r.URL.Path), zap.Error(err))
	api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", reqID)
}

// pathID reads a UUID path parameter, answering 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	return requireID(w, r, name, chi.URLParam(r, name), false)
}

// queryID reads an optional UUID filter from the query string.
func queryID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	return requireID(w, r, name, r.URL.Query().Get(name), true)
}

func requireID(w http.ResponseWriter, r *http.Request, field, raw string, optional bool) (string, bool) {
	if raw == "" && optional {
		return "", true
	}
	if len(raw) != 36 || uuid.Validate(raw) != nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: field, Reason: "must be a valid id"}})
		return "", false
	}
	return raw, true
}

func currentUser(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
	}
	return user, ok
}
