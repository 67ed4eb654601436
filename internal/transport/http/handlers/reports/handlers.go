package reportshandler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/reports"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Service interface {
	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)
	EmployeeDashboard(ctx context.Context, tenantID, employeeID string) (reports.EmployeeDashboard, error)
	ManagerDashboard(ctx context.Context, tenantID, managerID string) (reports.ManagerDashboard, error)
	HRDashboard(ctx context.Context, tenantID string) (reports.HRDashboard, error)
	ListJobRuns(ctx context.Context, tenantID string, filter reports.JobRunFilter, limit, offset int) ([]reports.JobRun, error)
	CountJobRuns(ctx context.Context, tenantID string, filter reports.JobRunFilter) (int, error)
	JobRun(ctx context.Context, tenantID, runID string) (reports.JobRun, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPerformanceRead, h.Perms)).Get("/dashboard/employee", h.handleEmployeeDashboard)
		r.With(middleware.RequirePermission(auth.PermPerformanceReview, h.Perms)).Get("/dashboard/manager", h.handleManagerDashboard)
		r.With(middleware.RequirePermission(auth.PermPerformanceFinalize, h.Perms)).Get("/dashboard/hr", h.handleHRDashboard)
		r.With(middleware.RequirePermission(auth.PermPerformanceFinalize, h.Perms)).Get("/jobs", h.handleListJobRuns)
		r.With(middleware.RequirePermission(auth.PermPerformanceFinalize, h.Perms)).Get("/jobs/{runID}", h.handleGetJobRun)
	})
}

// profileID resolves the caller's employee profile, writing the failure
// response itself when there is none.
func (h *Handler) profileID(w http.ResponseWriter, r *http.Request, user auth.UserContext) (string, bool) {
	employeeID, err := h.Service.EmployeeIDByUserID(r.Context(), user.TenantID, user.UserID)
	if errors.Is(err, reports.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusForbidden, "forbidden", "caller has no employee profile", middleware.GetRequestID(r.Context()))
		return "", false
	}
	if err != nil {
		requestctx.Logger(r.Context()).Error("employee lookup failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "failed to load dashboard", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return employeeID, true
}

func (h *Handler) handleEmployeeDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID, ok := h.profileID(w, r, user)
	if !ok {
		return
	}

	dashboard, err := h.Service.EmployeeDashboard(r.Context(), user.TenantID, employeeID)
	if err != nil {
		requestctx.Logger(r.Context()).Error("employee dashboard failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "failed to load dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dashboard, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleManagerDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	managerID, ok := h.profileID(w, r, user)
	if !ok {
		return
	}

	dashboard, err := h.Service.ManagerDashboard(r.Context(), user.TenantID, managerID)
	if err != nil {
		requestctx.Logger(r.Context()).Error("manager dashboard failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "failed to load dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dashboard, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHRDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	dashboard, err := h.Service.HRDashboard(r.Context(), user.TenantID)
	if err != nil {
		requestctx.Logger(r.Context()).Error("hr dashboard failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "failed to load dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dashboard, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListJobRuns(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	q := r.URL.Query()
	v := shared.NewValidator()
	filter := reports.JobRunFilter{
		JobType:     q.Get("jobType"),
		Status:      q.Get("status"),
		StartedFrom: v.OptionalDate("startedFrom", q.Get("startedFrom")),
		StartedTo:   v.OptionalDate("startedTo", q.Get("startedTo")),
	}
	if filter.StartedFrom != nil && filter.StartedTo != nil {
		v.DateOrder("startedFrom", *filter.StartedFrom, "startedTo", *filter.StartedTo)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	total, err := h.Service.CountJobRuns(r.Context(), user.TenantID, filter)
	if err != nil {
		requestctx.Logger(r.Context()).Warn("job runs count failed", zap.Error(err))
	}
	runs, err := h.Service.ListJobRuns(r.Context(), user.TenantID, filter, page.Limit, page.Offset)
	if err != nil {
		requestctx.Logger(r.Context()).Error("job runs list failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "failed to list job runs", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, shared.NewPage(runs, total, page), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetJobRun(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	run, err := h.Service.JobRun(r.Context(), user.TenantID, chi.URLParam(r, "runID"))
	if errors.Is(err, reports.ErrJobRunNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "job run not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		requestctx.Logger(r.Context()).Error("job run lookup failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "failed to load job run", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}
