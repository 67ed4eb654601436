package notificationshandler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Inbox interface {
	List(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]notifications.Notification, error)
	Count(ctx context.Context, tenantID, userID string, unreadOnly bool) (int, error)
	MarkRead(ctx context.Context, tenantID, userID, notificationID string) error
}

type Handler struct {
	Service Inbox
	Perms   middleware.PermissionStore
}

func NewHandler(service Inbox, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermNotificationsRead, h.Perms))
		r.Get("/", h.handleList)
		r.Post("/{notificationID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	total, err := h.Service.Count(r.Context(), user.TenantID, user.UserID, unreadOnly)
	if err != nil {
		requestctx.Logger(r.Context()).Warn("notification count failed", zap.Error(err))
	}

	items, err := h.Service.List(r.Context(), user.TenantID, user.UserID, unreadOnly, page.Limit, page.Offset)
	if err != nil {
		requestctx.Logger(r.Context()).Error("notification list failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, shared.NewPage(items, total, page), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	notificationID := chi.URLParam(r, "notificationID")
	if uuid.Validate(notificationID) != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "notification not found", middleware.GetRequestID(r.Context()))
		return
	}
	err := h.Service.MarkRead(r.Context(), user.TenantID, user.UserID, notificationID)
	if errors.Is(err, notifications.ErrNotificationNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "notification not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		requestctx.Logger(r.Context()).Error("notification update failed", zap.String("notificationId", notificationID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "notification_update_failed", "failed to update notification", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"status": "read"}, middleware.GetRequestID(r.Context()))
}
