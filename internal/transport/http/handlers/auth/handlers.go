package authhandler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"appraisal/internal/domain/auth"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
}

type Handler struct {
	Service            Authenticator
	RateLimitPerMinute int
}

func NewHandler(service Authenticator, rateLimitPerMinute int) *Handler {
	return &Handler{Service: service, RateLimitPerMinute: rateLimitPerMinute}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.LoginRateLimit(h.RateLimitPerMinute)).Post("/auth/login", h.HandleLogin)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	payload.Email = strings.TrimSpace(payload.Email)
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}
	if err != nil {
		requestctx.Logger(r.Context()).Error("login failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", reqID)
		return
	}

	api.Success(w, map[string]any{
		"token": result.Token,
		"user":  map[string]string{"id": result.User.ID, "tenantId": result.User.TenantID, "role": result.User.RoleName},
	}, reqID)
}
