package authhandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/auth"
)

type stubAuth struct {
	email string
	err   error
}

func (s *stubAuth) Login(_ context.Context, email, _ string) (auth.LoginResult, error) {
	s.email = email
	if s.err != nil {
		return auth.LoginResult{}, s.err
	}
	return auth.LoginResult{Token: "signed", User: auth.AuthUser{ID: "u1", TenantID: "t1", RoleName: auth.RoleHR}}, nil
}

func newRouter(svc Authenticator) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc, 120).RegisterRoutes(r)
	return r
}

func post(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:5555"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginIssuesToken(t *testing.T) {
	svc := &stubAuth{}
	rec := post(newRouter(svc), `{"email":" hr@example.com ","password":"Secret123"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.email != "hr@example.com" {
		t.Fatalf("expected trimmed email, got %q", svc.email)
	}
	if !strings.Contains(rec.Body.String(), `"token":"signed"`) {
		t.Fatalf("token missing from body: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password leaked: %s", rec.Body.String())
	}
}

func TestLoginRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
		code string
	}{
		{name: "bad json", body: `{`, want: http.StatusBadRequest, code: "invalid_payload"},
		{name: "missing password", body: `{"email":"a@example.com"}`, want: http.StatusBadRequest, code: "validation_error"},
		{name: "bad email", body: `{"email":"nope","password":"x"}`, want: http.StatusBadRequest, code: "validation_error"},
		{name: "wrong credentials", body: `{"email":"a@example.com","password":"x"}`, err: auth.ErrInvalidCredentials, want: http.StatusUnauthorized, code: "invalid_credentials"},
		{name: "store down", body: `{"email":"a@example.com","password":"x"}`, err: errors.New("db down"), want: http.StatusInternalServerError, code: "login_failed"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(newRouter(&stubAuth{err: tc.err}), tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `"code":"`+tc.code+`"`) {
				t.Fatalf("expected code %s, got %s", tc.code, rec.Body.String())
			}
		})
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(&stubAuth{err: auth.ErrInvalidCredentials}, 4).RegisterRoutes(router)

	first := post(router, `{"email":"a@example.com","password":"x"}`)
	if first.Code != http.StatusUnauthorized {
		t.Fatalf("expected first attempt to reach the service, got %d", first.Code)
	}
	second := post(router, `{"email":"a@example.com","password":"x"}`)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the budget is spent, got %d", second.Code)
	}
}
