package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
)

// Recoverer turns a handler panic into a 500 envelope and logs the stack.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			requestctx.Logger(r.Context()).Error("panic recovered",
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", GetRequestID(r.Context()))
		}()
		next.ServeHTTP(w, r)
	})
}
