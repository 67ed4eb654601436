package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"appraisal/internal/requestctx"
)

const maxRequestIDLen = 128

// RequestID honours an incoming X-Request-ID when it is reasonably short and
// mints a uuid otherwise.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" || len(reqID) > maxRequestIDLen {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(requestctx.WithRequestID(r.Context(), reqID)))
	})
}
