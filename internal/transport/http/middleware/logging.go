package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"appraisal/internal/platform/metrics"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/shared"
)

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}

// Logger puts a request-scoped logger on the context and writes one access
// line per request. Run it after RequestID.
func Logger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.With(zap.String("requestId", GetRequestID(r.Context())))
			recorder := newStatusRecorder(w)
			next.ServeHTTP(recorder, r.WithContext(requestctx.WithLogger(r.Context(), reqLog)))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", recorder.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", shared.ClientIP(r)),
			}
			if user, ok := GetUser(r.Context()); ok {
				fields = append(fields, zap.String("userId", user.UserID))
			}
			if recorder.status >= http.StatusInternalServerError {
				reqLog.Warn("http request", fields...)
				return
			}
			reqLog.Info("http request", fields...)
		})
	}
}

// Metrics records every request against its chi route pattern so ids in the
// path do not explode label cardinality.
func Metrics(c *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := newStatusRecorder(w)
			next.ServeHTTP(recorder, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			c.Record(r.Method, route, recorder.status, time.Since(start))
		})
	}
}
