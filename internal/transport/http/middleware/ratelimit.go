package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/shared"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*rateLimiter)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepSize = 10000
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per key. Buckets refill at perMinute and
// allow a burst of the same size.
type rateLimiter struct {
	mu        sync.Mutex
	perMinute int
	keyFn     RateLimitKeyFunc
	clients   map[string]*limiterEntry
	now       func() time.Time
}

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(rl *rateLimiter) {
		if fn != nil {
			rl.keyFn = fn
		}
	}
}

// RateLimit throttles each authenticated user, or each client IP for
// anonymous calls, to perMinute requests.
func RateLimit(perMinute int, opts ...RateLimitOption) func(http.Handler) http.Handler {
	rl := newRateLimiter(perMinute, actorOrIPKey)
	for _, opt := range opts {
		opt(rl)
	}
	return rl.middleware
}

// LoginRateLimit applies a tighter budget to login attempts, keyed by the
// submitted email and then by IP, so one address cannot spray many accounts.
func LoginRateLimit(basePerMinute int) func(http.Handler) http.Handler {
	perMinute := max(basePerMinute/4, 1)
	byIP := newRateLimiter(perMinute, shared.ClientIP)
	byEmail := newRateLimiter(perMinute, EmailOrIPKey("email"))
	return func(next http.Handler) http.Handler {
		return byIP.middleware(byEmail.middleware(next))
	}
}

func EmailOrIPKey(field string) RateLimitKeyFunc {
	return func(r *http.Request) string {
		email := extractJSONField(r, field)
		if email == "" {
			return shared.ClientIP(r)
		}
		return "email:" + strings.ToLower(email)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.TenantID + ":" + user.UserID
	}
	return shared.ClientIP(r)
}

func newRateLimiter(perMinute int, keyFn RateLimitKeyFunc) *rateLimiter {
	if keyFn == nil {
		keyFn = actorOrIPKey
	}
	return &rateLimiter{
		perMinute: perMinute,
		keyFn:     keyFn,
		clients:   map[string]*limiterEntry{},
		now:       time.Now,
	}
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.enforce(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *rateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.clients) >= limiterSweepSize {
		for k, e := range rl.clients {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(rl.clients, k)
			}
		}
	}
	entry, ok := rl.clients[key]
	if !ok {
		every := time.Minute / time.Duration(rl.perMinute)
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(every), rl.perMinute)}
		rl.clients[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (rl *rateLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if rl.perMinute <= 0 {
		return true
	}
	key := rl.keyFn(r)
	if key == "" {
		key = shared.ClientIP(r)
	}
	now := rl.now()
	lim := rl.limiterFor(key, now)

	reservation := lim.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay > 0 {
		reservation.CancelAt(now)
	}

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(int(lim.TokensAt(now)), 0)))

	if delay <= 0 {
		return true
	}
	w.Header().Set("Retry-After", strconv.Itoa(max(int(math.Ceil(delay.Seconds())), 1)))
	requestctx.Logger(r.Context()).Warn("rate limit exceeded",
		zap.String("key", key),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("perMinute", rl.perMinute),
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

// extractJSONField peeks at a string field of a JSON body and restores the
// body for the handler.
func extractJSONField(r *http.Request, field string) string {
	if r == nil || r.Body == nil {
		return ""
	}
	if !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}
