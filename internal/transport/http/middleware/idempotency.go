package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
)

const maxIdempotencyKeyLen = 255

var (
	ErrIdempotencyConflict   = errors.New("idempotency key conflicts with existing request")
	ErrIdempotencyInProgress = errors.New("a request with this idempotency key is still in progress")
)

// StoredResponse is a replayable response for an idempotency key.
type StoredResponse struct {
	Status int
	Body   json.RawMessage
}

// IdempotencyBackend holds one row per key. Reserve claims the key before the
// handler runs; a second caller sees the stored response, or
// ErrIdempotencyInProgress while the first is still running.
type IdempotencyBackend interface {
	Reserve(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (StoredResponse, bool, error)
	Complete(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, resp StoredResponse) error
	Release(ctx context.Context, tenantID, userID, endpoint, key string) error
}

type IdempotencyStore struct {
	db *pgxpool.Pool
}

func NewIdempotencyStore(db *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Reserve inserts a pending row for the key. found is true when the key
// already holds a completed response for the same body.
func (s *IdempotencyStore) Reserve(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (StoredResponse, bool, error) {
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (tenant_id, user_id, key, endpoint, request_hash, status_code, response_json)
    VALUES ($1, $2, $3, $4, $5, 0, NULL)
    ON CONFLICT (tenant_id, user_id, key, endpoint) DO NOTHING
  `, tenantID, userID, key, endpoint, requestHash)
	if err != nil {
		return StoredResponse{}, false, err
	}
	if tag.RowsAffected() == 1 {
		return StoredResponse{}, false, nil
	}

	var storedHash string
	var resp StoredResponse
	err = s.db.QueryRow(ctx, `
    SELECT request_hash, status_code, response_json
    FROM idempotency_keys
    WHERE tenant_id = $1 AND user_id = $2 AND key = $3 AND endpoint = $4
  `, tenantID, userID, key, endpoint).Scan(&storedHash, &resp.Status, &resp.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		// Released between the insert and the read.
		return StoredResponse{}, false, ErrIdempotencyInProgress
	}
	if err != nil {
		return StoredResponse{}, false, err
	}
	if storedHash != requestHash {
		return StoredResponse{}, false, ErrIdempotencyConflict
	}
	if resp.Status == 0 {
		return StoredResponse{}, false, ErrIdempotencyInProgress
	}
	return resp, true, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, resp StoredResponse) error {
	tag, err := s.db.Exec(ctx, `
    UPDATE idempotency_keys
    SET status_code = $6, response_json = $7
    WHERE tenant_id = $1 AND user_id = $2 AND key = $3 AND endpoint = $4 AND request_hash = $5
  `, tenantID, userID, key, endpoint, requestHash, resp.Status, resp.Body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Release drops a pending reservation so the key can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, tenantID, userID, endpoint, key string) error {
	_, err := s.db.Exec(ctx, `
    DELETE FROM idempotency_keys
    WHERE tenant_id = $1 AND user_id = $2 AND key = $3 AND endpoint = $4 AND status_code = 0
  `, tenantID, userID, key, endpoint)
	return err
}

type captureWriter struct {
	*statusRecorder
	body bytes.Buffer
}

func (c *captureWriter) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.statusRecorder.Write(b)
}

// Idempotent replays the stored response when a request repeats its
// Idempotency-Key with the same body, and rejects the key with 409 when the
// body differs or the first request is still running. Only 2xx responses are
// stored; any other outcome frees the key for a retry.
func Idempotent(backend IdempotencyBackend) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			user, ok := GetUser(r.Context())
			if key == "" || !ok || backend == nil {
				next.ServeHTTP(w, r)
				return
			}
			reqID := GetRequestID(r.Context())
			if len(key) > maxIdempotencyKeyLen {
				api.Fail(w, http.StatusBadRequest, "invalid_idempotency_key", "Idempotency-Key is too long", reqID)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", reqID)
					return
				}
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "unreadable request body", reqID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := RequestHash(body)
			endpoint := r.Method + " " + r.URL.Path
			logger := requestctx.Logger(r.Context())
			stored, found, err := backend.Reserve(r.Context(), user.TenantID, user.UserID, endpoint, key, hash)
			switch {
			case errors.Is(err, ErrIdempotencyConflict), errors.Is(err, ErrIdempotencyInProgress):
				api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
				return
			case err != nil:
				logger.Error("idempotency reserve failed", zap.Error(err))
				api.Fail(w, http.StatusInternalServerError, "idempotency_error", "idempotency check failed", reqID)
				return
			case found:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			capture := &captureWriter{statusRecorder: newStatusRecorder(w)}
			completed := false
			defer func() {
				if completed {
					return
				}
				// The request context may already be cancelled.
				if err := backend.Release(context.WithoutCancel(r.Context()), user.TenantID, user.UserID, endpoint, key); err != nil {
					logger.Warn("idempotency release failed", zap.String("endpoint", endpoint), zap.Error(err))
				}
			}()
			next.ServeHTTP(capture, r)
			if capture.status < 200 || capture.status >= 300 {
				return
			}
			resp := StoredResponse{Status: capture.status, Body: json.RawMessage(bytes.TrimSpace(capture.body.Bytes()))}
			if err := backend.Complete(r.Context(), user.TenantID, user.UserID, endpoint, key, hash, resp); err != nil {
				logger.Warn("idempotency save failed", zap.String("endpoint", endpoint), zap.Error(err))
				return
			}
			completed = true
		})
	}
}
