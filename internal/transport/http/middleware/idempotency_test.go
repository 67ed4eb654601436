package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appraisal/internal/domain/auth"
)

func TestRequestHashDeterministic(t *testing.T) {
	hash1 := RequestHash([]byte("payload"))
	hash2 := RequestHash([]byte("payload"))
	hash3 := RequestHash([]byte("other"))

	if hash1 != hash2 {
		t.Fatal("expected deterministic hash")
	}
	if hash1 == hash3 {
		t.Fatal("expected different hash for different payload")
	}
}

type memIdempotency struct {
	mu     sync.Mutex
	hashes map[string]string
	resps  map[string]StoredResponse
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{hashes: map[string]string{}, resps: map[string]StoredResponse{}}
}

func (m *memIdempotency) Reserve(_ context.Context, tenantID, userID, endpoint, key, hash string) (StoredResponse, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := tenantID + userID + endpoint + key
	stored, ok := m.hashes[k]
	if !ok {
		m.hashes[k] = hash
		return StoredResponse{}, false, nil
	}
	if stored != hash {
		return StoredResponse{}, false, ErrIdempotencyConflict
	}
	resp, done := m.resps[k]
	if !done {
		return StoredResponse{}, false, ErrIdempotencyInProgress
	}
	return resp, true, nil
}

func (m *memIdempotency) Complete(_ context.Context, tenantID, userID, endpoint, key, hash string, resp StoredResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := tenantID + userID + endpoint + key
	if m.hashes[k] != hash {
		return ErrIdempotencyConflict
	}
	m.resps[k] = resp
	return nil
}

func (m *memIdempotency) Release(_ context.Context, tenantID, userID, endpoint, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := tenantID + userID + endpoint + key
	if _, done := m.resps[k]; !done {
		delete(m.hashes, k)
	}
	return nil
}

func idempotentRequest(body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/performance/cycles", bytes.NewBufferString(body))
	req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: auth.RoleHR}))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestIdempotentReplaysAndRejectsChangedBody(t *testing.T) {
	calls := 0
	handler := Idempotent(newMemIdempotency())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"echo":` + string(body) + `}`))
	}))

	send := func(body, key string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, idempotentRequest(body, key))
		return rec
	}

	first := send(`{"name":"Q1"}`, "k1")
	require.Equal(t, http.StatusCreated, first.Code)

	replay := send(`{"name":"Q1"}`, "k1")
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, 1, calls)

	conflict := send(`{"name":"Q2"}`, "k1")
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, 1, calls)

	send(`{"name":"Q1"}`, "")
	assert.Equal(t, 2, calls)
}

func TestIdempotentReleasesKeyAfterFailedResponse(t *testing.T) {
	backend := newMemIdempotency()
	status := http.StatusBadRequest
	calls := 0
	handler := Idempotent(backend)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest(`{}`, "k1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, backend.resps)
	assert.Empty(t, backend.hashes)

	status = http.StatusCreated
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest(`{}`, "k1"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotentConcurrentSameKeyRunsHandlerOnce(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	unblock := make(chan struct{})
	handler := Idempotent(newMemIdempotency())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		close(entered)
		<-unblock
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"c1"}`))
	}))

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(first, idempotentRequest(`{"name":"Q1"}`, "k1"))
	}()
	<-entered

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, idempotentRequest(`{"name":"Q1"}`, "k1"))
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), "in progress")

	close(unblock)
	<-done
	require.Equal(t, http.StatusCreated, first.Code)

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, idempotentRequest(`{"name":"Q1"}`, "k1"))
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, int32(1), calls.Load())
}
