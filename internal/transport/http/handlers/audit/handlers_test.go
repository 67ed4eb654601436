package audithandler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/transport/http/middleware"
)

type fakeReader struct {
	events         []audit.Event
	filter         audit.Filter
	includeDetails bool
}

func (f *fakeReader) List(_ context.Context, _ string, filter audit.Filter, includeDetails bool, _, _ int) ([]audit.Event, error) {
	f.filter, f.includeDetails = filter, includeDetails
	return f.events, nil
}

func (f *fakeReader) Count(context.Context, string, audit.Filter) (int, error) {
	return len(f.events), nil
}

func (f *fakeReader) ListExport(_ context.Context, _ string, filter audit.Filter) ([]audit.Event, error) {
	f.filter = filter
	return f.events, nil
}

func serve(t *testing.T, reader Reader, role, path string) *httptest.ResponseRecorder {
	t.Helper()
	enforcer, err := auth.NewEnforcer()
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(reader, enforcer).RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "user-1", TenantID: "tenant-1", RoleName: role}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sampleEvents() []audit.Event {
	return []audit.Event{{
		ID:         "evt-1",
		ActorID:    "user-HR",
		Action:     audit.ActionCyclePublish,
		EntityType: "appraisal_cycle",
		EntityID:   "cycle-1",
		CreatedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
}

func TestListEventsFiltersByEntity(t *testing.T) {
	reader := &fakeReader{events: sampleEvents()}

	rec := serve(t, reader, auth.RoleHR, "/audit/events?entityType=appraisal_cycle&entityId=cycle-1&includeDetails=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, audit.Filter{EntityType: "appraisal_cycle", EntityID: "cycle-1"}, reader.filter)
	assert.True(t, reader.includeDetails)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	var env struct {
		Data struct {
			Items []audit.Event `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data.Items, 1)
	assert.Equal(t, audit.ActionCyclePublish, env.Data.Items[0].Action)
}

func TestListEventsHROnly(t *testing.T) {
	rec := serve(t, &fakeReader{}, auth.RoleManager, "/audit/events")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExportEventsCSV(t *testing.T) {
	rec := serve(t, &fakeReader{events: sampleEvents()}, auth.RoleHR, "/audit/events/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, []string{"evt-1", "user-HR", audit.ActionCyclePublish, "appraisal_cycle", "cycle-1", "", "", "2025-03-01T12:00:00Z"}, rows[1])
}
