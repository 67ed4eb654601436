package shared

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	EmployeeID string `json:"employeeProfileId" validate:"required"`
}

type payload struct {
	Name    string  `json:"name" validate:"required,max=10"`
	Type    string  `json:"type" validate:"oneof=ANNUAL PROJECT"`
	Entries []entry `json:"entries" validate:"min=1,dive"`
}

func TestValidatorStructUsesJSONPaths(t *testing.T) {
	v := NewValidator()
	v.Struct(payload{Name: "", Type: "OTHER", Entries: []entry{{}}})

	assert.Equal(t, []ValidationIssue{
		{Field: "entries[0].employeeProfileId", Reason: "is required"},
		{Field: "name", Reason: "is required"},
		{Field: "type", Reason: "must be one of: ANNUAL PROJECT"},
	}, v.Issues())

	ok := NewValidator()
	ok.Struct(payload{Name: "Q1", Type: "ANNUAL", Entries: []entry{{EmployeeID: "e1"}}})
	assert.False(t, ok.HasIssues())
}

func TestValidatorDates(t *testing.T) {
	v := NewValidator()
	start, ok := v.Date("startDate", "2024-06-01")
	require.True(t, ok)
	end, ok := v.Date("endDate", "2024-05-01")
	require.True(t, ok)
	v.DateOrder("startDate", start, "endDate", end)
	_, ok = v.Date("other", "06/01/2024")
	assert.False(t, ok)
	assert.Nil(t, v.OptionalDate("managerDueDate", ""))

	assert.Equal(t, []ValidationIssue{
		{Field: "other", Reason: "must be a valid date in YYYY-MM-DD format"},
		{Field: "startDate", Reason: "must be before endDate"},
	}, v.Issues())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-01T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())
}

func TestRejectWritesValidationEnvelope(t *testing.T) {
	v := NewValidator()
	v.Add("weights", "must sum to 0 or 100")
	rec := httptest.NewRecorder()
	require.True(t, v.Reject(rec, "req-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"validation_error","message":"payload validation failed","details":{"fields":[{"field":"weights","reason":"must sum to 0 or 100"}]}},"requestId":"req-1"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var dst map[string]any
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"a":1}`))
	assert.True(t, DecodeJSON(httptest.NewRecorder(), req, &dst, ""))

	rec := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{bad`))
	assert.False(t, DecodeJSON(rec, req, &dst, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientIPAndPagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=-1", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))

	p := ParsePagination(req, 20, 100)
	assert.Equal(t, Pagination{Limit: 100, Offset: 0}, p)
	page := NewPage[int](nil, 0, p)
	assert.Equal(t, []int{}, page.Items)
}
