package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesRecordedRequests(t *testing.T) {
	c := New()
	c.Record(http.MethodGet, "/api/v1/performance/cycles", http.StatusOK, 20*time.Millisecond)
	c.Record(http.MethodPost, "", http.StatusTooManyRequests, time.Millisecond)
	c.RecordsPublished(3)
	c.RecordsPublished(0)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `appraisal_http_requests_total{method="GET",route="/api/v1/performance/cycles",status="200"} 1`)
	assert.Contains(t, text, `route="unmatched"`)
	assert.Contains(t, text, "appraisal_http_rate_limited_total 1")
	assert.Contains(t, text, "appraisal_records_published_total 3")
}
