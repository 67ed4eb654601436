package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletionRate(t *testing.T) {
	cases := []struct {
		name   string
		counts ReviewCounts
		want   float64
	}{
		{name: "empty", counts: ReviewCounts{}, want: 0},
		{name: "all done", counts: ReviewCounts{Submitted: 4}, want: 100},
		{name: "one of three", counts: ReviewCounts{Pending: 2, Submitted: 1}, want: 33.3},
		{name: "two of three", counts: ReviewCounts{Pending: 1, Overdue: 1, Submitted: 2}, want: 66.7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, completionRate(tc.counts))
		})
	}
}

func TestCycleCountsFillsEveryStatus(t *testing.T) {
	got := cycleCounts(map[string]int{"ACTIVE": 2, "LEGACY": 9})
	assert.Equal(t, map[string]int{"PLANNED": 0, "ACTIVE": 2, "CLOSED": 0, "ARCHIVED": 0}, got)
}

func TestDecodeDetails(t *testing.T) {
	assert.Equal(t, map[string]any{}, decodeDetails(nil))
	assert.Equal(t, map[string]any{"reminded": float64(3)}, decodeDetails([]byte(`{"reminded":3}`)))
	assert.Equal(t, map[string]any{"raw": "not-json"}, decodeDetails([]byte("not-json")))
}

func TestBuildJobRunsBaseQuery(t *testing.T) {
	query, args := buildJobRunsBaseQuery("t1", JobRunFilter{JobType: " overdue_reminder ", Status: "failed"})
	assert.Contains(t, query, "job_type = $2")
	assert.Contains(t, query, "status = $3")
	assert.Equal(t, []any{"t1", "overdue_reminder", "failed"}, args)

	query, args = buildJobRunsBaseQuery("t1", JobRunFilter{})
	assert.NotContains(t, query, "job_type =")
	assert.Equal(t, []any{"t1"}, args)
}
