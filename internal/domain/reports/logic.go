package reports

import (
	"encoding/json"
	"math"

	"appraisal/internal/domain/performance"
)

var cycleStatuses = []string{
	performance.CycleStatusPlanned,
	performance.CycleStatusActive,
	performance.CycleStatusClosed,
	performance.CycleStatusArchived,
}

// completionRate is submitted over all assignments as a percentage with one
// decimal. No assignments reads as 0.
func completionRate(c ReviewCounts) float64 {
	total := c.Pending + c.Submitted
	if total == 0 {
		return 0
	}
	return math.Round(float64(c.Submitted)/float64(total)*1000) / 10
}

// cycleCounts reports every known status, zero when absent, so clients get a
// stable shape.
func cycleCounts(raw map[string]int) map[string]int {
	out := make(map[string]int, len(cycleStatuses))
	for _, status := range cycleStatuses {
		out[status] = raw[status]
	}
	return out
}

func decodeDetails(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	details := map[string]any{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return details
}
