package reports

import (
	"errors"
	"time"
)

var (
	ErrEmployeeNotFound = errors.New("employee profile not found")
	ErrJobRunNotFound   = errors.New("job run not found")
)

type EmployeeDashboard struct {
	OpenReviews         int      `json:"openReviews"`
	PublishedAppraisals int      `json:"publishedAppraisals"`
	OpenDisputes        int      `json:"openDisputes"`
	LatestScore         *float64 `json:"latestScore,omitempty"`
}

type ManagerDashboard struct {
	PendingReviews   int     `json:"pendingReviews"`
	OverdueReviews   int     `json:"overdueReviews"`
	SubmittedReviews int     `json:"submittedReviews"`
	CompletionRate   float64 `json:"completionRate"`
}

type HRDashboard struct {
	CyclesByStatus  map[string]int `json:"cyclesByStatus"`
	AwaitingPublish int            `json:"awaitingPublish"`
	OpenDisputes    int            `json:"openDisputes"`
	OverdueReviews  int            `json:"overdueReviews"`
}

// ReviewCounts is the raw assignment tally for one manager's ACTIVE cycles.
type ReviewCounts struct {
	Pending   int
	Overdue   int
	Submitted int
}

type JobRun struct {
	ID          string         `json:"id"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Details     map[string]any `json:"details"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

type JobRunFilter struct {
	JobType     string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
}
