package reports

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"appraisal/internal/domain/performance"
)

type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type StoreAPI interface {
	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)
	EmployeeDashboard(ctx context.Context, tenantID, employeeID string) (EmployeeDashboard, error)
	ManagerReviewCounts(ctx context.Context, tenantID, managerID string, now time.Time) (ReviewCounts, error)
	CycleStatusCounts(ctx context.Context, tenantID string) (map[string]int, error)
	AwaitingPublish(ctx context.Context, tenantID string) (int, error)
	OpenDisputes(ctx context.Context, tenantID string) (int, error)
	OverdueReviews(ctx context.Context, tenantID string, now time.Time) (int, error)
	ListJobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, error)
	CountJobRuns(ctx context.Context, tenantID string, filter JobRunFilter) (int, error)
	JobRunByID(ctx context.Context, tenantID, runID string) (JobRun, error)
}

type Store struct {
	DB Querier
}

func NewStore(db Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	var employeeID string
	err := s.DB.QueryRow(ctx, "SELECT id FROM employees WHERE tenant_id = $1 AND user_id = $2", tenantID, userID).Scan(&employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrEmployeeNotFound
	}
	return employeeID, err
}

func (s *Store) EmployeeDashboard(ctx context.Context, tenantID, employeeID string) (EmployeeDashboard, error) {
	var d EmployeeDashboard
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM appraisal_assignments a
    JOIN appraisal_cycles c ON c.id = a.cycle_id
    WHERE a.tenant_id = $1 AND a.employee_profile_id = $2 AND c.status = $3 AND a.status <> $4
  `, tenantID, employeeID, performance.CycleStatusActive, performance.AssignmentStatusSubmitted).Scan(&d.OpenReviews); err != nil {
		return d, err
	}
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM appraisal_records WHERE tenant_id = $1 AND employee_profile_id = $2 AND status = $3
  `, tenantID, employeeID, performance.RecordStatusHRPublished).Scan(&d.PublishedAppraisals); err != nil {
		return d, err
	}
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM appraisal_disputes WHERE tenant_id = $1 AND raised_by_employee_id = $2 AND status IN ($3,$4)
  `, tenantID, employeeID, performance.DisputeStatusOpen, performance.DisputeStatusUnderReview).Scan(&d.OpenDisputes); err != nil {
		return d, err
	}
	err := s.DB.QueryRow(ctx, `
    SELECT total_score FROM appraisal_records
    WHERE tenant_id = $1 AND employee_profile_id = $2 AND status = $3
    ORDER BY hr_published_at DESC NULLS LAST
    LIMIT 1
  `, tenantID, employeeID, performance.RecordStatusHRPublished).Scan(&d.LatestScore)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return d, err
	}
	return d, nil
}

func (s *Store) ManagerReviewCounts(ctx context.Context, tenantID, managerID string, now time.Time) (ReviewCounts, error) {
	var c ReviewCounts
	err := s.DB.QueryRow(ctx, `
    SELECT
      COUNT(1) FILTER (WHERE a.status <> $4),
      COUNT(1) FILTER (WHERE a.status <> $4 AND a.due_date < $5),
      COUNT(1) FILTER (WHERE a.status = $4)
    FROM appraisal_assignments a
    JOIN appraisal_cycles c ON c.id = a.cycle_id
    WHERE a.tenant_id = $1 AND a.manager_profile_id = $2 AND c.status = $3
  `, tenantID, managerID, performance.CycleStatusActive, performance.AssignmentStatusSubmitted, now).Scan(&c.Pending, &c.Overdue, &c.Submitted)
	return c, err
}

func (s *Store) CycleStatusCounts(ctx context.Context, tenantID string) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, "SELECT status, COUNT(1) FROM appraisal_cycles WHERE tenant_id = $1 GROUP BY status", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (s *Store) AwaitingPublish(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM appraisal_records WHERE tenant_id = $1 AND status = $2",
		tenantID, performance.RecordStatusManagerSubmitted).Scan(&n)
	return n, err
}

func (s *Store) OpenDisputes(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM appraisal_disputes WHERE tenant_id = $1 AND status IN ($2,$3)",
		tenantID, performance.DisputeStatusOpen, performance.DisputeStatusUnderReview).Scan(&n)
	return n, err
}

func (s *Store) OverdueReviews(ctx context.Context, tenantID string, now time.Time) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM appraisal_assignments a
    JOIN appraisal_cycles c ON c.id = a.cycle_id
    WHERE a.tenant_id = $1 AND c.status = $2 AND a.status <> $3 AND a.due_date < $4
  `, tenantID, performance.CycleStatusActive, performance.AssignmentStatusSubmitted, now).Scan(&n)
	return n, err
}

func (s *Store) ListJobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	query, args := buildJobRunsBaseQuery(tenantID, filter)
	query += " ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []JobRun{}
	for rows.Next() {
		run, err := scanJobRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) CountJobRuns(ctx context.Context, tenantID string, filter JobRunFilter) (int, error) {
	query, args := buildJobRunsBaseQuery(tenantID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM ("+query+") job_runs", args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) JobRunByID(ctx context.Context, tenantID, runID string) (JobRun, error) {
	run, err := scanJobRun(s.DB.QueryRow(ctx, jobRunColumns+" WHERE tenant_id = $1 AND id::text = $2", tenantID, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return JobRun{}, ErrJobRunNotFound
	}
	return run, err
}

const jobRunColumns = `
    SELECT id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at
    FROM job_runs`

func scanJobRun(row pgx.Row) (JobRun, error) {
	var run JobRun
	var detailsRaw []byte
	if err := row.Scan(&run.ID, &run.JobType, &run.Status, &detailsRaw, &run.StartedAt, &run.CompletedAt); err != nil {
		return JobRun{}, err
	}
	run.Details = decodeDetails(detailsRaw)
	return run, nil
}

func buildJobRunsBaseQuery(tenantID string, filter JobRunFilter) (string, []any) {
	query := jobRunColumns + `
    WHERE tenant_id = $1`
	args := []any{tenantID}

	if value := strings.TrimSpace(filter.JobType); value != "" {
		query += " AND job_type = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		query += " AND status = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if filter.StartedFrom != nil && !filter.StartedFrom.IsZero() {
		query += " AND started_at >= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedFrom)
	}
	if filter.StartedTo != nil && !filter.StartedTo.IsZero() {
		query += " AND started_at <= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedTo)
	}
	return query, args
}
