package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const JobOverdueReminder = "performance_overdue_reminder"

const queueSize = 128

// OverdueReminder notifies managers about overdue assignments for one tenant.
type OverdueReminder interface {
	RemindOverdue(ctx context.Context, tenantID string) (int, error)
}

type Service struct {
	DB  *pgxpool.Pool
	log *zap.Logger

	queue            chan job
	reminderInterval time.Duration
	listTenants      func(ctx context.Context) ([]string, error)
}

type job struct {
	Type     string
	TenantID string
	Run      func(context.Context) (any, error)
}

// New builds the job service. A nil db skips job_runs bookkeeping.
func New(db *pgxpool.Pool, reminderInterval time.Duration, log *zap.Logger) *Service {
	s := &Service{
		DB:               db,
		log:              log.Named("jobs"),
		queue:            make(chan job, queueSize),
		reminderInterval: reminderInterval,
	}
	s.listTenants = s.tenantsFromDB
	return s
}

// Start runs the worker and, when a reminder is given, the overdue schedule.
// Both stop when ctx is cancelled.
func (s *Service) Start(ctx context.Context, reminder OverdueReminder) {
	go s.worker(ctx)
	if reminder != nil && s.reminderInterval > 0 {
		go s.scheduleReminders(ctx, reminder)
	}
}

// Enqueue never blocks; a full queue drops the job with a warning.
func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
	default:
		s.log.Warn("job queue full", zap.String("jobType", jobType), zap.String("tenantId", tenantID))
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				s.log.Warn("job run failed", zap.String("jobType", j.Type), zap.String("tenantId", j.TenantID), zap.Error(err))
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := s.startRun(ctx, j)
	details, err := j.Run(ctx)
	s.finishRun(ctx, runID, details, err)
	return details, err
}

func (s *Service) startRun(ctx context.Context, j job) string {
	if s.DB == nil {
		return ""
	}
	var runID string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES ($1,$2,'running')
    RETURNING id
  `, j.TenantID, j.Type).Scan(&runID); err != nil {
		s.log.Warn("job run insert failed", zap.String("jobType", j.Type), zap.Error(err))
	}
	return runID
}

func (s *Service) finishRun(ctx context.Context, runID string, details any, runErr error) {
	if runID == "" {
		return
	}
	status := "completed"
	if runErr != nil {
		status = "failed"
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		s.log.Warn("job details marshal failed", zap.Error(err))
		detailsJSON = []byte("{}")
	}
	if _, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID); err != nil {
		s.log.Warn("job run update failed", zap.String("runId", runID), zap.Error(err))
	}
}

func (s *Service) scheduleReminders(ctx context.Context, reminder OverdueReminder) {
	ticker := time.NewTicker(s.reminderInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueueReminders(ctx, reminder)
		}
	}
}

// enqueueReminders queues one reminder job per tenant.
func (s *Service) enqueueReminders(ctx context.Context, reminder OverdueReminder) {
	tenants, err := s.listTenants(ctx)
	if err != nil {
		s.log.Warn("reminder scheduler tenant lookup failed", zap.Error(err))
		return
	}
	for _, tenantID := range tenants {
		tenant := tenantID
		s.Enqueue(JobOverdueReminder, tenant, func(ctx context.Context) (any, error) {
			overdue, err := reminder.RemindOverdue(ctx, tenant)
			return map[string]any{"overdue": overdue}, err
		})
	}
}

func (s *Service) tenantsFromDB(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id FROM tenants`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
