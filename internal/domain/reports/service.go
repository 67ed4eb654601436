package reports

import (
	"context"
	"time"
)

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	return s.store.EmployeeIDByUserID(ctx, tenantID, userID)
}

func (s *Service) EmployeeDashboard(ctx context.Context, tenantID, employeeID string) (EmployeeDashboard, error) {
	return s.store.EmployeeDashboard(ctx, tenantID, employeeID)
}

func (s *Service) ManagerDashboard(ctx context.Context, tenantID, managerID string) (ManagerDashboard, error) {
	counts, err := s.store.ManagerReviewCounts(ctx, tenantID, managerID, s.now())
	if err != nil {
		return ManagerDashboard{}, err
	}
	return ManagerDashboard{
		PendingReviews:   counts.Pending,
		OverdueReviews:   counts.Overdue,
		SubmittedReviews: counts.Submitted,
		CompletionRate:   completionRate(counts),
	}, nil
}

func (s *Service) HRDashboard(ctx context.Context, tenantID string) (HRDashboard, error) {
	raw, err := s.store.CycleStatusCounts(ctx, tenantID)
	if err != nil {
		return HRDashboard{}, err
	}
	d := HRDashboard{CyclesByStatus: cycleCounts(raw)}
	if d.AwaitingPublish, err = s.store.AwaitingPublish(ctx, tenantID); err != nil {
		return HRDashboard{}, err
	}
	if d.OpenDisputes, err = s.store.OpenDisputes(ctx, tenantID); err != nil {
		return HRDashboard{}, err
	}
	if d.OverdueReviews, err = s.store.OverdueReviews(ctx, tenantID, s.now()); err != nil {
		return HRDashboard{}, err
	}
	return d, nil
}

func (s *Service) ListJobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	return s.store.ListJobRuns(ctx, tenantID, filter, limit, offset)
}

func (s *Service) CountJobRuns(ctx context.Context, tenantID string, filter JobRunFilter) (int, error) {
	return s.store.CountJobRuns(ctx, tenantID, filter)
}

func (s *Service) JobRun(ctx context.Context, tenantID, runID string) (JobRun, error) {
	return s.store.JobRunByID(ctx, tenantID, runID)
}
