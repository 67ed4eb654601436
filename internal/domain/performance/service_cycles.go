package performance

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CreateCycle validates the input, builds a PLANNED cycle and one NOT_STARTED
// assignment per entry, and stores them together.
func (s *Service) CreateCycle(ctx context.Context, tenantID string, in CycleInput) (CycleWithAssignments, error) {
	if !in.StartDate.Before(in.EndDate) {
		return CycleWithAssignments{}, ErrInvalidDateRange
	}
	if !ValidTemplateType(in.CycleType) {
		return CycleWithAssignments{}, ErrInvalidTemplateType
	}
	if err := s.checkTemplates(ctx, tenantID, in); err != nil {
		return CycleWithAssignments{}, err
	}

	now := s.now()
	cycle := Cycle{
		ID:                             s.newID(),
		Name:                           in.Name,
		Description:                    in.Description,
		CycleType:                      in.CycleType,
		StartDate:                      in.StartDate,
		EndDate:                        in.EndDate,
		ManagerDueDate:                 in.ManagerDueDate,
		EmployeeAcknowledgementDueDate: in.EmployeeAcknowledgementDueDate,
		TemplateAssignments:            in.TemplateAssignments,
		Status:                         CycleStatusPlanned,
		CreatedAt:                      now,
		UpdatedAt:                      now,
	}
	if cycle.TemplateAssignments == nil {
		cycle.TemplateAssignments = []CycleTemplateAssignment{}
	}

	seen := make(map[string]struct{}, len(in.Assignments))
	assignments := make([]Assignment, 0, len(in.Assignments))
	for _, entry := range in.Assignments {
		if _, dup := seen[entry.EmployeeProfileID]; dup {
			return CycleWithAssignments{}, fmt.Errorf("%w: %s", ErrDuplicateAssignment, entry.EmployeeProfileID)
		}
		seen[entry.EmployeeProfileID] = struct{}{}
		assignments = append(assignments, Assignment{
			ID:                s.newID(),
			CycleID:           cycle.ID,
			TemplateID:        entry.TemplateID,
			EmployeeProfileID: entry.EmployeeProfileID,
			ManagerProfileID:  entry.ManagerProfileID,
			DepartmentID:      entry.DepartmentID,
			PositionID:        entry.PositionID,
			Status:            AssignmentStatusNotStarted,
			AssignedAt:        now,
			DueDate:           resolveDueDate(entry, cycle),
		})
	}

	if err := s.store.CreateCycleWithAssignments(ctx, tenantID, cycle, assignments); err != nil {
		return CycleWithAssignments{}, err
	}
	s.log.Info("cycle created",
		zap.String("tenantId", tenantID),
		zap.String("cycleId", cycle.ID),
		zap.Int("assignments", len(assignments)),
	)
	return CycleWithAssignments{Cycle: cycle, Assignments: assignments}, nil
}

func resolveDueDate(entry AssignmentEntry, cycle Cycle) time.Time {
	if entry.DueDate != nil {
		return *entry.DueDate
	}
	if cycle.ManagerDueDate != nil {
		return *cycle.ManagerDueDate
	}
	return cycle.EndDate
}

// checkTemplates makes sure every template the cycle references exists and
// is active. Each distinct template is loaded once.
func (s *Service) checkTemplates(ctx context.Context, tenantID string, in CycleInput) error {
	ids := make([]string, 0, len(in.TemplateAssignments)+len(in.Assignments))
	for _, ta := range in.TemplateAssignments {
		ids = append(ids, ta.TemplateID)
	}
	for _, entry := range in.Assignments {
		ids = append(ids, entry.TemplateID)
	}
	for _, id := range uniqueStrings(ids) {
		t, err := s.store.GetTemplate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if !t.IsActive {
			return fmt.Errorf("%w: %s", ErrTemplateInactive, id)
		}
	}
	return nil
}

func (s *Service) ListCycles(ctx context.Context, tenantID string) ([]Cycle, error) {
	return s.store.ListCycles(ctx, tenantID)
}

func (s *Service) GetCycle(ctx context.Context, tenantID, id string) (Cycle, error) {
	return s.store.GetCycle(ctx, tenantID, id)
}

func (s *Service) ActivateCycle(ctx context.Context, tenantID, id string) (Cycle, error) {
	cycle, from, err := s.transition(ctx, tenantID, id, EventActivate)
	if err != nil {
		return Cycle{}, err
	}
	if err := s.store.UpdateCycleStatus(ctx, tenantID, cycle, from); err != nil {
		return Cycle{}, err
	}

	assignments, err := s.store.ListAssignments(ctx, tenantID, AssignmentFilter{CycleID: cycle.ID})
	if err != nil {
		s.log.Warn("activate: manager lookup failed", zap.String("cycleId", cycle.ID), zap.Error(err))
		return cycle, nil
	}
	managers := make([]string, 0, len(assignments))
	for _, a := range assignments {
		managers = append(managers, a.ManagerProfileID)
	}
	s.notifyEmployees(tenantID, managers, notice{
		ntype: NotifyReviewAssigned,
		title: "Appraisal cycle started",
		body:  fmt.Sprintf("Appraisals for %q are open and assigned to you.", cycle.Name),
	})
	return cycle, nil
}

// PublishCycle flips every MANAGER_SUBMITTED record in the cycle to
// HR_PUBLISHED and closes the cycle, all in one transaction.
func (s *Service) PublishCycle(ctx context.Context, tenantID, id string) (PublishResult, error) {
	cycle, from, err := s.transition(ctx, tenantID, id, EventPublish)
	if err != nil {
		return PublishResult{}, err
	}
	now := cycle.UpdatedAt
	cycle.PublishedAt = &now
	employeeIDs, err := s.store.PublishCycle(ctx, tenantID, cycle, from)
	if err != nil {
		return PublishResult{}, err
	}
	s.log.Info("cycle published",
		zap.String("tenantId", tenantID),
		zap.String("cycleId", cycle.ID),
		zap.Int("records", len(employeeIDs)),
	)
	s.notifyEmployees(tenantID, employeeIDs, notice{
		ntype: NotifyAppraisalPublished,
		title: "Appraisal published",
		body:  fmt.Sprintf("Your appraisal for %q is now available.", cycle.Name),
	})
	return PublishResult{Cycle: cycle, PublishedCount: len(employeeIDs), EmployeeIDs: employeeIDs}, nil
}

func (s *Service) CloseCycle(ctx context.Context, tenantID, id string) (Cycle, error) {
	cycle, from, err := s.transition(ctx, tenantID, id, EventClose)
	if err != nil {
		return Cycle{}, err
	}
	now := cycle.UpdatedAt
	cycle.ClosedAt = &now
	if err := s.store.UpdateCycleStatus(ctx, tenantID, cycle, from); err != nil {
		return Cycle{}, err
	}
	return cycle, nil
}

// ArchiveCycle archives the cycle and stamps archivedAt on its records.
// Record statuses are left alone.
func (s *Service) ArchiveCycle(ctx context.Context, tenantID, id string) (Cycle, error) {
	cycle, from, err := s.transition(ctx, tenantID, id, EventArchive)
	if err != nil {
		return Cycle{}, err
	}
	now := cycle.UpdatedAt
	cycle.ArchivedAt = &now
	if err := s.store.ArchiveCycle(ctx, tenantID, cycle, from); err != nil {
		return Cycle{}, err
	}
	return cycle, nil
}

// transition loads the cycle and applies event. It returns the updated cycle
// and the status it moved from, which the store uses as a concurrency guard.
func (s *Service) transition(ctx context.Context, tenantID, id, event string) (Cycle, string, error) {
	cycle, err := s.store.GetCycle(ctx, tenantID, id)
	if err != nil {
		return Cycle{}, "", err
	}
	next, err := NextCycleStatus(cycle.Status, event)
	if err != nil {
		return Cycle{}, "", fmt.Errorf("%w: cannot %s a %s cycle", err, event, cycle.Status)
	}
	from := cycle.Status
	cycle.Status = next
	cycle.UpdatedAt = s.now()
	return cycle, from, nil
}
