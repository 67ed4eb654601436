package performance

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// UpsertRecord writes the manager's evaluation for an assignment. The first
// call creates the record and links it to the assignment; later calls
// overwrite the same record and put it back to DRAFT.
func (s *Service) UpsertRecord(ctx context.Context, tenantID, assignmentID, managerID string, in RecordInput) (Record, error) {
	assignment, err := s.store.GetAssignment(ctx, tenantID, assignmentID)
	if err != nil {
		return Record{}, err
	}
	if assignment.ManagerProfileID != managerID {
		return Record{}, ErrNotAssignedManager
	}
	tpl, err := s.store.GetTemplate(ctx, tenantID, assignment.TemplateID)
	if err != nil {
		return Record{}, err
	}
	ratings, total, err := scoreRatings(tpl, in.Ratings, in.TotalScore)
	if err != nil {
		return Record{}, err
	}

	now := s.now()
	if assignment.LatestAppraisalID != nil {
		record, err := s.store.GetRecord(ctx, tenantID, *assignment.LatestAppraisalID)
		if err != nil {
			return Record{}, err
		}
		if record.Status == RecordStatusHRPublished {
			return Record{}, ErrRecordPublished
		}
		if err := s.requireOpenCycle(ctx, tenantID, record.CycleID); err != nil {
			return Record{}, err
		}
		applyRecordInput(&record, in, ratings, total)
		record.Status = RecordStatusDraft
		record.ManagerSubmittedAt = nil
		record.UpdatedAt = now
		if err := s.store.UpdateRecordDraft(ctx, tenantID, record); err != nil {
			return Record{}, err
		}
		return record, nil
	}

	if err := s.requireOpenCycle(ctx, tenantID, assignment.CycleID); err != nil {
		return Record{}, err
	}
	record := Record{
		ID:                s.newID(),
		AssignmentID:      assignment.ID,
		CycleID:           assignment.CycleID,
		TemplateID:        assignment.TemplateID,
		EmployeeProfileID: assignment.EmployeeProfileID,
		ManagerProfileID:  assignment.ManagerProfileID,
		Status:            RecordStatusDraft,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	applyRecordInput(&record, in, ratings, total)
	if err := s.store.CreateRecord(ctx, tenantID, record); err != nil {
		return Record{}, err
	}
	s.log.Info("appraisal record created",
		zap.String("tenantId", tenantID),
		zap.String("assignmentId", assignment.ID),
		zap.String("recordId", record.ID),
	)
	return record, nil
}

func (s *Service) requireOpenCycle(ctx context.Context, tenantID, cycleID string) error {
	cycle, err := s.store.GetCycle(ctx, tenantID, cycleID)
	if err != nil {
		return err
	}
	if !AcceptsRecords(cycle.Status) {
		return ErrCycleNotOpen
	}
	return nil
}

func applyRecordInput(r *Record, in RecordInput, ratings []Rating, total *float64) {
	r.Ratings = ratings
	r.TotalScore = total
	r.OverallRatingLabel = in.OverallRatingLabel
	r.ManagerSummary = in.ManagerSummary
	r.Strengths = in.Strengths
	r.ImprovementAreas = in.ImprovementAreas
}

// SubmitRecord marks the record MANAGER_SUBMITTED and its assignment
// SUBMITTED together.
func (s *Service) SubmitRecord(ctx context.Context, tenantID, recordID, managerID string) (Record, error) {
	record, err := s.store.GetRecord(ctx, tenantID, recordID)
	if err != nil {
		return Record{}, err
	}
	if record.ManagerProfileID != managerID {
		return Record{}, ErrNotAssignedManager
	}
	if record.Status == RecordStatusHRPublished {
		return Record{}, ErrRecordPublished
	}
	if err := s.requireOpenCycle(ctx, tenantID, record.CycleID); err != nil {
		return Record{}, err
	}
	tpl, err := s.store.GetTemplate(ctx, tenantID, record.TemplateID)
	if err != nil {
		return Record{}, err
	}
	if missingRequired(tpl, record.Ratings) {
		return Record{}, ErrMissingRequiredRating
	}

	now := s.now()
	record.Status = RecordStatusManagerSubmitted
	record.ManagerSubmittedAt = &now
	record.UpdatedAt = now
	if err := s.store.SubmitRecord(ctx, tenantID, record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// ListEmployeeAppraisals returns only the employee's HR_PUBLISHED records.
func (s *Service) ListEmployeeAppraisals(ctx context.Context, tenantID, employeeID string) ([]RecordView, error) {
	return s.store.ListPublishedRecords(ctx, tenantID, employeeID)
}

// GetRecord returns a record the viewer may see: the authoring manager
// always, the employee once published, and HR.
func (s *Service) GetRecord(ctx context.Context, tenantID, recordID string, viewer Viewer) (Record, error) {
	record, err := s.store.GetRecord(ctx, tenantID, recordID)
	if err != nil {
		return Record{}, err
	}
	switch {
	case viewer.IsHR:
	case viewer.EmployeeID != "" && viewer.EmployeeID == record.ManagerProfileID:
	case viewer.EmployeeID != "" && viewer.EmployeeID == record.EmployeeProfileID && record.Status == RecordStatusHRPublished:
	default:
		return Record{}, ErrRecordAccessDenied
	}
	return record, nil
}

// RecordPDF renders a record the viewer is allowed to read.
func (s *Service) RecordPDF(ctx context.Context, tenantID, recordID string, viewer Viewer) ([]byte, error) {
	record, err := s.GetRecord(ctx, tenantID, recordID, viewer)
	if err != nil {
		return nil, err
	}
	cycle, err := s.store.GetCycle(ctx, tenantID, record.CycleID)
	if err != nil {
		return nil, err
	}
	name, err := s.store.EmployeeName(ctx, tenantID, record.EmployeeProfileID)
	if err != nil {
		return nil, err
	}
	return RecordPDF(record, name, cycle.Name)
}

func (s *Service) ListAssignments(ctx context.Context, tenantID string, filter AssignmentFilter) ([]AssignmentView, error) {
	if filter.ManagerID == "" && filter.EmployeeID == "" {
		return nil, fmt.Errorf("assignment filter needs a manager or employee")
	}
	return s.store.ListAssignments(ctx, tenantID, filter)
}

// RemindOverdue notifies managers of every ACTIVE-cycle assignment past its
// due date that has not been submitted. It returns how many assignments
// were overdue.
func (s *Service) RemindOverdue(ctx context.Context, tenantID string) (int, error) {
	overdue, err := s.store.ListOverdueAssignments(ctx, tenantID, s.now())
	if err != nil {
		return 0, err
	}
	perManager := map[string]int{}
	for _, a := range overdue {
		perManager[a.ManagerProfileID]++
	}
	for managerID, count := range perManager {
		s.notifyEmployees(tenantID, []string{managerID}, notice{
			ntype: NotifyReviewOverdue,
			title: "Appraisals overdue",
			body:  fmt.Sprintf("%d appraisal(s) assigned to you are past their due date.", count),
		})
	}
	return len(overdue), nil
}
