package performance

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// SubmitDispute lets the appraised employee object to a published record.
func (s *Service) SubmitDispute(ctx context.Context, tenantID, recordID, employeeID string, in DisputeInput) (Dispute, error) {
	record, err := s.store.GetRecord(ctx, tenantID, recordID)
	if err != nil {
		return Dispute{}, err
	}
	if record.EmployeeProfileID != employeeID {
		return Dispute{}, ErrNotRecordEmployee
	}
	if record.Status != RecordStatusHRPublished {
		return Dispute{}, ErrRecordNotPublished
	}
	assignment, err := s.store.GetAssignment(ctx, tenantID, record.AssignmentID)
	if err != nil {
		return Dispute{}, err
	}

	d := Dispute{
		ID:                 s.newID(),
		AppraisalID:        record.ID,
		AssignmentID:       assignment.ID,
		CycleID:            assignment.CycleID,
		RaisedByEmployeeID: employeeID,
		Reason:             strings.TrimSpace(in.Reason),
		Details:            in.Details,
		Status:             DisputeStatusOpen,
		SubmittedAt:        s.now(),
	}
	if err := s.store.CreateDispute(ctx, tenantID, d); err != nil {
		return Dispute{}, err
	}
	s.log.Info("dispute opened", zap.String("tenantId", tenantID), zap.String("disputeId", d.ID), zap.String("recordId", record.ID))
	return d, nil
}

// ResolveDispute records the resolver's decision. UNDER_REVIEW keeps the
// dispute open; a closing status stamps the resolver and notifies the
// employee. Statuses are compared case-insensitively and stored upper case.
func (s *Service) ResolveDispute(ctx context.Context, tenantID, disputeID, resolverID string, in ResolveInput) (Dispute, error) {
	status := strings.ToUpper(strings.TrimSpace(in.Status))
	if !ValidDisputeStatus(status) || status == DisputeStatusOpen {
		return Dispute{}, ErrInvalidDisputeStatus
	}
	d, err := s.store.GetDispute(ctx, tenantID, disputeID)
	if err != nil {
		return Dispute{}, err
	}
	if d.RaisedByEmployeeID == resolverID {
		return Dispute{}, ErrResolverIsRaiser
	}
	if isFinalDisputeStatus(d.Status) {
		return Dispute{}, ErrDisputeClosed
	}

	d.Status = status
	d.ResolutionSummary = in.ResolutionSummary
	if !isFinalDisputeStatus(status) {
		if err := s.store.ResolveDispute(ctx, tenantID, d); err != nil {
			return Dispute{}, err
		}
		return d, nil
	}

	now := s.now()
	d.ResolvedByEmployeeID = &resolverID
	d.ResolvedAt = &now
	if err := s.store.ResolveDispute(ctx, tenantID, d); err != nil {
		return Dispute{}, err
	}
	s.notifyEmployees(tenantID, []string{d.RaisedByEmployeeID}, notice{
		ntype: NotifyDisputeResolved,
		title: "Appraisal dispute resolved",
		body:  "Your dispute is now " + strings.ToLower(status) + ".",
	})
	return d, nil
}

func (s *Service) GetDispute(ctx context.Context, tenantID, id string) (Dispute, error) {
	return s.store.GetDispute(ctx, tenantID, id)
}

func (s *Service) ListDisputes(ctx context.Context, tenantID string, filter DisputeFilter) ([]Dispute, error) {
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	return s.store.ListDisputes(ctx, tenantID, filter)
}

func isFinalDisputeStatus(status string) bool {
	switch status {
	case DisputeStatusAdjusted, DisputeStatusRejected, DisputeStatusResolved:
		return true
	}
	return false
}
