package performance

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const disputeColumns = `id, appraisal_id, assignment_id, cycle_id, raised_by_employee_id, reason, details, status,
  submitted_at, resolution_summary, resolved_by_employee_id, resolved_at`

func scanDispute(row pgx.Row) (Dispute, error) {
	var d Dispute
	err := row.Scan(&d.ID, &d.AppraisalID, &d.AssignmentID, &d.CycleID, &d.RaisedByEmployeeID, &d.Reason, &d.Details,
		&d.Status, &d.SubmittedAt, &d.ResolutionSummary, &d.ResolvedByEmployeeID, &d.ResolvedAt)
	return d, err
}

func (s *Store) CreateDispute(ctx context.Context, tenantID string, d Dispute) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO appraisal_disputes (id, tenant_id, appraisal_id, assignment_id, cycle_id, raised_by_employee_id,
      reason, details, status, submitted_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `, d.ID, tenantID, d.AppraisalID, d.AssignmentID, d.CycleID, d.RaisedByEmployeeID, d.Reason, d.Details, d.Status, d.SubmittedAt)
	return err
}

func (s *Store) GetDispute(ctx context.Context, tenantID, id string) (Dispute, error) {
	d, err := scanDispute(s.DB.QueryRow(ctx, `
    SELECT `+disputeColumns+`
    FROM appraisal_disputes
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, id))
	if err != nil {
		return Dispute{}, notFound(err, ErrDisputeNotFound)
	}
	return d, nil
}

func (s *Store) ResolveDispute(ctx context.Context, tenantID string, d Dispute) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE appraisal_disputes
    SET status = $1, resolution_summary = $2, resolved_by_employee_id = $3, resolved_at = $4
    WHERE tenant_id = $5 AND id = $6
  `, d.Status, d.ResolutionSummary, d.ResolvedByEmployeeID, d.ResolvedAt, tenantID, d.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDisputeNotFound
	}
	return nil
}

func (s *Store) ListDisputes(ctx context.Context, tenantID string, filter DisputeFilter) ([]Dispute, error) {
	query := "SELECT " + disputeColumns + " FROM appraisal_disputes WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.CycleID != "" {
		args = append(args, filter.CycleID)
		query += fmt.Sprintf(" AND cycle_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY submitted_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Dispute{}
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
