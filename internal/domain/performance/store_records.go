package performance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const recordColumns = `r.id, r.assignment_id, r.cycle_id, r.template_id, r.employee_profile_id, r.manager_profile_id,
  r.ratings_json, r.total_score, r.overall_rating_label, r.manager_summary, r.strengths, r.improvement_areas,
  r.status, r.manager_submitted_at, r.hr_published_at, r.archived_at, r.created_at, r.updated_at`

type recordScan struct {
	r           Record
	ratingsJSON []byte
}

func (rs *recordScan) dest() []any {
	r := &rs.r
	return []any{&r.ID, &r.AssignmentID, &r.CycleID, &r.TemplateID, &r.EmployeeProfileID, &r.ManagerProfileID,
		&rs.ratingsJSON, &r.TotalScore, &r.OverallRatingLabel, &r.ManagerSummary, &r.Strengths, &r.ImprovementAreas,
		&r.Status, &r.ManagerSubmittedAt, &r.HRPublishedAt, &r.ArchivedAt, &r.CreatedAt, &r.UpdatedAt}
}

func (rs *recordScan) record() (Record, error) {
	if err := json.Unmarshal(rs.ratingsJSON, &rs.r.Ratings); err != nil {
		return Record{}, fmt.Errorf("decode ratings: %w", err)
	}
	return rs.r, nil
}

func ratingsJSON(ratings []Rating) ([]byte, error) {
	if ratings == nil {
		ratings = []Rating{}
	}
	return json.Marshal(ratings)
}

func (s *Store) GetRecord(ctx context.Context, tenantID, id string) (Record, error) {
	var rs recordScan
	err := s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM appraisal_records r
    WHERE r.tenant_id = $1 AND r.id = $2
  `, tenantID, id).Scan(rs.dest()...)
	if err != nil {
		return Record{}, notFound(err, ErrRecordNotFound)
	}
	return rs.record()
}

// CreateRecord inserts the record and links it from its assignment, moving
// the assignment to IN_PROGRESS.
func (s *Store) CreateRecord(ctx context.Context, tenantID string, r Record) error {
	payload, err := ratingsJSON(r.Ratings)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
      INSERT INTO appraisal_records (id, tenant_id, assignment_id, cycle_id, template_id, employee_profile_id,
        manager_profile_id, ratings_json, total_score, overall_rating_label, manager_summary, strengths,
        improvement_areas, status, created_at, updated_at)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
    `, r.ID, tenantID, r.AssignmentID, r.CycleID, r.TemplateID, r.EmployeeProfileID,
			r.ManagerProfileID, payload, r.TotalScore, r.OverallRatingLabel, r.ManagerSummary, r.Strengths,
			r.ImprovementAreas, r.Status, r.CreatedAt, r.UpdatedAt); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
      UPDATE appraisal_assignments
      SET latest_appraisal_id = $1, status = $2
      WHERE tenant_id = $3 AND id = $4 AND latest_appraisal_id IS NULL
    `, r.ID, AssignmentStatusInProgress, tenantID, r.AssignmentID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("assignment %s already linked to a record", r.AssignmentID)
		}
		return nil
	})
}

// UpdateRecordDraft overwrites the record content. A reopened submission
// also takes its assignment back to IN_PROGRESS.
func (s *Store) UpdateRecordDraft(ctx context.Context, tenantID string, r Record) error {
	payload, err := ratingsJSON(r.Ratings)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      UPDATE appraisal_records
      SET ratings_json = $1, total_score = $2, overall_rating_label = $3, manager_summary = $4, strengths = $5,
          improvement_areas = $6, status = $7, manager_submitted_at = NULL, updated_at = $8
      WHERE tenant_id = $9 AND id = $10 AND status <> $11
    `, payload, r.TotalScore, r.OverallRatingLabel, r.ManagerSummary, r.Strengths,
			r.ImprovementAreas, r.Status, r.UpdatedAt, tenantID, r.ID, RecordStatusHRPublished)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrRecordPublished
		}
		_, err = tx.Exec(ctx, `
      UPDATE appraisal_assignments
      SET status = $1, submitted_at = NULL
      WHERE tenant_id = $2 AND id = $3 AND status = $4
    `, AssignmentStatusInProgress, tenantID, r.AssignmentID, AssignmentStatusSubmitted)
		return err
	})
}

// SubmitRecord stores the submission on the record and mirrors it onto the
// assignment.
func (s *Store) SubmitRecord(ctx context.Context, tenantID string, r Record) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      UPDATE appraisal_records
      SET status = $1, manager_submitted_at = $2, updated_at = $2
      WHERE tenant_id = $3 AND id = $4 AND status <> $5
    `, r.Status, r.ManagerSubmittedAt, tenantID, r.ID, RecordStatusHRPublished)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrRecordPublished
		}
		tag, err = tx.Exec(ctx, `
      UPDATE appraisal_assignments
      SET status = $1, submitted_at = $2
      WHERE tenant_id = $3 AND id = $4
    `, AssignmentStatusSubmitted, r.ManagerSubmittedAt, tenantID, r.AssignmentID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrAssignmentNotFound
		}
		return nil
	})
}

func (s *Store) ListPublishedRecords(ctx context.Context, tenantID, employeeID string) ([]RecordView, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`, c.name, t.name,
      trim(m.first_name || ' ' || m.last_name), trim(e.first_name || ' ' || e.last_name)
    FROM appraisal_records r
    JOIN appraisal_cycles c ON c.id = r.cycle_id
    JOIN appraisal_templates t ON t.id = r.template_id
    JOIN employees m ON m.id = r.manager_profile_id
    JOIN employees e ON e.id = r.employee_profile_id
    WHERE r.tenant_id = $1 AND r.employee_profile_id = $2 AND r.status = $3
    ORDER BY r.hr_published_at DESC
  `, tenantID, employeeID, RecordStatusHRPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RecordView{}
	for rows.Next() {
		var rs recordScan
		var v RecordView
		dest := append(rs.dest(), &v.CycleName, &v.TemplateName, &v.ManagerName, &v.EmployeeName)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		rec, err := rs.record()
		if err != nil {
			return nil, err
		}
		v.Record = rec
		out = append(out, v)
	}
	return out, rows.Err()
}
