package performance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const cycleColumns = `id, name, description, cycle_type, start_date, end_date, manager_due_date, employee_ack_due_date,
  template_assignments_json, status, published_at, closed_at, archived_at, created_at, updated_at`

func scanCycle(row pgx.Row) (Cycle, error) {
	var c Cycle
	var taJSON []byte
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CycleType, &c.StartDate, &c.EndDate, &c.ManagerDueDate,
		&c.EmployeeAcknowledgementDueDate, &taJSON, &c.Status, &c.PublishedAt, &c.ClosedAt, &c.ArchivedAt,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return Cycle{}, err
	}
	if err := json.Unmarshal(taJSON, &c.TemplateAssignments); err != nil {
		return Cycle{}, fmt.Errorf("decode template assignments: %w", err)
	}
	return c, nil
}

func (s *Store) CreateCycleWithAssignments(ctx context.Context, tenantID string, c Cycle, assignments []Assignment) error {
	taJSON, err := json.Marshal(c.TemplateAssignments)
	if err != nil {
		return err
	}
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
      INSERT INTO appraisal_cycles (id, tenant_id, name, description, cycle_type, start_date, end_date,
        manager_due_date, employee_ack_due_date, template_assignments_json, status, created_at, updated_at)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    `, c.ID, tenantID, c.Name, c.Description, c.CycleType, c.StartDate, c.EndDate,
			c.ManagerDueDate, c.EmployeeAcknowledgementDueDate, taJSON, c.Status, c.CreatedAt, c.UpdatedAt); err != nil {
			return err
		}
		if len(assignments) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, a := range assignments {
			batch.Queue(`
        INSERT INTO appraisal_assignments (id, tenant_id, cycle_id, template_id, employee_profile_id, manager_profile_id,
          department_id, position_id, status, assigned_at, due_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
      `, a.ID, tenantID, a.CycleID, a.TemplateID, a.EmployeeProfileID, a.ManagerProfileID,
				a.DepartmentID, a.PositionID, a.Status, a.AssignedAt, a.DueDate)
		}
		br := tx.SendBatch(ctx, batch)
		for range assignments {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return err
			}
		}
		return br.Close()
	})
	switch pgCode(err) {
	case pgUniqueViolation:
		return ErrDuplicateAssignment
	case pgForeignKeyViolation:
		return ErrEmployeeNotFound
	}
	return err
}

func (s *Store) ListCycles(ctx context.Context, tenantID string) ([]Cycle, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+cycleColumns+`
    FROM appraisal_cycles
    WHERE tenant_id = $1
    ORDER BY start_date DESC, created_at DESC
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Cycle{}
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCycle(ctx context.Context, tenantID, id string) (Cycle, error) {
	c, err := scanCycle(s.DB.QueryRow(ctx, `
    SELECT `+cycleColumns+`
    FROM appraisal_cycles
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, id))
	if err != nil {
		return Cycle{}, notFound(err, ErrCycleNotFound)
	}
	return c, nil
}

// saveCycleStatus writes the status columns only if the row is still in
// fromStatus; a concurrent transition makes it fail with ErrInvalidTransition.
func saveCycleStatus(ctx context.Context, q execer, tenantID string, c Cycle, fromStatus string) error {
	tag, err := q.Exec(ctx, `
    UPDATE appraisal_cycles
    SET status = $1, published_at = $2, closed_at = $3, archived_at = $4, updated_at = $5
    WHERE tenant_id = $6 AND id = $7 AND status = $8
  `, c.Status, c.PublishedAt, c.ClosedAt, c.ArchivedAt, c.UpdatedAt, tenantID, c.ID, fromStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (s *Store) UpdateCycleStatus(ctx context.Context, tenantID string, c Cycle, fromStatus string) error {
	return saveCycleStatus(ctx, s.DB, tenantID, c, fromStatus)
}

func (s *Store) PublishCycle(ctx context.Context, tenantID string, c Cycle, fromStatus string) ([]string, error) {
	var employees []string
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
      UPDATE appraisal_records
      SET status = $1, hr_published_at = $2, updated_at = $2
      WHERE tenant_id = $3 AND cycle_id = $4 AND status = $5
      RETURNING employee_profile_id
    `, RecordStatusHRPublished, c.PublishedAt, tenantID, c.ID, RecordStatusManagerSubmitted)
		if err != nil {
			return err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			employees = append(employees, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		return saveCycleStatus(ctx, tx, tenantID, c, fromStatus)
	})
	if err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *Store) ArchiveCycle(ctx context.Context, tenantID string, c Cycle, fromStatus string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := saveCycleStatus(ctx, tx, tenantID, c, fromStatus); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
      UPDATE appraisal_records
      SET archived_at = $1
      WHERE tenant_id = $2 AND cycle_id = $3
    `, c.ArchivedAt, tenantID, c.ID)
		return err
	})
}

const assignmentColumns = `a.id, a.cycle_id, a.template_id, a.employee_profile_id, a.manager_profile_id, a.department_id,
  a.position_id, a.status, a.assigned_at, a.due_date, a.submitted_at, a.latest_appraisal_id`

func assignmentDest(a *Assignment) []any {
	return []any{&a.ID, &a.CycleID, &a.TemplateID, &a.EmployeeProfileID, &a.ManagerProfileID, &a.DepartmentID,
		&a.PositionID, &a.Status, &a.AssignedAt, &a.DueDate, &a.SubmittedAt, &a.LatestAppraisalID}
}

func (s *Store) GetAssignment(ctx context.Context, tenantID, id string) (Assignment, error) {
	var a Assignment
	err := s.DB.QueryRow(ctx, `
    SELECT `+assignmentColumns+`
    FROM appraisal_assignments a
    WHERE a.tenant_id = $1 AND a.id = $2
  `, tenantID, id).Scan(assignmentDest(&a)...)
	if err != nil {
		return Assignment{}, notFound(err, ErrAssignmentNotFound)
	}
	return a, nil
}

const assignmentViewQuery = `
  SELECT ` + assignmentColumns + `,
    trim(e.first_name || ' ' || e.last_name), t.name, c.name, c.status
  FROM appraisal_assignments a
  JOIN employees e ON e.id = a.employee_profile_id
  JOIN appraisal_templates t ON t.id = a.template_id
  JOIN appraisal_cycles c ON c.id = a.cycle_id
  WHERE a.tenant_id = $1`

func (s *Store) ListAssignments(ctx context.Context, tenantID string, filter AssignmentFilter) ([]AssignmentView, error) {
	query := assignmentViewQuery
	args := []any{tenantID}
	if filter.ManagerID != "" {
		args = append(args, filter.ManagerID)
		query += fmt.Sprintf(" AND a.manager_profile_id = $%d", len(args))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND a.employee_profile_id = $%d", len(args))
	}
	if filter.CycleID != "" {
		args = append(args, filter.CycleID)
		query += fmt.Sprintf(" AND a.cycle_id = $%d", len(args))
	}
	query += " ORDER BY a.due_date, a.assigned_at"
	return s.queryAssignmentViews(ctx, query, args...)
}

func (s *Store) ListOverdueAssignments(ctx context.Context, tenantID string, now time.Time) ([]AssignmentView, error) {
	query := assignmentViewQuery + " AND c.status = $2 AND a.status <> $3 AND a.due_date < $4 ORDER BY a.manager_profile_id"
	return s.queryAssignmentViews(ctx, query, tenantID, CycleStatusActive, AssignmentStatusSubmitted, now)
}

func (s *Store) queryAssignmentViews(ctx context.Context, query string, args ...any) ([]AssignmentView, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AssignmentView{}
	for rows.Next() {
		var v AssignmentView
		dest := append(assignmentDest(&v.Assignment), &v.EmployeeName, &v.TemplateName, &v.CycleName, &v.CycleStatus)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
