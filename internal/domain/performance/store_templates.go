package performance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const templateColumns = `id, name, description, template_type, rating_scale_json, criteria_json, instructions,
  applicable_department_ids, applicable_position_ids, is_active, created_at, updated_at`

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	var scaleJSON, criteriaJSON []byte
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.TemplateType, &scaleJSON, &criteriaJSON, &t.Instructions,
		&t.ApplicableDepartmentIDs, &t.ApplicablePositionIDs, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Template{}, err
	}
	if err := json.Unmarshal(scaleJSON, &t.RatingScale); err != nil {
		return Template{}, fmt.Errorf("decode rating scale: %w", err)
	}
	if err := json.Unmarshal(criteriaJSON, &t.Criteria); err != nil {
		return Template{}, fmt.Errorf("decode criteria: %w", err)
	}
	return t, nil
}

func templateJSON(t Template) ([]byte, []byte, error) {
	scaleJSON, err := json.Marshal(t.RatingScale)
	if err != nil {
		return nil, nil, err
	}
	criteria := t.Criteria
	if criteria == nil {
		criteria = []Criterion{}
	}
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return nil, nil, err
	}
	return scaleJSON, criteriaJSON, nil
}

func (s *Store) CreateTemplate(ctx context.Context, tenantID string, t Template) error {
	scaleJSON, criteriaJSON, err := templateJSON(t)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO appraisal_templates (id, tenant_id, name, description, template_type, rating_scale_json, criteria_json,
      instructions, applicable_department_ids, applicable_position_ids, is_active, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
  `, t.ID, tenantID, t.Name, t.Description, t.TemplateType, scaleJSON, criteriaJSON,
		t.Instructions, t.ApplicableDepartmentIDs, t.ApplicablePositionIDs, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if pgCode(err) == pgUniqueViolation {
		return ErrTemplateNameTaken
	}
	return err
}

func (s *Store) ListTemplates(ctx context.Context, tenantID string) ([]Template, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+templateColumns+`
    FROM appraisal_templates
    WHERE tenant_id = $1
    ORDER BY created_at DESC
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTemplate(ctx context.Context, tenantID, id string) (Template, error) {
	t, err := scanTemplate(s.DB.QueryRow(ctx, `
    SELECT `+templateColumns+`
    FROM appraisal_templates
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, id))
	if err != nil {
		return Template{}, notFound(err, ErrTemplateNotFound)
	}
	return t, nil
}

func (s *Store) UpdateTemplate(ctx context.Context, tenantID string, t Template) error {
	scaleJSON, criteriaJSON, err := templateJSON(t)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE appraisal_templates
    SET name = $1, description = $2, template_type = $3, rating_scale_json = $4, criteria_json = $5,
        instructions = $6, applicable_department_ids = $7, applicable_position_ids = $8, is_active = $9, updated_at = $10
    WHERE tenant_id = $11 AND id = $12
  `, t.Name, t.Description, t.TemplateType, scaleJSON, criteriaJSON,
		t.Instructions, t.ApplicableDepartmentIDs, t.ApplicablePositionIDs, t.IsActive, t.UpdatedAt, tenantID, t.ID)
	if pgCode(err) == pgUniqueViolation {
		return ErrTemplateNameTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (s *Store) DeleteTemplate(ctx context.Context, tenantID, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM appraisal_templates WHERE tenant_id = $1 AND id = $2", tenantID, id)
	if pgCode(err) == pgForeignKeyViolation {
		return ErrTemplateInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
