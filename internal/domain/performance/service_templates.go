package performance

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

func (s *Service) CreateTemplate(ctx context.Context, tenantID string, in TemplateInput) (Template, error) {
	now := s.now()
	t := Template{
		ID:                      s.newID(),
		Name:                    strings.TrimSpace(in.Name),
		Description:             in.Description,
		TemplateType:            in.TemplateType,
		RatingScale:             in.RatingScale,
		Criteria:                normalizeCriteria(in.Criteria),
		Instructions:            in.Instructions,
		ApplicableDepartmentIDs: nonNil(in.ApplicableDepartmentIDs),
		ApplicablePositionIDs:   nonNil(in.ApplicablePositionIDs),
		IsActive:                true,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if err := validateTemplate(t); err != nil {
		return Template{}, err
	}
	if err := s.store.CreateTemplate(ctx, tenantID, t); err != nil {
		return Template{}, err
	}
	s.log.Info("template created", zap.String("tenantId", tenantID), zap.String("templateId", t.ID), zap.Int("criteria", len(t.Criteria)))
	return t, nil
}

func (s *Service) ListTemplates(ctx context.Context, tenantID string) ([]Template, error) {
	return s.store.ListTemplates(ctx, tenantID)
}

func (s *Service) GetTemplate(ctx context.Context, tenantID, id string) (Template, error) {
	return s.store.GetTemplate(ctx, tenantID, id)
}

// UpdateTemplate merges the non-nil fields of patch into the stored template
// and re-checks the template invariants on the merged result.
func (s *Service) UpdateTemplate(ctx context.Context, tenantID, id string, patch TemplatePatch) (Template, error) {
	t, err := s.store.GetTemplate(ctx, tenantID, id)
	if err != nil {
		return Template{}, err
	}
	if patch.Name != nil {
		t.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.TemplateType != nil {
		t.TemplateType = *patch.TemplateType
	}
	if patch.RatingScale != nil {
		t.RatingScale = *patch.RatingScale
	}
	if patch.Criteria != nil {
		t.Criteria = normalizeCriteria(patch.Criteria)
	}
	if patch.Instructions != nil {
		t.Instructions = *patch.Instructions
	}
	if patch.ApplicableDepartmentIDs != nil {
		t.ApplicableDepartmentIDs = patch.ApplicableDepartmentIDs
	}
	if patch.ApplicablePositionIDs != nil {
		t.ApplicablePositionIDs = patch.ApplicablePositionIDs
	}
	if patch.IsActive != nil {
		t.IsActive = *patch.IsActive
	}
	if err := validateTemplate(t); err != nil {
		return Template{}, err
	}
	t.UpdatedAt = s.now()
	if err := s.store.UpdateTemplate(ctx, tenantID, t); err != nil {
		return Template{}, err
	}
	return t, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, tenantID, id string) error {
	if err := s.store.DeleteTemplate(ctx, tenantID, id); err != nil {
		return err
	}
	s.log.Info("template deleted", zap.String("tenantId", tenantID), zap.String("templateId", id))
	return nil
}

func normalizeCriteria(in []Criterion) []Criterion {
	out := make([]Criterion, 0, len(in))
	for _, c := range in {
		c.Key = strings.TrimSpace(c.Key)
		out = append(out, c)
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
