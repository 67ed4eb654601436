package performancehandler

import (
	"fmt"

	"appraisal/internal/domain/performance"
	"appraisal/internal/transport/http/shared"
)

type ratingScaleRequest struct {
	Type   string   `json:"type" validate:"required,oneof=THREE_POINT FIVE_POINT TEN_POINT"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Step   float64  `json:"step" validate:"gt=0"`
	Labels []string `json:"labels"`
}

func (s ratingScaleRequest) toDomain() performance.RatingScale {
	return performance.RatingScale{Type: s.Type, Min: s.Min, Max: s.Max, Step: s.Step, Labels: s.Labels}
}

type criterionRequest struct {
	Key      string   `json:"key" validate:"required,max=64"`
	Title    string   `json:"title" validate:"required,max=200"`
	Details  string   `json:"details"`
	Weight   float64  `json:"weight" validate:"gte=0,lte=100"`
	MaxScore *float64 `json:"maxScore"`
	Required bool     `json:"required"`
}

// toCriteria keeps nil distinct from empty so a patch can tell "unchanged"
// from "clear".
func toCriteria(in []criterionRequest) []performance.Criterion {
	if in == nil {
		return nil
	}
	out := make([]performance.Criterion, 0, len(in))
	for _, c := range in {
		out = append(out, performance.Criterion{
			Key:      c.Key,
			Title:    c.Title,
			Details:  c.Details,
			Weight:   c.Weight,
			MaxScore: c.MaxScore,
			Required: c.Required,
		})
	}
	return out
}

type createTemplateRequest struct {
	Name                    string             `json:"name" validate:"required,max=200"`
	Description             string             `json:"description" validate:"max=2000"`
	TemplateType            string             `json:"templateType" validate:"required,oneof=ANNUAL SEMI_ANNUAL PROBATIONARY PROJECT AD_HOC"`
	RatingScale             ratingScaleRequest `json:"ratingScale"`
	Criteria                []criterionRequest `json:"criteria" validate:"dive"`
	Instructions            string             `json:"instructions"`
	ApplicableDepartmentIDs []string           `json:"applicableDepartmentIds"`
	ApplicablePositionIDs   []string           `json:"applicablePositionIds"`
	IsActive                *bool              `json:"isActive"`
}

func (req createTemplateRequest) toDomain() performance.TemplateInput {
	return performance.TemplateInput{
		Name:                    req.Name,
		Description:             req.Description,
		TemplateType:            req.TemplateType,
		RatingScale:             req.RatingScale.toDomain(),
		Criteria:                toCriteria(req.Criteria),
		Instructions:            req.Instructions,
		ApplicableDepartmentIDs: req.ApplicableDepartmentIDs,
		ApplicablePositionIDs:   req.ApplicablePositionIDs,
		IsActive:                req.IsActive,
	}
}

type updateTemplateRequest struct {
	Name                    *string             `json:"name" validate:"omitempty,min=1,max=200"`
	Description             *string             `json:"description" validate:"omitempty,max=2000"`
	TemplateType            *string             `json:"templateType" validate:"omitempty,oneof=ANNUAL SEMI_ANNUAL PROBATIONARY PROJECT AD_HOC"`
	RatingScale             *ratingScaleRequest `json:"ratingScale"`
	Criteria                []criterionRequest  `json:"criteria" validate:"omitempty,dive"`
	Instructions            *string             `json:"instructions"`
	ApplicableDepartmentIDs []string            `json:"applicableDepartmentIds"`
	ApplicablePositionIDs   []string            `json:"applicablePositionIds"`
	IsActive                *bool               `json:"isActive"`
}

func (req updateTemplateRequest) toDomain() performance.TemplatePatch {
	patch := performance.TemplatePatch{
		Name:                    req.Name,
		Description:             req.Description,
		TemplateType:            req.TemplateType,
		Criteria:                toCriteria(req.Criteria),
		Instructions:            req.Instructions,
		ApplicableDepartmentIDs: req.ApplicableDepartmentIDs,
		ApplicablePositionIDs:   req.ApplicablePositionIDs,
		IsActive:                req.IsActive,
	}
	if req.RatingScale != nil {
		scale := req.RatingScale.toDomain()
		patch.RatingScale = &scale
	}
	return patch
}

type templateAssignmentRequest struct {
	TemplateID    string   `json:"templateId" validate:"required,uuid"`
	DepartmentIDs []string `json:"departmentIds"`
}

type assignmentRequest struct {
	EmployeeProfileID string `json:"employeeProfileId" validate:"required,uuid"`
	ManagerProfileID  string `json:"managerProfileId" validate:"required,uuid"`
	TemplateID        string `json:"templateId" validate:"required,uuid"`
	DepartmentID      string `json:"departmentId"`
	PositionID        string `json:"positionId"`
	DueDate           string `json:"dueDate"`
}

type createCycleRequest struct {
	Name                           string                      `json:"name" validate:"required,max=200"`
	Description                    string                      `json:"description" validate:"max=2000"`
	CycleType                      string                      `json:"cycleType" validate:"required,oneof=ANNUAL SEMI_ANNUAL PROBATIONARY PROJECT AD_HOC"`
	StartDate                      string                      `json:"startDate" validate:"required"`
	EndDate                        string                      `json:"endDate" validate:"required"`
	ManagerDueDate                 string                      `json:"managerDueDate"`
	EmployeeAcknowledgementDueDate string                      `json:"employeeAcknowledgementDueDate"`
	TemplateAssignments            []templateAssignmentRequest `json:"templateAssignments" validate:"dive"`
	Assignments                    []assignmentRequest         `json:"assignments" validate:"dive"`
}

// toDomain parses the request's dates, recording an issue on v for each
// one that does not parse.
func (req createCycleRequest) toDomain(v *shared.Validator) performance.CycleInput {
	in := performance.CycleInput{
		Name:                           req.Name,
		Description:                    req.Description,
		CycleType:                      req.CycleType,
		ManagerDueDate:                 v.OptionalDate("managerDueDate", req.ManagerDueDate),
		EmployeeAcknowledgementDueDate: v.OptionalDate("employeeAcknowledgementDueDate", req.EmployeeAcknowledgementDueDate),
	}
	if req.StartDate != "" {
		in.StartDate, _ = v.Date("startDate", req.StartDate)
	}
	if req.EndDate != "" {
		in.EndDate, _ = v.Date("endDate", req.EndDate)
	}
	v.DateOrder("startDate", in.StartDate, "endDate", in.EndDate)

	for _, ta := range req.TemplateAssignments {
		in.TemplateAssignments = append(in.TemplateAssignments, performance.CycleTemplateAssignment{
			TemplateID:    ta.TemplateID,
			DepartmentIDs: ta.DepartmentIDs,
		})
	}
	for i, a := range req.Assignments {
		in.Assignments = append(in.Assignments, performance.AssignmentEntry{
			EmployeeProfileID: a.EmployeeProfileID,
			ManagerProfileID:  a.ManagerProfileID,
			TemplateID:        a.TemplateID,
			DepartmentID:      a.DepartmentID,
			PositionID:        a.PositionID,
			DueDate:           v.OptionalDate(fmt.Sprintf("assignments[%d].dueDate", i), a.DueDate),
		})
	}
	return in
}

type ratingRequest struct {
	Key           string   `json:"key" validate:"required"`
	Title         string   `json:"title"`
	RatingValue   float64  `json:"ratingValue"`
	RatingLabel   string   `json:"ratingLabel"`
	WeightedScore *float64 `json:"weightedScore"`
	Comments      string   `json:"comments" validate:"max=4000"`
}

type upsertRecordRequest struct {
	Ratings            []ratingRequest `json:"ratings" validate:"dive"`
	TotalScore         *float64        `json:"totalScore"`
	OverallRatingLabel string          `json:"overallRatingLabel" validate:"max=200"`
	ManagerSummary     string          `json:"managerSummary" validate:"max=8000"`
	Strengths          string          `json:"strengths" validate:"max=8000"`
	ImprovementAreas   string          `json:"improvementAreas" validate:"max=8000"`
}

func (req upsertRecordRequest) toDomain() performance.RecordInput {
	ratings := make([]performance.Rating, 0, len(req.Ratings))
	for _, r := range req.Ratings {
		ratings = append(ratings, performance.Rating{
			Key:           r.Key,
			Title:         r.Title,
			RatingValue:   r.RatingValue,
			RatingLabel:   r.RatingLabel,
			WeightedScore: r.WeightedScore,
			Comments:      r.Comments,
		})
	}
	return performance.RecordInput{
		Ratings:            ratings,
		TotalScore:         req.TotalScore,
		OverallRatingLabel: req.OverallRatingLabel,
		ManagerSummary:     req.ManagerSummary,
		Strengths:          req.Strengths,
		ImprovementAreas:   req.ImprovementAreas,
	}
}

type disputeRequest struct {
	Reason  string `json:"reason" validate:"required,max=2000"`
	Details string `json:"details" validate:"max=8000"`
}

type resolveDisputeRequest struct {
	Status            string `json:"status" validate:"required"`
	ResolutionSummary string `json:"resolutionSummary" validate:"max=8000"`
}
