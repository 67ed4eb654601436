package performance

import "time"

type RatingScale struct {
	Type   string   `json:"type"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Step   float64  `json:"step"`
	Labels []string `json:"labels,omitempty"`
}

type Criterion struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	Details  string   `json:"details,omitempty"`
	Weight   float64  `json:"weight"`
	MaxScore *float64 `json:"maxScore,omitempty"`
	Required bool     `json:"required"`
}

type Template struct {
	ID                      string      `json:"id"`
	Name                    string      `json:"name"`
	Description             string      `json:"description"`
	TemplateType            string      `json:"templateType"`
	RatingScale             RatingScale `json:"ratingScale"`
	Criteria                []Criterion `json:"criteria"`
	Instructions            string      `json:"instructions"`
	ApplicableDepartmentIDs []string    `json:"applicableDepartmentIds"`
	ApplicablePositionIDs   []string    `json:"applicablePositionIds"`
	IsActive                bool        `json:"isActive"`
	CreatedAt               time.Time   `json:"createdAt"`
	UpdatedAt               time.Time   `json:"updatedAt"`
}

type TemplateInput struct {
	Name                    string
	Description             string
	TemplateType            string
	RatingScale             RatingScale
	Criteria                []Criterion
	Instructions            string
	ApplicableDepartmentIDs []string
	ApplicablePositionIDs   []string
	IsActive                *bool
}

// TemplatePatch carries a partial update; nil fields are left as stored.
type TemplatePatch struct {
	Name                    *string
	Description             *string
	TemplateType            *string
	RatingScale             *RatingScale
	Criteria                []Criterion
	Instructions            *string
	ApplicableDepartmentIDs []string
	ApplicablePositionIDs   []string
	IsActive                *bool
}

type CycleTemplateAssignment struct {
	TemplateID    string   `json:"templateId"`
	DepartmentIDs []string `json:"departmentIds"`
}

type Cycle struct {
	ID                             string                    `json:"id"`
	Name                           string                    `json:"name"`
	Description                    string                    `json:"description"`
	CycleType                      string                    `json:"cycleType"`
	StartDate                      time.Time                 `json:"startDate"`
	EndDate                        time.Time                 `json:"endDate"`
	ManagerDueDate                 *time.Time                `json:"managerDueDate,omitempty"`
	EmployeeAcknowledgementDueDate *time.Time                `json:"employeeAcknowledgementDueDate,omitempty"`
	TemplateAssignments            []CycleTemplateAssignment `json:"templateAssignments"`
	Status                         string                    `json:"status"`
	PublishedAt                    *time.Time                `json:"publishedAt,omitempty"`
	ClosedAt                       *time.Time                `json:"closedAt,omitempty"`
	ArchivedAt                     *time.Time                `json:"archivedAt,omitempty"`
	CreatedAt                      time.Time                 `json:"createdAt"`
	UpdatedAt                      time.Time                 `json:"updatedAt"`
}

type AssignmentEntry struct {
	EmployeeProfileID string
	ManagerProfileID  string
	TemplateID        string
	DepartmentID      string
	PositionID        string
	DueDate           *time.Time
}

type CycleInput struct {
	Name                           string
	Description                    string
	CycleType                      string
	StartDate                      time.Time
	EndDate                        time.Time
	ManagerDueDate                 *time.Time
	EmployeeAcknowledgementDueDate *time.Time
	TemplateAssignments            []CycleTemplateAssignment
	Assignments                    []AssignmentEntry
}

type CycleWithAssignments struct {
	Cycle       Cycle        `json:"cycle"`
	Assignments []Assignment `json:"assignments"`
}

type PublishResult struct {
	Cycle          Cycle    `json:"cycle"`
	PublishedCount int      `json:"publishedCount"`
	EmployeeIDs    []string `json:"-"`
}

type Assignment struct {
	ID                string     `json:"id"`
	CycleID           string     `json:"cycleId"`
	TemplateID        string     `json:"templateId"`
	EmployeeProfileID string     `json:"employeeProfileId"`
	ManagerProfileID  string     `json:"managerProfileId"`
	DepartmentID      string     `json:"departmentId"`
	PositionID        string     `json:"positionId,omitempty"`
	Status            string     `json:"status"`
	AssignedAt        time.Time  `json:"assignedAt"`
	DueDate           time.Time  `json:"dueDate"`
	SubmittedAt       *time.Time `json:"submittedAt,omitempty"`
	LatestAppraisalID *string    `json:"latestAppraisalId,omitempty"`
}

// AssignmentView is an assignment with the names a dashboard needs.
type AssignmentView struct {
	Assignment
	EmployeeName string `json:"employeeName"`
	TemplateName string `json:"templateName"`
	CycleName    string `json:"cycleName"`
	CycleStatus  string `json:"cycleStatus"`
}

type AssignmentFilter struct {
	ManagerID  string
	EmployeeID string
	CycleID    string
}

type Rating struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	RatingValue   float64  `json:"ratingValue"`
	RatingLabel   string   `json:"ratingLabel,omitempty"`
	WeightedScore *float64 `json:"weightedScore,omitempty"`
	Comments      string   `json:"comments,omitempty"`
}

type Record struct {
	ID                 string     `json:"id"`
	AssignmentID       string     `json:"assignmentId"`
	CycleID            string     `json:"cycleId"`
	TemplateID         string     `json:"templateId"`
	EmployeeProfileID  string     `json:"employeeProfileId"`
	ManagerProfileID   string     `json:"managerProfileId"`
	Ratings            []Rating   `json:"ratings"`
	TotalScore         *float64   `json:"totalScore,omitempty"`
	OverallRatingLabel string     `json:"overallRatingLabel"`
	ManagerSummary     string     `json:"managerSummary"`
	Strengths          string     `json:"strengths"`
	ImprovementAreas   string     `json:"improvementAreas"`
	Status             string     `json:"status"`
	ManagerSubmittedAt *time.Time `json:"managerSubmittedAt,omitempty"`
	HRPublishedAt      *time.Time `json:"hrPublishedAt,omitempty"`
	ArchivedAt         *time.Time `json:"archivedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type RecordInput struct {
	Ratings            []Rating
	TotalScore         *float64
	OverallRatingLabel string
	ManagerSummary     string
	Strengths          string
	ImprovementAreas   string
}

// RecordView joins the names shown on an employee's appraisal history.
type RecordView struct {
	Record
	CycleName    string `json:"cycleName"`
	TemplateName string `json:"templateName"`
	ManagerName  string `json:"managerName"`
	EmployeeName string `json:"employeeName"`
}

// Viewer is the caller as seen by read checks on records.
type Viewer struct {
	EmployeeID string
	IsHR       bool
}

type Dispute struct {
	ID                   string     `json:"id"`
	AppraisalID          string     `json:"appraisalId"`
	AssignmentID         string     `json:"assignmentId"`
	CycleID              string     `json:"cycleId"`
	RaisedByEmployeeID   string     `json:"raisedByEmployeeId"`
	Reason               string     `json:"reason"`
	Details              string     `json:"details"`
	Status               string     `json:"status"`
	SubmittedAt          time.Time  `json:"submittedAt"`
	ResolutionSummary    string     `json:"resolutionSummary"`
	ResolvedByEmployeeID *string    `json:"resolvedByEmployeeId,omitempty"`
	ResolvedAt           *time.Time `json:"resolvedAt,omitempty"`
}

type DisputeInput struct {
	Reason  string
	Details string
}

type ResolveInput struct {
	Status            string
	ResolutionSummary string
}

type DisputeFilter struct {
	CycleID string
	Status  string
}
