package performance

import (
	"context"
	"time"
)

// StoreAPI is the persistence surface of the appraisal lifecycle. Methods
// that touch more than one table run in a single transaction.
type StoreAPI interface {
	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)
	EmployeeUserID(ctx context.Context, tenantID, employeeID string) (string, error)
	EmployeeName(ctx context.Context, tenantID, employeeID string) (string, error)

	CreateTemplate(ctx context.Context, tenantID string, t Template) error
	ListTemplates(ctx context.Context, tenantID string) ([]Template, error)
	GetTemplate(ctx context.Context, tenantID, id string) (Template, error)
	UpdateTemplate(ctx context.Context, tenantID string, t Template) error
	DeleteTemplate(ctx context.Context, tenantID, id string) error

	CreateCycleWithAssignments(ctx context.Context, tenantID string, c Cycle, assignments []Assignment) error
	ListCycles(ctx context.Context, tenantID string) ([]Cycle, error)
	GetCycle(ctx context.Context, tenantID, id string) (Cycle, error)
	UpdateCycleStatus(ctx context.Context, tenantID string, c Cycle, fromStatus string) error
	PublishCycle(ctx context.Context, tenantID string, c Cycle, fromStatus string) ([]string, error)
	ArchiveCycle(ctx context.Context, tenantID string, c Cycle, fromStatus string) error

	GetAssignment(ctx context.Context, tenantID, id string) (Assignment, error)
	ListAssignments(ctx context.Context, tenantID string, filter AssignmentFilter) ([]AssignmentView, error)
	ListOverdueAssignments(ctx context.Context, tenantID string, now time.Time) ([]AssignmentView, error)

	GetRecord(ctx context.Context, tenantID, id string) (Record, error)
	CreateRecord(ctx context.Context, tenantID string, r Record) error
	UpdateRecordDraft(ctx context.Context, tenantID string, r Record) error
	SubmitRecord(ctx context.Context, tenantID string, r Record) error
	ListPublishedRecords(ctx context.Context, tenantID, employeeID string) ([]RecordView, error)

	CreateDispute(ctx context.Context, tenantID string, d Dispute) error
	GetDispute(ctx context.Context, tenantID, id string) (Dispute, error)
	ResolveDispute(ctx context.Context, tenantID string, d Dispute) error
	ListDisputes(ctx context.Context, tenantID string, filter DisputeFilter) ([]Dispute, error)
}
