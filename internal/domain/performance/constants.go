package performance

const (
	TypeAnnual       = "ANNUAL"
	TypeSemiAnnual   = "SEMI_ANNUAL"
	TypeProbationary = "PROBATIONARY"
	TypeProject      = "PROJECT"
	TypeAdHoc        = "AD_HOC"

	ScaleThreePoint = "THREE_POINT"
	ScaleFivePoint  = "FIVE_POINT"
	ScaleTenPoint   = "TEN_POINT"

	CycleStatusPlanned  = "PLANNED"
	CycleStatusActive   = "ACTIVE"
	CycleStatusClosed   = "CLOSED"
	CycleStatusArchived = "ARCHIVED"

	AssignmentStatusNotStarted = "NOT_STARTED"
	AssignmentStatusInProgress = "IN_PROGRESS"
	AssignmentStatusSubmitted  = "SUBMITTED"

	RecordStatusDraft            = "DRAFT"
	RecordStatusManagerSubmitted = "MANAGER_SUBMITTED"
	RecordStatusHRPublished      = "HR_PUBLISHED"

	DisputeStatusOpen        = "OPEN"
	DisputeStatusUnderReview = "UNDER_REVIEW"
	DisputeStatusAdjusted    = "ADJUSTED"
	DisputeStatusRejected    = "REJECTED"
	DisputeStatusResolved    = "RESOLVED"
)

const (
	EventActivate = "activate"
	EventPublish  = "publish"
	EventClose    = "close"
	EventArchive  = "archive"
)

const (
	NotifyReviewAssigned     = "review_assigned"
	NotifyAppraisalPublished = "appraisal_published"
	NotifyDisputeResolved    = "dispute_resolved"
	NotifyReviewOverdue      = "review_overdue"
)

const JobNotify = "performance_notify"

var templateTypes = map[string]struct{}{
	TypeAnnual:       {},
	TypeSemiAnnual:   {},
	TypeProbationary: {},
	TypeProject:      {},
	TypeAdHoc:        {},
}

var scaleTypes = map[string]struct{}{
	ScaleThreePoint: {},
	ScaleFivePoint:  {},
	ScaleTenPoint:   {},
}

var disputeStatuses = map[string]struct{}{
	DisputeStatusOpen:        {},
	DisputeStatusUnderReview: {},
	DisputeStatusAdjusted:    {},
	DisputeStatusRejected:    {},
	DisputeStatusResolved:    {},
}

func ValidTemplateType(v string) bool {
	_, ok := templateTypes[v]
	return ok
}

func ValidDisputeStatus(v string) bool {
	_, ok := disputeStatuses[v]
	return ok
}
