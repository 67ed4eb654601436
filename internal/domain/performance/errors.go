package performance

import "errors"

var (
	ErrTemplateNotFound   = errors.New("template not found")
	ErrCycleNotFound      = errors.New("cycle not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrRecordNotFound     = errors.New("appraisal record not found")
	ErrDisputeNotFound    = errors.New("dispute not found")
	ErrEmployeeNotFound   = errors.New("employee profile not found")

	ErrInvalidWeights        = errors.New("criteria weights must sum to 0 or 100")
	ErrInvalidRatingScale    = errors.New("rating scale requires min < max and a positive step")
	ErrDuplicateCriterionKey = errors.New("criterion keys must be unique")
	ErrInvalidMaxScore       = errors.New("criterion maxScore must not be below the rating scale minimum")
	ErrInvalidTemplateType   = errors.New("invalid template type")
	ErrInvalidDateRange      = errors.New("startDate must be before endDate")
	ErrInvalidRating         = errors.New("rating does not match template criteria")
	ErrMissingRequiredRating = errors.New("required criterion is not rated")

	ErrDuplicateAssignment = errors.New("employee already assigned in this cycle")
	ErrTemplateInUse       = errors.New("template is referenced by assignments")
	ErrTemplateNameTaken   = errors.New("template name already exists")

	ErrInvalidTransition    = errors.New("cycle status transition not allowed")
	ErrTemplateInactive     = errors.New("template is inactive")
	ErrRecordPublished      = errors.New("appraisal record is already published")
	ErrRecordNotPublished   = errors.New("appraisal record is not published")
	ErrInvalidDisputeStatus = errors.New("dispute resolution requires a closing status")
	ErrDisputeClosed        = errors.New("dispute is already closed")
	ErrCycleNotOpen         = errors.New("cycle no longer accepts appraisal records")

	ErrNotAssignedManager = errors.New("caller is not the assigned manager")
	ErrNotRecordEmployee  = errors.New("caller is not the appraised employee")
	ErrResolverIsRaiser   = errors.New("resolver cannot be the employee who raised the dispute")
	ErrRecordAccessDenied = errors.New("caller may not view this appraisal record")
)
