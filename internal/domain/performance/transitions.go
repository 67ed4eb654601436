package performance

// cycleTransitions maps a status and event to the next status. Missing
// entries are illegal moves.
var cycleTransitions = map[string]map[string]string{
	CycleStatusPlanned: {
		EventActivate: CycleStatusActive,
		EventPublish:  CycleStatusClosed,
		EventArchive:  CycleStatusArchived,
	},
	CycleStatusActive: {
		EventPublish: CycleStatusClosed,
		EventClose:   CycleStatusClosed,
	},
	CycleStatusClosed: {
		EventPublish: CycleStatusClosed,
		EventArchive: CycleStatusArchived,
	},
}

// NextCycleStatus returns the status a cycle moves to when event is applied.
// Publishing leaves the cycle CLOSED from PLANNED or ACTIVE, and may run again
// on a CLOSED cycle to pick up records submitted before it closed.
func NextCycleStatus(current, event string) (string, error) {
	next, ok := cycleTransitions[current][event]
	if !ok {
		return "", ErrInvalidTransition
	}
	return next, nil
}

// AcceptsRecords reports whether managers may still write or submit
// appraisal records in a cycle with this status.
func AcceptsRecords(status string) bool {
	return status == CycleStatusPlanned || status == CycleStatusActive
}
