package auth

const (
	PermPerformanceRead     = "performance.read"
	PermPerformanceWrite    = "performance.write"
	PermPerformanceReview   = "performance.review"
	PermPerformanceFinalize = "performance.finalize"
	PermNotificationsRead   = "notifications.read"
	PermSystemAdmin         = "admin.system"
)

var DefaultPermissions = []string{
	PermPerformanceRead,
	PermPerformanceWrite,
	PermPerformanceReview,
	PermPerformanceFinalize,
	PermNotificationsRead,
	PermSystemAdmin,
}

// RolePermissions is the static policy loaded into the enforcer. Templates
// are HR-authored, so performance.write sits with HR only.
var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermPerformanceRead,
		PermNotificationsRead,
	},
	RoleManager: {
		PermPerformanceRead,
		PermPerformanceReview,
		PermNotificationsRead,
	},
	RoleHR: {
		PermPerformanceRead,
		PermPerformanceWrite,
		PermPerformanceReview,
		PermPerformanceFinalize,
		PermNotificationsRead,
	},
	RoleSystemAdmin: {
		PermSystemAdmin,
		PermNotificationsRead,
	},
}

// UserContext is the authenticated caller as carried on the request context.
type UserContext struct {
	UserID   string
	TenantID string
	RoleName string
}

func (u UserContext) IsHR() bool {
	return u.RoleName == RoleHR
}
