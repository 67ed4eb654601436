package auth

const (
	RoleEmployee    = "Employee"
	RoleManager     = "Manager"
	RoleHR          = "HR"
	RoleSystemAdmin = "SystemAdmin"
)

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)
