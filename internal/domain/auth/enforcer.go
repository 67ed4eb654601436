package auth

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj
`

// Enforcer answers role/permission questions from RolePermissions.
type Enforcer struct {
	e *casbin.SyncedEnforcer
}

func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	for role, perms := range RolePermissions {
		for _, perm := range perms {
			if _, err := e.AddPolicy(role, perm); err != nil {
				return nil, fmt.Errorf("rbac policy %s/%s: %w", role, perm, err)
			}
		}
	}
	return &Enforcer{e: e}, nil
}

func (e *Enforcer) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return e.e.Enforce(role, permission)
}
