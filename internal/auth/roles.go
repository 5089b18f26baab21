package auth

import (
	"context"

	"go-auth-api/internal/user"
)

// Permission strings checked by the authorizer.
const (
	PermissionListUsers   = "listUsers"
	PermissionManageUsers = "manageUsers"
)

// Permissions maps a role to the permissions it grants. Built once at
// startup and never mutated afterwards; the authorizer receives it as a
// plain value rather than reaching for a global.
type Permissions map[user.Role][]string

// DefaultPermissions returns the static role table: admins manage and list
// users, regular users rely on the self-access override.
func DefaultPermissions() Permissions {
	return Permissions{
		user.RoleUser:  {},
		user.RoleAdmin: {PermissionListUsers, PermissionManageUsers},
	}
}

// ForRole returns the permission set granted to a role.
func (p Permissions) ForRole(role user.Role) []string {
	return p[role]
}

// RoleChangeAuthorizer returns the guard the user handler consults before
// applying a role patch. The self-access override on PATCH /users/{userID}
// covers email and password only; changing a role always requires the
// manageUsers permission on the authenticated principal.
func RoleChangeAuthorizer(p Permissions) user.RoleAuthorizer {
	return func(ctx context.Context) bool {
		principal, ok := GetUserFromContext(ctx)
		if !ok {
			return false
		}
		return p.HasAll(principal.Role, []string{PermissionManageUsers})
	}
}

// HasAll reports whether the role's permission set is a superset of required.
func (p Permissions) HasAll(role user.Role, required []string) bool {
	granted := make(map[string]struct{}, len(p[role]))
	for _, perm := range p[role] {
		granted[perm] = struct{}{}
	}
	for _, perm := range required {
		if _, ok := granted[perm]; !ok {
			return false
		}
	}
	return true
}
