package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go-auth-api/internal/user"
)

func TestDefaultPermissions(t *testing.T) {
	t.Parallel()

	perms := DefaultPermissions()

	require.ElementsMatch(t, []string{PermissionListUsers, PermissionManageUsers}, perms.ForRole(user.RoleAdmin))
	require.Empty(t, perms.ForRole(user.RoleUser))
}

func TestPermissionsHasAll(t *testing.T) {
	t.Parallel()

	perms := DefaultPermissions()

	require.True(t, perms.HasAll(user.RoleAdmin, []string{PermissionListUsers}))
	require.True(t, perms.HasAll(user.RoleAdmin, []string{PermissionListUsers, PermissionManageUsers}))
	require.True(t, perms.HasAll(user.RoleUser, nil))

	require.False(t, perms.HasAll(user.RoleUser, []string{PermissionListUsers}))
	require.False(t, perms.HasAll(user.RoleAdmin, []string{"unknownPermission"}))
	require.False(t, perms.HasAll(user.Role("ghost"), []string{PermissionListUsers}))
}
