package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleOrdering(t *testing.T) {
	require.True(t, RoleLeader.AtLeast(RoleOfficer))
	require.True(t, RoleOfficer.AtLeast(RoleOfficer))
	require.False(t, RoleMember.AtLeast(RoleOfficer))
	require.False(t, RoleRookie.AtLeast(RoleMember))
}

func TestRoleStepsAreBounded(t *testing.T) {
	next, ok := RoleRookie.Next()
	require.True(t, ok)
	require.Equal(t, RoleMember, next)

	next, ok = RoleMember.Next()
	require.True(t, ok)
	require.Equal(t, RoleOfficer, next)

	// The ladder never steps onto leader.
	_, ok = RoleOfficer.Next()
	require.False(t, ok)
	_, ok = RoleLeader.Next()
	require.False(t, ok)

	prev, ok := RoleOfficer.Previous()
	require.True(t, ok)
	require.Equal(t, RoleMember, prev)

	_, ok = RoleRookie.Previous()
	require.False(t, ok)
	_, ok = RoleLeader.Previous()
	require.False(t, ok)
}

func TestRoleNamesRoundTrip(t *testing.T) {
	for _, role := range []Role{RoleRookie, RoleMember, RoleOfficer, RoleLeader} {
		parsed, ok := ParseRole(role.String())
		require.True(t, ok)
		require.Equal(t, role, parsed)
	}

	_, ok := ParseRole("WIZARD")
	require.False(t, ok)
}
