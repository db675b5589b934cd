package model

import "fmt"

// Role is a rank inside a guild or party. Roles form a strict total
// order; Promote and Demote only ever move one step along it and never
// step onto RoleLeader, which is owned by the leader-change operation.
type Role int

const (
	RoleRookie Role = iota
	RoleMember
	RoleOfficer
	RoleLeader
)

var roleNames = map[Role]string{
	RoleRookie:  "ROOKIE",
	RoleMember:  "MEMBER",
	RoleOfficer: "OFFICER",
	RoleLeader:  "LEADER",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Next returns the rank one step above r. The step is bounded below
// RoleLeader: promoting an officer or the leader is not a role step.
func (r Role) Next() (Role, bool) {
	if r < RoleRookie || r >= RoleOfficer {
		return r, false
	}
	return r + 1, true
}

// Previous returns the rank one step below r, bounded at RoleRookie.
// The leader cannot be demoted through a role step.
func (r Role) Previous() (Role, bool) {
	if r <= RoleRookie || r >= RoleLeader {
		return r, false
	}
	return r - 1, true
}

// AtLeast reports whether r outranks or equals other.
func (r Role) AtLeast(other Role) bool {
	return r >= other
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	for role, name := range roleNames {
		if name == string(text) {
			*r = role
			return nil
		}
	}
	return fmt.Errorf("unknown role %q", string(text))
}

// ParseRole converts a wire role name back into a Role.
func ParseRole(name string) (Role, bool) {
	var r Role
	if err := r.UnmarshalText([]byte(name)); err != nil {
		return RoleRookie, false
	}
	return r, true
}
