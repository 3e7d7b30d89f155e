package model

import "fmt"

// Role is the closed set of staff roles. Leads themselves are not staff and
// carry no role; the hierarchy is Admin -> Sub-Admin -> Agent, where an
// Agent's SupervisorID points at the Sub-Admin who supervises them.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleSubAdmin Role = "Sub-Admin"
	RoleAgent    Role = "Agent"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSubAdmin, RoleAgent:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a string to a Role, rejecting anything outside the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
