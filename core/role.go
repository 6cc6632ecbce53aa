package core

import "strings"

// Role is the closed set of account kinds on the platform.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
	RoleParent     Role = "parent"
)

// Roles lists every valid role.
var Roles = []Role{RoleStudent, RoleInstructor, RoleAdmin, RoleParent}

// ParseRole converts user input to a Role. An empty string yields RoleStudent.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleStudent, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin, RoleParent:
		return true
	}
	return false
}

// Label is the human-readable name shown in the UI.
func (r Role) Label() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleInstructor:
		return "Instructor"
	case RoleAdmin:
		return "Administrator"
	case RoleParent:
		return "Parent"
	}
	return "Unknown"
}

// Color is the badge colour used for the role in the UI.
func (r Role) Color() string {
	switch r {
	case RoleStudent:
		return "blue"
	case RoleInstructor:
		return "green"
	case RoleAdmin:
		return "red"
	case RoleParent:
		return "purple"
	}
	return "gray"
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}
