package types

import "fmt"

// Role indicates which dashboard a user is authorized to view.
// Admin is a superset role and passes every authorization check.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleStudent   Role = "Student"
	RoleFaculty   Role = "Faculty"
	RoleDeveloper Role = "Developer"
)

// Roles lists every valid role in a stable order.
var Roles = []Role{RoleAdmin, RoleStudent, RoleFaculty, RoleDeveloper}

// ParseRole validates a role string against the fixed catalog.
func ParseRole(s string) (Role, error) {
	for _, role := range Roles {
		if string(role) == s {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}
