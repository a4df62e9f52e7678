package auth

import "fmt"

// Role is one of the four fixed account roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHospital Role = "hospital"
	RoleDoctor   Role = "doctor"
	RolePatient  Role = "patient"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleHospital, RoleDoctor, RolePatient}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHospital, RoleDoctor, RolePatient:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts s into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
