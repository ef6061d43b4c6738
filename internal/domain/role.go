package domain

// Role is the privilege class of a user. The set is closed: rights are granted
// per role and per action by the policy package, never by comparing roles.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleUser, RoleManager, RoleAdmin}

// IsValid checks if the role is one of the allowed values.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole converts a string to a Role.
// Returns ErrInvalidRole for anything outside the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}
