package policy

import "github.com/mtlprog/teamtodo/internal/domain"

// DecideVisibilityByUserID decides whether caller may list the tasks of the
// user identified by targetUserID.
//
// Users are refused even for their own id; they list through DecideListScope.
func DecideVisibilityByUserID(caller domain.Caller, _ string) Verdict {
	switch caller.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return Allowed
	default:
		return Forbidden
	}
}
