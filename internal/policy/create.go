package policy

import (
	"fmt"
	"strings"

	"github.com/mtlprog/teamtodo/internal/domain"
)

// ValidateTitle trims title and rejects it if nothing is left.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", domain.ErrTitleRequired
	}
	return trimmed, nil
}

// DecideCreateOwner returns the effective owner of a new task.
//
// An empty requestedOwnerID means the caller. Only admins and managers may
// create tasks for someone else; a user asking for that is refused rather
// than silently given the task.
func DecideCreateOwner(caller domain.Caller, requestedOwnerID string) (string, error) {
	if requestedOwnerID == "" || requestedOwnerID == caller.ID {
		return caller.ID, nil
	}
	switch caller.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return requestedOwnerID, nil
	default:
		return "", fmt.Errorf("%w: %s %s requested owner %s", domain.ErrCannotAssignOwner, caller.Role, caller.ID, requestedOwnerID)
	}
}
