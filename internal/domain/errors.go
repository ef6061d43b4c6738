package domain

import (
	"errors"
	"fmt"
)

// Base error kinds. Validation and permission failures are disjoint:
// every concrete error below wraps exactly one of them.
var (
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
)

var (
	// Not found errors
	ErrTaskNotFound = errors.New("task not found")
	ErrUserNotFound = errors.New("user not found")

	// Permission errors
	ErrNotTaskOwner      = fmt.Errorf("%w: not task owner", ErrPermissionDenied)
	ErrCannotAssignOwner = fmt.Errorf("%w: users can only create tasks for themselves", ErrPermissionDenied)
	ErrUserListingDenied = fmt.Errorf("%w: not authorized to view other users' tasks", ErrPermissionDenied)
	ErrRoleRequired      = fmt.Errorf("%w: role not allowed for this operation", ErrPermissionDenied)

	// Validation errors
	ErrTitleRequired = fmt.Errorf("%w: task is required", ErrValidation)
	ErrInvalidStatus = fmt.Errorf("%w: status must be 'pending' or 'completed'", ErrValidation)
	ErrInvalidRole   = fmt.Errorf("%w: role must be 'user', 'manager' or 'admin'", ErrValidation)
	ErrOwnerNotFound = fmt.Errorf("%w: target owner does not exist", ErrValidation)
	ErrEmailRequired = fmt.Errorf("%w: email is required", ErrValidation)
	ErrNameRequired  = fmt.Errorf("%w: name is required", ErrValidation)
	ErrEmailTaken    = fmt.Errorf("%w: email already registered", ErrValidation)

	// Authentication errors
	ErrInvalidToken = errors.New("invalid authentication token")
	ErrUserInactive = errors.New("user is inactive")
)
