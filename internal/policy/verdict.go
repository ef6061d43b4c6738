// Package policy decides who may see and change which tasks.
//
// Every function here is pure: it reads the Caller and already-materialized
// tasks and returns a decision. Nothing in this package performs I/O or holds
// state, so it is safe to call from any number of goroutines.
package policy

import (
	"fmt"

	"github.com/mtlprog/teamtodo/internal/domain"
)

// Verdict is the outcome of evaluating a request against policy.
// The zero value is Forbidden.
type Verdict int

const (
	Forbidden Verdict = iota
	Allowed
)

// String returns "allowed" or "forbidden".
func (v Verdict) String() string {
	if v == Allowed {
		return "allowed"
	}
	return "forbidden"
}

// Allowed reports whether the verdict permits the request.
func (v Verdict) Allowed() bool {
	return v == Allowed
}

// Action is a mutation on an existing task.
type Action string

const (
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// rule reports whether caller may perform an action on task.
type rule func(caller domain.Caller, task *domain.Task) bool

func always(domain.Caller, *domain.Task) bool { return true }

func ownsTask(caller domain.Caller, task *domain.Task) bool {
	return caller.Owns(task)
}

// ownerHasRole matches tasks whose owner currently holds role.
func ownerHasRole(role domain.Role) rule {
	return func(_ domain.Caller, task *domain.Task) bool {
		return task.OwnerRole == role
	}
}

func anyOf(rules ...rule) rule {
	return func(caller domain.Caller, task *domain.Task) bool {
		for _, r := range rules {
			if r(caller, task) {
				return true
			}
		}
		return false
	}
}

// mutationRules is the decision table for update and delete.
// A missing role or action entry means Forbidden.
//
// Managers may edit a subordinate's task but only delete their own.
var mutationRules = map[domain.Role]map[Action]rule{
	domain.RoleAdmin: {
		ActionUpdate: always,
		ActionDelete: always,
	},
	domain.RoleManager: {
		ActionUpdate: anyOf(ownsTask, ownerHasRole(domain.RoleUser)),
		ActionDelete: ownsTask,
	},
	domain.RoleUser: {
		ActionUpdate: ownsTask,
		ActionDelete: ownsTask,
	},
}

// DecideMutation decides whether caller may perform action on task.
// task.OwnerRole must hold the owner's current role, resolved at read time.
func DecideMutation(caller domain.Caller, task *domain.Task, action Action) Verdict {
	if task == nil {
		return Forbidden
	}
	r, ok := mutationRules[caller.Role][action]
	if !ok {
		return Forbidden
	}
	if r(caller, task) {
		return Allowed
	}
	return Forbidden
}

// AuthorizeMutation is DecideMutation returning an error suitable for callers
// that propagate failures. It returns nil when allowed.
func AuthorizeMutation(caller domain.Caller, task *domain.Task, action Action) error {
	if DecideMutation(caller, task, action).Allowed() {
		return nil
	}
	if task == nil {
		return fmt.Errorf("%w: no task to %s", domain.ErrPermissionDenied, action)
	}
	// Every role in mutationRules lets an owner act, so only callers with a
	// role outside the table get here. They are refused as a role problem,
	// never with ErrNotTaskOwner.
	if caller.Owns(task) {
		return fmt.Errorf("%w: %s %s cannot %s task %s", domain.ErrPermissionDenied, caller.Role, caller.ID, action, task.ID)
	}
	return fmt.Errorf("%w: %s %s cannot %s task %s owned by %s %s",
		domain.ErrNotTaskOwner, caller.Role, caller.ID, action, task.ID, task.OwnerRole, task.OwnerID)
}
