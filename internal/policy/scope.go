package policy

import (
	"slices"

	"github.com/mtlprog/teamtodo/internal/domain"
)

// ScopeKind identifies which tasks a listing may return.
type ScopeKind int

const (
	// ScopeOwnedOnly is the caller's own tasks.
	ScopeOwnedOnly ScopeKind = iota
	// ScopeOwnedOrSubordinate is the caller's own tasks plus every task whose
	// owner currently has SubordinateRole.
	ScopeOwnedOrSubordinate
	// ScopeAllTasks is every task in the store.
	ScopeAllTasks
)

// String returns the scope kind name used in logs.
func (k ScopeKind) String() string {
	switch k {
	case ScopeAllTasks:
		return "all_tasks"
	case ScopeOwnedOrSubordinate:
		return "owned_or_subordinate"
	default:
		return "owned_only"
	}
}

// Scope describes the tasks visible to a caller. The store executes it.
type Scope struct {
	Kind            ScopeKind
	OwnerID         string
	SubordinateRole domain.Role
}

// DecideListScope maps a caller to the tasks it may list.
// Unknown roles get the narrowest scope.
func DecideListScope(caller domain.Caller) Scope {
	switch caller.Role {
	case domain.RoleAdmin:
		return Scope{Kind: ScopeAllTasks}
	case domain.RoleManager:
		return Scope{
			Kind:            ScopeOwnedOrSubordinate,
			OwnerID:         caller.ID,
			SubordinateRole: domain.RoleUser,
		}
	default:
		return Scope{Kind: ScopeOwnedOnly, OwnerID: caller.ID}
	}
}

// Includes reports whether task lies inside the scope.
func (s Scope) Includes(task *domain.Task) bool {
	if task == nil {
		return false
	}
	switch s.Kind {
	case ScopeAllTasks:
		return true
	case ScopeOwnedOrSubordinate:
		return task.OwnerID == s.OwnerID || task.OwnerRole == s.SubordinateRole
	default:
		return task.OwnerID == s.OwnerID
	}
}

// MergeByCreatedAtDesc concatenates the given task sets, drops repeated ids
// (first occurrence wins) and sorts newest first. Equal timestamps keep their
// input order.
func MergeByCreatedAtDesc(sets ...[]*domain.Task) []*domain.Task {
	var n int
	for _, set := range sets {
		n += len(set)
	}

	seen := make(map[string]struct{}, n)
	merged := make([]*domain.Task, 0, n)
	for _, set := range sets {
		for _, task := range set {
			if _, dup := seen[task.ID]; dup {
				continue
			}
			seen[task.ID] = struct{}{}
			merged = append(merged, task)
		}
	}

	slices.SortStableFunc(merged, func(a, b *domain.Task) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return merged
}
