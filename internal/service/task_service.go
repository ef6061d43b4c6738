package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mtlprog/teamtodo/internal/domain"
	"github.com/mtlprog/teamtodo/internal/policy"
)

// TaskStore is the durable task storage the service reads and writes.
type TaskStore interface {
	GetByID(ctx context.Context, taskID string) (*domain.Task, error)
	ListAll(ctx context.Context) ([]*domain.Task, error)
	ListByOwners(ctx context.Context, ownerIDs []string) ([]*domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, taskID string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, taskID string) error
}

// UserDirectory resolves users and their current roles.
type UserDirectory interface {
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	ListIDsByRole(ctx context.Context, role domain.Role) ([]string, error)
}

// DecisionRecorder receives every policy decision the service makes.
type DecisionRecorder interface {
	Observe(operation, role, verdict string)
	ObserveScope(role, scope string)
}

type noopRecorder struct{}

func (noopRecorder) Observe(string, string, string) {}
func (noopRecorder) ObserveScope(string, string)    {}

// TaskService applies the access policy around task storage operations.
type TaskService struct {
	tasks     TaskStore
	users     UserDirectory
	decisions DecisionRecorder
}

// NewTaskService creates a new TaskService. decisions may be nil.
func NewTaskService(tasks TaskStore, users UserDirectory, decisions DecisionRecorder) *TaskService {
	if decisions == nil {
		decisions = noopRecorder{}
	}
	return &TaskService{
		tasks:     tasks,
		users:     users,
		decisions: decisions,
	}
}

// CreateTaskParams holds the caller-supplied fields of a new task.
type CreateTaskParams struct {
	Title       string
	Description string
	Status      *domain.TaskStatus // nil means pending
	OwnerID     string             // empty means the caller
}

func (s *TaskService) record(operation string, caller domain.Caller, verdict policy.Verdict) {
	s.decisions.Observe(operation, string(caller.Role), verdict.String())
}

// ListTasks returns the tasks visible to caller, newest first.
func (s *TaskService) ListTasks(ctx context.Context, caller domain.Caller) ([]*domain.Task, error) {
	scope := policy.DecideListScope(caller)
	s.decisions.ObserveScope(string(caller.Role), scope.Kind.String())

	switch scope.Kind {
	case policy.ScopeAllTasks:
		tasks, err := s.tasks.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list all tasks: %w", err)
		}
		return tasks, nil

	case policy.ScopeOwnedOrSubordinate:
		own, err := s.tasks.ListByOwners(ctx, []string{scope.OwnerID})
		if err != nil {
			return nil, fmt.Errorf("list own tasks: %w", err)
		}

		subordinateIDs, err := s.users.ListIDsByRole(ctx, scope.SubordinateRole)
		if err != nil {
			return nil, fmt.Errorf("list %s ids: %w", scope.SubordinateRole, err)
		}

		subordinate, err := s.tasks.ListByOwners(ctx, subordinateIDs)
		if err != nil {
			return nil, fmt.Errorf("list subordinate tasks: %w", err)
		}

		return policy.MergeByCreatedAtDesc(own, subordinate), nil

	default:
		tasks, err := s.tasks.ListByOwners(ctx, []string{scope.OwnerID})
		if err != nil {
			return nil, fmt.Errorf("list own tasks: %w", err)
		}
		return tasks, nil
	}
}

// ListTasksByUser returns the tasks owned by userID.
// Only admins and managers may use it, whatever the target.
func (s *TaskService) ListTasksByUser(ctx context.Context, caller domain.Caller, userID string) ([]*domain.Task, error) {
	verdict := policy.DecideVisibilityByUserID(caller, userID)
	s.record("list_by_user", caller, verdict)
	if !verdict.Allowed() {
		return nil, fmt.Errorf("%w: %s %s requested tasks of %s", domain.ErrUserListingDenied, caller.Role, caller.ID, userID)
	}

	tasks, err := s.tasks.ListByOwners(ctx, []string{userID})
	if err != nil {
		return nil, fmt.Errorf("list tasks of user %s: %w", userID, err)
	}
	return tasks, nil
}

// GetTask returns a single task if it lies in the caller's listing scope.
func (s *TaskService) GetTask(ctx context.Context, caller domain.Caller, taskID string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	verdict := policy.Forbidden
	if policy.DecideListScope(caller).Includes(task) {
		verdict = policy.Allowed
	}
	s.record("read", caller, verdict)
	if !verdict.Allowed() {
		return nil, fmt.Errorf("%w: %s %s cannot read task %s", domain.ErrPermissionDenied, caller.Role, caller.ID, taskID)
	}

	return task, nil
}

// CreateTask validates the request, decides the owner and stores the task.
// Validation runs before authorization.
func (s *TaskService) CreateTask(ctx context.Context, caller domain.Caller, params CreateTaskParams) (*domain.Task, error) {
	title, err := policy.ValidateTitle(params.Title)
	if err != nil {
		return nil, err
	}

	status := domain.TaskStatusPending
	if params.Status != nil {
		if !params.Status.IsValid() {
			return nil, domain.ErrInvalidStatus
		}
		status = *params.Status
	}

	ownerID, err := policy.DecideCreateOwner(caller, params.OwnerID)
	if err != nil {
		s.record("create", caller, policy.Forbidden)
		return nil, err
	}
	s.record("create", caller, policy.Allowed)

	if ownerID != caller.ID {
		if _, err := s.users.GetByID(ctx, ownerID); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, fmt.Errorf("%w: %s", domain.ErrOwnerNotFound, ownerID)
			}
			return nil, fmt.Errorf("get owner: %w", err)
		}
	}

	task, err := s.tasks.Create(ctx, &domain.Task{
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Status:      status,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	slog.Info("task created",
		"task_id", task.ID,
		"owner_id", task.OwnerID,
		"caller_id", caller.ID,
		"caller_role", caller.Role,
	)

	return task, nil
}

// UpdateTask applies a partial update after the policy allows it.
// Authorization runs before validation so a caller learns nothing about
// fields of a task it cannot touch.
func (s *TaskService) UpdateTask(ctx context.Context, caller domain.Caller, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := policy.AuthorizeMutation(caller, task, policy.ActionUpdate); err != nil {
		s.record(string(policy.ActionUpdate), caller, policy.Forbidden)
		slog.Info("task update denied",
			"task_id", taskID,
			"caller_id", caller.ID,
			"caller_role", caller.Role,
			"owner_role", task.OwnerRole,
		)
		return nil, err
	}
	s.record(string(policy.ActionUpdate), caller, policy.Allowed)

	patch, err = patch.Normalize()
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return task, nil
	}

	updated, err := s.tasks.Update(ctx, taskID, patch)
	if err != nil {
		return nil, err
	}

	slog.Info("task updated",
		"task_id", taskID,
		"caller_id", caller.ID,
		"caller_role", caller.Role,
	)

	return updated, nil
}

// DeleteTask removes a task after the policy allows it.
func (s *TaskService) DeleteTask(ctx context.Context, caller domain.Caller, taskID string) error {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}

	if err := policy.AuthorizeMutation(caller, task, policy.ActionDelete); err != nil {
		s.record(string(policy.ActionDelete), caller, policy.Forbidden)
		slog.Info("task delete denied",
			"task_id", taskID,
			"caller_id", caller.ID,
			"caller_role", caller.Role,
			"owner_role", task.OwnerRole,
		)
		return err
	}
	s.record(string(policy.ActionDelete), caller, policy.Allowed)

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return err
	}

	slog.Info("task deleted",
		"task_id", taskID,
		"caller_id", caller.ID,
		"caller_role", caller.Role,
	)

	return nil
}
