package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/teamtodo/internal/domain"
)

// taskColumns selects a task joined with its owner's current user record.
var taskColumns = []string{
	"t.id", "t.owner_id", "u.role", "u.name", "u.email",
	"t.title", "t.description", "t.status", "t.created_at", "t.updated_at",
}

// TaskRepository handles database operations for tasks.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// selectTasks is the base query every read goes through, so the owner role is
// always the one currently stored on the user.
func selectTasks() sq.SelectBuilder {
	return psql.
		Select(taskColumns...).
		From("tasks t").
		Join("users u ON u.id = t.owner_id")
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.OwnerRole,
		&task.OwnerName,
		&task.OwnerEmail,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedKey(err) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &task, nil
}

// scanTasks scans multiple rows into a slice of Task structs.
func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) query(ctx context.Context, qb sq.SelectBuilder, name string) ([]*domain.Task, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", name, err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	return scanTasks(rows)
}

// GetByID retrieves a task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, taskID string) (*domain.Task, error) {
	query, args, err := selectTasks().
		Where(sq.Eq{"t.id": taskID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for task %s: %w", taskID, err)
	}

	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

// ListAll retrieves every task, newest first.
func (r *TaskRepository) ListAll(ctx context.Context) ([]*domain.Task, error) {
	return r.query(ctx, selectTasks().OrderBy("t.created_at DESC", "t.id"), "ListAll")
}

// ListByOwners retrieves the tasks owned by any of ownerIDs, newest first.
// An empty ownerIDs returns no tasks.
func (r *TaskRepository) ListByOwners(ctx context.Context, ownerIDs []string) ([]*domain.Task, error) {
	if len(ownerIDs) == 0 {
		return []*domain.Task{}, nil
	}

	qb := selectTasks().
		Where(sq.Eq{"t.owner_id": ownerIDs}).
		OrderBy("t.created_at DESC", "t.id")

	return r.query(ctx, qb, "ListByOwners")
}

// Create inserts a new task and returns it with the owner fields resolved.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}

	query, args, err := psql.
		Insert("tasks").
		Columns("owner_id", "title", "description", "status").
		Values(task.OwnerID, task.Title, task.Description, task.Status).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for task: %w", err)
	}

	var taskID string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&taskID); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return r.GetByID(ctx, taskID)
}

// Update applies the non-nil fields of patch to the task.
// Returns ErrTaskNotFound if the task no longer exists.
func (r *TaskRepository) Update(ctx context.Context, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, taskID)
	}

	ub := psql.Update("tasks").
		Set("updated_at", sq.Expr("clock_timestamp()")).
		Where(sq.Eq{"id": taskID})

	if patch.Title != nil {
		ub = ub.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		ub = ub.Set("description", *patch.Description)
	}
	if patch.Status != nil {
		ub = ub.Set("status", *patch.Status)
	}

	query, args, err := ub.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Update query for task %s: %w", taskID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrTaskNotFound
	}

	return r.GetByID(ctx, taskID)
}

// Delete removes a task permanently.
// Returns ErrTaskNotFound if the task does not exist.
func (r *TaskRepository) Delete(ctx context.Context, taskID string) error {
	query, args, err := psql.
		Delete("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for task %s: %w", taskID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isMalformedKey(err) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}
