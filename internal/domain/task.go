package domain

import (
	"strings"
	"time"
)

// TaskStatus represents the completion state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// IsValid checks if the status is one of the allowed values.
func (s TaskStatus) IsValid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// Task represents a unit of work owned by exactly one user.
//
// OwnerRole, OwnerName and OwnerEmail are resolved from the users table every
// time the task is read; they are not columns of the task row.
type Task struct {
	ID          string
	OwnerID     string
	OwnerRole   Role
	OwnerName   string
	OwnerEmail  string
	Title       string
	Description string
	Status      TaskStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch is a partial update. Nil fields are left untouched.
// Owner, id and timestamps have no field here and cannot be changed.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
}

// IsEmpty returns true if the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// Normalize trims the title and description and validates the supplied fields.
func (p TaskPatch) Normalize() (TaskPatch, error) {
	out := TaskPatch{Status: p.Status}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return TaskPatch{}, ErrTitleRequired
		}
		out.Title = &title
	}

	if p.Description != nil {
		description := strings.TrimSpace(*p.Description)
		out.Description = &description
	}

	if p.Status != nil && !p.Status.IsValid() {
		return TaskPatch{}, ErrInvalidStatus
	}

	return out, nil
}
