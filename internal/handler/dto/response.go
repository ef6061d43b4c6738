package dto

import (
	"time"

	"github.com/mtlprog/teamtodo/internal/domain"
)

// TaskOwner is the populated owner of a task.
type TaskOwner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TaskResponse represents a single task.
type TaskResponse struct {
	ID          string    `json:"id"`
	Task        string    `json:"task"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	UserID      string    `json:"user_id"`
	Owner       TaskOwner `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TasksListResponse represents the response for GET /tasks.
type TasksListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// UserResponse represents a user directory entry.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UsersListResponse represents the response for GET /users.
type UsersListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

// ToTaskResponse converts domain.Task to TaskResponse.
func ToTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Task:        task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		UserID:      task.OwnerID,
		Owner: TaskOwner{
			ID:    task.OwnerID,
			Name:  task.OwnerName,
			Email: task.OwnerEmail,
			Role:  string(task.OwnerRole),
		},
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

// ToTasksListResponse converts a task slice, keeping its order.
func ToTasksListResponse(tasks []*domain.Task) TasksListResponse {
	out := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		out[i] = ToTaskResponse(task)
	}
	return TasksListResponse{Tasks: out, Total: len(out)}
}

// ToUserResponse converts domain.User to UserResponse.
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ToUsersListResponse converts a user slice.
func ToUsersListResponse(users []*domain.User) UsersListResponse {
	out := make([]UserResponse, len(users))
	for i, user := range users {
		out[i] = ToUserResponse(user)
	}
	return UsersListResponse{Users: out, Total: len(out)}
}
