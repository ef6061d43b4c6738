package dto

// CreateTaskRequest represents the request body for POST /tasks.
type CreateTaskRequest struct {
	Task        string  `json:"task"`
	Description string  `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	UserID      string  `json:"user_id,omitempty"` // owner; empty means the caller
}

// UpdateTaskRequest represents the request body for PATCH/PUT /tasks/:id.
// Only these fields can change; anything else in the body is ignored.
type UpdateTaskRequest struct {
	Task        *string `json:"task,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// UpdateRoleRequest represents the request body for PATCH /users/:id/role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateActiveRequest represents the request body for PATCH /users/:id/active.
type UpdateActiveRequest struct {
	Active *bool `json:"active"`
}
