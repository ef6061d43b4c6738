package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mtlprog/teamtodo/internal/domain"
	"github.com/mtlprog/teamtodo/internal/handler/dto"
	"github.com/mtlprog/teamtodo/internal/service"
)

// handleListTasks returns the tasks visible to the caller.
// @Summary List tasks
// @Description Admins see every task. Managers see their own tasks and tasks owned by users with the user role. Users see their own tasks. Newest first.
// @Tags tasks
// @Produce json
// @Success 200 {object} dto.TasksListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks [get]
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), caller)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTasksListResponse(tasks))
}

// handleCreateTask creates a new task.
// @Summary Create a new task
// @Description Creates a task for the caller. Admins and managers may pass user_id to create it for another user.
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body dto.CreateTaskRequest true "Task creation request"
// @Success 201 {object} dto.TaskResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	params := service.CreateTaskParams{
		Title:       req.Task,
		Description: req.Description,
		OwnerID:     req.UserID,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		params.Status = &status
	}

	task, err := h.taskService.CreateTask(r.Context(), caller, params)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToTaskResponse(task))
}

// handleGetTask returns a single task inside the caller's listing scope.
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.TaskResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), caller, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// handleUpdateTask applies a partial update.
// @Summary Update a task
// @Description Only task, description and status can change; other fields are ignored. Managers may update tasks owned by users with the user role.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body dto.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} dto.TaskResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [patch]
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	patch := domain.TaskPatch{
		Title:       req.Task,
		Description: req.Description,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		patch.Status = &status
	}

	task, err := h.taskService.UpdateTask(r.Context(), caller, taskID, patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// handleDeleteTask deletes a task.
// @Summary Delete a task
// @Description Admins may delete any task; everyone else only their own.
// @Tags tasks
// @Param id path string true "Task ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), caller, taskID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListUserTasks returns the tasks owned by one user.
// @Summary List a user's tasks
// @Description Admins and managers only, for any user. Users are refused even for their own id.
// @Tags tasks
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} dto.TasksListResponse
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/tasks [get]
func (h *Handler) handleListUserTasks(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	userID, ok := extractID(w, r, "user")
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTasksByUser(r.Context(), caller, userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTasksListResponse(tasks))
}
