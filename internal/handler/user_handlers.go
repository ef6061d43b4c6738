package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mtlprog/teamtodo/internal/handler/dto"
)

// handleListUsers returns the user directory.
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {object} dto.UsersListResponse
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users [get]
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToUsersListResponse(users))
}

// handleGetUser returns one user.
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} dto.UserResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := extractID(w, r, "user")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// handleUpdateUserRole changes a user's role.
// @Summary Change a user's role
// @Description Takes effect on the next request: task decisions always use the owner's current role.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body dto.UpdateRoleRequest true "New role"
// @Success 200 {object} dto.UserResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/role [patch]
func (h *Handler) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := extractID(w, r, "user")
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, err := h.userService.ChangeRole(r.Context(), userID, req.Role)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// handleUpdateUserActive activates or deactivates a user.
// @Summary Activate or deactivate a user
// @Description A deactivated user is refused on the next request. Their tasks are kept.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body dto.UpdateActiveRequest true "Activation state"
// @Success 200 {object} dto.UserResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/active [patch]
func (h *Handler) handleUpdateUserActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := extractID(w, r, "user")
	if !ok {
		return
	}

	var req dto.UpdateActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.Active == nil {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "active is required")
		return
	}

	user, err := h.userService.SetActive(r.Context(), userID, *req.Active)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// handleDeleteUser deletes a user and the tasks they own.
// @Summary Delete a user
// @Tags users
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := extractID(w, r, "user")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(r.Context(), userID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
