package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/mtlprog/teamtodo/docs" // Register API docs
	"github.com/mtlprog/teamtodo/internal/auth"
	"github.com/mtlprog/teamtodo/internal/domain"
	"github.com/mtlprog/teamtodo/internal/handler/dto"
	"github.com/mtlprog/teamtodo/internal/metrics"
	"github.com/mtlprog/teamtodo/internal/middleware"
	"github.com/mtlprog/teamtodo/internal/repository"
	"github.com/mtlprog/teamtodo/internal/service"
	"github.com/mtlprog/teamtodo/internal/static"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	pool           *pgxpool.Pool
	taskService    *service.TaskService
	userService    *service.UserService
	decisions      *metrics.Decisions
	authMiddleware *middleware.AuthMiddleware
}

// New creates a new Handler instance with all dependencies.
// A nil decisions gets a fresh registry.
func New(pool *pgxpool.Pool, tokens *auth.Tokens, decisions *metrics.Decisions) *Handler {
	if decisions == nil {
		decisions = metrics.NewDecisions()
	}

	// Create repositories
	taskRepo := repository.NewTaskRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// Create services
	taskService := service.NewTaskService(taskRepo, userRepo, decisions)
	userService := service.NewUserService(userRepo)

	// Create middleware
	authMiddleware := middleware.NewAuthMiddleware(tokens, userRepo)

	return &Handler{
		pool:           pool,
		taskService:    taskService,
		userService:    userService,
		decisions:      decisions,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// Operational endpoints
	mux.Handle("GET /metrics", h.decisions.Handler())
	mux.HandleFunc("GET /policy.md", h.handlePolicyMd)

	// Swagger UI
	mux.HandleFunc("GET /swagger/", httpSwagger.Handler())

	authn := h.authMiddleware.Authenticate
	staff := middleware.RequireRoles(domain.RoleAdmin, domain.RoleManager)
	admin := middleware.RequireRoles(domain.RoleAdmin)

	// Tasks
	mux.Handle("GET /api/v1/tasks", authn(http.HandlerFunc(h.handleListTasks)))
	mux.Handle("POST /api/v1/tasks", authn(http.HandlerFunc(h.handleCreateTask)))
	mux.Handle("GET /api/v1/tasks/{id}", authn(http.HandlerFunc(h.handleGetTask)))
	mux.Handle("PATCH /api/v1/tasks/{id}", authn(http.HandlerFunc(h.handleUpdateTask)))
	mux.Handle("PUT /api/v1/tasks/{id}", authn(http.HandlerFunc(h.handleUpdateTask)))
	mux.Handle("DELETE /api/v1/tasks/{id}", authn(http.HandlerFunc(h.handleDeleteTask)))
	mux.Handle("GET /api/v1/users/{id}/tasks", authn(http.HandlerFunc(h.handleListUserTasks)))

	// User directory
	mux.Handle("GET /api/v1/users", authn(staff(http.HandlerFunc(h.handleListUsers))))
	mux.Handle("GET /api/v1/users/{id}", authn(staff(http.HandlerFunc(h.handleGetUser))))
	mux.Handle("PATCH /api/v1/users/{id}/role", authn(admin(http.HandlerFunc(h.handleUpdateUserRole))))
	mux.Handle("PATCH /api/v1/users/{id}/active", authn(admin(http.HandlerFunc(h.handleUpdateUserActive))))
	mux.Handle("DELETE /api/v1/users/{id}", authn(admin(http.HandlerFunc(h.handleDeleteUser))))
}

// Router returns the full HTTP handler: routes plus request id, real ip and
// panic recovery.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = chimw.Recoverer(handler)
	handler = chimw.RealIP(handler)
	handler = chimw.RequestID(handler)
	return handler
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.pool.Ping(ctx); err != nil {
		slog.Error("database health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handlePolicyMd serves the access policy as markdown.
func (h *Handler) handlePolicyMd(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(static.PolicyMd))
}

// Ping checks if the database is reachable (used for testing).
func (h *Handler) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps err through dto.MapDomainError.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// callerFrom extracts the authenticated caller.
// Returns (caller, false) if missing (error already sent to client).
func callerFrom(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, err := middleware.GetCallerFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return domain.Caller{}, false
	}
	return caller, true
}

// extractID extracts and validates the {id} path parameter.
// Returns (id, true) if valid, ("", false) if invalid (error already sent to client).
func extractID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", name+" id is required")
		return "", false
	}

	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", name+"_id must be a valid UUID")
		return "", false
	}

	return id, true
}
