package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/mtlprog/teamtodo/internal/auth"
	"github.com/mtlprog/teamtodo/internal/database"
	"github.com/mtlprog/teamtodo/internal/handler"
	"github.com/mtlprog/teamtodo/internal/handler/dto"
	"github.com/mtlprog/teamtodo/internal/metrics"
)

const (
	adminID   = "00000000-0000-0000-0000-0000000000a1"
	managerID = "00000000-0000-0000-0000-0000000000b1"
	user1ID   = "00000000-0000-0000-0000-0000000000c1"
	user2ID   = "00000000-0000-0000-0000-0000000000c2"
)

type HandlerTestSuite struct {
	suite.Suite
	pool      *pgxpool.Pool
	tokens    *auth.Tokens
	decisions *metrics.Decisions
	router    http.Handler

	adminToken   string
	managerToken string
	user1Token   string
	user2Token   string
}

func (s *HandlerTestSuite) SetupSuite() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		s.T().Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, databaseURL)
	s.Require().NoError(err)
	s.pool = db.Pool()

	s.tokens, err = auth.NewTokens("handler-test-secret", time.Hour)
	s.Require().NoError(err)
}

func (s *HandlerTestSuite) SetupTest() {
	ctx := context.Background()

	_, err := s.pool.Exec(ctx, "TRUNCATE users, tasks CASCADE")
	s.Require().NoError(err)

	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, role, is_active)
		VALUES
			($1, 'Ada', 'ada@example.com', 'admin', true),
			($2, 'Max', 'max@example.com', 'manager', true),
			($3, 'Uma', 'uma@example.com', 'user', true),
			($4, 'Ugo', 'ugo@example.com', 'user', true)
	`, adminID, managerID, user1ID, user2ID)
	s.Require().NoError(err)

	s.decisions = metrics.NewDecisions()
	s.router = handler.New(s.pool, s.tokens, s.decisions).Router()

	s.adminToken = s.issue(adminID)
	s.managerToken = s.issue(managerID)
	s.user1Token = s.issue(user1ID)
	s.user2Token = s.issue(user2ID)
}

func (s *HandlerTestSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) issue(userID string) string {
	token, err := s.tokens.Issue(userID)
	s.Require().NoError(err)
	return token
}

// Helper to make authenticated request
func (s *HandlerTestSuite) makeRequest(method, path, token string, body any) *httptest.ResponseRecorder {
	bodyReader := bytes.NewReader(nil)
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		s.Require().NoError(err)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) createTask(token string, req dto.CreateTaskRequest) dto.TaskResponse {
	w := s.makeRequest(http.MethodPost, "/api/v1/tasks", token, req)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var task dto.TaskResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&task))
	return task
}

func (s *HandlerTestSuite) listTasks(token string) dto.TasksListResponse {
	w := s.makeRequest(http.MethodGet, "/api/v1/tasks", token, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var list dto.TasksListResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&list))
	return list
}

func (s *HandlerTestSuite) errorCode(w *httptest.ResponseRecorder) string {
	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&errResp))
	return errResp.Error.Code
}

func taskTitles(list dto.TasksListResponse) []string {
	titles := make([]string, len(list.Tasks))
	for i, t := range list.Tasks {
		titles[i] = t.Task
	}
	return titles
}

func (s *HandlerTestSuite) TestCreateTask_Unauthorized() {
	w := s.makeRequest(http.MethodPost, "/api/v1/tasks", "", dto.CreateTaskRequest{Task: "Buy milk"})

	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("INVALID_TOKEN", s.errorCode(w))
}

func (s *HandlerTestSuite) TestInactiveUserRejected() {
	inactive := false
	w := s.makeRequest(http.MethodPatch, "/api/v1/users/"+user1ID+"/active", s.managerToken,
		dto.UpdateActiveRequest{Active: &inactive})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.makeRequest(http.MethodPatch, "/api/v1/users/"+user1ID+"/active", s.adminToken, map[string]any{})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.makeRequest(http.MethodPatch, "/api/v1/users/"+user1ID+"/active", s.adminToken,
		dto.UpdateActiveRequest{Active: &inactive})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var user dto.UserResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&user))
	s.False(user.IsActive)

	w = s.makeRequest(http.MethodGet, "/api/v1/tasks", s.user1Token, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("USER_INACTIVE", s.errorCode(w))

	active := true
	w = s.makeRequest(http.MethodPatch, "/api/v1/users/"+user1ID+"/active", s.adminToken,
		dto.UpdateActiveRequest{Active: &active})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.makeRequest(http.MethodGet, "/api/v1/tasks", s.user1Token, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestCreateTask_DefaultsAndOwner() {
	task := s.createTask(s.user1Token, dto.CreateTaskRequest{Task: "  Buy milk  ", Description: "2 liters"})

	s.Equal("Buy milk", task.Task)
	s.Equal("pending", task.Status)
	s.Equal(user1ID, task.UserID)
	s.Equal("Uma", task.Owner.Name)
	s.Equal("user", task.Owner.Role)
}

func (s *HandlerTestSuite) TestCreateTask_ValidationError() {
	w := s.makeRequest(http.MethodPost, "/api/v1/tasks", s.user1Token, dto.CreateTaskRequest{Task: "   "})

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("VALIDATION_ERROR", s.errorCode(w))
}

func (s *HandlerTestSuite) TestCreateTask_UserCannotAssignOthers() {
	w := s.makeRequest(http.MethodPost, "/api/v1/tasks", s.user1Token,
		dto.CreateTaskRequest{Task: "For Ugo", UserID: user2ID})

	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("INSUFFICIENT_ACCESS", s.errorCode(w))
	s.Empty(s.listTasks(s.adminToken).Tasks)
}

func (s *HandlerTestSuite) TestCreateTask_ManagerAssignsUser() {
	task := s.createTask(s.managerToken, dto.CreateTaskRequest{Task: "For Uma", UserID: user1ID})

	s.Equal(user1ID, task.UserID)
	s.Equal([]string{"For Uma"}, taskTitles(s.listTasks(s.user1Token)))
}

func (s *HandlerTestSuite) TestCreateTask_MalformedOwnerID() {
	w := s.makeRequest(http.MethodPost, "/api/v1/tasks", s.managerToken,
		dto.CreateTaskRequest{Task: "For nobody", UserID: "not-a-uuid"})
	s.Equal(http.StatusUnprocessableEntity, w.Code, w.Body.String())
	s.Equal("VALIDATION_ERROR", s.errorCode(w))

	w = s.makeRequest(http.MethodPost, "/api/v1/tasks", s.user1Token,
		dto.CreateTaskRequest{Task: "For nobody", UserID: "not-a-uuid"})
	s.Equal(http.StatusForbidden, w.Code)

	s.Empty(s.listTasks(s.adminToken).Tasks)
}

func (s *HandlerTestSuite) TestListTasks_ScopesByRole() {
	s.createTask(s.adminToken, dto.CreateTaskRequest{Task: "admin task"})
	s.createTask(s.managerToken, dto.CreateTaskRequest{Task: "manager task"})
	s.createTask(s.user1Token, dto.CreateTaskRequest{Task: "uma task"})
	s.createTask(s.user2Token, dto.CreateTaskRequest{Task: "ugo task"})

	s.Equal([]string{"ugo task", "uma task", "manager task", "admin task"}, taskTitles(s.listTasks(s.adminToken)))
	s.Equal([]string{"ugo task", "uma task", "manager task"}, taskTitles(s.listTasks(s.managerToken)))
	s.Equal([]string{"uma task"}, taskTitles(s.listTasks(s.user1Token)))
}

func (s *HandlerTestSuite) TestListTasks_FollowsRoleChanges() {
	s.createTask(s.user2Token, dto.CreateTaskRequest{Task: "ugo task"})
	s.Len(s.listTasks(s.managerToken).Tasks, 1)

	w := s.makeRequest(http.MethodPatch, "/api/v1/users/"+user2ID+"/role", s.adminToken, dto.UpdateRoleRequest{Role: "manager"})
	s.Require().Equal(http.StatusOK, w.Code)

	s.Empty(s.listTasks(s.managerToken).Tasks)
}

func (s *HandlerTestSuite) TestUpdateTask_ManagerCompletesUserTask() {
	task := s.createTask(s.user1Token, dto.CreateTaskRequest{Task: "Report"})

	w := s.makeRequest(http.MethodPatch, "/api/v1/tasks/"+task.ID, s.managerToken,
		map[string]any{"status": "completed", "user_id": managerID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var updated dto.TaskResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&updated))
	s.Equal("completed", updated.Status)
	s.Equal("Report", updated.Task)
	s.Equal(user1ID, updated.UserID, "owner is not a writable field")

	w = s.makeRequest(http.MethodDelete, "/api/v1/tasks/"+task.ID, s.user2Token, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.makeRequest(http.MethodGet, "/api/v1/tasks/"+task.ID, s.user1Token, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestUpdateTask_AuthorizationBeforeValidation() {
	task := s.createTask(s.user1Token, dto.CreateTaskRequest{Task: "Mine"})

	w := s.makeRequest(http.MethodPut, "/api/v1/tasks/"+task.ID, s.user2Token, map[string]any{"status": "archived"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.makeRequest(http.MethodPut, "/api/v1/tasks/"+task.ID, s.user1Token, map[string]any{"status": "archived"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlerTestSuite) TestDeleteTask_ManagerAsymmetry() {
	task := s.createTask(s.user1Token, dto.CreateTaskRequest{Task: "Uma's"})

	w := s.makeRequest(http.MethodPatch, "/api/v1/tasks/"+task.ID, s.managerToken, map[string]any{"task": "edited"})
	s.Equal(http.StatusOK, w.Code)

	w = s.makeRequest(http.MethodDelete, "/api/v1/tasks/"+task.ID, s.managerToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.makeRequest(http.MethodDelete, "/api/v1/tasks/"+task.ID, s.adminToken, nil)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.makeRequest(http.MethodDelete, "/api/v1/tasks/"+task.ID, s.adminToken, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("TASK_NOT_FOUND", s.errorCode(w))
}

func (s *HandlerTestSuite) TestTaskID_MustBeUUID() {
	w := s.makeRequest(http.MethodGet, "/api/v1/tasks/not-a-uuid", s.adminToken, nil)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("INVALID_REQUEST", s.errorCode(w))
}

func (s *HandlerTestSuite) TestListUserTasks() {
	s.createTask(s.user1Token, dto.CreateTaskRequest{Task: "uma task"})

	w := s.makeRequest(http.MethodGet, "/api/v1/users/"+user1ID+"/tasks", s.managerToken, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.makeRequest(http.MethodGet, "/api/v1/users/"+user1ID+"/tasks", s.user1Token, nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlerTestSuite) TestUserDirectory_RoleGates() {
	w := s.makeRequest(http.MethodGet, "/api/v1/users", s.managerToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var users dto.UsersListResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&users))
	s.Equal(4, users.Total)

	w = s.makeRequest(http.MethodGet, "/api/v1/users", s.user1Token, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.makeRequest(http.MethodPatch, "/api/v1/users/"+user1ID+"/role", s.managerToken, dto.UpdateRoleRequest{Role: "admin"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.makeRequest(http.MethodPatch, "/api/v1/users/"+user1ID+"/role", s.adminToken, dto.UpdateRoleRequest{Role: "owner"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.makeRequest(http.MethodDelete, "/api/v1/users/"+user2ID, s.adminToken, nil)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.makeRequest(http.MethodGet, "/api/v1/users/"+user2ID, s.adminToken, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestOperationalEndpoints() {
	w := s.makeRequest(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.makeRequest(http.MethodGet, "/policy.md", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Managers may edit")

	s.createTask(s.user1Token, dto.CreateTaskRequest{Task: "counted"})
	s.makeRequest(http.MethodPost, "/api/v1/tasks", s.user1Token, dto.CreateTaskRequest{Task: "denied", UserID: user2ID})

	w = s.makeRequest(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.True(strings.Contains(w.Body.String(), "teamtodo_policy_decisions_total"))

	count, err := testutil.GatherAndCount(s.decisions.Registry(), "teamtodo_policy_decisions_total")
	s.Require().NoError(err)
	s.Equal(2, count, "one allowed and one forbidden series for create")
}
