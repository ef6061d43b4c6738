package service_test

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mtlprog/teamtodo/internal/domain"
)

type taskRow struct {
	id          string
	ownerID     string
	title       string
	description string
	status      domain.TaskStatus
	createdAt   time.Time
}

// memStore keeps users and tasks in memory and, like the SQL store, joins the
// owner's current role on every read.
type memStore struct {
	users  map[string]*domain.User
	tasks  []*taskRow
	clock  time.Time
	seq    int
	writes int
}

func newMemStore(users ...*domain.User) *memStore {
	s := &memStore{
		users: make(map[string]*domain.User),
		clock: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) resolve(row *taskRow) *domain.Task {
	owner := s.users[row.ownerID]
	return &domain.Task{
		ID:          row.id,
		OwnerID:     row.ownerID,
		OwnerRole:   owner.Role,
		OwnerName:   owner.Name,
		OwnerEmail:  owner.Email,
		Title:       row.title,
		Description: row.description,
		Status:      row.status,
		CreatedAt:   row.createdAt,
		UpdatedAt:   row.createdAt,
	}
}

func (s *memStore) find(taskID string) (int, *taskRow) {
	for i, row := range s.tasks {
		if row.id == taskID {
			return i, row
		}
	}
	return -1, nil
}

func (s *memStore) newestFirst(match func(*taskRow) bool) []*domain.Task {
	out := []*domain.Task{}
	for _, row := range s.tasks {
		if match(row) {
			out = append(out, s.resolve(row))
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.Task) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func (s *memStore) GetByID(_ context.Context, taskID string) (*domain.Task, error) {
	_, row := s.find(taskID)
	if row == nil {
		return nil, domain.ErrTaskNotFound
	}
	return s.resolve(row), nil
}

func (s *memStore) ListAll(context.Context) ([]*domain.Task, error) {
	return s.newestFirst(func(*taskRow) bool { return true }), nil
}

func (s *memStore) ListByOwners(_ context.Context, ownerIDs []string) ([]*domain.Task, error) {
	return s.newestFirst(func(row *taskRow) bool {
		return slices.Contains(ownerIDs, row.ownerID)
	}), nil
}

func (s *memStore) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	s.writes++
	s.seq++
	s.clock = s.clock.Add(time.Minute)
	row := &taskRow{
		id:          fmt.Sprintf("task-%d", s.seq),
		ownerID:     task.OwnerID,
		title:       task.Title,
		description: task.Description,
		status:      task.Status,
		createdAt:   s.clock,
	}
	s.tasks = append(s.tasks, row)
	return s.resolve(row), nil
}

func (s *memStore) Update(_ context.Context, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	s.writes++
	_, row := s.find(taskID)
	if row == nil {
		return nil, domain.ErrTaskNotFound
	}
	if patch.Title != nil {
		row.title = *patch.Title
	}
	if patch.Description != nil {
		row.description = *patch.Description
	}
	if patch.Status != nil {
		row.status = *patch.Status
	}
	return s.resolve(row), nil
}

func (s *memStore) Delete(_ context.Context, taskID string) error {
	s.writes++
	i, row := s.find(taskID)
	if row == nil {
		return domain.ErrTaskNotFound
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return nil
}

func (s *memStore) ListIDsByRole(_ context.Context, role domain.Role) ([]string, error) {
	ids := []string{}
	for id, u := range s.users {
		if u.Role == role {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *memStore) userDirectory() *memUsers {
	return &memUsers{store: s}
}

// memUsers exposes the user half of memStore, whose GetByID collides with the task one.
type memUsers struct {
	store *memStore
}

func (u *memUsers) GetByID(_ context.Context, userID string) (*domain.User, error) {
	user, ok := u.store.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (u *memUsers) ListIDsByRole(ctx context.Context, role domain.Role) ([]string, error) {
	return u.store.ListIDsByRole(ctx, role)
}

// mockTaskStore is a testify mock used where the test must prove which store
// calls did or did not happen.
type mockTaskStore struct {
	mock.Mock
}

func (m *mockTaskStore) GetByID(ctx context.Context, taskID string) (*domain.Task, error) {
	args := m.Called(ctx, taskID)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *mockTaskStore) ListAll(ctx context.Context) ([]*domain.Task, error) {
	args := m.Called(ctx)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

func (m *mockTaskStore) ListByOwners(ctx context.Context, ownerIDs []string) ([]*domain.Task, error) {
	args := m.Called(ctx, ownerIDs)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

func (m *mockTaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	args := m.Called(ctx, task)
	created, _ := args.Get(0).(*domain.Task)
	return created, args.Error(1)
}

func (m *mockTaskStore) Update(ctx context.Context, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	args := m.Called(ctx, taskID, patch)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *mockTaskStore) Delete(ctx context.Context, taskID string) error {
	return m.Called(ctx, taskID).Error(0)
}

type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUserDirectory) ListIDsByRole(ctx context.Context, role domain.Role) ([]string, error) {
	args := m.Called(ctx, role)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

// recorder counts decisions for assertions.
type recorder struct {
	decisions []string
	scopes    []string
}

func (r *recorder) Observe(operation, role, verdict string) {
	r.decisions = append(r.decisions, operation+"/"+role+"/"+verdict)
}

func (r *recorder) ObserveScope(role, scope string) {
	r.scopes = append(r.scopes, role+"/"+scope)
}
