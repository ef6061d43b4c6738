package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mtlprog/teamtodo/internal/domain"
)

// UserStore is the durable user directory.
type UserStore interface {
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error)
	SetActive(ctx context.Context, userID string, active bool) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
}

// UserService manages the user directory. Route-level role checks happen in
// the HTTP middleware; the CLI calls it as an operator.
type UserService struct {
	users UserStore
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// CreateUserParams holds the fields of a new user.
type CreateUserParams struct {
	Name  string
	Email string
	Role  string // empty means user
}

// CreateUser validates and stores a new active user.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (*domain.User, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrEmailRequired
	}

	role := domain.RoleUser
	if params.Role != "" {
		parsed, err := domain.ParseRole(params.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	user, err := s.users.Create(ctx, &domain.User{
		Name:     name,
		Email:    email,
		Role:     role,
		IsActive: true,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// GetUserByEmail returns a user by email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// ListUsers returns every user.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ChangeRole sets a user's role. The change applies to every task decision
// made afterwards because task owner roles are resolved on read.
func (s *UserService) ChangeRole(ctx context.Context, userID, role string) (*domain.User, error) {
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateRole(ctx, userID, parsed)
	if err != nil {
		return nil, err
	}

	slog.Info("user role changed", "user_id", userID, "role", parsed)
	return user, nil
}

// SetActive activates or deactivates a user. A deactivated user is refused
// on the next request; their tasks stay in place.
func (s *UserService) SetActive(ctx context.Context, userID string, active bool) (*domain.User, error) {
	user, err := s.users.SetActive(ctx, userID, active)
	if err != nil {
		return nil, err
	}

	slog.Info("user activation changed", "user_id", userID, "is_active", active)
	return user, nil
}

// DeleteUser removes a user together with the tasks they own.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	slog.Info("user deleted", "user_id", userID)
	return nil
}

// SeedResult counts what EnsureUsers did.
type SeedResult struct {
	Created  int
	Existing int
}

// EnsureUsers creates every listed user whose email is not registered yet.
// Existing users are left as they are, so running it twice is harmless.
func (s *UserService) EnsureUsers(ctx context.Context, users []CreateUserParams) (SeedResult, error) {
	var result SeedResult

	for _, params := range users {
		_, err := s.GetUserByEmail(ctx, params.Email)
		if err == nil {
			result.Existing++
			continue
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return result, fmt.Errorf("lookup %s: %w", params.Email, err)
		}

		if _, err := s.CreateUser(ctx, params); err != nil {
			return result, fmt.Errorf("create %s: %w", params.Email, err)
		}
		result.Created++
	}

	return result, nil
}
