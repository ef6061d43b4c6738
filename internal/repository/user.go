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

var userColumns = []string{"id", "name", "email", "role", "is_active", "created_at", "updated_at"}

// UserRepository handles database operations for users.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedKey(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	query, args, err := psql.
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for user %s: %w", userID, err)
	}

	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query, args, err := psql.
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByEmail query: %w", err)
	}

	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

// List retrieves all users ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	query, args, err := psql.
		Select(userColumns...).
		From("users").
		OrderBy("name", "email").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build List query for users: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return users, nil
}

// ListIDsByRole returns the ids of every user whose current role is role.
func (r *UserRepository) ListIDsByRole(ctx context.Context, role domain.Role) ([]string, error) {
	query, args, err := psql.
		Select("id").
		From("users").
		Where(sq.Eq{"role": role}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListIDsByRole query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query user ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect user ids: %w", err)
	}
	return ids, nil
}

// Create inserts a new user. Returns ErrEmailTaken on a duplicate email.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	query, args, err := psql.
		Insert("users").
		Columns("name", "email", "role", "is_active").
		Values(user.Name, user.Email, user.Role, user.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for user: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if hasSQLState(err, uniqueViolation) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// UpdateRole changes a user's role. Tasks owned by the user pick up the new
// role on their next read.
func (r *UserRepository) UpdateRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	query, args, err := psql.
		Update("users").
		Set("role", role).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": userID}).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build UpdateRole query for user %s: %w", userID, err)
	}

	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

// SetActive enables or disables a user. Disabled users keep their tasks but
// cannot authenticate.
func (r *UserRepository) SetActive(ctx context.Context, userID string, active bool) (*domain.User, error) {
	query, args, err := psql.
		Update("users").
		Set("is_active", active).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": userID}).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build SetActive query for user %s: %w", userID, err)
	}

	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

// Delete removes a user and, through the foreign key, all of their tasks.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	query, args, err := psql.
		Delete("users").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for user %s: %w", userID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isMalformedKey(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
