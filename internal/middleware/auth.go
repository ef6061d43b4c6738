package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/mtlprog/teamtodo/internal/domain"
	"github.com/mtlprog/teamtodo/internal/handler/dto"
)

type contextKey string

const (
	// ContextKeyCaller is the key for storing the caller in request context.
	ContextKeyCaller contextKey = "caller"
)

// TokenVerifier returns the user id a bearer token was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserLookup resolves a user id to its current record.
type UserLookup interface {
	GetByID(ctx context.Context, userID string) (*domain.User, error)
}

// AuthMiddleware handles Bearer token authentication.
type AuthMiddleware struct {
	tokens TokenVerifier
	users  UserLookup
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(tokens TokenVerifier, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		users:  users,
	}
}

// Authenticate validates the Bearer token, loads the user it names and adds
// the resulting Caller to the request context. The role comes from the user
// record, so a role change takes effect on the next request.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, fmt.Errorf("%w: missing authorization header", domain.ErrInvalidToken))
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeError(w, fmt.Errorf("%w: invalid authorization header format", domain.ErrInvalidToken))
			return
		}

		userID, err := m.tokens.Verify(parts[1])
		if err != nil {
			writeError(w, err)
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				writeError(w, fmt.Errorf("%w: unknown subject", domain.ErrInvalidToken))
				return
			}
			slog.Error("failed to resolve caller", "user_id", userID, "error", err)
			writeError(w, err)
			return
		}

		if !user.IsActive {
			writeError(w, domain.ErrUserInactive)
			return
		}

		ctx := WithCaller(r.Context(), user.Caller())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles rejects callers whose role is not listed. It must run after
// Authenticate.
func RequireRoles(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := GetCallerFromContext(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			if !slices.Contains(roles, caller.Role) {
				slog.Warn("role check failed",
					"caller_id", caller.ID,
					"caller_role", caller.Role,
					"path", r.URL.Path,
				)
				writeError(w, domain.ErrRoleRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

// GetCallerFromContext retrieves the authenticated caller from request context.
func GetCallerFromContext(ctx context.Context) (domain.Caller, error) {
	caller, ok := ctx.Value(ContextKeyCaller).(domain.Caller)
	if !ok || caller.ID == "" {
		return domain.Caller{}, domain.ErrInvalidToken
	}
	return caller, nil
}

func writeError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(dto.NewErrorResponse(code, message)); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
