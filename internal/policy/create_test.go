package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/teamtodo/internal/domain"
	"github.com/mtlprog/teamtodo/internal/policy"
)

func TestValidateTitle(t *testing.T) {
	title, err := policy.ValidateTitle("  Buy milk \n")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", title)

	for _, blank := range []string{"", "   ", "\t\n"} {
		_, err := policy.ValidateTitle(blank)
		assert.ErrorIs(t, err, domain.ErrTitleRequired)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.NotErrorIs(t, err, domain.ErrPermissionDenied)
	}
}

func TestDecideCreateOwner(t *testing.T) {
	tests := []struct {
		name      string
		caller    domain.Caller
		requested string
		want      string
		wantErr   error
	}{
		{"user without target owns task", domain.Caller{ID: "U1", Role: domain.RoleUser}, "", "U1", nil},
		{"user targeting self", domain.Caller{ID: "U1", Role: domain.RoleUser}, "U1", "U1", nil},
		{"user targeting other is refused", domain.Caller{ID: "U1", Role: domain.RoleUser}, "U2", "", domain.ErrCannotAssignOwner},
		{"manager targeting user", domain.Caller{ID: "M1", Role: domain.RoleManager}, "U1", "U1", nil},
		{"manager targeting admin", domain.Caller{ID: "M1", Role: domain.RoleManager}, "A1", "A1", nil},
		{"admin targeting manager", domain.Caller{ID: "A1", Role: domain.RoleAdmin}, "M1", "M1", nil},
		{"admin without target", domain.Caller{ID: "A1", Role: domain.RoleAdmin}, "", "A1", nil},
		{"unknown role targeting other", domain.Caller{ID: "X1", Role: domain.Role("guest")}, "U1", "", domain.ErrCannotAssignOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.DecideCreateOwner(tt.caller, tt.requested)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, domain.ErrPermissionDenied)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecideVisibilityByUserID(t *testing.T) {
	assert.Equal(t, policy.Allowed, policy.DecideVisibilityByUserID(domain.Caller{ID: "A1", Role: domain.RoleAdmin}, "U1"))
	assert.Equal(t, policy.Allowed, policy.DecideVisibilityByUserID(domain.Caller{ID: "M1", Role: domain.RoleManager}, "M2"))
	assert.Equal(t, policy.Allowed, policy.DecideVisibilityByUserID(domain.Caller{ID: "M1", Role: domain.RoleManager}, "M1"))

	user := domain.Caller{ID: "U1", Role: domain.RoleUser}
	assert.Equal(t, policy.Forbidden, policy.DecideVisibilityByUserID(user, "U2"))
	assert.Equal(t, policy.Forbidden, policy.DecideVisibilityByUserID(user, "U1"))
}
