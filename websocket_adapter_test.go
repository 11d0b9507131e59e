package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsTestToken(t *testing.T, svc TokenService, role Role) string {
	t.Helper()

	principal := &Principal{
		ID:       uuid.New(),
		Role:     role,
		Provider: ProviderGoogle,
		Status:   UserStatusNormal,
	}

	token, err := svc.Generate(context.Background(), principal)
	require.NoError(t, err)
	return token
}

func TestWSTokenValidatorValidToken(t *testing.T) {
	svc := NewTokenService([]byte("ws-test-key"), time.Hour, "plazamarket", nil, nil)
	validator := NewWSTokenValidator(svc)

	token := wsTestToken(t, svc, RoleSeller)

	claims, err := validator.Validate(token)
	require.NoError(t, err)

	assert.NotEmpty(t, claims.Subject())
	assert.Equal(t, claims.Subject(), claims.UserID())
	assert.Equal(t, string(RoleSeller), claims.Role())
	assert.True(t, claims.HasRole(string(RoleSeller)))
	assert.True(t, claims.IsAtLeast(string(RoleUser)))
}

func TestWSTokenValidatorInvalidToken(t *testing.T) {
	svc := NewTokenService([]byte("ws-test-key"), time.Hour, "plazamarket", nil, nil)
	validator := NewWSTokenValidator(svc)

	_, err := validator.Validate("garbage-token")
	require.Error(t, err)
}

func TestWSAuthClaimsAdapterPermissionLadder(t *testing.T) {
	svc := NewTokenService([]byte("ws-test-key"), time.Hour, "plazamarket", nil, nil)
	validator := NewWSTokenValidator(svc)

	tests := []struct {
		role      Role
		canEdit   bool
		canDelete bool
	}{
		{RoleUser, false, false},
		{RoleSeller, true, false},
		{RoleSuperAdmin, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			claims, err := validator.Validate(wsTestToken(t, svc, tt.role))
			require.NoError(t, err)

			assert.True(t, claims.CanRead("listings"))
			assert.Equal(t, tt.canEdit, claims.CanEdit("listings"))
			assert.Equal(t, tt.canEdit, claims.CanCreate("listings"))
			assert.Equal(t, tt.canDelete, claims.CanDelete("listings"))
		})
	}
}

func TestWSAuthClaimsFromContextMissing(t *testing.T) {
	_, ok := WSAuthClaimsFromContext(context.Background())
	assert.False(t, ok)
}
