package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	access, refresh, err := GenerateJWT("64a1b2c3d4e5f6a7b8c9d0e1", "emp@example.com", "employer")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "64a1b2c3d4e5f6a7b8c9d0e1", claims.UserID)
	assert.Equal(t, "emp@example.com", claims.Email)
	assert.Equal(t, "employer", claims.UserType)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestTokenOpsRequireSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, _, err := GenerateJWT("id", "a@b.c", "candidate")
	assert.Error(t, err)

	_, err = ValidateToken("whatever")
	assert.Error(t, err)
}
