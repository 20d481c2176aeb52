package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-at-least-16"

func TestGenerateAndParseToken(t *testing.T) {
	token, jti, err := GenerateToken(secret, 42, "ADMIN", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Sub)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, jti, claims.ID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _, err := GenerateToken(secret, 1, "USER", time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("another-secret-value", token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token, _, err := GenerateToken(secret, 1, "USER", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(secret, token)
	require.Error(t, err)
	assert.True(t, IsExpired(err))
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	c := Claims{Sub: "1", Role: "ADMIN"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = ParseToken(secret, token)
	assert.Error(t, err)
}
