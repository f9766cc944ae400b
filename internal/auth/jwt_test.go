package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyJWT(t *testing.T) {
	require.Error(t, InitJWTSecret(""))
	require.NoError(t, InitJWTSecret("test-secret"))

	id := uuid.New()
	signed, err := GenerateJWT(id, "clerk@bureau.gov")
	require.NoError(t, err)

	token, err := VerifyJWT(signed)
	require.NoError(t, err)

	parsed, err := UserIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestVerifyJWTRejectsBadTokens(t *testing.T) {
	require.NoError(t, InitJWTSecret("test-secret"))

	_, err := VerifyJWT("not-a-token")
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = VerifyJWT(signed)
	assert.Error(t, err)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": uuid.NewString()})
	signed, err = other.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = VerifyJWT(signed)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
}
