package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/candleshop/pkg/config"
	"github.com/example/candleshop/pkg/models"
)

func testManager() *TokenManager {
	return NewTokenManager(&config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  30 * 24 * time.Hour,
		Issuer:    "candleshop",
	})
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("wick123")
	require.NoError(t, err)
	assert.NotEqual(t, "wick123", hash)

	assert.NoError(t, ComparePassword(hash, "wick123"))
	assert.ErrorIs(t, ComparePassword(hash, "wrong"), ErrPasswordMismatch)
}

func TestIssueAndVerify(t *testing.T) {
	m := testManager()
	token, err := m.IssueToken(&models.User{ID: "u1", IsAdmin: true})
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
	assert.True(t, claims.Admin)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyToken_Expired(t *testing.T) {
	m := testManager()
	m.now = func() time.Time { return time.Now().Add(-31 * 24 * time.Hour) }
	token, err := m.IssueToken(&models.User{ID: "u1"})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	token, err := testManager().IssueToken(&models.User{ID: "u1"})
	require.NoError(t, err)

	other := NewTokenManager(&config.AuthConfig{JWTSecret: "other", TokenTTL: time.Hour, Issuer: "candleshop"})
	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    "candleshop",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = testManager().VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Garbage(t *testing.T) {
	_, err := testManager().VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
