package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_roundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	id := uuid.New()

	token, claims, err := m.Generate(id)
	require.NoError(t, err)
	assert.Equal(t, JwtIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	parsed, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), parsed.Subject)
	assert.Equal(t, claims.ID, parsed.ID)

	_, other, err := m.Generate(id)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, other.ID, "every token gets its own jti")
}

func TestTokenManager_expired(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.Generate(uuid.New())
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_wrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret", time.Hour).Generate(uuid.New())
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestTokenManager_foreignIssuer(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).Validate(token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestTokenManager_rejectsNoneAlgorithm(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:  JwtIssuer,
		Subject: uuid.NewString(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).Validate(token)
	assert.Error(t, err)
}
