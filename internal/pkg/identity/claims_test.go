package identity

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-key"))
	require.NoError(t, err)
	return token
}

func TestFromTokenUsesSubject(t *testing.T) {
	token := sign(t, jwt.MapClaims{"sub": "user-17", "user_id": 99})

	id, err := FromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-17", id.Owner)
	assert.Equal(t, token, id.Token)
}

func TestFromTokenFallsBackToUserID(t *testing.T) {
	id, err := FromToken(sign(t, jwt.MapClaims{"user_id": 99, "email": "ana@example.com"}))
	require.NoError(t, err)
	assert.Equal(t, "99", id.Owner)
	assert.Equal(t, "ana@example.com", id.Email)
}

func TestFromTokenOpaque(t *testing.T) {
	a, err := FromToken("opaque-token")
	require.NoError(t, err)
	b, err := FromToken("opaque-token")
	require.NoError(t, err)
	c, err := FromToken("other-token")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a.Owner, "anon-"))
	assert.Equal(t, a.Owner, b.Owner)
	assert.NotEqual(t, a.Owner, c.Owner)
}

func TestFromTokenEmpty(t *testing.T) {
	_, err := FromToken("  ")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer   abc"))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken("Bearer"))
	assert.Empty(t, BearerToken(""))
}
