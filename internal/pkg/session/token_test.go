package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseRoundtrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", 30*time.Minute)
	user := testUser()

	token, expiresAt, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.InDelta(t, time.Until(expiresAt).Minutes(), 30, 1)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID())
	assert.Equal(t, "dana@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, user.CreatedAt.Unix(), claims.UserCreatedAt)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("secret-a", time.Hour).Issue(testUser())
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestIssueRequiresSecret(t *testing.T) {
	_, _, err := NewTokenIssuer("", time.Hour).Issue(testUser())
	assert.Error(t, err)
}

func TestRefreshTokenHashing(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.Len(t, raw, 64)
	assert.Len(t, hash, 64)
	assert.NotEqual(t, raw, hash)
	assert.Equal(t, hash, HashRefreshToken(raw))

	raw2, _, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
}
