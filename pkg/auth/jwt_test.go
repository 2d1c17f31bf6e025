package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := NewSessionToken("sess-1", "donor@example.com", "donor", secret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := Parse(token, secret)
	require.NoError(t, err)

	assert.Equal(t, "sess-1", claims.SID)
	assert.Equal(t, "donor@example.com", claims.Email)
	assert.Equal(t, "donor", claims.Role)
	assert.Contains(t, claims.Audience, "kindify-web")
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewSessionToken("sess-1", "donor@example.com", "donor", secret, time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "other-secret")
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := NewSessionToken("sess-1", "donor@example.com", "donor", secret, -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, secret)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not-a-jwt", secret)
	assert.Error(t, err)
}
