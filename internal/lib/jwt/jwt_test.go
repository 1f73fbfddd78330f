package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := NewSessionToken("user-1", "alice", "secret", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseSessionToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, err := NewSessionToken("user-1", "alice", "secret", time.Minute)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionTokenExpired(t *testing.T) {
	token, err := NewSessionToken("user-1", "alice", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGuestTokenRoundTrip(t *testing.T) {
	token, err := NewGuestToken("guest-1", "event-1", "guest-secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseGuestToken(token, "guest-secret")
	require.NoError(t, err)
	assert.Equal(t, "guest-1", claims.Subject)
	assert.Equal(t, "event-1", claims.EventID)
}

func TestGuestTokenNotValidAsSessionToken(t *testing.T) {
	// distinct secrets keep the token kinds apart
	token, err := NewGuestToken("guest-1", "event-1", "guest-secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "access-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseGarbage(t *testing.T) {
	_, err := ParseSessionToken("not-a-token", "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseGuestToken("", "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
