package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	h, err := Password("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, CheckPassword(h, "correct horse battery staple"))
	assert.False(t, CheckPassword(h, "wrong password"))
}

func TestTokenRoundTrip(t *testing.T) {
	encoded, err := Token("some-refresh-token")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	ok, err := VerifyToken(encoded, "some-refresh-token")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyToken(encoded, "another-token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenHashesAreSalted(t *testing.T) {
	a, err := Token("same-token")
	require.NoError(t, err)
	b, err := Token("same-token")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyTokenInvalidHash(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"not phc", "plainhash"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"truncated", "$argon2id$v=19$m=65536,t=1,p=4"},
		{"bad base64 salt", "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyToken(tt.encoded, "token")
			assert.ErrorIs(t, err, ErrInvalidHash)
		})
	}
}
