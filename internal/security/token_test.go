package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, err := tm.Generate(7, "grace.h")
	require.NoError(t, err)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int32(7), claims.UserID)
	assert.Equal(t, "grace.h", claims.Login)
}

func TestTokenManager_WrongSecretRejected(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Generate(7, "grace.h")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_ExpiredRejected(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Generate(7, "grace.h")
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_GarbageRejected(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	_, err := tm.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
