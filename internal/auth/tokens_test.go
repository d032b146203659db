package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busline/internal/domain/users"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	id := users.Identity{UserID: 42, Role: users.RoleBusOwner}
	token, err := tm.Issue(id)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-one", time.Hour).Issue(users.Identity{UserID: 1, Role: users.RolePassenger})
	require.NoError(t, err)

	_, err = NewTokenManager("secret-two", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Issue(users.Identity{UserID: 1, Role: users.RolePassenger})
	require.NoError(t, err)

	_, err = tm.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Garbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	_, err := tm.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPassword("secret123", hash))
	assert.False(t, CheckPassword("wrong", hash))
}
