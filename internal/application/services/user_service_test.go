package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busline/internal/domain/users"
	"busline/internal/repository"
)

func validRegistration() RegisterParams {
	return RegisterParams{
		Username: "nimal",
		Password: "secret123",
		Name:     "Nimal Perera",
		Email:    "nimal@example.com",
		Phone:    "0771234567",
		Role:     users.RolePassenger,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repository.NewMemoryStore())

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	assert.Equal(t, "nimal", user.Username)
	assert.Equal(t, users.RolePassenger, user.Role)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "secret123", user.PasswordHash)
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repository.NewMemoryStore())

	cases := []struct {
		name   string
		mangle func(*RegisterParams)
	}{
		{"short username", func(p *RegisterParams) { p.Username = "ab" }},
		{"long username", func(p *RegisterParams) { p.Username = "abcdefghijklmnopqrstuvwxyz01234" }},
		{"short password", func(p *RegisterParams) { p.Password = "12345" }},
		{"short name", func(p *RegisterParams) { p.Name = "N" }},
		{"bad email", func(p *RegisterParams) { p.Email = "not-an-email" }},
		{"admin role", func(p *RegisterParams) { p.Role = users.RoleAdmin }},
		{"unknown role", func(p *RegisterParams) { p.Role = "driver" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validRegistration()
			tc.mangle(&p)
			_, err := svc.Register(ctx, p)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegister_Uniqueness(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repository.NewMemoryStore())

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	dup := validRegistration()
	dup.Username = "NIMAL" // case-insensitive clash
	dup.Email = "other@example.com"
	_, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	dup = validRegistration()
	dup.Username = "kasun"
	_, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repository.NewMemoryStore())

	registered, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	byUsername, err := svc.Authenticate(ctx, "nimal", "secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, byUsername.ID)

	// A login containing @ is treated as an email.
	byEmail, err := svc.Authenticate(ctx, "nimal@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, byEmail.ID)

	_, err = svc.Authenticate(ctx, "nimal", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown user gets the same answer as a wrong password.
	_, err = svc.Authenticate(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
