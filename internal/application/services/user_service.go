package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"busline/internal/auth"
	"busline/internal/domain/users"
	"busline/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already in use")
)

type UserService struct {
	store repository.Store
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

type RegisterParams struct {
	Username string
	Password string
	Name     string
	Email    string
	Phone    string
	Role     users.Role
}

func (s *UserService) Register(ctx context.Context, p RegisterParams) (*users.User, error) {
	if err := validateRegistration(p); err != nil {
		return nil, err
	}

	if _, err := s.store.UserByUsername(ctx, p.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.UserByEmail(ctx, p.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.store.CreateUser(ctx, users.User{
		Username:     p.Username,
		PasswordHash: hash,
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		Role:         p.Role,
	})
}

// Authenticate accepts either a username or an email as login, matching the
// registration form's behavior.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*users.User, error) {
	var (
		user *users.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.store.UserByEmail(ctx, login)
	} else {
		user, err = s.store.UserByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) User(ctx context.Context, id int64) (*users.User, error) {
	return s.store.User(ctx, id)
}

func validateRegistration(p RegisterParams) error {
	switch {
	case len(p.Username) < 3 || len(p.Username) > 30:
		return fmt.Errorf("%w: username must be 3-30 characters", ErrValidation)
	case len(p.Password) < 6:
		return fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	case len(p.Name) < 2:
		return fmt.Errorf("%w: name must be at least 2 characters", ErrValidation)
	case !strings.Contains(p.Email, "@"):
		return fmt.Errorf("%w: invalid email", ErrValidation)
	case p.Role != users.RolePassenger && p.Role != users.RoleBusOwner:
		return fmt.Errorf("%w: role must be passenger or bus_owner", ErrValidation)
	}
	return nil
}
