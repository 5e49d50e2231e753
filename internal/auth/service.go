// Package auth implements account registration, login, and bearer-credential
// verification for the API server.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/badoux/checkmail"
	"golang.org/x/crypto/bcrypt"

	"bilancio/internal/core"
)

const (
	minPasswordLength = 8
	minUsernameLength = 3
	maxUsernameLength = 30
	bcryptCost        = 12
)

var (
	ErrInvalidEmail       = errors.New("email address is not valid")
	ErrEmailAlreadyExists = fmt.Errorf("%w: email already registered", core.ErrAlreadyExists)
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrInvalidUsername    = fmt.Errorf("username must be %d-%d characters", minUsernameLength, maxUsernameLength)
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user core.User, passwordHash string) (core.User, error)
	UserByEmail(ctx context.Context, email string) (core.User, string, error)
	UserByID(ctx context.Context, id string) (core.User, error)
}

type Service struct {
	store UserStore
	jwt   *JWTManager
}

func NewService(store UserStore, jwt *JWTManager) *Service {
	return &Service{store: store, jwt: jwt}
}

// Register creates an account with normalized default preferences and
// returns a session with a freshly issued credential.
func (s *Service) Register(ctx context.Context, username, email, password string) (core.Session, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return core.Session{}, ErrInvalidUsername
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return core.Session{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return core.Session{}, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return core.Session{}, fmt.Errorf("hash password: %w", err)
	}

	user := core.User{
		Username:    username,
		Email:       email,
		Preferences: core.Preferences{}.Normalize(),
	}
	created, err := s.store.CreateUser(ctx, user, string(hash))
	if err != nil {
		return core.Session{}, err
	}
	return s.issue(created)
}

// Login verifies the password and returns a session for the account.
func (s *Service) Login(ctx context.Context, email, password string) (core.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, hash, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Session{}, ErrInvalidCredentials
		}
		return core.Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return core.Session{}, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Verify resolves a bearer credential to the user it was issued for.
func (s *Service) Verify(ctx context.Context, token string) (core.User, error) {
	userID, err := s.jwt.Validate(token)
	if err != nil {
		return core.User{}, fmt.Errorf("%w: %v", core.ErrUnauthorized, err)
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, fmt.Errorf("%w: user no longer exists", core.ErrUnauthorized)
		}
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *Service) issue(user core.User) (core.Session, error) {
	token, err := s.jwt.Generate(user.ID)
	if err != nil {
		return core.Session{}, fmt.Errorf("issue token: %w", err)
	}
	user.Preferences = user.Preferences.Normalize()
	return core.Session{User: user, Token: token}, nil
}
