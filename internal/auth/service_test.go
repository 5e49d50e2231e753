package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bilancio/internal/core"
)

type memUserStore struct {
	byEmail map[string]core.User
	hashes  map[string]string
	nextID  int
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byEmail: make(map[string]core.User), hashes: make(map[string]string)}
}

func (m *memUserStore) CreateUser(_ context.Context, user core.User, passwordHash string) (core.User, error) {
	if _, exists := m.byEmail[user.Email]; exists {
		return core.User{}, ErrEmailAlreadyExists
	}
	m.nextID++
	user.ID = fmt.Sprintf("u%d", m.nextID)
	m.byEmail[user.Email] = user
	m.hashes[user.Email] = passwordHash
	return user, nil
}

func (m *memUserStore) UserByEmail(_ context.Context, email string) (core.User, string, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return core.User{}, "", core.ErrNotFound
	}
	return user, m.hashes[email], nil
}

func (m *memUserStore) UserByID(_ context.Context, id string) (core.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func newTestService() *Service {
	return NewService(newMemUserStore(), NewJWTManager("test-secret", time.Minute))
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	sess, err := s.Register(ctx, "alice", "Alice@Example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.User.ID == "" || sess.Token == "" {
		t.Fatalf("incomplete session: %+v", sess)
	}
	if sess.User.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", sess.User.Email)
	}
	if sess.User.Preferences.Currency != core.DefaultCurrency {
		t.Fatalf("preferences not defaulted: %+v", sess.User.Preferences)
	}

	got, err := s.Login(ctx, "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.User.ID != sess.User.ID {
		t.Fatalf("login returned different user")
	}

	if _, err := s.Login(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := s.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
		want     error
	}{
		{"short username", "al", "a@example.com", "hunter2hunter2", ErrInvalidUsername},
		{"bad email", "alice", "not-an-email", "hunter2hunter2", ErrInvalidEmail},
		{"short password", "alice", "a@example.com", "short", ErrPasswordTooShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Register(ctx, tc.username, tc.email, tc.password); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	sess, err := s.Register(ctx, "alice", "a@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := s.Verify(ctx, sess.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.ID != sess.User.ID {
		t.Fatalf("verify returned wrong user")
	}

	if _, err := s.Verify(ctx, "garbage"); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestJWTExpiry(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute) // negative duration falls back to default
	tok, err := m.Generate("u1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got, err := m.Validate(tok); err != nil || got != "u1" {
		t.Fatalf("validate: %q %v", got, err)
	}

	other := NewJWTManager("different", time.Minute)
	if _, err := other.Validate(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token accepted across secrets: %v", err)
	}
}
