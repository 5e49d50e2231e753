package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bilancio/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestCreateUserAndLookup(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, core.User{
		Username:    "mario",
		Email:       "mario@example.com",
		Preferences: core.Preferences{}.Normalize(),
	}, "hash123")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned user ID")
	}

	byEmail, hash, err := repo.UserByEmail(ctx, "mario@example.com")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if hash != "hash123" {
		t.Errorf("hash = %q, want %q", hash, "hash123")
	}
	if byEmail.ID != created.ID {
		t.Errorf("ID = %q, want %q", byEmail.ID, created.ID)
	}
	if byEmail.Preferences.Currency != core.DefaultCurrency {
		t.Errorf("Currency = %q, want %q", byEmail.Preferences.Currency, core.DefaultCurrency)
	}

	if _, _, err := repo.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing user error = %v, want ErrNotFound", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := core.User{Username: "mario", Email: "mario@example.com"}
	if _, err := repo.CreateUser(ctx, u, "h1"); err != nil {
		t.Fatalf("first CreateUser: %v", err)
	}
	_, err := repo.CreateUser(ctx, core.User{Username: "other", Email: "mario@example.com"}, "h2")
	if !errors.Is(err, core.ErrAlreadyExists) {
		t.Errorf("duplicate email error = %v, want ErrAlreadyExists", err)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, core.User{Username: "mario", Email: "m@example.com"}, "h")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	created, err := repo.CreateTransaction(ctx, user.ID, core.TransactionDraft{
		Type:     core.Expense,
		Amount:   core.Money{Cents: 4250},
		Category: "Food",
		Title:    "Groceries",
		Date:     "2026-08-01",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned transaction ID")
	}

	list, err := repo.TransactionsByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("TransactionsByUser: %v", err)
	}
	if len(list) != 1 || list[0].Amount.Cents != 4250 {
		t.Fatalf("unexpected list: %+v", list)
	}

	newTitle := "Weekly groceries"
	updated, err := repo.UpdateTransaction(ctx, user.ID, created.ID, core.TransactionPatch{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Title != newTitle {
		t.Errorf("Title = %q, want %q", updated.Title, newTitle)
	}
	if updated.Amount.Cents != 4250 {
		t.Errorf("patch must not touch unrelated fields, Amount = %d", updated.Amount.Cents)
	}

	if err := repo.DeleteTransaction(ctx, user.ID, created.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, user.ID, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}

	list, err = repo.TransactionsByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("TransactionsByUser after delete: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d entries", len(list))
	}
}

func TestTransactionOwnership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alice, _ := repo.CreateUser(ctx, core.User{Username: "alice", Email: "a@example.com"}, "h")
	bob, _ := repo.CreateUser(ctx, core.User{Username: "bob", Email: "b@example.com"}, "h")

	tx, err := repo.CreateTransaction(ctx, alice.ID, core.TransactionDraft{
		Type:     core.Income,
		Amount:   core.Money{Cents: 100000},
		Category: "Salary",
		Title:    "August salary",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	title := "hijack"
	if _, err := repo.UpdateTransaction(ctx, bob.ID, tx.ID, core.TransactionPatch{Title: &title}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-user update error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteTransaction(ctx, bob.ID, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-user delete error = %v, want ErrNotFound", err)
	}

	list, _ := repo.TransactionsByUser(ctx, bob.ID)
	if len(list) != 0 {
		t.Errorf("bob should have no transactions, got %d", len(list))
	}
}

func TestUpdatePreferences(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, core.User{Username: "mario", Email: "m@example.com"}, "h")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	stored, err := repo.UpdatePreferences(ctx, user.ID, core.Preferences{
		Currency: "EUR",
		Theme:    core.ThemeDark,
	})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	if stored.Currency != "EUR" || stored.Theme != core.ThemeDark {
		t.Errorf("stored = %+v", stored)
	}
	if stored.Language != core.DefaultLanguage {
		t.Errorf("Language = %q, want normalized default", stored.Language)
	}

	reloaded, err := repo.UserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if reloaded.Preferences.Currency != "EUR" {
		t.Errorf("reloaded Currency = %q, want EUR", reloaded.Preferences.Currency)
	}

	if _, err := repo.UpdatePreferences(ctx, "missing", core.Preferences{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing user error = %v, want ErrNotFound", err)
	}
}
