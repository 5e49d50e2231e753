// Package storage persists users and transactions in SQLite. Preferences are
// stored as a JSON document per user, matching the document-store shape of
// the data model.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// prefsDoc is the JSON shape of the preferences column.
type prefsDoc struct {
	Currency      string `json:"currency"`
	Language      string `json:"language"`
	Theme         string `json:"theme"`
	IncomeSources []struct {
		Name        string `json:"name"`
		IsRecurring bool   `json:"is_recurring"`
		Frequency   string `json:"frequency,omitempty"`
		AmountCents int64  `json:"amount_cents,omitempty"`
	} `json:"income_sources,omitempty"`
	DefaultCategories []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"default_categories,omitempty"`
}

func encodePrefs(p core.Preferences) (string, error) {
	var doc prefsDoc
	doc.Currency = p.Currency
	doc.Language = p.Language
	doc.Theme = p.Theme
	for _, s := range p.IncomeSources {
		doc.IncomeSources = append(doc.IncomeSources, struct {
			Name        string `json:"name"`
			IsRecurring bool   `json:"is_recurring"`
			Frequency   string `json:"frequency,omitempty"`
			AmountCents int64  `json:"amount_cents,omitempty"`
		}{s.Name, s.IsRecurring, s.Frequency, s.Amount.Cents})
	}
	for _, c := range p.DefaultCategories {
		doc.DefaultCategories = append(doc.DefaultCategories, struct {
			Name string `json:"name"`
			Type string `json:"type"`
		}{c.Name, string(c.Type)})
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode preferences: %w", err)
	}
	return string(data), nil
}

func decodePrefs(raw string) (core.Preferences, error) {
	var doc prefsDoc
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return core.Preferences{}, fmt.Errorf("decode preferences: %w", err)
		}
	}
	p := core.Preferences{
		Currency: doc.Currency,
		Language: doc.Language,
		Theme:    doc.Theme,
	}
	for _, s := range doc.IncomeSources {
		p.IncomeSources = append(p.IncomeSources, core.IncomeSource{
			Name:        s.Name,
			IsRecurring: s.IsRecurring,
			Frequency:   s.Frequency,
			Amount:      core.Money{Cents: s.AmountCents},
		})
	}
	for _, c := range doc.DefaultCategories {
		p.DefaultCategories = append(p.DefaultCategories, core.CategoryDef{
			Name: c.Name,
			Type: core.TransactionType(c.Type),
		})
	}
	return p.Normalize(), nil
}

// CreateUser inserts a new account. A duplicate email maps to
// core.ErrAlreadyExists.
func (r *SQLiteRepository) CreateUser(ctx context.Context, user core.User, passwordHash string) (core.User, error) {
	user.ID = uuid.NewString()
	prefs, err := encodePrefs(user.Preferences)
	if err != nil {
		return core.User{}, err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, avatar_url, preferences, onboarded)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, passwordHash, user.AvatarURL, prefs, user.Onboarded)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, fmt.Errorf("%w: email already registered", core.ErrAlreadyExists)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (core.User, string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, avatar_url, preferences, onboarded
		FROM users WHERE email = ?`, email)
	user, hash, err := scanUser(row)
	if err != nil {
		return core.User{}, "", err
	}
	return user, hash, nil
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, avatar_url, preferences, onboarded
		FROM users WHERE id = ?`, id)
	user, _, err := scanUser(row)
	return user, err
}

func scanUser(row *sql.Row) (core.User, string, error) {
	var (
		user      core.User
		hash      string
		prefsJSON string
	)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &hash, &user.AvatarURL, &prefsJSON, &user.Onboarded)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, "", core.ErrNotFound
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("scan user: %w", err)
	}
	user.Preferences, err = decodePrefs(prefsJSON)
	if err != nil {
		return core.User{}, "", err
	}
	return user, hash, nil
}

// UpdatePreferences replaces the preferences document for a user and returns
// the stored value.
func (r *SQLiteRepository) UpdatePreferences(ctx context.Context, userID string, prefs core.Preferences) (core.Preferences, error) {
	prefs = prefs.Normalize()
	encoded, err := encodePrefs(prefs)
	if err != nil {
		return core.Preferences{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET preferences = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		encoded, userID)
	if err != nil {
		return core.Preferences{}, fmt.Errorf("update preferences: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Preferences{}, core.ErrNotFound
	}
	return prefs, nil
}

// TransactionsByUser returns the user's transactions in insertion order.
func (r *SQLiteRepository) TransactionsByUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, amount_cents, category, title, description, date, created_at, updated_at
		FROM transactions WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var list []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *SQLiteRepository) TransactionByID(ctx context.Context, id string) (core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, amount_cents, category, title, description, date, created_at, updated_at
		FROM transactions WHERE id = ?`, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("query transaction: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.Transaction{}, fmt.Errorf("query transaction: %w", err)
		}
		return core.Transaction{}, core.ErrNotFound
	}
	return scanTransaction(rows)
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var (
		t   core.Transaction
		typ string
	)
	err := rows.Scan(&t.ID, &t.UserID, &typ, &t.Amount.Cents, &t.Category, &t.Title,
		&t.Description, &t.Date, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TransactionType(typ)
	return t, nil
}

// CreateTransaction assigns the identifier and timestamps and stores the
// transaction for the given user.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID string, draft core.TransactionDraft) (core.Transaction, error) {
	now := time.Now().UTC()
	t := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        draft.Type,
		Amount:      draft.Amount,
		Category:    draft.Category,
		Title:       draft.Title,
		Description: draft.Description,
		Date:        draft.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Date == "" {
		t.Date = now.Format(core.DateLayout)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount_cents, category, title, description, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Type), t.Amount.Cents, t.Category, t.Title, t.Description, t.Date, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"user_id", t.UserID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents)
	return t, nil
}

// UpdateTransaction applies a patch to an existing transaction owned by
// userID. Patching someone else's transaction reports not-found rather than
// revealing its existence.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	current, err := r.TransactionByID(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if current.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}

	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return core.Transaction{}, err
	}
	updated.UpdatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount_cents = ?, category = ?, title = ?, description = ?, date = ?, updated_at = ?
		WHERE id = ?`,
		string(updated.Type), updated.Amount.Cents, updated.Category, updated.Title,
		updated.Description, updated.Date, updated.UpdatedAt, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return updated, nil
}

// DeleteTransaction removes a transaction owned by userID. Missing rows map
// to core.ErrNotFound.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return nil
}
