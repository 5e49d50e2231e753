package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bilancio/internal/auth"
	"bilancio/internal/core"
	"bilancio/internal/remote"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	mu    sync.Mutex
	seq   int
	users map[string]core.User
	hash  map[string]string // email -> password hash
	txs   map[string][]core.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]core.User),
		hash:  make(map[string]string),
		txs:   make(map[string][]core.Transaction),
	}
}

func (m *memStore) nextID() string {
	m.seq++
	return fmt.Sprintf("id-%d", m.seq)
}

func (m *memStore) CreateUser(ctx context.Context, user core.User, passwordHash string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return core.User{}, core.ErrAlreadyExists
		}
	}
	user.ID = m.nextID()
	m.users[user.ID] = user
	m.hash[user.Email] = passwordHash
	return user, nil
}

func (m *memStore) UserByEmail(ctx context.Context, email string) (core.User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, m.hash[email], nil
		}
	}
	return core.User{}, "", core.ErrNotFound
}

func (m *memStore) UserByID(ctx context.Context, id string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (m *memStore) TransactionsByUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Transaction, len(m.txs[userID]))
	copy(out, m.txs[userID])
	return out, nil
}

func (m *memStore) CreateTransaction(ctx context.Context, userID string, draft core.TransactionDraft) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	t := core.Transaction{
		ID:          m.nextID(),
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
	m.txs[userID] = append(m.txs[userID], t)
	return t, nil
}

func (m *memStore) UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.txs[userID] {
		if t.ID == id {
			updated := patch.Apply(t)
			if err := updated.Validate(); err != nil {
				return core.Transaction{}, err
			}
			updated.UpdatedAt = time.Now().UTC()
			m.txs[userID][i] = updated
			return updated, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (m *memStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.txs[userID] {
		if t.ID == id {
			m.txs[userID] = append(m.txs[userID][:i], m.txs[userID][i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *memStore) UpdatePreferences(ctx context.Context, userID string, prefs core.Preferences) (core.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return core.Preferences{}, core.ErrNotFound
	}
	u.Preferences = prefs.Normalize()
	m.users[userID] = u
	return u.Preferences, nil
}

// recordingPublisher collects mutation events.
type recordingPublisher struct {
	mu  sync.Mutex
	ops []string
}

func (p *recordingPublisher) PublishMutation(ctx context.Context, op string, tx core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, op)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *recordingPublisher) {
	t.Helper()
	store := newMemStore()
	authSvc := auth.NewService(store, auth.NewJWTManager("test-secret", time.Minute))
	pub := &recordingPublisher{}
	srv := NewServer(":0", store, authSvc, pub)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return ts, pub
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, data
}

func registerUser(t *testing.T, baseURL, username, email string) remote.SessionResponse {
	t.Helper()
	resp, data := doJSON(t, http.MethodPost, baseURL+"/api/auth/register", "", remote.RegisterRequest{
		Username: username,
		Email:    email,
		Password: "hunter2hunter2",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", resp.StatusCode, data)
	}
	var sess remote.SessionResponse
	if err := json.Unmarshal(data, &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return sess
}

func TestRegisterLoginFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	sess := registerUser(t, ts.URL, "mario", "mario@example.com")
	if sess.Token == "" || sess.User.ID == "" {
		t.Fatalf("incomplete session: %+v", sess)
	}
	if sess.User.Preferences.Currency != core.DefaultCurrency {
		t.Errorf("Currency = %q, want default", sess.User.Preferences.Currency)
	}

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", remote.LoginRequest{
		Email: "mario@example.com", Password: "hunter2hunter2",
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("login status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", remote.LoginRequest{
		Email: "mario@example.com", Password: "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", remote.RegisterRequest{
		Username: "other", Email: "mario@example.com", Password: "hunter2hunter2",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate email status = %d, want 409", resp.StatusCode)
	}
}

func TestTransactionEndpoints(t *testing.T) {
	ts, pub := newTestServer(t)
	sess := registerUser(t, ts.URL, "mario", "mario@example.com")

	resp, data := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", sess.Token, remote.TransactionDraft{
		Type: "expense", AmountCents: 4250, Category: "Food", Title: "Groceries", Date: "2026-08-01",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", resp.StatusCode, data)
	}
	var created remote.Transaction
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" || created.UserID != sess.User.ID {
		t.Fatalf("unexpected created transaction: %+v", created)
	}

	// The list must reflect the write even though lists are cached.
	resp, data = doJSON(t, http.MethodGet, ts.URL+"/api/transactions", sess.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var list []remote.Transaction
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list length = %d, want 1", len(list))
	}

	title := "Weekly groceries"
	resp, data = doJSON(t, http.MethodPatch, ts.URL+"/api/transactions/"+created.ID, sess.Token, remote.TransactionPatch{Title: &title})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", resp.StatusCode, data)
	}
	var updated remote.Transaction
	if err := json.Unmarshal(data, &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Title != title || updated.AmountCents != 4250 {
		t.Errorf("unexpected patched transaction: %+v", updated)
	}

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/transactions/"+created.ID, sess.Token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/transactions/"+created.ID, sess.Token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}

	resp, data = doJSON(t, http.MethodGet, ts.URL+"/api/transactions", sess.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("final list status = %d", resp.StatusCode)
	}
	list = nil
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("decode final list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("final list length = %d, want 0", len(list))
	}

	pub.mu.Lock()
	ops := append([]string(nil), pub.ops...)
	pub.mu.Unlock()
	want := []string{"created", "updated", "deleted"}
	if len(ops) != len(want) {
		t.Fatalf("published ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op[%d] = %q, want %q", i, ops[i], want[i])
		}
	}
}

func TestTransactionValidationAndAuth(t *testing.T) {
	ts, _ := newTestServer(t)
	sess := registerUser(t, ts.URL, "mario", "mario@example.com")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", sess.Token, remote.TransactionDraft{
		Type: "expense", AmountCents: 0, Category: "Food", Title: "Free lunch",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("zero amount status = %d, want 422", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/transactions", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/transactions", "not-a-real-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bogus token status = %d, want 401", resp.StatusCode)
	}
}

func TestCrossUserIsolation(t *testing.T) {
	ts, _ := newTestServer(t)
	alice := registerUser(t, ts.URL, "alice", "alice@example.com")
	bob := registerUser(t, ts.URL, "bob", "bob@example.com")

	resp, data := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", alice.Token, remote.TransactionDraft{
		Type: "income", AmountCents: 100000, Category: "Salary", Title: "August salary",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var created remote.Transaction
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/transactions/"+created.ID, bob.Token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cross-user delete status = %d, want 404", resp.StatusCode)
	}

	resp, data = doJSON(t, http.MethodGet, ts.URL+"/api/transactions", bob.Token, nil)
	var list []remote.Transaction
	_ = json.Unmarshal(data, &list)
	if resp.StatusCode != http.StatusOK || len(list) != 0 {
		t.Errorf("bob list status = %d length = %d", resp.StatusCode, len(list))
	}
}

func TestPreferencesEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	sess := registerUser(t, ts.URL, "mario", "mario@example.com")

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/api/user/preferences", sess.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var prefs remote.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		t.Fatalf("decode preferences: %v", err)
	}
	if prefs.Currency != core.DefaultCurrency {
		t.Errorf("Currency = %q, want default", prefs.Currency)
	}

	prefs.Currency = "EUR"
	prefs.Theme = core.ThemeDark
	resp, data = doJSON(t, http.MethodPut, ts.URL+"/api/user/preferences", sess.Token, prefs)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d, body %s", resp.StatusCode, data)
	}

	resp, data = doJSON(t, http.MethodGet, ts.URL+"/api/user/preferences", sess.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reread status = %d", resp.StatusCode)
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		t.Fatalf("decode reread: %v", err)
	}
	if prefs.Currency != "EUR" || prefs.Theme != core.ThemeDark {
		t.Errorf("stored preferences = %+v", prefs)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
	}
}
