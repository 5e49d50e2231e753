// Package session owns the client-side authenticated state: the signed-in
// user, their transaction list, and the derived totals. All reads go through
// Snapshot and all mutations follow a confirm-then-apply discipline against
// the remote service.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"bilancio/internal/core"
	"bilancio/internal/remote"
)

// State is the synchronizer's lifecycle position.
type State string

const (
	// Anonymous: no user, empty transaction list.
	Anonymous State = "anonymous"
	// Loading: user known, transaction fetch in flight or failed retryably.
	Loading State = "loading"
	// Ready: user known, list populated from the last successful fetch.
	Ready State = "ready"
)

// Snapshot is a consistent copy of the synchronizer's current state. The
// summary is recomputed from the list on every snapshot, so it can never go
// stale relative to the transactions it was derived from.
type Snapshot struct {
	State        State
	User         core.User
	Transactions []core.Transaction
	Summary      core.Summary
}

// ErrNoSession is returned by operations that require a signed-in user where
// a silent no-op would hide a programming error (fetch, preference update).
var ErrNoSession = errors.New("no active session")

// Synchronizer mediates between its consumers and the remote collaborators.
// Mutations are serialized: a second mutation waits until the in-flight one
// has been confirmed or rejected, so remote acknowledgments are applied in
// issue order.
type Synchronizer struct {
	svc    remote.Service
	store  Store
	logger *slog.Logger

	fetches singleflight.Group

	mu           sync.Mutex
	state        State
	sess         core.Session
	transactions []core.Transaction
	gen          uint64 // bumped on login/logout; guards stale fetch responses

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

type Option func(*Synchronizer)

// WithStore persists the session across restarts: restored on Restore,
// saved on every confirmed session change, cleared on logout.
func WithStore(store Store) Option {
	return func(s *Synchronizer) { s.store = store }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = logger }
}

func New(svc remote.Service, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		svc:    svc,
		logger: slog.Default(),
		state:  Anonymous,
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state. The transaction slice is
// copied so callers can never observe a later mutation through it.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Synchronizer) snapshotLocked() Snapshot {
	list := make([]core.Transaction, len(s.transactions))
	copy(list, s.transactions)
	return Snapshot{
		State:        s.state,
		User:         s.sess.User,
		Transactions: list,
		Summary:      core.Summarize(list),
	}
}

// Subscribe registers fn to be called after every state or list change.
// The returned function unsubscribes. Replaces the ambient storage-event bus
// of a browser client with an explicit notification interface.
func (s *Synchronizer) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Synchronizer) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Login authenticates against the remote service and loads the user's
// transactions. The synchronizer passes through Loading and lands in Ready
// on success.
func (s *Synchronizer) Login(ctx context.Context, email, password string) error {
	sess, err := s.svc.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return s.establish(ctx, sess)
}

// Register creates an account and establishes the session, like Login.
func (s *Synchronizer) Register(ctx context.Context, username, email, password string) error {
	sess, err := s.svc.Register(ctx, username, email, password)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return s.establish(ctx, sess)
}

// Restore re-establishes a previously persisted session, if one exists.
// Returns false when the store is empty.
func (s *Synchronizer) Restore(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	sess, ok, err := s.store.Load()
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}
	if !ok || !sess.Valid() {
		return false, nil
	}
	return true, s.establish(ctx, sess)
}

func (s *Synchronizer) establish(ctx context.Context, sess core.Session) error {
	sess.User.Preferences = sess.User.Preferences.Normalize()

	s.mu.Lock()
	s.sess = sess
	s.state = Loading
	s.transactions = nil
	s.gen++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(sess)
	s.notify(snap)
	s.logger.InfoContext(ctx, "Session established", "user_id", sess.User.ID, "username", sess.User.Username)
	return s.Refresh(ctx)
}

// Refresh fetches the transaction list for the active session. Concurrent
// calls for the same user are deduplicated. A response that arrives after
// the session changed (logout, different login) is discarded.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if !s.sess.Valid() {
		s.mu.Unlock()
		return ErrNoSession
	}
	sess := s.sess
	gen := s.gen
	s.mu.Unlock()

	_, err, _ := s.fetches.Do(sess.User.ID, func() (any, error) {
		list, err := s.svc.FetchTransactions(ctx, sess.User.ID, sess.Token)
		if err != nil {
			return nil, err
		}
		s.applyFetch(gen, list)
		return nil, nil
	})
	if err != nil {
		return s.fetchFailed(ctx, gen, err)
	}
	return nil
}

func (s *Synchronizer) applyFetch(gen uint64, list []core.Transaction) {
	s.mu.Lock()
	if s.gen != gen {
		// Stale response from a superseded session.
		s.mu.Unlock()
		return
	}
	s.transactions = list
	s.state = Ready
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// fetchFailed applies the invalid-session policy: an authorization or
// not-found failure drops to Anonymous; a network or server failure keeps
// the last known state so the caller can retry.
func (s *Synchronizer) fetchFailed(ctx context.Context, gen uint64, err error) error {
	if errors.Is(err, core.ErrUnauthorized) || errors.Is(err, core.ErrNotFound) {
		s.mu.Lock()
		current := s.gen == gen
		s.mu.Unlock()
		if current {
			s.logger.WarnContext(ctx, "Session invalidated by fetch failure", "error", err)
			s.Logout()
		}
		return fmt.Errorf("fetch transactions: %w", err)
	}
	s.logger.WarnContext(ctx, "Transaction fetch failed, keeping last known state", "error", err)
	return fmt.Errorf("fetch transactions: %w", err)
}

// Logout drops to Anonymous, clears the transaction list, and removes any
// persisted session. Also used for external invalidation (another client
// cleared the shared session store).
func (s *Synchronizer) Logout() {
	s.mu.Lock()
	s.sess = core.Session{}
	s.transactions = nil
	s.state = Anonymous
	s.gen++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			s.logger.Warn("Failed to clear session store", "error", err)
		}
	}
	s.notify(snap)
}

// AddTransaction validates the draft locally, then creates it remotely and
// appends the server-returned transaction (with its assigned identifier) to
// the local list. The list is untouched on failure. Without a session the
// call is a no-op.
func (s *Synchronizer) AddTransaction(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sess.Valid() {
		return core.Transaction{}, nil
	}
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, core.NewValidationError(err.Error())
	}

	created, err := s.svc.CreateTransaction(ctx, draft, s.sess.Token)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	s.transactions = append(s.transactions, created)
	snap := s.snapshotLocked()
	go s.notify(snap)
	return created, nil
}

// DeleteTransaction removes the entry only after the remote deletion is
// acknowledged. A remote not-found is propagated and leaves the list alone.
func (s *Synchronizer) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sess.Valid() {
		return nil
	}
	if err := s.svc.DeleteTransaction(ctx, id, s.sess.Token); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	kept := s.transactions[:0]
	for _, t := range s.transactions {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.transactions = kept
	snap := s.snapshotLocked()
	go s.notify(snap)
	return nil
}

// UpdateTransaction applies a partial update with the same confirm-then-apply
// discipline as AddTransaction.
func (s *Synchronizer) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sess.Valid() {
		return core.Transaction{}, nil
	}
	for _, t := range s.transactions {
		if t.ID == id {
			if err := patch.Validate(t); err != nil {
				return core.Transaction{}, core.NewValidationError(err.Error())
			}
			break
		}
	}

	updated, err := s.svc.UpdateTransaction(ctx, id, patch, s.sess.Token)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	for i, t := range s.transactions {
		if t.ID == id {
			s.transactions[i] = updated
			break
		}
	}
	snap := s.snapshotLocked()
	go s.notify(snap)
	return updated, nil
}

// UpdatePreferences replaces the user's preferences. Never optimistic: the
// local user object changes only after the server confirms, and the persisted
// session is refreshed with the confirmed value.
func (s *Synchronizer) UpdatePreferences(ctx context.Context, prefs core.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sess.Valid() {
		return ErrNoSession
	}

	confirmed, err := s.svc.UpdatePreferences(ctx, s.sess.User.ID, prefs.Normalize(), s.sess.Token)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	s.sess.User.Preferences = confirmed.Normalize()
	sess := s.sess
	snap := s.snapshotLocked()
	go func() {
		s.persist(sess)
		s.notify(snap)
	}()
	return nil
}

// ToggleTheme flips between light and dark and writes the preference through
// immediately. Each toggle is one confirmed server write; coalescing rapid
// toggles is left to the caller.
func (s *Synchronizer) ToggleTheme(ctx context.Context) error {
	s.mu.Lock()
	if !s.sess.Valid() {
		s.mu.Unlock()
		return ErrNoSession
	}
	prefs := s.sess.User.Preferences
	s.mu.Unlock()

	if prefs.Theme == core.ThemeDark {
		prefs.Theme = core.ThemeLight
	} else {
		prefs.Theme = core.ThemeDark
	}
	return s.UpdatePreferences(ctx, prefs)
}

// CategoryOptions returns the selectable category names for a transaction
// type. User-configured names come first, the sentinel "Other" is always
// present, and an unconfigured expense list falls back to the defaults.
func (s *Synchronizer) CategoryOptions(typ core.TransactionType) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sess.Valid() {
		return nil
	}
	prefs := s.sess.User.Preferences

	if typ == core.Income {
		return append(prefs.IncomeSourceNames(), core.SentinelCategory)
	}
	names := prefs.ExpenseCategoryNames()
	if len(names) == 0 {
		out := make([]string, len(core.DefaultExpenseCategories))
		copy(out, core.DefaultExpenseCategories)
		return out
	}
	return append(names, core.SentinelCategory)
}

// FormatAmount renders an amount using the active user's currency and
// language preferences. Anonymous callers get the defaults.
func (s *Synchronizer) FormatAmount(m core.Money) string {
	s.mu.Lock()
	prefs := s.sess.User.Preferences.Normalize()
	s.mu.Unlock()
	return core.FormatCurrency(m, prefs.Currency, prefs.Language)
}

func (s *Synchronizer) persist(sess core.Session) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(sess); err != nil {
		s.logger.Warn("Failed to persist session", "error", err)
	}
}
