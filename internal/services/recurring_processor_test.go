package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilancio/internal/core"
)

type fakeRecurringStore struct {
	users    map[string]core.User
	lastRuns map[string]time.Time
	created  []core.TransactionDraft

	createErr error
}

func newFakeRecurringStore() *fakeRecurringStore {
	return &fakeRecurringStore{
		users:    map[string]core.User{},
		lastRuns: map[string]time.Time{},
	}
}

func (s *fakeRecurringStore) ListUserIDs(context.Context) ([]string, error) {
	var ids []string
	for id := range s.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeRecurringStore) UserByID(_ context.Context, id string) (core.User, error) {
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *fakeRecurringStore) CreateTransaction(_ context.Context, userID string, draft core.TransactionDraft) (core.Transaction, error) {
	if s.createErr != nil {
		return core.Transaction{}, s.createErr
	}
	s.created = append(s.created, draft)
	return core.Transaction{ID: "tx-1", UserID: userID}, nil
}

func (s *fakeRecurringStore) LastRecurringRun(_ context.Context, userID, sourceName string) (time.Time, error) {
	return s.lastRuns[userID+"/"+sourceName], nil
}

func (s *fakeRecurringStore) SetRecurringRun(_ context.Context, userID, sourceName string, at time.Time) error {
	s.lastRuns[userID+"/"+sourceName] = at
	return nil
}

func userWithSources(sources ...core.IncomeSource) core.User {
	return core.User{
		ID:          "u1",
		Preferences: core.Preferences{IncomeSources: sources},
	}
}

func TestProcessDueIncomeCreatesTransaction(t *testing.T) {
	store := newFakeRecurringStore()
	store.users["u1"] = userWithSources(core.IncomeSource{
		Name:        "Salary",
		IsRecurring: true,
		Frequency:   core.FrequencyMonthly,
		Amount:      core.Money{Cents: 250000},
	})

	now := date(2026, time.April, 1)
	created, err := NewRecurringProcessor(store).ProcessDueIncome(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDueIncome() error = %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	draft := store.created[0]
	if draft.Type != core.Income {
		t.Errorf("type = %q, want income", draft.Type)
	}
	if draft.Amount.Cents != 250000 {
		t.Errorf("amount = %d, want 250000", draft.Amount.Cents)
	}
	if draft.Category != "Salary" || draft.Title != "Salary" {
		t.Errorf("category/title = %q/%q, want Salary", draft.Category, draft.Title)
	}
	if draft.Date != "2026-04-01" {
		t.Errorf("date = %q, want 2026-04-01", draft.Date)
	}
	if got := store.lastRuns["u1/Salary"]; !got.Equal(now) {
		t.Errorf("last run = %v, want %v", got, now)
	}
}

func TestProcessDueIncomeIdempotentWithinPeriod(t *testing.T) {
	store := newFakeRecurringStore()
	store.users["u1"] = userWithSources(core.IncomeSource{
		Name:        "Salary",
		IsRecurring: true,
		Frequency:   core.FrequencyMonthly,
		Amount:      core.Money{Cents: 250000},
	})

	proc := NewRecurringProcessor(store)
	now := date(2026, time.April, 1)
	if _, err := proc.ProcessDueIncome(context.Background(), now); err != nil {
		t.Fatal(err)
	}
	created, err := proc.ProcessDueIncome(context.Background(), now.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if created != 0 {
		t.Errorf("second sweep in same month created %d, want 0", created)
	}
	if len(store.created) != 1 {
		t.Errorf("total created = %d, want 1", len(store.created))
	}
}

func TestProcessDueIncomeSkipsIneligibleSources(t *testing.T) {
	store := newFakeRecurringStore()
	store.users["u1"] = userWithSources(
		core.IncomeSource{Name: "One-off gig", IsRecurring: false, Amount: core.Money{Cents: 5000}},
		core.IncomeSource{Name: "No amount", IsRecurring: true, Frequency: core.FrequencyMonthly},
		core.IncomeSource{Name: "Bad frequency", IsRecurring: true, Frequency: "fortnightly", Amount: core.Money{Cents: 100}},
	)

	created, err := NewRecurringProcessor(store).ProcessDueIncome(context.Background(), date(2026, time.April, 1))
	if err != nil {
		t.Fatalf("ProcessDueIncome() error = %v", err)
	}
	if created != 0 {
		t.Errorf("created = %d, want 0", created)
	}
}

func TestProcessDueIncomeContinuesPastCreateFailure(t *testing.T) {
	store := newFakeRecurringStore()
	store.createErr = errors.New("db locked")
	store.users["u1"] = userWithSources(core.IncomeSource{
		Name:        "Salary",
		IsRecurring: true,
		Frequency:   core.FrequencyMonthly,
		Amount:      core.Money{Cents: 250000},
	})

	created, err := NewRecurringProcessor(store).ProcessDueIncome(context.Background(), date(2026, time.April, 1))
	if err != nil {
		t.Fatalf("ProcessDueIncome() error = %v", err)
	}
	if created != 0 {
		t.Errorf("created = %d, want 0", created)
	}
	if _, ok := store.lastRuns["u1/Salary"]; ok {
		t.Error("last run recorded despite create failure")
	}
}
