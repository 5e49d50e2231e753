package memory

import (
	"context"
	"testing"

	"bilancio/internal/core"
)

func sample(id string) core.Transaction {
	return core.Transaction{
		ID:       id,
		UserID:   "u-1",
		Type:     core.Expense,
		Amount:   core.Money{Cents: 1500},
		Category: "Food",
		Title:    "Lunch",
		Date:     "2026-08-15",
	}
}

func TestAppendAndRemove(t *testing.T) {
	l := New()
	ctx := context.Background()

	ref, err := l.Append(ctx, sample("a"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref == "" {
		t.Error("expected a row reference")
	}
	if _, err := l.Append(ctx, sample("b")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := l.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	rows := l.Rows()
	if len(rows) != 1 || rows[0].ID != "b" {
		t.Errorf("rows after remove = %+v", rows)
	}

	// Removal is idempotent.
	if err := l.Remove(ctx, "a"); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	l := New()
	bad := sample("c")
	bad.Amount.Cents = 0
	if _, err := l.Append(context.Background(), bad); err == nil {
		t.Error("Append should reject an invalid transaction")
	}
}
