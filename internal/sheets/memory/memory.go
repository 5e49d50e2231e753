// Package memory is an in-memory ledger used in tests and local development
// when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"bilancio/internal/core"
)

type Ledger struct {
	mu      sync.Mutex
	rows    []core.Transaction
	byID    map[string]int
	appends int
}

func New() *Ledger {
	return &Ledger{byID: make(map[string]int)}
}

// Append stores the transaction and returns a synthetic row reference.
func (l *Ledger) Append(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appends++
	l.byID[tx.ID] = len(l.rows)
	l.rows = append(l.rows, tx)
	return fmt.Sprintf("mem:%d", l.appends), nil
}

// Remove drops the row for the given transaction ID. Missing rows are a
// no-op, matching the spreadsheet adapter.
func (l *Ledger) Remove(_ context.Context, transactionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx, ok := l.byID[transactionID]
	if !ok {
		return nil
	}
	l.rows = append(l.rows[:idx], l.rows[idx+1:]...)
	delete(l.byID, transactionID)
	for id, i := range l.byID {
		if i > idx {
			l.byID[id] = i - 1
		}
	}
	return nil
}

// Rows returns a copy of the current ledger contents.
func (l *Ledger) Rows() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Transaction, len(l.rows))
	copy(out, l.rows)
	return out
}
