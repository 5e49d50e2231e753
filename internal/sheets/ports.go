package sheets

import (
	"context"

	"bilancio/internal/core"
)

// Ports for outbound ledger adapters.
type (
	// LedgerWriter appends an exported transaction to an external ledger,
	// returning a reference to the written row.
	LedgerWriter interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// LedgerRemover removes a previously exported transaction by its ID.
	LedgerRemover interface {
		Remove(ctx context.Context, transactionID string) error
	}
)
