package storage

import (
	"context"
	"fmt"
)

// Export states for the ledger export pipeline.
const (
	ExportPending = "pending"
	ExportDone    = "exported"
	ExportError   = "error"
)

// MarkExported records that a transaction reached the external ledger.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id string) error {
	return r.setExportState(ctx, id, ExportDone)
}

// MarkExportError flags a transaction whose export attempt failed so the
// worker retries it on the next pending sweep.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	return r.setExportState(ctx, id, ExportError)
}

func (r *SQLiteRepository) setExportState(ctx context.Context, id, state string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET export_state = ? WHERE id = ?`, state, id)
	if err != nil {
		return fmt.Errorf("set export state: %w", err)
	}
	return nil
}

// PendingExports returns transaction IDs that never made it to the ledger,
// oldest first, capped at limit.
func (r *SQLiteRepository) PendingExports(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM transactions
		WHERE export_state IN (?, ?)
		ORDER BY created_at LIMIT ?`, ExportPending, ExportError, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending exports: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
