// Package worker moves committed transactions from SQLite into the external
// ledger, driven by mutation messages with a pending-sweep fallback for the
// messages that never arrive.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/sheets"
)

// TransactionSource is the storage surface the worker needs.
type TransactionSource interface {
	TransactionByID(ctx context.Context, id string) (core.Transaction, error)
	PendingExports(ctx context.Context, limit int) ([]string, error)
	MarkExported(ctx context.Context, id string) error
	MarkExportError(ctx context.Context, id string) error
}

type ExportWorker struct {
	store     TransactionSource
	ledger    sheets.LedgerWriter
	remover   sheets.LedgerRemover
	batchSize int
}

func NewExportWorker(store TransactionSource, ledger sheets.LedgerWriter, remover sheets.LedgerRemover, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		store:     store,
		ledger:    ledger,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleMutation processes a single mutation message.
func (w *ExportWorker) HandleMutation(ctx context.Context, msg *amqp.MutationMessage) error {
	slog.InfoContext(ctx, "Processing mutation",
		"op", msg.Op,
		"transaction_id", msg.TransactionID)

	switch msg.Op {
	case amqp.OpDeleted:
		return w.removeRow(ctx, msg.TransactionID)
	case amqp.OpUpdated:
		// Drop the stale row before re-appending the current state.
		if err := w.removeRow(ctx, msg.TransactionID); err != nil {
			return err
		}
		return w.exportTransaction(ctx, msg.TransactionID)
	case amqp.OpCreated:
		return w.exportTransaction(ctx, msg.TransactionID)
	default:
		slog.WarnContext(ctx, "Unknown mutation op, dropping", "op", msg.Op)
		return nil
	}
}

func (w *ExportWorker) removeRow(ctx context.Context, id string) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No ledger remover configured, skipping removal",
			"transaction_id", id)
		return nil
	}
	if err := w.remover.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove ledger row: %w", err)
	}
	return nil
}

func (w *ExportWorker) exportTransaction(ctx context.Context, id string) error {
	tx, err := w.store.TransactionByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted between publish and consume, nothing left to export.
		slog.InfoContext(ctx, "Transaction gone before export", "transaction_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	ref, err := w.ledger.Append(ctx, tx)
	if err != nil {
		if markErr := w.store.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "transaction_id", id, "error", markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.store.MarkExported(ctx, id); err != nil {
		// The row is in the ledger; only the local bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as exported", "transaction_id", id, "error", err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"transaction_id", id,
		"ledger_ref", ref,
		"amount_cents", tx.Amount.Cents)

	return nil
}

// ProcessPendingExports sweeps transactions the message pipeline missed.
func (w *ExportWorker) ProcessPendingExports(ctx context.Context) error {
	return w.sweep(ctx, w.batchSize)
}

// StartupExportCheck runs a wide pending sweep at worker startup to recover
// from downtime or lost messages.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	return w.sweep(ctx, w.batchSize*5)
}

func (w *ExportWorker) sweep(ctx context.Context, limit int) error {
	ids, err := w.store.PendingExports(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending exports: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(ids))

	exported := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.exportTransaction(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Pending export failed", "transaction_id", id, "error", err)
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Pending sweep completed",
		"total", len(ids),
		"exported", exported,
		"errors", len(ids)-exported)

	return nil
}
