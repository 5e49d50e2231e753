package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
)

// RecurringStore is the storage surface the processor needs.
type RecurringStore interface {
	ListUserIDs(ctx context.Context) ([]string, error)
	UserByID(ctx context.Context, id string) (core.User, error)
	CreateTransaction(ctx context.Context, userID string, draft core.TransactionDraft) (core.Transaction, error)
	LastRecurringRun(ctx context.Context, userID, sourceName string) (time.Time, error)
	SetRecurringRun(ctx context.Context, userID, sourceName string, at time.Time) error
}

// RecurringProcessor materializes due recurring income sources into income
// transactions.
type RecurringProcessor struct {
	store RecurringStore
}

func NewRecurringProcessor(store RecurringStore) *RecurringProcessor {
	return &RecurringProcessor{store: store}
}

// ProcessDueIncome sweeps every user's recurring income sources and creates
// transactions for the ones that are due. It returns how many were created.
// Per-source failures are logged and skipped so one bad source cannot stall
// the sweep.
func (p *RecurringProcessor) ProcessDueIncome(ctx context.Context, now time.Time) (int, error) {
	userIDs, err := p.store.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring income",
		"users", len(userIDs),
		"processing_date", now.Format(core.DateLayout))

	created := 0
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		n, err := p.processUser(ctx, userID, now)
		if err != nil {
			slog.ErrorContext(ctx, "Recurring sweep failed for user",
				"user_id", userID, "error", err)
			continue
		}
		created += n
	}

	slog.InfoContext(ctx, "Recurring income processing complete", "created", created)
	return created, nil
}

func (p *RecurringProcessor) processUser(ctx context.Context, userID string, now time.Time) (int, error) {
	user, err := p.store.UserByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load user: %w", err)
	}

	created := 0
	for _, src := range user.Preferences.IncomeSources {
		if !src.IsRecurring || src.Amount.Cents <= 0 {
			continue
		}

		checker, err := GetDuenessChecker(src.Frequency)
		if err != nil {
			slog.WarnContext(ctx, "Skipping income source with unknown frequency",
				"user_id", userID, "source", src.Name, "frequency", src.Frequency)
			continue
		}

		lastRun, err := p.store.LastRecurringRun(ctx, userID, src.Name)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to read last recurring run",
				"user_id", userID, "source", src.Name, "error", err)
			continue
		}
		if !checker.IsDue(lastRun, now) {
			continue
		}

		draft := core.TransactionDraft{
			Type:     core.Income,
			Amount:   src.Amount,
			Category: src.Name,
			Title:    src.Name,
			Date:     now.Format(core.DateLayout),
		}
		if _, err := p.store.CreateTransaction(ctx, userID, draft); err != nil {
			slog.ErrorContext(ctx, "Failed to create recurring income transaction",
				"user_id", userID, "source", src.Name, "error", err)
			continue
		}

		// The transaction exists even if this bookkeeping write fails; the
		// dueness check makes the next sweep idempotent per period, not per
		// run, so log loudly.
		if err := p.store.SetRecurringRun(ctx, userID, src.Name, now); err != nil {
			slog.ErrorContext(ctx, "Failed to record recurring run",
				"user_id", userID, "source", src.Name, "error", err)
		}

		created++
		slog.InfoContext(ctx, "Created recurring income transaction",
			"user_id", userID,
			"source", src.Name,
			"amount_cents", src.Amount.Cents,
			"frequency", src.Frequency)
	}

	return created, nil
}
