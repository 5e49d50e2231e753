package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ListUserIDs returns every account ID, used by the recurring sweep.
func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LastRecurringRun returns when the given income source last produced a
// transaction for the user. The zero time means it never ran.
func (r *SQLiteRepository) LastRecurringRun(ctx context.Context, userID, sourceName string) (time.Time, error) {
	var last time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT last_run FROM recurring_runs WHERE user_id = ? AND source_name = ?`,
		userID, sourceName).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query recurring run: %w", err)
	}
	return last, nil
}

// SetRecurringRun records a recurring execution for the user and source.
func (r *SQLiteRepository) SetRecurringRun(ctx context.Context, userID, sourceName string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_runs (user_id, source_name, last_run)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, source_name) DO UPDATE SET last_run = excluded.last_run`,
		userID, sourceName, at)
	if err != nil {
		return fmt.Errorf("record recurring run: %w", err)
	}
	return nil
}
