package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/artpar/cleanreader/domain/usage"
	"github.com/artpar/cleanreader/ports"
)

// UsageStore is the SQLite-backed append-only usage ledger.
type UsageStore struct {
	db *DB
}

var _ ports.UsageStore = (*UsageStore)(nil)

// NewUsageStore creates a usage store on db.
func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{db: db}
}

const insertEventSQL = `
	INSERT INTO usage_events (request_id, account_id, url, billable_units,
		cost_usd, content_size_kb, duration_ms, success, error_code, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Append writes one event.
func (s *UsageStore) Append(ctx context.Context, e usage.Event) error {
	_, err := s.db.ExecContext(ctx, insertEventSQL,
		e.RequestID, e.AccountID, e.URL, e.BillableUnits,
		e.CostUSD, e.ContentSizeKB, e.DurationMs, e.Success, e.ErrorCode, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append usage event: %w", err)
	}
	return nil
}

// AppendBatch writes events in one transaction.
func (s *UsageStore) AppendBatch(ctx context.Context, events []usage.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin usage batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertEventSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare usage batch: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			e.RequestID, e.AccountID, e.URL, e.BillableUnits,
			e.CostUSD, e.ContentSizeKB, e.DurationMs, e.Success, e.ErrorCode, e.CreatedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert usage event %s: %w", e.RequestID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit usage batch: %w", err)
	}
	return nil
}

// Summary aggregates one account's events created at or after since.
func (s *UsageStore) Summary(ctx context.Context, accountID int64, since time.Time) (usage.Summary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(cost_usd), 0)
		FROM usage_events
		WHERE account_id = ? AND created_at >= ?`,
		accountID, since)

	var sum usage.Summary
	if err := row.Scan(&sum.TotalRequests, &sum.SuccessCount, &sum.TotalCostUSD); err != nil {
		return usage.Summary{}, fmt.Errorf("usage summary: %w", err)
	}
	return sum, nil
}

// History pages one account's events newest-first and returns the
// account's total event count.
func (s *UsageStore) History(ctx context.Context, accountID int64, limit, offset int) ([]usage.Event, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM usage_events WHERE account_id = ?", accountID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("usage count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, account_id, url, billable_units, cost_usd,
		       content_size_kb, duration_ms, success, error_code, created_at
		FROM usage_events
		WHERE account_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("usage history: %w", err)
	}
	defer rows.Close()

	var out []usage.Event
	for rows.Next() {
		var e usage.Event
		if err := rows.Scan(&e.RequestID, &e.AccountID, &e.URL, &e.BillableUnits,
			&e.CostUSD, &e.ContentSizeKB, &e.DurationMs, &e.Success, &e.ErrorCode, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan usage event: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}
