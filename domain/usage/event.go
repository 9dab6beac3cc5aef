// Package usage defines the append-only usage ledger: one immutable
// event per extraction attempt that reached the extractor, plus pure
// aggregation and alerting over those events.
package usage

import "time"

// Event is one ledger row. Never mutated after creation.
type Event struct {
	RequestID     string
	AccountID     int64
	URL           string
	BillableUnits int
	CostUSD       float64
	ContentSizeKB float64
	DurationMs    int64
	Success       bool
	ErrorCode     string // empty on success
	CreatedAt     time.Time
}

// Summary aggregates a set of events.
type Summary struct {
	TotalRequests int64
	SuccessCount  int64
	TotalCostUSD  float64
}

// Aggregate folds events into a summary. Pure function; the in-memory
// store and tests share it with the SQL aggregates.
func Aggregate(events []Event) Summary {
	var s Summary
	for _, e := range events {
		s.TotalRequests++
		if e.Success {
			s.SuccessCount++
		}
		s.TotalCostUSD += e.CostUSD
	}
	return s
}

// HasMore reports whether a page at (limit, offset) leaves later rows
// unread, given the total row count.
func HasMore(total int64, limit, offset int) bool {
	return int64(offset+limit) < total
}

// StartOfMonth returns midnight UTC on the first of now's month, the
// lower bound for current-cycle aggregates.
func StartOfMonth(now time.Time) time.Time {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
