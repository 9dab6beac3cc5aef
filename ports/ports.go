// Package ports defines the interfaces between the application
// services and their adapters. Application code depends on these,
// never on concrete adapters.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/cleanreader/domain/account"
	"github.com/artpar/cleanreader/domain/extract"
	"github.com/artpar/cleanreader/domain/ratelimit"
	"github.com/artpar/cleanreader/domain/usage"
)

// ErrNotFound is returned by stores when the requested record does not
// exist.
var ErrNotFound = errors.New("not found")

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces request correlation ids.
type IDGenerator interface {
	NewRequestID() string
}

// AccountStore persists API-key accounts.
type AccountStore interface {
	// GetByKeyPrefix returns all accounts whose key prefix matches.
	// The caller verifies the full key against each candidate's hash.
	GetByKeyPrefix(ctx context.Context, prefix string) ([]account.Account, error)

	GetByID(ctx context.Context, id int64) (account.Account, error)

	Create(ctx context.Context, a account.Account) (account.Account, error)

	List(ctx context.Context) ([]account.Account, error)

	SetActive(ctx context.Context, id int64, active bool) error

	// RecordSuccess atomically increments the monthly counter and sets
	// last_used_at, refusing the increment if it would pass the
	// account's monthly limit. Returns whether the increment applied.
	RecordSuccess(ctx context.Context, id int64, now time.Time) (bool, error)

	// ResetMonthlyCounts zeroes requests_this_month for every account
	// and returns how many rows changed. Run by an external scheduler
	// at month boundaries.
	ResetMonthlyCounts(ctx context.Context) (int64, error)
}

// UsageStore persists the append-only usage ledger.
type UsageStore interface {
	Append(ctx context.Context, e usage.Event) error
	AppendBatch(ctx context.Context, events []usage.Event) error

	// Summary aggregates an account's events created at or after since.
	Summary(ctx context.Context, accountID int64, since time.Time) (usage.Summary, error)

	// History returns a page of events ordered newest-first, plus the
	// account's total event count.
	History(ctx context.Context, accountID int64, limit, offset int) ([]usage.Event, int64, error)
}

// RateLimitStore tracks per-account sliding windows. Admit must be
// linearizable per account: two concurrent calls against one remaining
// slot must not both be allowed.
type RateLimitStore interface {
	Admit(ctx context.Context, accountID int64, cfg ratelimit.Config, now time.Time) (ratelimit.Result, error)
	Status(ctx context.Context, accountID int64, cfg ratelimit.Config, now time.Time) (ratelimit.Status, error)
	Close()
}

// Extractor is the external content-extraction collaborator. Failures
// are reported as *extract.Error; the context carries the per-request
// deadline.
type Extractor interface {
	Extract(ctx context.Context, url string, opts extract.Options) (extract.Result, error)
}

// MetadataParser pulls metadata and image references out of raw HTML.
// Pluggable so the parsing strategy can change without touching the
// extraction pipeline.
type MetadataParser interface {
	ParseMetadata(html string) extract.Metadata
	ParseImages(html, baseURL string) []extract.Image
}

// UsageRecorder accepts usage events for asynchronous persistence.
type UsageRecorder interface {
	Record(e usage.Event)
	Flush(ctx context.Context) error
	Close() error
}
