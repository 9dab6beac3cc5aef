package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/artpar/cleanreader/domain/usage"
	"github.com/artpar/cleanreader/ports"
)

// UsageStore is an in-memory ports.UsageStore for tests and local
// development.
type UsageStore struct {
	mu     sync.Mutex
	events []usage.Event
}

var _ ports.UsageStore = (*UsageStore)(nil)

// NewUsageStore returns an empty store.
func NewUsageStore() *UsageStore {
	return &UsageStore{}
}

// Append stores one event.
func (s *UsageStore) Append(ctx context.Context, e usage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// AppendBatch stores a batch of events.
func (s *UsageStore) AppendBatch(ctx context.Context, events []usage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

// Summary aggregates one account's events created at or after since.
func (s *UsageStore) Summary(ctx context.Context, accountID int64, since time.Time) (usage.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []usage.Event
	for _, e := range s.events {
		if e.AccountID == accountID && !e.CreatedAt.Before(since) {
			matched = append(matched, e)
		}
	}
	return usage.Aggregate(matched), nil
}

// History pages one account's events newest-first.
func (s *UsageStore) History(ctx context.Context, accountID int64, limit, offset int) ([]usage.Event, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []usage.Event
	for _, e := range s.events {
		if e.AccountID == accountID {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	page := append([]usage.Event(nil), matched[offset:end]...)
	return page, total, nil
}

// Events returns a copy of everything stored (for tests).
func (s *UsageStore) Events() []usage.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]usage.Event(nil), s.events...)
}
