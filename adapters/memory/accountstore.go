package memory

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/cleanreader/domain/account"
	"github.com/artpar/cleanreader/ports"
)

// AccountStore is an in-memory ports.AccountStore for tests and local
// development.
type AccountStore struct {
	mu       sync.Mutex
	accounts map[int64]account.Account
	nextID   int64
}

var _ ports.AccountStore = (*AccountStore)(nil)

// NewAccountStore returns an empty store.
func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[int64]account.Account), nextID: 1}
}

// Create assigns an id and stores the account.
func (s *AccountStore) Create(ctx context.Context, a account.Account) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextID
	s.nextID++
	s.accounts[a.ID] = a
	return a, nil
}

// GetByKeyPrefix returns every account sharing the prefix.
func (s *AccountStore) GetByKeyPrefix(ctx context.Context, prefix string) ([]account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []account.Account
	for _, a := range s.accounts {
		if a.KeyPrefix == prefix {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetByID returns the account or ports.ErrNotFound.
func (s *AccountStore) GetByID(ctx context.Context, id int64) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return account.Account{}, ports.ErrNotFound
	}
	return a, nil
}

// List returns all accounts.
func (s *AccountStore) List(ctx context.Context) ([]account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]account.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	return out, nil
}

// SetActive flips the active flag.
func (s *AccountStore) SetActive(ctx context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ports.ErrNotFound
	}
	a.Active = active
	s.accounts[id] = a
	return nil
}

// RecordSuccess increments the monthly counter unless the limit is
// already reached, mirroring the conditional SQL update.
func (s *AccountStore) RecordSuccess(ctx context.Context, id int64, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return false, ports.ErrNotFound
	}
	if a.MonthlyLimit != nil && a.RequestsThisMonth >= *a.MonthlyLimit {
		return false, nil
	}
	a.RequestsThisMonth++
	t := now
	a.LastUsedAt = &t
	s.accounts[id] = a
	return true, nil
}

// ResetMonthlyCounts zeroes every counter.
func (s *AccountStore) ResetMonthlyCounts(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, a := range s.accounts {
		if a.RequestsThisMonth != 0 {
			a.RequestsThisMonth = 0
			s.accounts[id] = a
			n++
		}
	}
	return n, nil
}
