package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/artpar/cleanreader/domain/account"
	"github.com/artpar/cleanreader/domain/tier"
	"github.com/artpar/cleanreader/ports"
)

// AccountStore is the SQLite-backed ports.AccountStore.
type AccountStore struct {
	db *DB
}

var _ ports.AccountStore = (*AccountStore)(nil)

// NewAccountStore creates an account store on db.
func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `id, key_prefix, key_hash, email, tier, active,
	monthly_limit, requests_this_month, last_used_at, created_at`

func scanAccount(row interface{ Scan(...any) error }) (account.Account, error) {
	var a account.Account
	var tierName string
	var monthlyLimit sql.NullInt64
	var lastUsed sql.NullTime

	err := row.Scan(&a.ID, &a.KeyPrefix, &a.KeyHash, &a.Email, &tierName,
		&a.Active, &monthlyLimit, &a.RequestsThisMonth, &lastUsed, &a.CreatedAt)
	if err != nil {
		return account.Account{}, err
	}

	a.Tier = tier.Tier(tierName)
	if monthlyLimit.Valid {
		a.MonthlyLimit = &monthlyLimit.Int64
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		a.LastUsedAt = &t
	}
	return a, nil
}

// Create inserts the account and returns it with its assigned id.
func (s *AccountStore) Create(ctx context.Context, a account.Account) (account.Account, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (key_prefix, key_hash, email, tier, active, monthly_limit, requests_this_month, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.KeyPrefix, a.KeyHash, a.Email, string(a.Tier), a.Active,
		nullInt64(a.MonthlyLimit), a.RequestsThisMonth, a.CreatedAt)
	if err != nil {
		return account.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return account.Account{}, fmt.Errorf("account id: %w", err)
	}
	a.ID = id
	return a, nil
}

// GetByKeyPrefix returns the accounts sharing a key prefix.
func (s *AccountStore) GetByKeyPrefix(ctx context.Context, prefix string) ([]account.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE key_prefix = ?", prefix)
	if err != nil {
		return nil, fmt.Errorf("query accounts by prefix: %w", err)
	}
	defer rows.Close()

	var out []account.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetByID returns one account or ports.ErrNotFound.
func (s *AccountStore) GetByID(ctx context.Context, id int64) (account.Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return account.Account{}, ports.ErrNotFound
	}
	if err != nil {
		return account.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// List returns all accounts, newest first.
func (s *AccountStore) List(ctx context.Context) ([]account.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []account.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetActive flips the active flag.
func (s *AccountStore) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set active rows: %w", err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// RecordSuccess increments requests_this_month and stamps last_used_at
// in one conditional update, so the counter can never pass the monthly
// limit no matter how many handlers race on it.
func (s *AccountStore) RecordSuccess(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET requests_this_month = requests_this_month + 1, last_used_at = ?
		WHERE id = ?
		  AND (monthly_limit IS NULL OR requests_this_month < monthly_limit)`,
		now, id)
	if err != nil {
		return false, fmt.Errorf("record success: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record success rows: %w", err)
	}
	return n > 0, nil
}

// ResetMonthlyCounts zeroes every account's monthly counter.
func (s *AccountStore) ResetMonthlyCounts(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET requests_this_month = 0 WHERE requests_this_month != 0")
	if err != nil {
		return 0, fmt.Errorf("reset monthly counts: %w", err)
	}
	return res.RowsAffected()
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
