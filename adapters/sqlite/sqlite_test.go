package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/artpar/cleanreader/domain/account"
	"github.com/artpar/cleanreader/domain/tier"
	"github.com/artpar/cleanreader/domain/usage"
	"github.com/artpar/cleanreader/ports"
)

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func limit(n int64) *int64 { return &n }

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open("file:" + t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestAccountStore_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	s := NewAccountStore(db)
	ctx := context.Background()

	created, err := s.Create(ctx, account.Account{
		KeyPrefix:    "sk_live_0123",
		KeyHash:      "$2a$10$hash",
		Email:        "dev@example.com",
		Tier:         tier.Pro,
		Active:       true,
		MonthlyLimit: limit(50000),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("no id assigned")
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Tier != tier.Pro || got.Email != "dev@example.com" || !got.Active {
		t.Errorf("got %+v", got)
	}
	if got.MonthlyLimit == nil || *got.MonthlyLimit != 50000 {
		t.Errorf("monthly limit = %v", got.MonthlyLimit)
	}
	if got.LastUsedAt != nil {
		t.Errorf("fresh account has last_used_at = %v", got.LastUsedAt)
	}

	matches, err := s.GetByKeyPrefix(ctx, "sk_live_0123")
	if err != nil || len(matches) != 1 {
		t.Fatalf("GetByKeyPrefix: %v, %d matches", err, len(matches))
	}

	if _, err := s.GetByID(ctx, 9999); err != ports.ErrNotFound {
		t.Errorf("missing account error = %v, want ErrNotFound", err)
	}
}

func TestAccountStore_NullMonthlyLimit(t *testing.T) {
	db := newTestDB(t)
	s := NewAccountStore(db)
	ctx := context.Background()

	created, _ := s.Create(ctx, account.Account{Tier: tier.Enterprise, Active: true})
	got, _ := s.GetByID(ctx, created.ID)
	if got.MonthlyLimit != nil {
		t.Errorf("monthly limit = %v, want nil (unlimited)", *got.MonthlyLimit)
	}

	// Unlimited accounts always increment.
	for i := 0; i < 5; i++ {
		ok, err := s.RecordSuccess(ctx, created.ID, baseTime)
		if err != nil || !ok {
			t.Fatalf("RecordSuccess %d: ok=%v err=%v", i, ok, err)
		}
	}
}

func TestAccountStore_RecordSuccessStopsAtLimit(t *testing.T) {
	db := newTestDB(t)
	s := NewAccountStore(db)
	ctx := context.Background()

	created, _ := s.Create(ctx, account.Account{Tier: tier.Free, Active: true, MonthlyLimit: limit(3)})

	for i := 0; i < 3; i++ {
		ok, err := s.RecordSuccess(ctx, created.ID, baseTime)
		if err != nil || !ok {
			t.Fatalf("increment %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	ok, err := s.RecordSuccess(ctx, created.ID, baseTime)
	if err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}
	if ok {
		t.Error("increment past limit applied")
	}

	got, _ := s.GetByID(ctx, created.ID)
	if got.RequestsThisMonth != 3 {
		t.Errorf("requests_this_month = %d, want 3", got.RequestsThisMonth)
	}
	if got.LastUsedAt == nil {
		t.Error("last_used_at not set")
	}
}

func TestAccountStore_RecordSuccessConcurrent(t *testing.T) {
	db := newTestDB(t)
	s := NewAccountStore(db)
	ctx := context.Background()

	created, _ := s.Create(ctx, account.Account{Active: true, MonthlyLimit: limit(10)})

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordSuccess(ctx, created.ID, baseTime)
		}()
	}
	wg.Wait()

	got, _ := s.GetByID(ctx, created.ID)
	if got.RequestsThisMonth != 10 {
		t.Errorf("requests_this_month = %d, want exactly 10", got.RequestsThisMonth)
	}
}

func TestAccountStore_SetActiveAndReset(t *testing.T) {
	db := newTestDB(t)
	s := NewAccountStore(db)
	ctx := context.Background()

	created, _ := s.Create(ctx, account.Account{Active: true})
	s.RecordSuccess(ctx, created.ID, baseTime)

	if err := s.SetActive(ctx, created.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	got, _ := s.GetByID(ctx, created.ID)
	if got.Active {
		t.Error("still active")
	}
	if err := s.SetActive(ctx, 9999, true); err != ports.ErrNotFound {
		t.Errorf("missing account error = %v, want ErrNotFound", err)
	}

	n, err := s.ResetMonthlyCounts(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ResetMonthlyCounts = %d, %v; want 1, nil", n, err)
	}
	got, _ = s.GetByID(ctx, created.ID)
	if got.RequestsThisMonth != 0 {
		t.Errorf("counter = %d after reset", got.RequestsThisMonth)
	}
}

func TestUsageStore_AppendSummaryHistory(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountStore(db)
	s := NewUsageStore(db)
	ctx := context.Background()

	acct, _ := accounts.Create(ctx, account.Account{Active: true})

	for i := 0; i < 120; i++ {
		err := s.Append(ctx, usage.Event{
			RequestID: fmt.Sprintf("req_%012d", i),
			AccountID: acct.ID,
			URL:       "https://example.com/a",
			Success:   i%4 != 0,
			CostUSD:   0.0015,
			CreatedAt: baseTime.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	sum, err := s.Summary(ctx, acct.ID, baseTime)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.TotalRequests != 120 {
		t.Errorf("total = %d, want 120", sum.TotalRequests)
	}
	if sum.SuccessCount != 90 {
		t.Errorf("success = %d, want 90", sum.SuccessCount)
	}

	page, total, err := s.History(ctx, acct.ID, 50, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if total != 120 || len(page) != 50 {
		t.Fatalf("page: total=%d len=%d, want 120/50", total, len(page))
	}
	if page[0].RequestID != "req_000000000119" {
		t.Errorf("first row = %s, want newest", page[0].RequestID)
	}
	if !usage.HasMore(total, 50, 0) {
		t.Error("hasMore = false at offset 0")
	}

	page, total, _ = s.History(ctx, acct.ID, 50, 100)
	if len(page) != 20 {
		t.Errorf("offset 100 page len = %d, want 20", len(page))
	}
	if usage.HasMore(total, 50, 100) {
		t.Error("hasMore = true at offset 100")
	}
}

func TestUsageStore_AppendBatch(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountStore(db)
	s := NewUsageStore(db)
	ctx := context.Background()

	acct, _ := accounts.Create(ctx, account.Account{Active: true})

	batch := []usage.Event{
		{RequestID: "req_aaaaaaaaaaaa", AccountID: acct.ID, URL: "https://example.com", Success: true, CostUSD: 0.001, CreatedAt: baseTime},
		{RequestID: "req_bbbbbbbbbbbb", AccountID: acct.ID, URL: "https://example.com", Success: false, ErrorCode: "FETCH_TIMEOUT", BillableUnits: 1, CreatedAt: baseTime},
	}
	if err := s.AppendBatch(ctx, batch); err != nil {
		t.Fatalf("AppendBatch: %v", err)
	}

	sum, _ := s.Summary(ctx, acct.ID, baseTime)
	if sum.TotalRequests != 2 || sum.SuccessCount != 1 {
		t.Errorf("summary = %+v", sum)
	}

	if err := s.AppendBatch(ctx, nil); err != nil {
		t.Errorf("empty batch: %v", err)
	}
}

func TestUsageStore_DuplicateRequestIDRejected(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountStore(db)
	s := NewUsageStore(db)
	ctx := context.Background()

	acct, _ := accounts.Create(ctx, account.Account{Active: true})
	e := usage.Event{RequestID: "req_cccccccccccc", AccountID: acct.ID, URL: "https://example.com", Success: true, CreatedAt: baseTime}
	if err := s.Append(ctx, e); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := s.Append(ctx, e); err == nil {
		t.Error("duplicate request_id accepted, want unique violation")
	}
}
