package app

import (
	"context"
	"fmt"

	"github.com/artpar/cleanreader/domain/account"
	"github.com/artpar/cleanreader/domain/ratelimit"
	"github.com/artpar/cleanreader/domain/tier"
	"github.com/artpar/cleanreader/domain/usage"
	"github.com/artpar/cleanreader/ports"
)

// AccountService assembles the read-only account, usage, and tier
// views. It never mutates anything.
type AccountService struct {
	usageStore ports.UsageStore
	rateLimit  ports.RateLimitStore
	clock      ports.Clock
	extract    *ExtractService // catalog + rate config source
	thresholds usage.Thresholds
}

// NewAccountService creates the reporting service.
func NewAccountService(usageStore ports.UsageStore, rateLimit ports.RateLimitStore, clock ports.Clock, extract *ExtractService, thresholds usage.Thresholds) *AccountService {
	if thresholds == (usage.Thresholds{}) {
		thresholds = usage.DefaultThresholds()
	}
	return &AccountService{
		usageStore: usageStore,
		rateLimit:  rateLimit,
		clock:      clock,
		extract:    extract,
		thresholds: thresholds,
	}
}

// StatusReport is the account status view.
type StatusReport struct {
	Account account.Account
	Tier    tier.Definition

	RequestsThisMonth int64
	MonthlyLimit      *int64
	Remaining         int64 // -1 when unlimited
	UsagePercent      float64
	CostThisMonthUSD  float64

	Alert *usage.Alert
}

// Status builds the status view for one account: tier definition,
// current-cycle usage and cost, and at most one quota alert.
func (s *AccountService) Status(ctx context.Context, acct account.Account) (StatusReport, error) {
	def, ok := s.extract.Catalog().Find(acct.Tier)
	if !ok {
		return StatusReport{}, fmt.Errorf("tier %q not in catalog", acct.Tier)
	}

	since := usage.StartOfMonth(s.clock.Now())
	sum, err := s.usageStore.Summary(ctx, acct.ID, since)
	if err != nil {
		return StatusReport{}, fmt.Errorf("usage summary: %w", err)
	}

	report := StatusReport{
		Account:           acct,
		Tier:              def,
		RequestsThisMonth: acct.RequestsThisMonth,
		MonthlyLimit:      acct.MonthlyLimit,
		Remaining:         account.RemainingThisMonth(acct),
		UsagePercent:      account.UsagePercent(acct),
		CostThisMonthUSD:  sum.TotalCostUSD,
	}
	if alert, fired := usage.EvaluateAlert(report.UsagePercent, s.thresholds); fired {
		report.Alert = &alert
	}
	return report, nil
}

// UsageReport is the current-cycle usage summary view.
type UsageReport struct {
	Summary usage.Summary
	Since   string
}

// Usage summarizes the account's current billing cycle.
func (s *AccountService) Usage(ctx context.Context, acct account.Account) (UsageReport, error) {
	since := usage.StartOfMonth(s.clock.Now())
	sum, err := s.usageStore.Summary(ctx, acct.ID, since)
	if err != nil {
		return UsageReport{}, fmt.Errorf("usage summary: %w", err)
	}
	return UsageReport{Summary: sum, Since: since.Format("2006-01-02")}, nil
}

// HistoryPage is one page of the usage ledger, newest first.
type HistoryPage struct {
	Events  []usage.Event
	Total   int64
	Limit   int
	Offset  int
	HasMore bool
}

// History bounds for limit.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// History pages the account's usage ledger.
func (s *AccountService) History(ctx context.Context, acct account.Account, limit, offset int) (HistoryPage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	events, total, err := s.usageStore.History(ctx, acct.ID, limit, offset)
	if err != nil {
		return HistoryPage{}, fmt.Errorf("usage history: %w", err)
	}
	return HistoryPage{
		Events:  events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: usage.HasMore(total, limit, offset),
	}, nil
}

// Limits returns the account's live rate-window status.
func (s *AccountService) Limits(ctx context.Context, acct account.Account) (ratelimit.Status, error) {
	cfg, ok := s.extract.RateConfigFor(acct.Tier)
	if !ok {
		return ratelimit.Status{}, fmt.Errorf("tier %q not in catalog", acct.Tier)
	}
	return s.rateLimit.Status(ctx, acct.ID, cfg, s.clock.Now())
}

// Tiers lists the tier catalog for comparison.
func (s *AccountService) Tiers() []tier.Definition {
	return s.extract.Catalog().List()
}
