// Package account defines API-key account records and the pure
// admission rules applied before any request is served.
package account

import (
	"time"

	"github.com/artpar/cleanreader/domain/tier"
)

// Account is one API-key record (value type).
type Account struct {
	ID        int64
	KeyPrefix string // first 12 characters of the raw key, used for lookup
	KeyHash   string // bcrypt hash of the full raw key
	Email     string
	Tier      tier.Tier
	Active    bool

	// MonthlyLimit caps requests per calendar month. Nil means unlimited.
	// Set from the tier default at provisioning time; may be overridden
	// per account afterwards.
	MonthlyLimit      *int64
	RequestsThisMonth int64

	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// Rejection reasons returned by ValidateForAdmission.
const (
	ReasonDisabled      = "disabled"
	ReasonQuotaExceeded = "quota_exceeded"
)

// AdmissionResult is the outcome of the pre-flight account check.
type AdmissionResult struct {
	Admitted bool
	Reason   string
}

// ValidateForAdmission applies the account-level admission rules:
// inactive accounts are rejected, and accounts at or past their monthly
// limit are rejected. Pure function.
func ValidateForAdmission(a Account) AdmissionResult {
	if !a.Active {
		return AdmissionResult{Reason: ReasonDisabled}
	}
	if a.MonthlyLimit != nil && a.RequestsThisMonth >= *a.MonthlyLimit {
		return AdmissionResult{Reason: ReasonQuotaExceeded}
	}
	return AdmissionResult{Admitted: true}
}

// RemainingThisMonth returns how many requests the account may still
// make this month, or -1 when unlimited.
func RemainingThisMonth(a Account) int64 {
	if a.MonthlyLimit == nil {
		return -1
	}
	r := *a.MonthlyLimit - a.RequestsThisMonth
	if r < 0 {
		return 0
	}
	return r
}

// UsagePercent returns requests-this-month as a percentage of the
// monthly limit, or 0 when unlimited.
func UsagePercent(a Account) float64 {
	if a.MonthlyLimit == nil || *a.MonthlyLimit == 0 {
		return 0
	}
	return float64(a.RequestsThisMonth) / float64(*a.MonthlyLimit) * 100
}
