// Package ratelimit implements sliding-window rate limiting by
// timestamp retention. All functions are pure; callers own locking
// and state persistence.
package ratelimit

import "time"

// Window lengths.
const (
	MinuteWindow = 60 * time.Second
	DayWindow    = 86400 * time.Second
)

// Advisory retry hints, in seconds. The day hint is deliberately not
// the literal reset time.
const (
	RetryAfterMinute = 60
	RetryAfterDay    = 3600
)

// Denial scopes.
const (
	ScopeMinute = "minute"
	ScopeDay    = "day"
)

// Window holds the request timestamps retained for one account
// (value type). Not persisted; rebuilt from zero on restart.
type Window struct {
	Minute []time.Time
	Day    []time.Time
}

// Config is the per-tier ceiling set. A zero PerDay means the day
// window is never checked.
type Config struct {
	PerMinute int
	PerDay    int
}

// Result is the outcome of an admission check.
type Result struct {
	Allowed           bool
	Scope             string // which ceiling denied, when not allowed
	Limit             int
	RetryAfterSeconds int
	MinuteRemaining   int
	DayRemaining      int // -1 when the day window is unlimited
}

// Status is the read-only view of an account's windows.
type Status struct {
	MinuteUsed      int
	MinuteLimit     int
	MinuteRemaining int
	DayUsed         int
	DayLimit        int // 0 means unlimited
	DayRemaining    int // -1 when unlimited
}

// prune drops timestamps strictly older than cutoff, so a timestamp
// exactly window-length old still occupies its slot. The retained
// slice stays in arrival order.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && ts[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0:0], ts[i:]...)
}

// Check admits or denies one request at time now. Both windows are
// pruned first; the minute ceiling is compared before the day ceiling;
// the new timestamp is recorded only on admission. Pure function: the
// caller persists the returned state.
func Check(w Window, cfg Config, now time.Time) (Result, Window) {
	w.Minute = prune(w.Minute, now.Add(-MinuteWindow))
	w.Day = prune(w.Day, now.Add(-DayWindow))

	if len(w.Minute) >= cfg.PerMinute {
		return Result{
			Scope:             ScopeMinute,
			Limit:             cfg.PerMinute,
			RetryAfterSeconds: RetryAfterMinute,
			MinuteRemaining:   0,
			DayRemaining:      dayRemaining(cfg, len(w.Day)),
		}, w
	}
	if cfg.PerDay > 0 && len(w.Day) >= cfg.PerDay {
		return Result{
			Scope:             ScopeDay,
			Limit:             cfg.PerDay,
			RetryAfterSeconds: RetryAfterDay,
			MinuteRemaining:   cfg.PerMinute - len(w.Minute),
			DayRemaining:      0,
		}, w
	}

	w.Minute = append(w.Minute, now)
	w.Day = append(w.Day, now)
	return Result{
		Allowed:         true,
		MinuteRemaining: cfg.PerMinute - len(w.Minute),
		DayRemaining:    dayRemaining(cfg, len(w.Day)),
	}, w
}

// Inspect returns the current usage of both windows without recording
// anything. It performs the same pruning as Check; the caller may
// persist the returned state to keep the stored slices trimmed.
func Inspect(w Window, cfg Config, now time.Time) (Status, Window) {
	w.Minute = prune(w.Minute, now.Add(-MinuteWindow))
	w.Day = prune(w.Day, now.Add(-DayWindow))

	s := Status{
		MinuteUsed:      len(w.Minute),
		MinuteLimit:     cfg.PerMinute,
		MinuteRemaining: cfg.PerMinute - len(w.Minute),
		DayUsed:         len(w.Day),
		DayLimit:        cfg.PerDay,
		DayRemaining:    dayRemaining(cfg, len(w.Day)),
	}
	if s.MinuteRemaining < 0 {
		s.MinuteRemaining = 0
	}
	return s, w
}

func dayRemaining(cfg Config, used int) int {
	if cfg.PerDay <= 0 {
		return -1
	}
	r := cfg.PerDay - used
	if r < 0 {
		return 0
	}
	return r
}

// Empty reports whether the window retains no timestamps, used by
// stores to garbage-collect idle accounts.
func (w Window) Empty() bool {
	return len(w.Minute) == 0 && len(w.Day) == 0
}
