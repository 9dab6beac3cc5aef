package ratelimit

import (
	"testing"
	"time"
)

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func TestCheck_AdmitsUpToMinuteLimit(t *testing.T) {
	cfg := Config{PerMinute: 3, PerDay: 100}
	var w Window

	for i := 0; i < 3; i++ {
		var res Result
		res, w = Check(w, cfg, baseTime.Add(time.Duration(i)*time.Second))
		if !res.Allowed {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}

	res, _ := Check(w, cfg, baseTime.Add(3*time.Second))
	if res.Allowed {
		t.Fatal("4th request allowed, want denied")
	}
	if res.Scope != ScopeMinute {
		t.Errorf("scope = %q, want minute", res.Scope)
	}
	if res.Limit != 3 {
		t.Errorf("limit = %d, want 3", res.Limit)
	}
	if res.RetryAfterSeconds != RetryAfterMinute {
		t.Errorf("retry after = %d, want %d", res.RetryAfterSeconds, RetryAfterMinute)
	}
}

func TestCheck_SlidingWindowAdmitsAfterOldestExpires(t *testing.T) {
	cfg := Config{PerMinute: 2}
	var w Window
	var res Result

	res, w = Check(w, cfg, baseTime)
	res, w = Check(w, cfg, baseTime.Add(30*time.Second))
	res, w = Check(w, cfg, baseTime.Add(45*time.Second))
	if res.Allowed {
		t.Fatal("3rd request within 60s allowed, want denied")
	}

	// 61s after the first admission its timestamp has aged out.
	res, w = Check(w, cfg, baseTime.Add(61*time.Second))
	if !res.Allowed {
		t.Fatal("request after oldest expired denied, want allowed")
	}

	// The second admission (t+30) still occupies a slot until t+90.
	res, _ = Check(w, cfg, baseTime.Add(62*time.Second))
	if res.Allowed {
		t.Fatal("window should be full again until t+90s")
	}
}

func TestCheck_SlotHeldAtExactWindowAge(t *testing.T) {
	cfg := Config{PerMinute: 1}
	var w Window
	var res Result

	_, w = Check(w, cfg, baseTime)

	// A timestamp exactly 60s old has not aged past the window yet.
	res, w = Check(w, cfg, baseTime.Add(MinuteWindow))
	if res.Allowed {
		t.Fatal("request at exactly t+60s allowed, want denied")
	}

	res, _ = Check(w, cfg, baseTime.Add(MinuteWindow+time.Nanosecond))
	if !res.Allowed {
		t.Fatal("request just past t+60s denied, want allowed")
	}
}

func TestCheck_DayLimit(t *testing.T) {
	cfg := Config{PerMinute: 100, PerDay: 3}
	var w Window
	var res Result

	// Spread admissions over hours so the minute window never binds.
	for i := 0; i < 3; i++ {
		res, w = Check(w, cfg, baseTime.Add(time.Duration(i)*time.Hour))
		if !res.Allowed {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}

	res, w = Check(w, cfg, baseTime.Add(4*time.Hour))
	if res.Allowed {
		t.Fatal("4th request of the day allowed, want denied")
	}
	if res.Scope != ScopeDay {
		t.Errorf("scope = %q, want day", res.Scope)
	}
	if res.RetryAfterSeconds != RetryAfterDay {
		t.Errorf("retry after = %d, want %d", res.RetryAfterSeconds, RetryAfterDay)
	}

	// 24h after the first admission, one slot frees up.
	res, _ = Check(w, cfg, baseTime.Add(24*time.Hour+time.Second))
	if !res.Allowed {
		t.Fatal("request after day window slid denied, want allowed")
	}
}

func TestCheck_MinuteCheckedBeforeDay(t *testing.T) {
	cfg := Config{PerMinute: 1, PerDay: 1}
	var w Window
	_, w = Check(w, cfg, baseTime)

	res, _ := Check(w, cfg, baseTime.Add(time.Second))
	if res.Allowed {
		t.Fatal("want denied")
	}
	if res.Scope != ScopeMinute {
		t.Errorf("scope = %q, want minute (checked first)", res.Scope)
	}
}

func TestCheck_UnlimitedDayNeverChecked(t *testing.T) {
	cfg := Config{PerMinute: 2, PerDay: 0}
	var w Window
	var res Result
	for i := 0; i < 10; i++ {
		res, w = Check(w, cfg, baseTime.Add(time.Duration(i)*time.Minute))
		if !res.Allowed {
			t.Fatalf("request %d denied with unlimited day window", i+1)
		}
		if res.DayRemaining != -1 {
			t.Errorf("day remaining = %d, want -1 for unlimited", res.DayRemaining)
		}
	}
}

func TestCheck_DeniedDoesNotRecord(t *testing.T) {
	cfg := Config{PerMinute: 1}
	var w Window
	_, w = Check(w, cfg, baseTime)

	before := len(w.Minute)
	_, w = Check(w, cfg, baseTime.Add(time.Second))
	if len(w.Minute) != before {
		t.Errorf("denied request recorded a timestamp: %d -> %d", before, len(w.Minute))
	}
}

func TestCheck_RemainingCounts(t *testing.T) {
	cfg := Config{PerMinute: 5, PerDay: 10}
	var w Window
	res, _ := Check(w, cfg, baseTime)
	if res.MinuteRemaining != 4 {
		t.Errorf("minute remaining = %d, want 4", res.MinuteRemaining)
	}
	if res.DayRemaining != 9 {
		t.Errorf("day remaining = %d, want 9", res.DayRemaining)
	}
}

func TestInspect_DoesNotMutateCounts(t *testing.T) {
	cfg := Config{PerMinute: 5, PerDay: 10}
	var w Window
	_, w = Check(w, cfg, baseTime)
	_, w = Check(w, cfg, baseTime.Add(time.Second))

	s, w2 := Inspect(w, cfg, baseTime.Add(2*time.Second))
	if s.MinuteUsed != 2 || s.MinuteRemaining != 3 {
		t.Errorf("minute used/remaining = %d/%d, want 2/3", s.MinuteUsed, s.MinuteRemaining)
	}
	if s.DayUsed != 2 || s.DayRemaining != 8 {
		t.Errorf("day used/remaining = %d/%d, want 2/8", s.DayUsed, s.DayRemaining)
	}

	s2, _ := Inspect(w2, cfg, baseTime.Add(3*time.Second))
	if s2.MinuteUsed != 2 {
		t.Errorf("Inspect mutated state: used = %d, want 2", s2.MinuteUsed)
	}
}

func TestInspect_PrunesExpired(t *testing.T) {
	cfg := Config{PerMinute: 5}
	var w Window
	_, w = Check(w, cfg, baseTime)
	_, w = Check(w, cfg, baseTime.Add(time.Second))

	s, _ := Inspect(w, cfg, baseTime.Add(2*time.Minute))
	if s.MinuteUsed != 0 {
		t.Errorf("minute used after expiry = %d, want 0", s.MinuteUsed)
	}
}

func TestWindowEmpty(t *testing.T) {
	var w Window
	if !w.Empty() {
		t.Error("zero window should be empty")
	}
	_, w = Check(w, Config{PerMinute: 1}, baseTime)
	if w.Empty() {
		t.Error("window with an admission should not be empty")
	}
}
