package clock

import (
	"testing"
	"time"
)

func TestReal_ReturnsUTC(t *testing.T) {
	now := Real{}.Now()
	if now.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", now.Location())
	}
	if time.Since(now) > time.Minute {
		t.Error("real clock is far from system time")
	}
}

func TestFake_SetAndAdvance(t *testing.T) {
	base := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	f := NewFake(base)
	if !f.Now().Equal(base) {
		t.Errorf("Now = %v, want %v", f.Now(), base)
	}

	f.Advance(90 * time.Second)
	if !f.Now().Equal(base.Add(90 * time.Second)) {
		t.Errorf("after Advance: %v", f.Now())
	}

	later := base.Add(24 * time.Hour)
	f.Set(later)
	if !f.Now().Equal(later) {
		t.Errorf("after Set: %v", f.Now())
	}
}
