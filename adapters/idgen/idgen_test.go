package idgen

import (
	"strings"
	"testing"
)

func TestUUID_Format(t *testing.T) {
	g := UUID{}
	id := g.NewRequestID()
	if !strings.HasPrefix(id, "req_") {
		t.Errorf("id %q missing req_ prefix", id)
	}
	if len(id) != len("req_")+12 {
		t.Errorf("id %q has length %d, want %d", id, len(id), len("req_")+12)
	}
	for _, c := range id[len("req_"):] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			t.Errorf("id %q contains non-hex character %q", id, c)
		}
	}
}

func TestUUID_Unique(t *testing.T) {
	g := UUID{}
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.NewRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestSequential(t *testing.T) {
	g := &Sequential{}
	if got := g.NewRequestID(); got != "req_000000000001" {
		t.Errorf("first id = %q", got)
	}
	if got := g.NewRequestID(); got != "req_000000000002" {
		t.Errorf("second id = %q", got)
	}
}
