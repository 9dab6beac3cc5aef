package app

import "sync"

// QuotaGate serializes monthly-quota admission per account. Extraction
// runs between admission and the counter increment, so the stored
// counter alone cannot stop two in-flight requests from sharing the
// last quota slot. The gate tracks in-flight reservations and admits a
// request only when counter + in-flight still leaves room.
type QuotaGate struct {
	mu       sync.Mutex
	inflight map[int64]int64
}

// NewQuotaGate returns an empty gate.
func NewQuotaGate() *QuotaGate {
	return &QuotaGate{inflight: make(map[int64]int64)}
}

// Reserve admits one request for the account given its persisted
// counter and limit (nil = unlimited). Every successful Reserve must
// be paired with exactly one Release.
func (g *QuotaGate) Reserve(accountID, used int64, limit *int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if limit != nil && used+g.inflight[accountID] >= *limit {
		return false
	}
	g.inflight[accountID]++
	return true
}

// Release returns a reservation taken by Reserve.
func (g *QuotaGate) Release(accountID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.inflight[accountID] - 1
	if n <= 0 {
		delete(g.inflight, accountID)
		return
	}
	g.inflight[accountID] = n
}

// InFlight returns the current reservation count (for tests).
func (g *QuotaGate) InFlight(accountID int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inflight[accountID]
}
