package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewWithRegistry(reg)

	c.RequestsTotal.WithLabelValues("/v1/extract", "200", "pro").Inc()
	c.RequestsTotal.WithLabelValues("/v1/extract", "200", "pro").Inc()
	c.RateLimitHits.WithLabelValues("free", "minute").Inc()
	c.QuotaRejections.WithLabelValues("free").Inc()
	c.BilledUSDTotal.WithLabelValues("pro").Add(0.0015)

	if got := testutil.ToFloat64(c.RequestsTotal.WithLabelValues("/v1/extract", "200", "pro")); got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.RateLimitHits.WithLabelValues("free", "minute")); got != 1 {
		t.Errorf("rate_limit_hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.BilledUSDTotal.WithLabelValues("pro")); got != 0.0015 {
		t.Errorf("billed_usd_total = %v, want 0.0015", got)
	}
}

func TestNewWithRegistry_IndependentRegistries(t *testing.T) {
	// Two collectors on separate registries must not collide.
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())

	a.RequestsInFlight.Inc()
	if got := testutil.ToFloat64(b.RequestsInFlight); got != 0 {
		t.Errorf("second registry gauge = %v, want 0", got)
	}
}
