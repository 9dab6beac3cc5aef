package bootstrap

import (
	"testing"

	"github.com/artpar/cleanreader/config"
	"github.com/artpar/cleanreader/domain/tier"
)

func customTierTable() []config.TierConfig {
	return []config.TierConfig{
		{Name: "free", MonthlyLimit: 250, RatePerMinute: 5, RatePerDay: 100, Discount: 1.0},
		{Name: "developer", MonthlyLimit: 1000, RatePerMinute: 10, RatePerDay: 1000, Discount: 1.0, PriceMonthly: 9},
		{Name: "standard", MonthlyLimit: 10000, RatePerMinute: 30, RatePerDay: 5000, Discount: 0.95, PriceMonthly: 29},
		{Name: "pro", MonthlyLimit: 50000, RatePerMinute: 60, RatePerDay: 20000, Discount: 0.9, PriceMonthly: 79},
		{Name: "business", MonthlyLimit: 200000, RatePerMinute: 120, Discount: 0.8, PriceMonthly: 199},
		{Name: "enterprise", RatePerMinute: 300, Discount: 0.6, PriceMonthly: 499},
	}
}

func TestCatalogFrom_EmptyTiersUsesBuiltins(t *testing.T) {
	catalog, err := CatalogFrom(&config.Config{})
	if err != nil {
		t.Fatalf("CatalogFrom: %v", err)
	}
	def, ok := catalog.Find(tier.Free)
	if !ok || def.MonthlyLimit != 100 {
		t.Errorf("free limit = %d (found %v), want built-in 100", def.MonthlyLimit, ok)
	}
}

func TestCatalogFrom_ConfiguredTiersWin(t *testing.T) {
	cfg := &config.Config{Tiers: customTierTable()}

	catalog, err := CatalogFrom(cfg)
	if err != nil {
		t.Fatalf("CatalogFrom: %v", err)
	}
	def, ok := catalog.Find(tier.Free)
	if !ok {
		t.Fatal("free tier missing from configured catalog")
	}
	if def.MonthlyLimit != 250 {
		t.Errorf("free limit = %d, want configured 250", def.MonthlyLimit)
	}
}

func TestCatalogFrom_RejectsIncompleteTable(t *testing.T) {
	cfg := &config.Config{Tiers: customTierTable()[:5]}

	if _, err := CatalogFrom(cfg); err == nil {
		t.Fatal("incomplete tier table accepted, want error")
	}
}
