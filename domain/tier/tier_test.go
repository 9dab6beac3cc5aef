package tier

import "testing"

func TestDefaultCatalog_HasAllTiers(t *testing.T) {
	c := DefaultCatalog()
	for _, name := range All {
		if _, ok := c.Find(name); !ok {
			t.Errorf("missing tier %q", name)
		}
	}
}

func TestNewCatalog_RejectsDuplicate(t *testing.T) {
	defs := Defaults()
	defs = append(defs, defs[0])
	if _, err := NewCatalog(defs); err == nil {
		t.Error("expected error for duplicate tier")
	}
}

func TestNewCatalog_RejectsMissingTier(t *testing.T) {
	defs := Defaults()[:3]
	if _, err := NewCatalog(defs); err == nil {
		t.Error("expected error for missing tiers")
	}
}

func TestNewCatalog_RejectsBadDiscount(t *testing.T) {
	for _, discount := range []float64{0, -0.5, 1.5} {
		defs := Defaults()
		defs[0].Discount = discount
		if _, err := NewCatalog(defs); err == nil {
			t.Errorf("discount %v: expected error", discount)
		}
	}
}

func TestNewCatalog_RejectsUnknownName(t *testing.T) {
	defs := Defaults()
	defs[0].Name = "platinum"
	if _, err := NewCatalog(defs); err == nil {
		t.Error("expected error for unknown tier name")
	}
}

func TestCatalog_ListOrderedByPrice(t *testing.T) {
	list := DefaultCatalog().List()
	if len(list) != len(All) {
		t.Fatalf("got %d tiers, want %d", len(list), len(All))
	}
	for i := 1; i < len(list); i++ {
		if list[i].PriceMonthly < list[i-1].PriceMonthly {
			t.Errorf("list not ordered by price at %d: %v < %v", i, list[i].PriceMonthly, list[i-1].PriceMonthly)
		}
	}
	if list[0].Name != Free {
		t.Errorf("cheapest tier = %q, want free", list[0].Name)
	}
}

func TestEnterpriseDiscount(t *testing.T) {
	d, _ := DefaultCatalog().Find(Enterprise)
	if d.Discount != 0.6 {
		t.Errorf("enterprise discount = %v, want 0.6", d.Discount)
	}
	if d.MonthlyLimit != 0 {
		t.Errorf("enterprise monthly limit = %d, want unlimited (0)", d.MonthlyLimit)
	}
}

func TestValid(t *testing.T) {
	if !Valid(Pro) {
		t.Error("pro should be valid")
	}
	if Valid("platinum") {
		t.Error("platinum should not be valid")
	}
}
