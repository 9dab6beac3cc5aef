package billing

import (
	"testing"

	"github.com/artpar/cleanreader/domain/extract"
	"github.com/artpar/cleanreader/domain/tier"
)

func def(name tier.Tier) tier.Definition {
	d, ok := tier.DefaultCatalog().Find(name)
	if !ok {
		panic("unknown tier " + name)
	}
	return d
}

func TestPrice_FreeTierAlwaysZero(t *testing.T) {
	p := DefaultPricing()
	free := def(tier.Free)
	cases := []struct {
		sizeKB float64
		images bool
		pdf    bool
	}{
		{10, false, false},
		{600, true, true},
		{0, true, false},
	}
	for _, c := range cases {
		got := Price(p, free, c.sizeKB, c.images, c.pdf)
		if got.CostUSD != 0 {
			t.Errorf("free tier cost = %v, want 0 (size=%v images=%v pdf=%v)", got.CostUSD, c.sizeKB, c.images, c.pdf)
		}
		if got.BillableUnits != 1 {
			t.Errorf("free tier units = %d, want 1", got.BillableUnits)
		}
	}
}

func TestPrice_EnterpriseDiscountedSurcharges(t *testing.T) {
	// (0.0015 base + 0.001 large page + 0.002 images) * 0.6 = 0.0027
	got := Price(DefaultPricing(), def(tier.Enterprise), 600, true, false)
	if got.CostUSD != 0.0027 {
		t.Errorf("cost = %v, want 0.0027", got.CostUSD)
	}
	if got.BillableUnits != 1 {
		t.Errorf("units = %d, want 1", got.BillableUnits)
	}
}

func TestPrice_BaseOnly(t *testing.T) {
	d := def(tier.Developer) // discount 1.0
	got := Price(DefaultPricing(), d, 100, false, false)
	if got.CostUSD != 0.0015 {
		t.Errorf("cost = %v, want 0.0015", got.CostUSD)
	}
}

func TestPrice_LargePageThresholdIsExclusive(t *testing.T) {
	d := def(tier.Developer)
	p := DefaultPricing()
	atThreshold := Price(p, d, 500, false, false)
	if atThreshold.CostUSD != 0.0015 {
		t.Errorf("cost at 500KB = %v, want base only 0.0015", atThreshold.CostUSD)
	}
	over := Price(p, d, 500.1, false, false)
	if over.CostUSD != 0.0025 {
		t.Errorf("cost over 500KB = %v, want 0.0025", over.CostUSD)
	}
}

func TestPrice_PDFSurcharge(t *testing.T) {
	d := def(tier.Developer)
	got := Price(DefaultPricing(), d, 100, false, true)
	if got.CostUSD != 0.0045 {
		t.Errorf("pdf cost = %v, want 0.0045", got.CostUSD)
	}
}

func TestPrice_RoundsToSixDecimals(t *testing.T) {
	d := def(tier.Standard) // discount 0.95
	got := Price(DefaultPricing(), d, 100, false, false)
	// 0.0015 * 0.95 = 0.001425
	if got.CostUSD != 0.001425 {
		t.Errorf("cost = %v, want 0.001425", got.CostUSD)
	}
	got = Price(DefaultPricing(), d, 600, true, true)
	// (0.0015+0.001+0.002+0.003) * 0.95 = 0.007125
	if got.CostUSD != 0.007125 {
		t.Errorf("cost = %v, want 0.007125", got.CostUSD)
	}
}

func TestIsBillableError(t *testing.T) {
	tests := []struct {
		code extract.Code
		want bool
	}{
		{extract.CodeFetchTimeout, true},
		{extract.CodeFetchFailed, true},
		{extract.CodeExtractionFailed, true},
		{extract.CodeNoContent, true},
		{extract.CodeContentTooLarge, true},
		{extract.CodeInvalidAPIKey, false},
		{extract.CodeAPIKeyDisabled, false},
		{extract.CodeRateLimitExceeded, false},
		{extract.CodeQuotaExceeded, false},
		{extract.CodeInvalidURL, false},
		{extract.CodeValidationError, false},
		{extract.CodeInternalError, false},
	}
	for _, tt := range tests {
		if got := IsBillableError(tt.code); got != tt.want {
			t.Errorf("IsBillableError(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestChargeForFailure(t *testing.T) {
	billable := ChargeForFailure(extract.CodeFetchTimeout)
	if billable.BillableUnits != 1 || billable.CostUSD != 0 {
		t.Errorf("billable failure charge = %+v, want 1 unit at 0 cost", billable)
	}
	free := ChargeForFailure(extract.CodeRateLimitExceeded)
	if free.BillableUnits != 0 || free.CostUSD != 0 {
		t.Errorf("non-billable failure charge = %+v, want zero", free)
	}
}
