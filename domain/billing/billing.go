// Package billing converts a completed extraction into billable units
// and cost. All functions are pure.
package billing

import (
	"math"

	"github.com/artpar/cleanreader/domain/extract"
	"github.com/artpar/cleanreader/domain/tier"
)

// Pricing holds the per-request price components in USD (value type).
type Pricing struct {
	BasePrice      float64
	LargePagePrice float64
	ImagePrice     float64
	PDFPrice       float64
	LargePageKB    float64 // pages above this size incur LargePagePrice
}

// DefaultPricing returns the standard price card.
func DefaultPricing() Pricing {
	return Pricing{
		BasePrice:      0.0015,
		LargePagePrice: 0.001,
		ImagePrice:     0.002,
		PDFPrice:       0.003,
		LargePageKB:    500,
	}
}

// Charge is the billing outcome for one request.
type Charge struct {
	BillableUnits int
	CostUSD       float64
}

// Price computes the charge for a successful extraction. Surcharges
// accumulate on the base price, the tier discount multiplies the sum,
// and the free tier always costs zero. Rounded to 6 decimal places.
func Price(p Pricing, def tier.Definition, contentSizeKB float64, includeImages, isPDF bool) Charge {
	cost := p.BasePrice
	if contentSizeKB > p.LargePageKB {
		cost += p.LargePagePrice
	}
	if includeImages {
		cost += p.ImagePrice
	}
	if isPDF {
		cost += p.PDFPrice
	}
	cost *= def.Discount
	if def.Name == tier.Free {
		cost = 0
	}
	return Charge{BillableUnits: 1, CostUSD: round6(cost)}
}

// ChargeForFailure computes the charge for a failed extraction: one
// billable unit when the error is billable, zero otherwise, and never
// any cost.
func ChargeForFailure(code extract.Code) Charge {
	if IsBillableError(code) {
		return Charge{BillableUnits: 1}
	}
	return Charge{}
}

// nonBillable lists the codes that never incur a charge: the service
// did no fetch work, or the fault was its own.
var nonBillable = map[extract.Code]bool{
	extract.CodeInvalidAPIKey:     true,
	extract.CodeAPIKeyDisabled:    true,
	extract.CodeRateLimitExceeded: true,
	extract.CodeInvalidURL:        true,
	extract.CodeValidationError:   true,
	extract.CodeInternalError:     true,
}

// IsBillableError reports whether a failure with this code is still
// charged. Upstream fetch and extraction failures are billable because
// the fetch work was performed; auth, admission, validation, and
// internal faults are not. This asymmetry is a business rule.
func IsBillableError(code extract.Code) bool {
	return !nonBillable[code]
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
