// Package tier defines the pricing and limit tiers and the immutable
// catalog they are loaded into at startup.
package tier

import (
	"fmt"
	"sort"
)

// Tier is a closed enumeration of plan names.
type Tier string

const (
	Free       Tier = "free"
	Developer  Tier = "developer"
	Standard   Tier = "standard"
	Pro        Tier = "pro"
	Business   Tier = "business"
	Enterprise Tier = "enterprise"
)

// All lists the valid tiers in ascending price order.
var All = []Tier{Free, Developer, Standard, Pro, Business, Enterprise}

// Valid reports whether name is a known tier.
func Valid(name Tier) bool {
	for _, t := range All {
		if t == name {
			return true
		}
	}
	return false
}

// Definition describes the limits and pricing of one tier (value type).
// A zero MonthlyLimit or RatePerDay means unlimited.
type Definition struct {
	Name          Tier
	MonthlyLimit  int64
	RatePerMinute int
	RatePerDay    int
	Discount      float64 // price multiplier in (0, 1]
	PriceMonthly  float64
	Features      []string
}

// Catalog is a read-only registry of tier definitions. It is built once
// at startup and never mutated afterwards.
type Catalog struct {
	defs map[Tier]Definition
}

// NewCatalog builds a catalog from definitions. Every tier must appear
// exactly once and every discount must be in (0, 1].
func NewCatalog(defs []Definition) (*Catalog, error) {
	m := make(map[Tier]Definition, len(defs))
	for _, d := range defs {
		if !Valid(d.Name) {
			return nil, fmt.Errorf("unknown tier %q", d.Name)
		}
		if _, dup := m[d.Name]; dup {
			return nil, fmt.Errorf("duplicate tier %q", d.Name)
		}
		if d.Discount <= 0 || d.Discount > 1 {
			return nil, fmt.Errorf("tier %q: discount %v outside (0,1]", d.Name, d.Discount)
		}
		if d.RatePerMinute <= 0 {
			return nil, fmt.Errorf("tier %q: rate per minute must be positive", d.Name)
		}
		m[d.Name] = d
	}
	for _, t := range All {
		if _, ok := m[t]; !ok {
			return nil, fmt.Errorf("missing tier %q", t)
		}
	}
	return &Catalog{defs: m}, nil
}

// Find returns the definition for name.
func (c *Catalog) Find(name Tier) (Definition, bool) {
	d, ok := c.defs[name]
	return d, ok
}

// List returns all definitions in ascending price order.
func (c *Catalog) List() []Definition {
	out := make([]Definition, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceMonthly < out[j].PriceMonthly })
	return out
}

// Defaults returns the built-in tier table. Deployments can override it
// from configuration.
func Defaults() []Definition {
	return []Definition{
		{Name: Free, MonthlyLimit: 100, RatePerMinute: 5, RatePerDay: 100, Discount: 1.0, PriceMonthly: 0,
			Features: []string{"100 requests/month", "5 requests/minute"}},
		{Name: Developer, MonthlyLimit: 1000, RatePerMinute: 10, RatePerDay: 1000, Discount: 1.0, PriceMonthly: 9,
			Features: []string{"1,000 requests/month", "10 requests/minute", "email support"}},
		{Name: Standard, MonthlyLimit: 10000, RatePerMinute: 30, RatePerDay: 5000, Discount: 0.95, PriceMonthly: 29,
			Features: []string{"10,000 requests/month", "30 requests/minute", "5% volume discount"}},
		{Name: Pro, MonthlyLimit: 50000, RatePerMinute: 60, RatePerDay: 20000, Discount: 0.9, PriceMonthly: 79,
			Features: []string{"50,000 requests/month", "60 requests/minute", "10% volume discount"}},
		{Name: Business, MonthlyLimit: 200000, RatePerMinute: 120, RatePerDay: 0, Discount: 0.8, PriceMonthly: 199,
			Features: []string{"200,000 requests/month", "120 requests/minute", "no daily cap", "20% volume discount"}},
		{Name: Enterprise, MonthlyLimit: 0, RatePerMinute: 300, RatePerDay: 0, Discount: 0.6, PriceMonthly: 499,
			Features: []string{"unlimited requests", "300 requests/minute", "40% volume discount", "priority support"}},
	}
}

// DefaultCatalog returns a catalog built from Defaults. It panics only
// if the built-in table is inconsistent, which is a programming error.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(Defaults())
	if err != nil {
		panic(err)
	}
	return c
}
