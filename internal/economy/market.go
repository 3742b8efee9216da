// Package economy provides the market, valuation, occupancy and loan systems
// that the monthly cycle runs in order.
package economy

import (
	"github.com/talgya/estate-world/internal/entropy"
)

// Market bounds and monthly noise amplitudes.
const (
	MinDemand       = 0.3
	MaxDemand       = 1.0
	MinTrend        = -0.02
	MaxTrend        = 0.02
	MinBaseRate     = 0.02
	MaxBaseRate     = 0.06
	MinPopularity   = 0.5
	MaxPopularity   = 1.0
	demandNoise     = 0.05
	trendNoise      = 0.0025
	popularityNoise = 0.025
	baseRateNoise   = 0.0005
)

// MarketConditions is the process-wide property market state.
type MarketConditions struct {
	DemandLevel      float64 `json:"demand_level"`       // 0.3–1.0, drives rental chance
	PriceTrend       float64 `json:"price_trend"`        // monthly fractional change
	PriceMultiplier  float64 `json:"price_multiplier"`   // cumulative product of (1+trend)
	BaseInterestRate float64 `json:"base_interest_rate"` // 0.02–0.06
}

// DefaultConditions returns the opening market of a new game.
func DefaultConditions() MarketConditions {
	return MarketConditions{
		DemandLevel:      0.7,
		PriceTrend:       0.01,
		PriceMultiplier:  1.0,
		BaseInterestRate: 0.035,
	}
}

// District is a named market segment.
type District struct {
	Name       string  `json:"name"`
	Popularity float64 `json:"popularity"` // 0.5–1.0
	Growth     float64 `json:"growth"`     // fixed monthly appreciation
}

// MarketView is the read access valuation and occupancy need.
type MarketView interface {
	Snapshot() MarketConditions
	District(name string) (District, bool)
}

// MarketModel owns the market conditions and districts and evolves them once
// per monthly boundary.
type MarketModel struct {
	conditions MarketConditions
	districts  map[string]*District
	order      []string // configuration order, keeps noise draws reproducible
	rng        entropy.Source
}

// NewMarketModel creates a market with the given starting conditions and districts.
func NewMarketModel(conditions MarketConditions, districts []District, rng entropy.Source) *MarketModel {
	m := &MarketModel{
		conditions: conditions,
		districts:  make(map[string]*District, len(districts)),
		rng:        rng,
	}
	for _, d := range districts {
		d := d
		if _, dup := m.districts[d.Name]; dup {
			continue
		}
		m.districts[d.Name] = &d
		m.order = append(m.order, d.Name)
	}
	return m
}

// AdvanceOneMonth perturbs demand, trend, district popularity and the base
// interest rate, clamping each to its bounds.
func (m *MarketModel) AdvanceOneMonth() {
	c := &m.conditions

	c.DemandLevel = clamp(c.DemandLevel+entropy.Jitter(m.rng, demandNoise), MinDemand, MaxDemand)
	c.PriceTrend = clamp(c.PriceTrend+entropy.Jitter(m.rng, trendNoise), MinTrend, MaxTrend)
	c.PriceMultiplier *= 1 + c.PriceTrend

	for _, name := range m.order {
		d := m.districts[name]
		d.Popularity = clamp(d.Popularity+entropy.Jitter(m.rng, popularityNoise), MinPopularity, MaxPopularity)
	}

	c.BaseInterestRate = clamp(c.BaseInterestRate+entropy.Jitter(m.rng, baseRateNoise), MinBaseRate, MaxBaseRate)
}

// Snapshot returns a copy of the current conditions.
func (m *MarketModel) Snapshot() MarketConditions {
	return m.conditions
}

// District looks up a district by name.
func (m *MarketModel) District(name string) (District, bool) {
	d, ok := m.districts[name]
	if !ok {
		return District{}, false
	}
	return *d, true
}

// Districts returns copies of all districts in configuration order.
func (m *MarketModel) Districts() []District {
	out := make([]District, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, *m.districts[name])
	}
	return out
}

// MarketSummary is the read-only overview shown to the player.
type MarketSummary struct {
	DemandLevel      float64    `json:"demand_level"`
	MarketTrend      float64    `json:"market_trend"`
	PriceMultiplier  float64    `json:"price_multiplier"`
	BaseInterestRate float64    `json:"base_interest_rate"`
	Districts        []District `json:"districts"`
}

// Summary returns the market overview.
func (m *MarketModel) Summary() MarketSummary {
	return MarketSummary{
		DemandLevel:      m.conditions.DemandLevel,
		MarketTrend:      m.conditions.PriceTrend,
		PriceMultiplier:  m.conditions.PriceMultiplier,
		BaseInterestRate: m.conditions.BaseInterestRate,
		Districts:        m.Districts(),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
