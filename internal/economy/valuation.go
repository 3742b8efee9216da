package economy

import "math"

// RevalueAll applies the monthly price and rent change to every property:
// market trend plus district growth plus a condition effect centred on 50.
// Properties in unknown districts are left unchanged.
func RevalueAll(properties []*Property, market MarketView) {
	trend := market.Snapshot().PriceTrend
	for _, p := range properties {
		d, ok := market.District(p.District)
		if !ok {
			continue
		}
		change := 1 + trend + d.Growth + conditionEffect(p.Condition)
		p.Price = math.Round(p.Price * change)
		p.MonthlyRent = math.Round(p.MonthlyRent * change)
	}
}

// CurrentMarketValue is the sale/net-worth valuation of a property. It does
// not touch the stored price.
func CurrentMarketValue(p *Property, market MarketView) float64 {
	d, ok := market.District(p.District)
	if !ok {
		return p.Price
	}
	multiplier := market.Snapshot().PriceMultiplier
	return math.Round(p.Price * d.Popularity * (p.Condition / 100) * multiplier)
}

func conditionEffect(condition float64) float64 {
	return (condition - 50) / 1000
}
