package economy

import (
	"time"

	"github.com/talgya/estate-world/internal/entropy"
)

// baseLeaveChance is the monthly chance a tenant leaves a fully run-down property.
const baseLeaveChance = 0.02

var (
	tenantNames = []string{"John Smith", "Anna Novak", "Peter White", "Maria Wood", "Liam Carter", "Sofia Reyes"}
	tenantTypes = []string{"Family", "Student", "Couple", "Single", "Company"}
)

// OccupancyEngine grants and revokes tenancy once per monthly boundary.
type OccupancyEngine struct {
	rng entropy.Source
}

// NewOccupancyEngine creates an occupancy engine drawing from rng.
func NewOccupancyEngine(rng entropy.Source) *OccupancyEngine {
	return &OccupancyEngine{rng: rng}
}

// ProcessAll runs exactly one Bernoulli trial per property, in input order,
// and returns the resulting tenancy changes in that same order.
func (o *OccupancyEngine) ProcessAll(properties []*Property, market MarketView, now time.Time) []Event {
	demand := market.Snapshot().DemandLevel
	var events []Event

	for _, p := range properties {
		if !p.IsRented() {
			if !entropy.Chance(o.rng, RentChance(p, demand, market)) {
				continue
			}
			t := o.NewTenant(now)
			p.Occupy(t)
			events = append(events, Event{Kind: EventTenantFound, PropertyID: p.ID, Subject: p.Name})
			continue
		}

		if entropy.Chance(o.rng, LeaveChance(p)) {
			p.Vacate()
			events = append(events, Event{Kind: EventTenantLeft, PropertyID: p.ID, Subject: p.Name})
		}
	}
	return events
}

// RentChance is the probability a vacant property finds a tenant this month.
// Unknown districts count as half-popular.
func RentChance(p *Property, demand float64, market MarketView) float64 {
	popularity := 0.5
	if d, ok := market.District(p.District); ok {
		popularity = d.Popularity
	}
	return demand * popularity * (p.Condition / 100)
}

// LeaveChance is the probability a tenant moves out this month.
func LeaveChance(p *Property) float64 {
	return baseLeaveChance * (1 - p.Condition/100)
}

// NewTenant synthesizes a tenant from the fixed name and type pools.
func (o *OccupancyEngine) NewTenant(moveIn time.Time) *Tenant {
	return &Tenant{
		Name:       entropy.Pick(o.rng, tenantNames),
		Type:       entropy.Pick(o.rng, tenantTypes),
		Rating:     entropy.Uniform(o.rng, 3, 8),
		MoveInDate: moveIn,
	}
}
