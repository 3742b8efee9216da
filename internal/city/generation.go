// Package city generates the opening real-estate market: listings for sale
// and empty lots, placed on a square map around the city centre.
//
// Property condition and lot utilities follow smooth simplex noise fields so
// neighbouring plots look alike; type, district and position come from the
// run's random source.
package city

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/estate-world/internal/config"
	"github.com/talgya/estate-world/internal/economy"
	"github.com/talgya/estate-world/internal/entropy"
	"github.com/talgya/estate-world/internal/realty"
)

// GenConfig holds city generation parameters.
type GenConfig struct {
	Seed        int64
	Listings    int
	Lots        int
	ListingSpan float64 // side of the square listings are placed in
	LotSpan     float64
}

// DefaultGenConfig returns the standard opening city.
func DefaultGenConfig(seed int64) GenConfig {
	return GenConfig{
		Seed:        seed,
		Listings:    20,
		Lots:        15,
		ListingSpan: 80,
		LotSpan:     90,
	}
}

const (
	rentedShare      = 0.3 // draws above this start with a tenant
	commercialCutoff = 0.7
	utilitiesCutoff  = 0.3
	maintenanceShare = 0.1 // of base rent
)

// City is the generated opening market.
type City struct {
	Listings []*economy.Property
	Lots     []*realty.Lot
}

// Generate builds listings and lots from the catalog. Listings that start
// rented get a tenant from tenants so rental state is never set without one.
func Generate(cfg GenConfig, catalog config.Catalog, rng entropy.Source, tenants *economy.OccupancyEngine, now time.Time) (*City, error) {
	if len(catalog.Districts) == 0 || len(catalog.PropertyTypes) == 0 {
		return nil, fmt.Errorf("generate city: catalog needs districts and property types")
	}

	conditionNoise := opensimplex.NewNormalized(cfg.Seed)
	utilityNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	c := &City{}
	for i := 0; i < cfg.Listings; i++ {
		pt := entropy.Pick(rng, catalog.PropertyTypes)
		d := entropy.Pick(rng, catalog.Districts)
		x := entropy.Jitter(rng, cfg.ListingSpan/2)
		z := entropy.Jitter(rng, cfg.ListingSpan/2)

		condition := octaveNoise(conditionNoise, x, z, 3, 0.05, 0.5) * 100
		factor := d.PriceMultiplier * conditionMultiplier(condition)

		p := &economy.Property{
			ID:              uuid.NewString(),
			Name:            pt.Name + " - " + d.Name,
			Type:            pt.Key,
			District:        d.Name,
			Price:           math.Round(pt.BasePrice * factor),
			MonthlyRent:     math.Round(pt.BaseRent * factor),
			MaintenanceCost: math.Round(pt.BaseRent * maintenanceShare),
			Condition:       math.Round(condition),
			X:               x,
			Z:               z,
		}
		if rng.Float64() > rentedShare {
			p.Occupy(tenants.NewTenant(now))
		}
		c.Listings = append(c.Listings, p)
	}

	for i := 0; i < cfg.Lots; i++ {
		size := entropy.Uniform(rng, 200, 700)
		perSqm := entropy.Uniform(rng, 100, 300)
		x := entropy.Jitter(rng, cfg.LotSpan/2)
		z := entropy.Jitter(rng, cfg.LotSpan/2)

		zoning := realty.ZoneResidential
		if rng.Float64() > commercialCutoff {
			zoning = realty.ZoneCommercial
		}

		c.Lots = append(c.Lots, &realty.Lot{
			ID:           fmt.Sprintf("lot_%d", i),
			Size:         math.Round(size),
			PricePerSqm:  math.Round(perSqm),
			TotalPrice:   math.Round(size * perSqm),
			X:            x,
			Z:            z,
			Zoning:       zoning,
			HasUtilities: octaveNoise(utilityNoise, x, z, 2, 0.08, 0.5) > utilitiesCutoff,
			District:     entropy.Pick(rng, catalog.Districts).Name,
		})
	}
	return c, nil
}

func conditionMultiplier(condition float64) float64 {
	switch {
	case condition > 80:
		return 1.2
	case condition > 50:
		return 1.0
	default:
		return 0.8
	}
}

// octaveNoise sums octaves of normalized simplex noise; the result stays in [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
