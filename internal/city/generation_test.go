package city

import (
	"testing"
	"time"

	"github.com/talgya/estate-world/internal/config"
	"github.com/talgya/estate-world/internal/economy"
	"github.com/talgya/estate-world/internal/entropy"
	"github.com/talgya/estate-world/internal/realty"
)

var day0 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func generate(t *testing.T, seed int64) *City {
	t.Helper()
	catalog, err := config.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	rng := entropy.NewSeeded(seed)
	c, err := Generate(DefaultGenConfig(seed), catalog, rng, economy.NewOccupancyEngine(rng), day0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return c
}

func TestGenerateCounts(t *testing.T) {
	c := generate(t, 42)
	if len(c.Listings) != 20 || len(c.Lots) != 15 {
		t.Fatalf("listings %d lots %d, want 20 and 15", len(c.Listings), len(c.Lots))
	}
}

func TestGenerateListingsInRange(t *testing.T) {
	c := generate(t, 7)
	for _, p := range c.Listings {
		if p.Condition < 0 || p.Condition > 100 {
			t.Errorf("%s condition %v out of range", p.Name, p.Condition)
		}
		if p.Price <= 0 || p.MonthlyRent <= 0 || p.MaintenanceCost <= 0 {
			t.Errorf("%s has non-positive money fields: %+v", p.Name, p)
		}
		if p.X < -40 || p.X >= 40 || p.Z < -40 || p.Z >= 40 {
			t.Errorf("%s placed outside the map at (%v,%v)", p.Name, p.X, p.Z)
		}
		if p.IsRented() && p.Tenant.Name == "" {
			t.Errorf("%s rented by an unnamed tenant", p.Name)
		}
	}
}

func TestGenerateLotsInRange(t *testing.T) {
	c := generate(t, 7)
	for _, l := range c.Lots {
		if l.Size < 200 || l.Size > 700 {
			t.Errorf("%s size %v", l.ID, l.Size)
		}
		if l.PricePerSqm < 100 || l.PricePerSqm > 300 {
			t.Errorf("%s price per m² %v", l.ID, l.PricePerSqm)
		}
		if l.Zoning != realty.ZoneResidential && l.Zoning != realty.ZoneCommercial {
			t.Errorf("%s zoning %q", l.ID, l.Zoning)
		}
		if l.District == "" {
			t.Errorf("%s has no district", l.ID)
		}
	}
}

func TestGenerateIsReproducible(t *testing.T) {
	a, b := generate(t, 99), generate(t, 99)
	for i := range a.Listings {
		pa, pb := a.Listings[i], b.Listings[i]
		if pa.Name != pb.Name || pa.Price != pb.Price || pa.Condition != pb.Condition || pa.IsRented() != pb.IsRented() {
			t.Fatalf("listing %d differs: %+v vs %+v", i, pa, pb)
		}
	}
	for i := range a.Lots {
		if *a.Lots[i] != *b.Lots[i] {
			t.Fatalf("lot %d differs: %+v vs %+v", i, a.Lots[i], b.Lots[i])
		}
	}
}

func TestGenerateRequiresCatalog(t *testing.T) {
	rng := entropy.NewSeeded(1)
	if _, err := Generate(DefaultGenConfig(1), config.Catalog{}, rng, economy.NewOccupancyEngine(rng), day0); err == nil {
		t.Fatal("Generate with empty catalog should fail")
	}
}

func TestConditionMultiplier(t *testing.T) {
	tests := []struct {
		condition, want float64
	}{
		{95, 1.2}, {80, 1.0}, {51, 1.0}, {50, 0.8}, {0, 0.8},
	}
	for _, tt := range tests {
		if got := conditionMultiplier(tt.condition); got != tt.want {
			t.Errorf("conditionMultiplier(%v) = %v, want %v", tt.condition, got, tt.want)
		}
	}
}
