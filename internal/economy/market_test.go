package economy

import (
	"math"
	"testing"

	"github.com/talgya/estate-world/internal/entropy"
)

func testDistricts() []District {
	return []District{
		{Name: "Downtown", Popularity: 0.9, Growth: 0.02},
		{Name: "Suburbs", Popularity: 0.7, Growth: 0.03},
		{Name: "Business District", Popularity: 0.8, Growth: 0.015},
		{Name: "Lakeside", Popularity: 0.85, Growth: 0.025},
	}
}

func TestMarketStaysWithinBounds(t *testing.T) {
	m := NewMarketModel(DefaultConditions(), testDistricts(), entropy.NewSeeded(99))

	for month := 0; month < 2000; month++ {
		m.AdvanceOneMonth()
		c := m.Snapshot()
		if c.DemandLevel < MinDemand || c.DemandLevel > MaxDemand {
			t.Fatalf("month %d: demand %v out of bounds", month, c.DemandLevel)
		}
		if c.PriceTrend < MinTrend || c.PriceTrend > MaxTrend {
			t.Fatalf("month %d: trend %v out of bounds", month, c.PriceTrend)
		}
		if c.BaseInterestRate < MinBaseRate || c.BaseInterestRate > MaxBaseRate {
			t.Fatalf("month %d: base rate %v out of bounds", month, c.BaseInterestRate)
		}
		if c.PriceMultiplier <= 0 {
			t.Fatalf("month %d: price multiplier %v not positive", month, c.PriceMultiplier)
		}
		for _, d := range m.Districts() {
			if d.Popularity < MinPopularity || d.Popularity > MaxPopularity {
				t.Fatalf("month %d: %s popularity %v out of bounds", month, d.Name, d.Popularity)
			}
		}
	}
}

func TestMarketClampsAtExtremes(t *testing.T) {
	start := MarketConditions{DemandLevel: 1.0, PriceTrend: 0.02, PriceMultiplier: 1, BaseInterestRate: 0.06}
	districts := []District{{Name: "Downtown", Popularity: 1.0, Growth: 0.02}}
	// Every draw at the top of the range pushes each value upward.
	m := NewMarketModel(start, districts, entropy.NewSequence(0.999))

	m.AdvanceOneMonth()

	c := m.Snapshot()
	if c.DemandLevel != MaxDemand || c.PriceTrend != MaxTrend || c.BaseInterestRate != MaxBaseRate {
		t.Fatalf("conditions = %+v, want all clamped to maxima", c)
	}
	if d, _ := m.District("Downtown"); d.Popularity != MaxPopularity {
		t.Fatalf("popularity = %v, want %v", d.Popularity, MaxPopularity)
	}
}

func TestPriceMultiplierCompoundsTrend(t *testing.T) {
	// A draw of exactly 0.5 is zero noise, so the trend holds at 1%.
	m := NewMarketModel(DefaultConditions(), testDistricts(), entropy.NewSequence(0.5))

	for i := 0; i < 3; i++ {
		m.AdvanceOneMonth()
	}

	want := math.Pow(1.01, 3)
	if got := m.Snapshot().PriceMultiplier; math.Abs(got-want) > 1e-12 {
		t.Fatalf("PriceMultiplier = %v, want %v", got, want)
	}
}

func TestMarketDrawOrderIsStable(t *testing.T) {
	seq := entropy.NewSequence(0.5)
	m := NewMarketModel(DefaultConditions(), testDistricts(), seq)

	m.AdvanceOneMonth()

	// demand + trend + one per district + base rate
	if want := 3 + len(testDistricts()); seq.Draws() != want {
		t.Fatalf("draws = %d, want %d", seq.Draws(), want)
	}
}

func TestDuplicateDistrictsKeepFirst(t *testing.T) {
	m := NewMarketModel(DefaultConditions(), []District{
		{Name: "Downtown", Popularity: 0.9},
		{Name: "Downtown", Popularity: 0.6},
	}, entropy.NewSeeded(1))

	if got := len(m.Districts()); got != 1 {
		t.Fatalf("districts = %d, want 1", got)
	}
	if d, _ := m.District("Downtown"); d.Popularity != 0.9 {
		t.Fatalf("popularity = %v, want 0.9", d.Popularity)
	}
}

func TestSummaryCopiesDistricts(t *testing.T) {
	m := NewMarketModel(DefaultConditions(), testDistricts(), entropy.NewSeeded(1))
	s := m.Summary()
	s.Districts[0].Popularity = 0

	if d, _ := m.District(s.Districts[0].Name); d.Popularity == 0 {
		t.Fatal("mutating the summary changed the model")
	}
	if s.BaseInterestRate != 0.035 || s.DemandLevel != 0.7 {
		t.Fatalf("summary = %+v, want default conditions", s)
	}
}
