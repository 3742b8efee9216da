package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Seed != 42 || cfg.APIPort != 8080 || cfg.Speed != 1 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if !cfg.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("StartDate = %v", cfg.StartDate)
	}
	if cfg.FrameInterval != 100*time.Millisecond {
		t.Fatalf("FrameInterval = %v", cfg.FrameInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ESTATE_SEED", "7")
	t.Setenv("ESTATE_LOG_LEVEL", "DEBUG")
	t.Setenv("ESTATE_SPEED", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Seed != 7 || cfg.Speed != 3 || cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("ESTATE_API_PORT", "not-a-port")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("Load error = %v, want parse env prefix", err)
	}
}

func TestLoadRejectsNegativeSpeed(t *testing.T) {
	t.Setenv("ESTATE_SPEED", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative speed")
	}
}

func TestLoadRejectsExcessiveSpeed(t *testing.T) {
	t.Setenv("ESTATE_SPEED", "1e300")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for speed above MaxSpeed")
	}
	t.Setenv("ESTATE_SPEED", "100")
	if _, err := Load(); err != nil {
		t.Fatalf("Load at MaxSpeed: %v", err)
	}
}

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	if len(c.Districts) != 4 || len(c.PropertyTypes) != 4 || len(c.Buildings) != 4 {
		t.Fatalf("catalog sizes = %d/%d/%d", len(c.Districts), len(c.PropertyTypes), len(c.Buildings))
	}
	office, ok := c.Building("office")
	if !ok || !office.CommercialOnly || office.BuildDays != 240 {
		t.Fatalf("office = %+v", office)
	}
	districts := c.MarketDistricts()
	if districts[0].Name != "Downtown" || districts[0].Popularity != 0.9 || districts[0].Growth != 0.02 {
		t.Fatalf("districts[0] = %+v", districts[0])
	}
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	data := `
[[district]]
name = "Harbor"
popularity = 0.6
growth = 0.01
price_multiplier = 1.2

[[property_type]]
key = "loft"
name = "Loft"
base_price = 90000
base_rent = 1500
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(c.Districts) != 1 || c.Districts[0].Name != "Harbor" {
		t.Fatalf("districts = %+v", c.Districts)
	}
	if _, ok := c.Building("house"); ok {
		t.Fatal("custom catalog without buildings should have none")
	}
}

func TestLoadCatalogValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	data := `
[[district]]
name = "Harbor"
popularity = 1.5
price_multiplier = 1

[[district]]
name = "Harbor"
popularity = 0.7
price_multiplier = 1
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadCatalog(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"popularity", "duplicate", "no property types"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
}
