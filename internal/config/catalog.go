package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/talgya/estate-world/internal/economy"
)

//go:embed default_catalog.toml
var defaultCatalog []byte

// Catalog is the static world configuration: districts, the property types
// listings are generated from, and the buildings that can be constructed.
type Catalog struct {
	Districts     []DistrictSpec     `toml:"district"`
	PropertyTypes []PropertyTypeSpec `toml:"property_type"`
	Buildings     []BuildingSpec     `toml:"building"`
}

// DistrictSpec configures one district.
type DistrictSpec struct {
	Name            string  `toml:"name"`
	Popularity      float64 `toml:"popularity"`
	Growth          float64 `toml:"growth"`
	PriceMultiplier float64 `toml:"price_multiplier"` // listing price factor
}

// PropertyTypeSpec configures a kind of pre-built property on the market.
type PropertyTypeSpec struct {
	Key       string  `toml:"key"`
	Name      string  `toml:"name"`
	BasePrice float64 `toml:"base_price"`
	BaseRent  float64 `toml:"base_rent"`
}

// BuildingSpec configures a constructible building.
type BuildingSpec struct {
	Key            string  `toml:"key"`
	Name           string  `toml:"name"`
	Cost           float64 `toml:"cost"`
	BuildDays      int     `toml:"build_days"`
	Maintenance    float64 `toml:"maintenance"`
	BaseRent       float64 `toml:"base_rent"`
	CommercialOnly bool    `toml:"commercial_only"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (Catalog, error) {
	return decodeCatalog(bytes.NewReader(defaultCatalog))
}

// LoadCatalog reads a catalog file, or the built-in one when path is empty.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return decodeCatalog(f)
}

func decodeCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	if err := toml.NewDecoder(r).Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("validate catalog: %w", err)
	}
	return c, nil
}

// Validate checks that names are unique and values are in range.
func (c Catalog) Validate() error {
	var errs []error
	if len(c.Districts) == 0 {
		errs = append(errs, errors.New("no districts"))
	}
	seen := make(map[string]bool)
	for _, d := range c.Districts {
		if d.Name == "" || seen[d.Name] {
			errs = append(errs, fmt.Errorf("district %q: empty or duplicate name", d.Name))
		}
		seen[d.Name] = true
		if d.Popularity < economy.MinPopularity || d.Popularity > economy.MaxPopularity {
			errs = append(errs, fmt.Errorf("district %q: popularity %v outside [%v,%v]",
				d.Name, d.Popularity, economy.MinPopularity, economy.MaxPopularity))
		}
		if d.PriceMultiplier <= 0 {
			errs = append(errs, fmt.Errorf("district %q: price_multiplier must be positive", d.Name))
		}
	}
	if len(c.PropertyTypes) == 0 {
		errs = append(errs, errors.New("no property types"))
	}
	for _, p := range c.PropertyTypes {
		if p.Key == "" || p.BasePrice <= 0 || p.BaseRent < 0 {
			errs = append(errs, fmt.Errorf("property type %q: needs key, positive price, non-negative rent", p.Key))
		}
	}
	keys := make(map[string]bool)
	for _, b := range c.Buildings {
		if b.Key == "" || keys[b.Key] {
			errs = append(errs, fmt.Errorf("building %q: empty or duplicate key", b.Key))
		}
		keys[b.Key] = true
		if b.Cost <= 0 || b.BuildDays <= 0 {
			errs = append(errs, fmt.Errorf("building %q: cost and build_days must be positive", b.Key))
		}
	}
	return errors.Join(errs...)
}

// MarketDistricts converts the district specs into market districts.
func (c Catalog) MarketDistricts() []economy.District {
	out := make([]economy.District, 0, len(c.Districts))
	for _, d := range c.Districts {
		out = append(out, economy.District{Name: d.Name, Popularity: d.Popularity, Growth: d.Growth})
	}
	return out
}

// Building looks up a building spec by key.
func (c Catalog) Building(key string) (BuildingSpec, bool) {
	for _, b := range c.Buildings {
		if b.Key == key {
			return b, true
		}
	}
	return BuildingSpec{}, false
}
