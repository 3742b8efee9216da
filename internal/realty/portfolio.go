// Package realty manages the player's property portfolio: market listings,
// owned properties, building lots and construction projects.
package realty

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/estate-world/internal/config"
	"github.com/talgya/estate-world/internal/economy"
)

// Zoning restricts what may be built on a lot.
type Zoning string

const (
	ZoneResidential Zoning = "residential"
	ZoneCommercial  Zoning = "commercial"
)

// Lot is an empty plot available for construction.
type Lot struct {
	ID           string  `json:"id"`
	Size         float64 `json:"size"` // m²
	PricePerSqm  float64 `json:"price_per_sqm"`
	TotalPrice   float64 `json:"total_price"`
	X            float64 `json:"x"`
	Z            float64 `json:"z"`
	Zoning       Zoning  `json:"zoning"`
	HasUtilities bool    `json:"has_utilities"`
	District     string  `json:"district"`
}

// Project is a building under construction.
type Project struct {
	ID           string    `json:"id"`
	LotID        string    `json:"lot_id"`
	BuildingType string    `json:"building_type"`
	District     string    `json:"district"`
	Progress     float64   `json:"progress"` // days worked
	TotalDays    int       `json:"total_days"`
	X            float64   `json:"x"`
	Z            float64   `json:"z"`
	StartedAt    time.Time `json:"started_at"`
}

// Renovation levels.
type RenovationLevel string

const (
	RenovateBasic  RenovationLevel = "basic"
	RenovateMedium RenovationLevel = "medium"
	RenovateFull   RenovationLevel = "full"
)

type renovation struct {
	costShare   float64 // of current price
	improvement float64 // condition points
	rentFactor  float64
}

var renovations = map[RenovationLevel]renovation{
	RenovateBasic:  {costShare: 0.1, improvement: 20, rentFactor: 1.1},
	RenovateMedium: {costShare: 0.2, improvement: 40, rentFactor: 1.2},
	RenovateFull:   {costShare: 0.3, improvement: 70, rentFactor: 1.3},
}

// Portfolio holds every property-related collection, indexed by ID.
type Portfolio struct {
	Owned    []*economy.Property `json:"owned"`
	Listings []*economy.Property `json:"listings"`
	Lots     []*Lot              `json:"lots"`
	Projects []*Project          `json:"projects"`

	catalog config.Catalog
}

// NewPortfolio creates a portfolio with the given starting collections.
func NewPortfolio(catalog config.Catalog, owned, listings []*economy.Property, lots []*Lot, projects []*Project) *Portfolio {
	return &Portfolio{
		Owned:    owned,
		Listings: listings,
		Lots:     lots,
		Projects: projects,
		catalog:  catalog,
	}
}

// Property finds an owned property by ID.
func (p *Portfolio) Property(id string) (*economy.Property, bool) {
	i := indexOf(p.Owned, id)
	if i < 0 {
		return nil, false
	}
	return p.Owned[i], true
}

// Buy purchases a listing at its asking price.
func (p *Portfolio) Buy(listingID string, player *economy.Player) (*economy.Property, error) {
	i := indexOf(p.Listings, listingID)
	if i < 0 {
		return nil, fmt.Errorf("buy %s: %w", listingID, economy.ErrUnknownProperty)
	}
	prop := p.Listings[i]
	if !player.Spend(prop.Price, "purchase: "+prop.Name) {
		return nil, fmt.Errorf("buy %s for %.0f: %w", prop.Name, prop.Price, economy.ErrInsufficientFunds)
	}

	p.Listings = append(p.Listings[:i], p.Listings[i+1:]...)
	p.Owned = append(p.Owned, prop)
	return prop, nil
}

// Renovate improves an owned property's condition and rent.
func (p *Portfolio) Renovate(propertyID string, level RenovationLevel, player *economy.Player) (*economy.Property, error) {
	prop, ok := p.Property(propertyID)
	if !ok {
		return nil, fmt.Errorf("renovate %s: %w", propertyID, economy.ErrUnknownProperty)
	}
	r, ok := renovations[level]
	if !ok {
		return nil, fmt.Errorf("renovate %s level %q: %w", propertyID, level, economy.ErrInvalidRenovation)
	}
	cost := prop.Price * r.costShare
	if !player.Spend(cost, "renovation: "+prop.Name) {
		return nil, fmt.Errorf("renovate %s for %.0f: %w", prop.Name, cost, economy.ErrInsufficientFunds)
	}

	prop.Condition = math.Min(100, prop.Condition+r.improvement)
	prop.MonthlyRent = math.Round(prop.MonthlyRent * r.rentFactor)
	return prop, nil
}

// Sell disposes of an owned property at its current market value.
func (p *Portfolio) Sell(propertyID string, player *economy.Player, market economy.MarketView) (float64, error) {
	i := indexOf(p.Owned, propertyID)
	if i < 0 {
		return 0, fmt.Errorf("sell %s: %w", propertyID, economy.ErrUnknownProperty)
	}
	prop := p.Owned[i]
	value := economy.CurrentMarketValue(prop, market)

	p.Owned = append(p.Owned[:i], p.Owned[i+1:]...)
	player.Credit(value, "sale: "+prop.Name)
	return value, nil
}

// StartConstruction pays for a building and starts a project on a lot.
func (p *Portfolio) StartConstruction(lotID, buildingKey string, player *economy.Player, now time.Time) (*Project, error) {
	li := -1
	for i, l := range p.Lots {
		if l.ID == lotID {
			li = i
			break
		}
	}
	if li < 0 {
		return nil, fmt.Errorf("build on %s: %w", lotID, economy.ErrUnknownLot)
	}
	lot := p.Lots[li]

	spec, ok := p.catalog.Building(buildingKey)
	if !ok {
		return nil, fmt.Errorf("build %q: %w", buildingKey, economy.ErrInvalidBuilding)
	}
	if spec.CommercialOnly && lot.Zoning == ZoneResidential {
		return nil, fmt.Errorf("build %s on %s lot: %w", spec.Name, lot.Zoning, economy.ErrZoning)
	}
	if !player.Spend(spec.Cost, "construction: "+spec.Name) {
		return nil, fmt.Errorf("build %s for %.0f: %w", spec.Name, spec.Cost, economy.ErrInsufficientFunds)
	}

	proj := &Project{
		ID:           uuid.NewString(),
		LotID:        lot.ID,
		BuildingType: spec.Key,
		District:     lot.District,
		TotalDays:    spec.BuildDays,
		X:            lot.X,
		Z:            lot.Z,
		StartedAt:    now,
	}
	p.Projects = append(p.Projects, proj)
	p.Lots = append(p.Lots[:li], p.Lots[li+1:]...)
	return proj, nil
}

// AdvanceConstruction adds days of work to every project and turns finished
// ones into owned, vacant properties in pristine condition.
func (p *Portfolio) AdvanceConstruction(days float64) []economy.Event {
	var events []economy.Event
	active := p.Projects[:0]

	for _, proj := range p.Projects {
		proj.Progress += days
		if proj.Progress < float64(proj.TotalDays) {
			active = append(active, proj)
			continue
		}

		spec, ok := p.catalog.Building(proj.BuildingType)
		if !ok {
			// Held at completion until a catalog that knows the type is loaded.
			slog.Warn("finished project has unknown building type", "project_id", proj.ID, "type", proj.BuildingType)
			proj.Progress = float64(proj.TotalDays)
			active = append(active, proj)
			continue
		}
		prop := &economy.Property{
			ID:              uuid.NewString(),
			Name:            spec.Name,
			Type:            spec.Key,
			District:        proj.District,
			Price:           spec.Cost,
			MonthlyRent:     spec.BaseRent,
			MaintenanceCost: spec.Maintenance,
			Condition:       100,
			X:               proj.X,
			Z:               proj.Z,
		}
		p.Owned = append(p.Owned, prop)
		events = append(events, economy.Event{Kind: economy.EventConstructionDone, PropertyID: prop.ID, Subject: prop.Name})
	}

	for i := len(active); i < len(p.Projects); i++ {
		p.Projects[i] = nil
	}
	p.Projects = active
	return events
}

// MonthlyRentAndMaintenance totals rent and upkeep over rented owned
// properties. Vacant properties cost nothing to run.
func (p *Portfolio) MonthlyRentAndMaintenance() (rent, maintenance float64) {
	for _, prop := range p.Owned {
		if prop.IsRented() {
			rent += prop.MonthlyRent
			maintenance += prop.MaintenanceCost
		}
	}
	return rent, maintenance
}

func indexOf(props []*economy.Property, id string) int {
	for i, prop := range props {
		if prop.ID == id {
			return i
		}
	}
	return -1
}
