package economy

import "time"

// Tenant occupies a rented property. Owned by exactly one Property.
type Tenant struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Rating     float64   `json:"rating"` // 3–8
	MoveInDate time.Time `json:"move_in_date"`
}

// Property is a priced, rentable asset in a district.
type Property struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	District        string  `json:"district"`
	Price           float64 `json:"price"`
	MonthlyRent     float64 `json:"monthly_rent"`
	MaintenanceCost float64 `json:"maintenance_cost"`
	Condition       float64 `json:"condition"` // 0–100
	X               float64 `json:"x"`
	Z               float64 `json:"z"`

	// Tenant is nil while vacant; rental state is derived from it so the
	// two can never disagree.
	Tenant *Tenant `json:"tenant,omitempty"`
}

// IsRented reports whether the property currently has a tenant.
func (p *Property) IsRented() bool {
	return p.Tenant != nil
}

// Vacate discards the current tenant.
func (p *Property) Vacate() {
	p.Tenant = nil
}

// Occupy installs a tenant.
func (p *Property) Occupy(t *Tenant) {
	p.Tenant = t
}
