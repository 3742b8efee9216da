package economy

// EventKind classifies something a monthly sub-step wants reported.
type EventKind string

const (
	EventTenantFound      EventKind = "tenant_found"
	EventTenantLeft       EventKind = "tenant_left"
	EventLoanPaidOff      EventKind = "loan_paid_off"
	EventLoanEarlyPayoff  EventKind = "loan_early_payoff"
	EventLoanDelinquent   EventKind = "loan_delinquent"
	EventConstructionDone EventKind = "construction_done"
)

// Event is returned by the economy components instead of calling sinks
// directly; the scheduler decides how each one is surfaced.
type Event struct {
	Kind       EventKind `json:"kind"`
	PropertyID string    `json:"property_id,omitempty"`
	LoanID     string    `json:"loan_id,omitempty"`
	Subject    string    `json:"subject,omitempty"` // property or tenant name
	Amount     float64   `json:"amount,omitempty"`
}
