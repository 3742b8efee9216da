package economy

import "log/slog"

// Player is the money ledger the engine services loans against and reports
// monthly income into.
type Player struct {
	Cash          float64 `json:"cash"`
	MonthlyIncome float64 `json:"monthly_income"` // last computed net monthly cash flow

	TotalEarned float64 `json:"total_earned"`
	TotalSpent  float64 `json:"total_spent"`
}

// NewPlayer creates a ledger with starting cash.
func NewPlayer(cash float64) *Player {
	return &Player{Cash: cash}
}

// CanAfford reports whether cash covers amount.
func (p *Player) CanAfford(amount float64) bool {
	return p.Cash >= amount
}

// Spend debits amount if affordable. Returns false without mutating otherwise.
func (p *Player) Spend(amount float64, memo string) bool {
	if !p.CanAfford(amount) {
		return false
	}
	p.Cash -= amount
	p.TotalSpent += amount
	slog.Debug("player spent", "amount", amount, "memo", memo, "cash", p.Cash)
	return true
}

// Credit adds amount to cash.
func (p *Player) Credit(amount float64, memo string) {
	p.Cash += amount
	if amount > 0 {
		p.TotalEarned += amount
	}
	slog.Debug("player credited", "amount", amount, "memo", memo, "cash", p.Cash)
}
