package economy

import (
	"time"

	"github.com/shopspring/decimal"
)

// Surfaced amounts are rounded to cents; stored amounts never are.
const displayPlaces = 2

func display(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(displayPlaces)
}

// LoanSummary is the rounded, player-facing view of a loan.
type LoanSummary struct {
	ID             string          `json:"id"`
	Principal      decimal.Decimal `json:"principal"`
	Remaining      decimal.Decimal `json:"remaining"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	InterestRate   decimal.Decimal `json:"interest_rate_percent"`
	TermMonths     int             `json:"term_months"`
	PaymentsMade   int             `json:"payments_made"`
	StartDate      time.Time       `json:"start_date"`
	PlannedEndDate time.Time       `json:"planned_end_date"`
}

// Summarize builds the rounded view of a loan.
func (l *Loan) Summarize() LoanSummary {
	return LoanSummary{
		ID:             l.ID,
		Principal:      display(l.Principal),
		Remaining:      display(l.RemainingAmount),
		MonthlyPayment: display(l.MonthlyPayment),
		InterestRate:   display(l.AnnualInterestRate * 100),
		TermMonths:     l.TermMonths,
		PaymentsMade:   l.PaymentsMade,
		StartDate:      l.StartDate,
		PlannedEndDate: l.PlannedEndDate,
	}
}

// PortfolioSummary aggregates the player's position for status displays.
type PortfolioSummary struct {
	Cash           decimal.Decimal `json:"cash"`
	MonthlyIncome  decimal.Decimal `json:"monthly_income"`
	PropertyValue  decimal.Decimal `json:"property_value"`
	LoanBalance    decimal.Decimal `json:"loan_balance"`
	NetWorth       decimal.Decimal `json:"net_worth"`
	Properties     int             `json:"properties"`
	RentedCount    int             `json:"rented"`
	MonthlyRent    decimal.Decimal `json:"monthly_rent"`
	LoanObligation decimal.Decimal `json:"loan_obligation"`
}

// SummarizePortfolio values owned properties at current market value and
// nets out outstanding loan balances.
func SummarizePortfolio(player *Player, owned []*Property, loans *LoanLedger, market MarketView) PortfolioSummary {
	value := 0.0
	rent := 0.0
	rented := 0
	for _, p := range owned {
		value += CurrentMarketValue(p, market)
		if p.IsRented() {
			rented++
			rent += p.MonthlyRent
		}
	}
	balance := loans.Outstanding()

	return PortfolioSummary{
		Cash:           display(player.Cash),
		MonthlyIncome:  display(player.MonthlyIncome),
		PropertyValue:  display(value),
		LoanBalance:    display(balance),
		NetWorth:       display(player.Cash + value - balance),
		Properties:     len(owned),
		RentedCount:    rented,
		MonthlyRent:    display(rent),
		LoanObligation: display(loans.MonthlyObligations()),
	}
}
