package economy

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Credit check: total monthly obligations may not exceed 40% of monthly
// income, with a floor so a first loan is possible before any income exists.
const (
	incomeShareLimit  = 0.4
	minPaymentAllowed = 1000
)

// Bounds on what a loan request may ask for.
const (
	MaxAnnualRatePercent = 100
	MaxTermMonths        = 600
)

// Loan is a fixed-rate amortizing loan. Amounts are kept unrounded.
type Loan struct {
	ID                 string     `json:"id"`
	Principal          float64    `json:"principal"`
	RemainingAmount    float64    `json:"remaining_amount"`
	AnnualInterestRate float64    `json:"annual_interest_rate"` // fraction, 0.06 = 6%
	TermMonths         int        `json:"term_months"`
	MonthlyPayment     float64    `json:"monthly_payment"` // fixed at origination
	StartDate          time.Time  `json:"start_date"`
	PlannedEndDate     time.Time  `json:"planned_end_date"`
	ActualEndDate      *time.Time `json:"actual_end_date,omitempty"`
	PaymentsMade       int        `json:"payments_made"`
	TotalInterestPaid  float64    `json:"total_interest_paid"`
}

// PaidOff reports whether the balance has reached zero.
func (l *Loan) PaidOff() bool {
	return l.RemainingAmount == 0
}

// AnnuityPayment is the fixed monthly payment that amortizes principal over
// termMonths at annualRatePercent. Only an exactly zero rate uses the linear
// formula; tiny positive rates go through the annuity division.
func AnnuityPayment(principal, annualRatePercent float64, termMonths int) float64 {
	r := annualRatePercent / 100 / 12
	n := float64(termMonths)
	if r == 0 {
		return principal / n
	}
	// (1+r)^n - 1 computed as expm1(n*log1p(r)) keeps precision for small r.
	growth := math.Expm1(n * math.Log1p(r))
	if math.IsInf(growth, 1) {
		// The payment tends to pure interest as (1+r)^n grows without bound.
		return principal * r
	}
	return principal * r * (growth + 1) / growth
}

// AffordabilityLimit is the largest total monthly loan obligation allowed
// for the given monthly income.
func AffordabilityLimit(monthlyIncome float64) float64 {
	return math.Max(minPaymentAllowed, monthlyIncome*incomeShareLimit)
}

// LoanLedger owns all outstanding loans.
type LoanLedger struct {
	loans []*Loan
}

// NewLoanLedger creates a ledger over existing loans (nil for none).
func NewLoanLedger(loans []*Loan) *LoanLedger {
	return &LoanLedger{loans: loans}
}

// Loans returns the active loans in origination order.
func (l *LoanLedger) Loans() []*Loan {
	return l.loans
}

// MonthlyObligations sums the fixed payments of all active loans.
func (l *LoanLedger) MonthlyObligations() float64 {
	total := 0.0
	for _, loan := range l.loans {
		total += loan.MonthlyPayment
	}
	return total
}

// Outstanding sums the remaining balances of all active loans.
func (l *LoanLedger) Outstanding() float64 {
	total := 0.0
	for _, loan := range l.loans {
		total += loan.RemainingAmount
	}
	return total
}

// Originate runs the credit check and, on success, records the loan and
// disburses principal into the player's cash. Nothing is mutated on failure.
func (l *LoanLedger) Originate(principal, annualRatePercent float64, termMonths int, player *Player, now time.Time) (*Loan, error) {
	if !(principal > 0) || math.IsInf(principal, 0) ||
		termMonths <= 0 || termMonths > MaxTermMonths ||
		!(annualRatePercent >= 0 && annualRatePercent <= MaxAnnualRatePercent) {
		return nil, fmt.Errorf("%w: amount %v, rate %v%%, term %d months", ErrInvalidLoan, principal, annualRatePercent, termMonths)
	}

	payment := AnnuityPayment(principal, annualRatePercent, termMonths)
	if math.IsNaN(payment) || math.IsInf(payment, 0) {
		return nil, fmt.Errorf("%w: payment %v for amount %v", ErrInvalidLoan, payment, principal)
	}
	limit := AffordabilityLimit(player.MonthlyIncome)
	// Written so a NaN total is denied too.
	if !(l.MonthlyObligations()+payment <= limit) {
		return nil, fmt.Errorf("%w: obligations %.2f + %.2f exceed %.2f",
			ErrCreditDenied, l.MonthlyObligations(), payment, limit)
	}

	loan := &Loan{
		ID:                 uuid.NewString(),
		Principal:          principal,
		RemainingAmount:    principal,
		AnnualInterestRate: annualRatePercent / 100,
		TermMonths:         termMonths,
		MonthlyPayment:     payment,
		StartDate:          now,
		PlannedEndDate:     now.AddDate(0, termMonths, 0),
	}
	l.loans = append(l.loans, loan)
	player.Credit(principal, "loan proceeds")
	return loan, nil
}

// ServiceResult is the outcome of one monthly servicing pass.
type ServiceResult struct {
	PaymentsMade float64 // total debited from cash
	Events       []Event
}

// ServiceAll charges each active loan's installment against the player's
// cash. A loan that cannot be paid capitalizes its interest and stays
// active. Loans that reach zero are removed after the pass.
func (l *LoanLedger) ServiceAll(player *Player, now time.Time) ServiceResult {
	var res ServiceResult

	for _, loan := range l.loans {
		if loan.PaidOff() {
			continue
		}
		interest := loan.RemainingAmount * (loan.AnnualInterestRate / 12)

		if !player.Spend(loan.MonthlyPayment, "loan installment") {
			loan.RemainingAmount += interest
			res.Events = append(res.Events, Event{Kind: EventLoanDelinquent, LoanID: loan.ID, Amount: interest})
			continue
		}

		res.PaymentsMade += loan.MonthlyPayment
		loan.PaymentsMade++
		loan.TotalInterestPaid += interest
		loan.RemainingAmount -= loan.MonthlyPayment - interest

		if loan.RemainingAmount <= 0 {
			loan.RemainingAmount = 0
			end := now
			loan.ActualEndDate = &end
			res.Events = append(res.Events, Event{Kind: EventLoanPaidOff, LoanID: loan.ID, Amount: loan.Principal})
			if end.Before(loan.PlannedEndDate) {
				res.Events = append(res.Events, Event{Kind: EventLoanEarlyPayoff, LoanID: loan.ID})
			}
		}
	}

	l.removePaid()
	return res
}

func (l *LoanLedger) removePaid() {
	active := l.loans[:0]
	for _, loan := range l.loans {
		if !loan.PaidOff() {
			active = append(active, loan)
		}
	}
	for i := len(active); i < len(l.loans); i++ {
		l.loans[i] = nil
	}
	l.loans = active
}
