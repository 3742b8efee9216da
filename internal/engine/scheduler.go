package engine

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/estate-world/internal/economy"
	"github.com/talgya/estate-world/internal/notify"
	"github.com/talgya/estate-world/internal/realty"
)

// DaysPerMonth is the length of an in-game month.
const DaysPerMonth = 30

// maxReports bounds the monthly report history.
const maxReports = 24

// maxAdvanceDays caps how far one Advance call can move the clock, which
// also bounds the per-day work done under the simulation lock.
const maxAdvanceDays = 10 * 365

// MonthlyReport records the outcome of one monthly cycle.
type MonthlyReport struct {
	Month        int       `json:"month"` // 1-based cycle number
	Date         time.Time `json:"date"`
	Rent         float64   `json:"rent"`
	Maintenance  float64   `json:"maintenance"`
	LoanPayments float64   `json:"loan_payments"`
	NetIncome    float64   `json:"net_income"`
	Cash         float64   `json:"cash"`
	Demand       float64   `json:"demand"`
	Events       int       `json:"events"`
}

// Scheduler turns elapsed real time into day and month boundaries and runs
// the monthly cycle: market, valuation, occupancy, then loans.
type Scheduler struct {
	Clock        *Clock
	LastBoundary int // day index of the last monthly cycle

	Market    *economy.MarketModel
	Occupancy *economy.OccupancyEngine
	Loans     *economy.LoanLedger
	Portfolio *realty.Portfolio
	Player    *economy.Player

	Notifier notify.Notifier
	Progress notify.ProgressReporter

	Reports []MonthlyReport

	// Optional hooks, called after the day or month has been processed.
	OnDay   func(day int)
	OnMonth func(report MonthlyReport)
}

// Advance accumulates elapsedMillis of real time scaled by speedMultiplier and
// the clock speed. It runs construction once per whole day crossed and at most
// one monthly cycle per call; months skipped by a long jump are not replayed.
// A single call moves the clock by at most maxAdvanceDays.
// Reports whether a monthly cycle ran.
func (s *Scheduler) Advance(elapsedMillis, speedMultiplier float64) bool {
	delta := elapsedMillis / 1000 * speedMultiplier * s.Clock.Speed
	if !(delta > 0) {
		return false
	}
	delta = math.Min(delta, maxAdvanceDays)

	before := s.Clock.Day()
	s.Clock.DaysPassed += delta
	after := s.Clock.Day()
	for day := before + 1; day <= after; day++ {
		s.dayPassed(day)
	}

	if after <= s.LastBoundary+DaysPerMonth {
		return false
	}
	s.LastBoundary += DaysPerMonth
	s.runMonth()
	return true
}

func (s *Scheduler) dayPassed(day int) {
	if s.Portfolio != nil {
		s.dispatch(s.Portfolio.AdvanceConstruction(1))
	}
	if s.OnDay != nil {
		s.OnDay(day)
	}
}

func (s *Scheduler) runMonth() {
	now := s.Clock.Date()
	owned := s.Portfolio.Owned

	s.Market.AdvanceOneMonth()
	economy.RevalueAll(owned, s.Market)
	events := s.Occupancy.ProcessAll(owned, s.Market, now)
	service := s.Loans.ServiceAll(s.Player, now)
	events = append(events, service.Events...)

	// Installments were already debited while servicing, so only rent and
	// upkeep move cash here.
	rent, maintenance := s.Portfolio.MonthlyRentAndMaintenance()
	net := rent - maintenance - service.PaymentsMade
	s.Player.MonthlyIncome = net
	s.Player.Credit(rent-maintenance, "monthly rent")

	s.dispatch(events)

	report := MonthlyReport{
		Month:        s.LastBoundary / DaysPerMonth,
		Date:         now,
		Rent:         rent,
		Maintenance:  maintenance,
		LoanPayments: service.PaymentsMade,
		NetIncome:    net,
		Cash:         s.Player.Cash,
		Demand:       s.Market.Snapshot().DemandLevel,
		Events:       len(events),
	}
	s.Reports = append(s.Reports, report)
	if len(s.Reports) > maxReports {
		s.Reports = append([]MonthlyReport(nil), s.Reports[len(s.Reports)-maxReports:]...)
	}

	severity := notify.Success
	sign := "+"
	if net < 0 {
		severity = notify.Warning
		sign = ""
	}
	s.notify(fmt.Sprintf("Monthly settlement: %s%s", sign, humanize.Commaf(math.Round(net))), severity)

	s.reportProgress(notify.RentalIncome, net)
	s.reportProgress(notify.TimeSurvivor, float64(report.Month))
	s.reportHoldings()

	slog.Info("monthly report",
		"month", report.Month,
		"date", s.Clock.FormatDate(),
		"rent", rent,
		"maintenance", maintenance,
		"loan_payments", service.PaymentsMade,
		"net", net,
		"cash", s.Player.Cash,
		"owned", len(owned),
		"active_loans", len(s.Loans.Loans()),
	)

	if s.OnMonth != nil {
		s.OnMonth(report)
	}
}

// reportHoldings pushes portfolio-size and cash progress to the achievement sink.
func (s *Scheduler) reportHoldings() {
	owned := float64(len(s.Portfolio.Owned))
	first := 0.0
	if owned > 0 {
		first = 1
	}
	s.reportProgress(notify.FirstProperty, first)
	s.reportProgress(notify.PropertyMogul, owned)
	s.reportProgress(notify.PropertyEmpire, owned)
	s.reportProgress(notify.Millionaire, s.Player.Cash)
}

// dispatch is the only place component events reach the sinks.
func (s *Scheduler) dispatch(events []economy.Event) {
	for _, e := range events {
		switch e.Kind {
		case economy.EventTenantFound:
			s.notify("New tenant moved into "+e.Subject, notify.Success)
		case economy.EventTenantLeft:
			s.notify("Tenant moved out of "+e.Subject, notify.Warning)
		case economy.EventLoanPaidOff:
			s.notify(fmt.Sprintf("Loan of %s paid off", humanize.Commaf(math.Round(e.Amount))), notify.Success)
		case economy.EventLoanEarlyPayoff:
			s.reportProgress(notify.LoanMaster, 1)
		case economy.EventLoanDelinquent:
			slog.Warn("loan delinquent", "loan_id", e.LoanID, "capitalized", e.Amount)
			s.notify(fmt.Sprintf("Missed loan payment: %s interest added to the balance",
				humanize.CommafWithDigits(e.Amount, 2)), notify.Error)
		case economy.EventConstructionDone:
			s.notify("Construction finished: "+e.Subject, notify.Success)
		}
	}
}

func (s *Scheduler) notify(message string, severity notify.Severity) {
	if s.Notifier != nil {
		s.Notifier.Notify(message, severity)
	}
}

func (s *Scheduler) reportProgress(id string, value float64) {
	if s.Progress != nil {
		s.Progress.ReportProgress(id, value)
	}
}
