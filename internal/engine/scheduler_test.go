package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/talgya/estate-world/internal/config"
	"github.com/talgya/estate-world/internal/economy"
	"github.com/talgya/estate-world/internal/entropy"
	"github.com/talgya/estate-world/internal/notify"
	"github.com/talgya/estate-world/internal/realty"
)

var day0 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type note struct {
	message  string
	severity notify.Severity
}

// recorder captures everything the scheduler dispatches.
type recorder struct {
	notes    []note
	progress map[string][]float64
}

func newRecorder() *recorder {
	return &recorder{progress: make(map[string][]float64)}
}

func (r *recorder) Notify(message string, severity notify.Severity) {
	r.notes = append(r.notes, note{message, severity})
}

func (r *recorder) ReportProgress(id string, value float64) {
	r.progress[id] = append(r.progress[id], value)
}

func (r *recorder) count(severity notify.Severity) int {
	n := 0
	for _, nt := range r.notes {
		if nt.severity == severity {
			n++
		}
	}
	return n
}

func testScheduler(t *testing.T, rng entropy.Source, player *economy.Player, owned []*economy.Property, loans []*economy.Loan) (*Scheduler, *recorder) {
	t.Helper()
	catalog, err := config.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	rec := newRecorder()
	districts := []economy.District{
		{Name: "Downtown", Popularity: 0.9, Growth: 0.02},
		{Name: "Suburbs", Popularity: 0.7, Growth: 0.03},
	}
	return &Scheduler{
		Clock:     NewClock(day0, SpeedNormal),
		Market:    economy.NewMarketModel(economy.DefaultConditions(), districts, rng),
		Occupancy: economy.NewOccupancyEngine(rng),
		Loans:     economy.NewLoanLedger(loans),
		Portfolio: realty.NewPortfolio(catalog, owned, nil, nil, nil),
		Player:    player,
		Notifier:  rec,
		Progress:  rec,
	}, rec
}

// A 65-day jump runs one month; the second missed month is only picked up
// by the next call. Months are never replayed within a single call.
func TestAdvanceRunsAtMostOneCyclePerCall(t *testing.T) {
	s, _ := testScheduler(t, entropy.NewSeeded(1), economy.NewPlayer(0), nil, nil)

	if !s.Advance(65000, 1) {
		t.Fatal("65 days should run a monthly cycle")
	}
	if s.LastBoundary != 30 || len(s.Reports) != 1 {
		t.Fatalf("LastBoundary = %d, reports = %d; want 30 and 1", s.LastBoundary, len(s.Reports))
	}
	if s.Clock.Day() != 65 {
		t.Fatalf("Day = %d, want 65", s.Clock.Day())
	}

	if !s.Advance(1, 1) {
		t.Fatal("next call should pick up the second month")
	}
	if s.LastBoundary != 60 {
		t.Fatalf("LastBoundary = %d, want 60", s.LastBoundary)
	}
	if s.Advance(1, 1) {
		t.Fatal("day 65 must not run a third month")
	}
}

func TestAdvanceBoundaryIsStrict(t *testing.T) {
	s, _ := testScheduler(t, entropy.NewSeeded(1), economy.NewPlayer(0), nil, nil)

	if s.Advance(30000, 1) {
		t.Fatal("day 30 must not fire")
	}
	if !s.Advance(1000, 1) {
		t.Fatal("day 31 should fire")
	}
	if s.Reports[0].Month != 1 {
		t.Fatalf("Month = %d, want 1", s.Reports[0].Month)
	}
}

func TestAdvanceSpeed(t *testing.T) {
	tests := []struct {
		name       string
		speed      float64
		multiplier float64
		elapsed    float64
		wantDays   float64
	}{
		{"paused", SpeedPaused, 1, 10000, 0},
		{"normal", SpeedNormal, 1, 10000, 10},
		{"fast", SpeedFast, 1, 10000, 30},
		{"frame multiplier", SpeedNormal, 2, 10000, 20},
		{"negative elapsed", SpeedNormal, 1, -5000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := testScheduler(t, entropy.NewSeeded(1), economy.NewPlayer(0), nil, nil)
			s.Clock.Speed = tt.speed
			s.Advance(tt.elapsed, tt.multiplier)
			if s.Clock.DaysPassed != tt.wantDays {
				t.Fatalf("DaysPassed = %v, want %v", s.Clock.DaysPassed, tt.wantDays)
			}
		})
	}
}

// A huge delta is capped instead of overflowing the day counter, and the
// clock keeps producing months afterwards.
func TestAdvanceCapsHugeJumps(t *testing.T) {
	s, _ := testScheduler(t, entropy.NewSeeded(1), economy.NewPlayer(0), nil, nil)
	s.Clock.Speed = 1e300

	if !s.Advance(100, 1) {
		t.Fatal("capped jump should still run a month")
	}
	if s.Clock.Day() != maxAdvanceDays {
		t.Fatalf("Day = %d, want %d", s.Clock.Day(), maxAdvanceDays)
	}

	s.Clock.Speed = SpeedNormal
	if !s.Advance(1000, 1) {
		t.Fatal("clock froze after a huge jump")
	}
	if s.LastBoundary != 2*DaysPerMonth {
		t.Fatalf("LastBoundary = %d, want %d", s.LastBoundary, 2*DaysPerMonth)
	}
}

func TestAdvanceCallsOnDayPerWholeDay(t *testing.T) {
	s, _ := testScheduler(t, entropy.NewSeeded(1), economy.NewPlayer(0), nil, nil)
	var days []int
	s.OnDay = func(day int) { days = append(days, day) }

	s.Advance(2500, 1)
	s.Advance(600, 1)

	if len(days) != 3 || days[0] != 1 || days[2] != 3 {
		t.Fatalf("days = %v, want [1 2 3]", days)
	}
}

func TestMonthlyIncomeNetsRentMaintenanceAndPayments(t *testing.T) {
	// Unknown district skips revaluation; condition 100 keeps the tenant.
	prop := &economy.Property{ID: "p", Name: "Flat", District: "Nowhere", Price: 100000,
		MonthlyRent: 1000, MaintenanceCost: 100, Condition: 100, Tenant: &economy.Tenant{Name: "A"}}
	loan := &economy.Loan{ID: "l", Principal: 12000, RemainingAmount: 12000, TermMonths: 12,
		MonthlyPayment: 1000, PlannedEndDate: day0.AddDate(1, 0, 0)}
	player := economy.NewPlayer(5000)

	s, rec := testScheduler(t, entropy.NewSequence(0.5), player, []*economy.Property{prop}, []*economy.Loan{loan})
	if !s.Advance(31000, 1) {
		t.Fatal("monthly cycle did not run")
	}

	if player.MonthlyIncome != -100 {
		t.Fatalf("MonthlyIncome = %v, want -100", player.MonthlyIncome)
	}
	if player.Cash != 4900 {
		t.Fatalf("Cash = %v, want 4900 (payment debited once)", player.Cash)
	}
	if loan.RemainingAmount != 11000 {
		t.Fatalf("RemainingAmount = %v, want 11000", loan.RemainingAmount)
	}

	r := s.Reports[0]
	if r.Rent != 1000 || r.Maintenance != 100 || r.LoanPayments != 1000 || r.NetIncome != -100 {
		t.Fatalf("report = %+v", r)
	}
	last := rec.notes[len(rec.notes)-1]
	if last.message != "Monthly settlement: -100" || last.severity != notify.Warning {
		t.Fatalf("summary notification = %+v", last)
	}
	if got := rec.progress[notify.RentalIncome]; len(got) != 1 || got[0] != -100 {
		t.Fatalf("rental income progress = %v", got)
	}
}

func TestVacantPropertiesEarnNothing(t *testing.T) {
	prop := &economy.Property{ID: "p", District: "Nowhere", Price: 1, MonthlyRent: 1000, MaintenanceCost: 100, Condition: 0}
	player := economy.NewPlayer(0)

	s, rec := testScheduler(t, entropy.NewSequence(0.5), player, []*economy.Property{prop}, nil)
	s.Advance(31000, 1)

	if player.MonthlyIncome != 0 || player.Cash != 0 {
		t.Fatalf("income %v cash %v, want 0 and 0", player.MonthlyIncome, player.Cash)
	}
	if !strings.HasPrefix(rec.notes[len(rec.notes)-1].message, "Monthly settlement: +0") {
		t.Fatalf("summary = %q", rec.notes[len(rec.notes)-1].message)
	}
}

func TestEarlyPayoffReportsLoanMasterOnce(t *testing.T) {
	loan := &economy.Loan{ID: "l", Principal: 500, RemainingAmount: 500, TermMonths: 12,
		MonthlyPayment: 500, PlannedEndDate: day0.AddDate(1, 0, 0)}
	player := economy.NewPlayer(10000)

	s, rec := testScheduler(t, entropy.NewSeeded(3), player, nil, []*economy.Loan{loan})
	for i := 0; i < 3; i++ {
		s.Advance(31000, 1)
	}

	if got := rec.progress[notify.LoanMaster]; len(got) != 1 || got[0] != 1 {
		t.Fatalf("loan_master progress = %v, want exactly one report of 1", got)
	}
	if len(s.Loans.Loans()) != 0 {
		t.Fatal("paid-off loan still active")
	}
}

func TestDelinquencyNotifiesError(t *testing.T) {
	loan := &economy.Loan{ID: "l", Principal: 10000, RemainingAmount: 10000, AnnualInterestRate: 0.12,
		TermMonths: 12, MonthlyPayment: 900, PlannedEndDate: day0.AddDate(1, 0, 0)}
	player := economy.NewPlayer(100)

	s, rec := testScheduler(t, entropy.NewSeeded(3), player, nil, []*economy.Loan{loan})
	s.Advance(31000, 1)

	if rec.count(notify.Error) != 1 {
		t.Fatalf("error notifications = %d, want 1: %+v", rec.count(notify.Error), rec.notes)
	}
	if player.Cash != 100 || player.MonthlyIncome != 0 {
		t.Fatalf("cash %v income %v, want 100 and 0", player.Cash, player.MonthlyIncome)
	}
}

func TestCycleDrawOrder(t *testing.T) {
	// Two districts and two vacant properties: demand, trend, two
	// popularities and the base rate, then one trial per property.
	props := []*economy.Property{
		{ID: "a", District: "Downtown", Price: 1, Condition: 0},
		{ID: "b", District: "Suburbs", Price: 1, Condition: 0},
	}
	seq := entropy.NewSequence(0.5)
	s, _ := testScheduler(t, seq, economy.NewPlayer(0), props, nil)

	s.Advance(31000, 1)
	if seq.Draws() != 7 {
		t.Fatalf("draws = %d, want 7", seq.Draws())
	}
}

func TestConstructionProgressesDaily(t *testing.T) {
	catalog, err := config.DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	player := economy.NewPlayer(500000)
	s, rec := testScheduler(t, entropy.NewSeeded(5), player, nil, nil)
	s.Portfolio = realty.NewPortfolio(catalog, nil, nil,
		[]*realty.Lot{{ID: "lot", Zoning: realty.ZoneResidential, District: "Suburbs"}}, nil)
	if _, err := s.Portfolio.StartConstruction("lot", "shop", player, day0); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 59; i++ {
		s.Advance(1000, 1)
	}
	if len(s.Portfolio.Owned) != 0 {
		t.Fatal("shop finished early")
	}
	s.Advance(1000, 1)
	if len(s.Portfolio.Owned) != 1 {
		t.Fatal("shop not finished after 60 days")
	}

	found := false
	for _, n := range rec.notes {
		if n.message == "Construction finished: Shop" && n.severity == notify.Success {
			found = true
		}
	}
	if !found {
		t.Fatalf("no completion notification in %+v", rec.notes)
	}
}

func TestReportHistoryIsBounded(t *testing.T) {
	s, _ := testScheduler(t, entropy.NewSeeded(9), economy.NewPlayer(0), nil, nil)
	for i := 0; i < maxReports+6; i++ {
		s.Advance(31000, 1)
	}
	if len(s.Reports) != maxReports {
		t.Fatalf("reports = %d, want %d", len(s.Reports), maxReports)
	}
	if s.Reports[len(s.Reports)-1].Month != maxReports+6 {
		t.Fatalf("last month = %d", s.Reports[len(s.Reports)-1].Month)
	}
}
