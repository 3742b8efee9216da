// Package engine runs the game: the in-game clock, the monthly cycle
// scheduler, the real-time frame loop, and the Simulation that owns all
// game state and serializes access to it.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/estate-world/internal/city"
	"github.com/talgya/estate-world/internal/config"
	"github.com/talgya/estate-world/internal/economy"
	"github.com/talgya/estate-world/internal/entropy"
	"github.com/talgya/estate-world/internal/notify"
	"github.com/talgya/estate-world/internal/realty"
)

// ErrInvalidSpeed is returned for negative or non-finite game speeds.
var ErrInvalidSpeed = errors.New("invalid speed")

// Setup parameterizes a new game.
type Setup struct {
	Seed         int64
	Catalog      config.Catalog
	Start        time.Time
	Speed        float64
	StartingCash float64
	Listings     int
	Lots         int
	FeedSize     int
}

// WorldState is the complete persisted state of a game.
type WorldState struct {
	Seed         int64                    `json:"seed"`
	Clock        Clock                    `json:"clock"`
	LastBoundary int                      `json:"last_boundary"`
	Market       economy.MarketConditions `json:"market"`
	Districts    []economy.District       `json:"districts"`
	Player       economy.Player           `json:"player"`
	Owned        []*economy.Property      `json:"owned"`
	Listings     []*economy.Property      `json:"listings"`
	Lots         []*realty.Lot            `json:"lots"`
	Projects     []*realty.Project        `json:"projects"`
	Loans        []*economy.Loan          `json:"loans"`
	Achievements []notify.Achievement     `json:"achievements"`
	Reports      []MonthlyReport          `json:"reports"`
}

// Simulation holds the complete game state. All methods are safe for
// concurrent use; the economy components underneath take no locks.
type Simulation struct {
	mu sync.Mutex

	seed         int64
	clock        *Clock
	market       *economy.MarketModel
	loans        *economy.LoanLedger
	portfolio    *realty.Portfolio
	player       *economy.Player
	feed         *notify.Feed
	achievements *notify.Tracker
	scheduler    *Scheduler
}

// NewSimulation starts a fresh game with a generated city.
func NewSimulation(setup Setup) (*Simulation, error) {
	rng := entropy.NewSeeded(setup.Seed)
	occupancy := economy.NewOccupancyEngine(rng)

	gen := city.DefaultGenConfig(setup.Seed)
	gen.Listings = setup.Listings
	gen.Lots = setup.Lots
	c, err := city.Generate(gen, setup.Catalog, rng, occupancy, setup.Start)
	if err != nil {
		return nil, fmt.Errorf("new simulation: %w", err)
	}

	state := WorldState{
		Seed:      setup.Seed,
		Clock:     Clock{Start: setup.Start, Speed: setup.Speed},
		Market:    economy.DefaultConditions(),
		Districts: setup.Catalog.MarketDistricts(),
		Player:    *economy.NewPlayer(setup.StartingCash),
		Listings:  c.Listings,
		Lots:      c.Lots,
	}
	sim := assemble(state, setup.Catalog, notify.NewFeed(setup.FeedSize), rng, occupancy)

	slog.Info("new game",
		"seed", setup.Seed,
		"listings", len(c.Listings),
		"lots", len(c.Lots),
		"cash", setup.StartingCash,
	)
	return sim, nil
}

// Restore rebuilds a game from saved state.
func Restore(state WorldState, catalog config.Catalog, feedSize int) *Simulation {
	rng := entropy.NewSeeded(state.Seed + int64(state.LastBoundary))
	sim := assemble(state, catalog, notify.NewFeed(feedSize), rng, economy.NewOccupancyEngine(rng))
	sim.achievements.Restore(state.Achievements)

	slog.Info("game restored",
		"date", sim.clock.FormatDate(),
		"owned", len(state.Owned),
		"loans", len(state.Loans),
		"cash", state.Player.Cash,
	)
	return sim
}

func assemble(state WorldState, catalog config.Catalog, feed *notify.Feed, rng entropy.Source, occupancy *economy.OccupancyEngine) *Simulation {
	clock := state.Clock
	player := state.Player

	sim := &Simulation{
		seed:      state.Seed,
		clock:     &clock,
		market:    economy.NewMarketModel(state.Market, state.Districts, rng),
		loans:     economy.NewLoanLedger(state.Loans),
		portfolio: realty.NewPortfolio(catalog, state.Owned, state.Listings, state.Lots, state.Projects),
		player:    &player,
		feed:      feed,
	}
	sim.achievements = notify.NewTracker(notify.DefaultAchievements(), sim.player, feed)
	sim.scheduler = &Scheduler{
		Clock:        sim.clock,
		LastBoundary: state.LastBoundary,
		Market:       sim.market,
		Occupancy:    occupancy,
		Loans:        sim.loans,
		Portfolio:    sim.portfolio,
		Player:       sim.player,
		Notifier:     feed,
		Progress:     sim.achievements,
		Reports:      state.Reports,
	}
	return sim
}

// Feed returns the notification feed.
func (s *Simulation) Feed() *notify.Feed {
	return s.feed
}

// OnMonth registers a hook run after every monthly cycle, while the
// simulation lock is held. The hook must not call back into the simulation.
func (s *Simulation) OnMonth(fn func(MonthlyReport)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler.OnMonth = fn
}

// Frame advances the game by one real-time frame.
func (s *Simulation) Frame(elapsed time.Duration) bool {
	return s.Advance(float64(elapsed)/float64(time.Millisecond), 1)
}

// Advance feeds elapsed real time to the scheduler.
func (s *Simulation) Advance(elapsedMillis, speedMultiplier float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler.Advance(elapsedMillis, speedMultiplier)
}

// SetSpeed changes the game speed.
func (s *Simulation) SetSpeed(speed float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.clock.SetSpeed(speed); err != nil {
		return err
	}
	slog.Info("speed changed", "speed", speed)
	return nil
}

// TakeLoan originates a loan at the given annual rate in percent.
func (s *Simulation) TakeLoan(amount, annualRatePercent float64, termMonths int) (economy.LoanSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.loans.Originate(amount, annualRatePercent, termMonths, s.player, s.clock.Date())
	if err != nil {
		if errors.Is(err, economy.ErrCreditDenied) {
			s.feed.Notify("Loan denied: monthly payments would exceed your credit limit", notify.Error)
		}
		return economy.LoanSummary{}, fmt.Errorf("take loan: %w", err)
	}
	s.feed.Notify(fmt.Sprintf("Loan of %s granted at %.1f%% for %d months",
		humanize.Commaf(math.Round(amount)), annualRatePercent, termMonths), notify.Success)
	return loan.Summarize(), nil
}

// Buy purchases a listing.
func (s *Simulation) Buy(listingID string) (economy.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prop, err := s.portfolio.Buy(listingID, s.player)
	if err != nil {
		return economy.Property{}, err
	}
	s.feed.Notify(fmt.Sprintf("Bought %s for %s", prop.Name, humanize.Commaf(prop.Price)), notify.Success)
	s.scheduler.reportHoldings()
	return *prop, nil
}

// Renovate improves an owned property.
func (s *Simulation) Renovate(propertyID string, level realty.RenovationLevel) (economy.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prop, err := s.portfolio.Renovate(propertyID, level, s.player)
	if err != nil {
		return economy.Property{}, err
	}
	s.feed.Notify(fmt.Sprintf("Renovated %s (%s), condition now %.0f", prop.Name, level, prop.Condition), notify.Success)
	return *prop, nil
}

// Sell sells an owned property at its current market value.
func (s *Simulation) Sell(propertyID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := s.portfolio.Sell(propertyID, s.player, s.market)
	if err != nil {
		return 0, err
	}
	s.feed.Notify("Property sold for "+humanize.Commaf(value), notify.Success)
	s.scheduler.reportHoldings()
	return value, nil
}

// Build starts construction of a building on a lot.
func (s *Simulation) Build(lotID, buildingKey string) (realty.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proj, err := s.portfolio.StartConstruction(lotID, buildingKey, s.player, s.clock.Date())
	if err != nil {
		return realty.Project{}, err
	}
	s.feed.Notify(fmt.Sprintf("Construction started: %s, %d days", proj.BuildingType, proj.TotalDays), notify.Info)
	return *proj, nil
}

// Status is the headline view of the game.
type Status struct {
	Date      string                   `json:"date"`
	Day       int                      `json:"day"`
	Month     int                      `json:"month"`
	Speed     float64                  `json:"speed"`
	Portfolio economy.PortfolioSummary `json:"portfolio"`
	Listings  int                      `json:"listings"`
	Lots      int                      `json:"lots"`
	Projects  int                      `json:"projects"`
}

// Status summarizes the current game.
func (s *Simulation) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Date:      s.clock.FormatDate(),
		Day:       s.clock.Day(),
		Month:     s.scheduler.LastBoundary / DaysPerMonth,
		Speed:     s.clock.Speed,
		Portfolio: economy.SummarizePortfolio(s.player, s.portfolio.Owned, s.loans, s.market),
		Listings:  len(s.portfolio.Listings),
		Lots:      len(s.portfolio.Lots),
		Projects:  len(s.portfolio.Projects),
	}
}

// Market returns the market overview.
func (s *Simulation) Market() economy.MarketSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.Summary()
}

// Owned returns copies of the player's properties.
func (s *Simulation) Owned() []economy.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyProperties(s.portfolio.Owned)
}

// Listings returns copies of the properties for sale.
func (s *Simulation) Listings() []economy.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyProperties(s.portfolio.Listings)
}

// Lots returns copies of the empty lots.
func (s *Simulation) Lots() []realty.Lot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]realty.Lot, 0, len(s.portfolio.Lots))
	for _, l := range s.portfolio.Lots {
		out = append(out, *l)
	}
	return out
}

// Loans returns rounded views of the active loans.
func (s *Simulation) Loans() []economy.LoanSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]economy.LoanSummary, 0, len(s.loans.Loans()))
	for _, l := range s.loans.Loans() {
		out = append(out, l.Summarize())
	}
	return out
}

// Achievements returns the achievement list.
func (s *Simulation) Achievements() []notify.Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.achievements.List()
}

// Reports returns the recent monthly reports, oldest first.
func (s *Simulation) Reports() []MonthlyReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MonthlyReport(nil), s.scheduler.Reports...)
}

// State captures a deep copy of the game for persistence.
func (s *Simulation) State() WorldState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WorldState{
		Seed:         s.seed,
		Clock:        *s.clock,
		LastBoundary: s.scheduler.LastBoundary,
		Market:       s.market.Snapshot(),
		Districts:    s.market.Districts(),
		Player:       *s.player,
		Owned:        cloneProperties(s.portfolio.Owned),
		Listings:     cloneProperties(s.portfolio.Listings),
		Lots:         cloneAll(s.portfolio.Lots),
		Projects:     cloneAll(s.portfolio.Projects),
		Loans:        cloneLoans(s.loans.Loans()),
		Achievements: s.achievements.List(),
		Reports:      append([]MonthlyReport(nil), s.scheduler.Reports...),
	}
}

func copyProperties(props []*economy.Property) []economy.Property {
	out := make([]economy.Property, 0, len(props))
	for _, p := range props {
		out = append(out, *p)
	}
	return out
}

func cloneProperties(props []*economy.Property) []*economy.Property {
	out := make([]*economy.Property, 0, len(props))
	for _, p := range props {
		c := *p
		if p.Tenant != nil {
			t := *p.Tenant
			c.Tenant = &t
		}
		out = append(out, &c)
	}
	return out
}

func cloneLoans(loans []*economy.Loan) []*economy.Loan {
	out := make([]*economy.Loan, 0, len(loans))
	for _, l := range loans {
		c := *l
		if l.ActualEndDate != nil {
			end := *l.ActualEndDate
			c.ActualEndDate = &end
		}
		out = append(out, &c)
	}
	return out
}

func cloneAll[T any](items []*T) []*T {
	out := make([]*T, 0, len(items))
	for _, it := range items {
		c := *it
		out = append(out, &c)
	}
	return out
}
