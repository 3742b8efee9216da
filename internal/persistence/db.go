// Package persistence provides SQLite-based game state storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/estate-world/internal/economy"
	"github.com/talgya/estate-world/internal/engine"
	"github.com/talgya/estate-world/internal/notify"
	"github.com/talgya/estate-world/internal/realty"
)

// ErrNoSave is returned by LoadWorldState when the database holds no game.
var ErrNoSave = errors.New("no saved game")

// Property collections share one table.
const (
	collectionOwned   = "owned"
	collectionListing = "listing"
)

// DB wraps a SQLite connection for game state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		collection TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		district TEXT NOT NULL,
		price REAL NOT NULL,
		monthly_rent REAL NOT NULL,
		maintenance_cost REAL NOT NULL,
		condition_score REAL NOT NULL,
		x REAL NOT NULL,
		z REAL NOT NULL,
		tenant_name TEXT,
		tenant_type TEXT,
		tenant_rating REAL,
		tenant_move_in TEXT
	);

	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		principal REAL NOT NULL,
		remaining_amount REAL NOT NULL,
		annual_interest_rate REAL NOT NULL,
		term_months INTEGER NOT NULL,
		monthly_payment REAL NOT NULL,
		start_date TEXT NOT NULL,
		planned_end_date TEXT NOT NULL,
		actual_end_date TEXT,
		payments_made INTEGER NOT NULL,
		total_interest_paid REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lots (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		size REAL NOT NULL,
		price_per_sqm REAL NOT NULL,
		total_price REAL NOT NULL,
		x REAL NOT NULL,
		z REAL NOT NULL,
		zoning TEXT NOT NULL,
		has_utilities INTEGER NOT NULL,
		district TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		lot_id TEXT NOT NULL,
		building_type TEXT NOT NULL,
		district TEXT NOT NULL,
		progress REAL NOT NULL,
		total_days INTEGER NOT NULL,
		x REAL NOT NULL,
		z REAL NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS districts (
		name TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		popularity REAL NOT NULL,
		growth REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS achievements (
		id TEXT PRIMARY KEY,
		progress REAL NOT NULL,
		unlocked INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS monthly_reports (
		month INTEGER PRIMARY KEY,
		date TEXT NOT NULL,
		rent REAL NOT NULL,
		maintenance REAL NOT NULL,
		loan_payments REAL NOT NULL,
		net_income REAL NOT NULL,
		cash REAL NOT NULL,
		demand REAL NOT NULL,
		events INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	return saveMeta(db.conn, key, value)
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

func saveMeta(e sqlx.Execer, key, value string) error {
	_, err := e.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", key, value)
	return err
}

func saveMetaJSON(e sqlx.Execer, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return saveMeta(e, key, string(data))
}

func (db *DB) getMetaJSON(key string, v any) error {
	value, err := db.GetMeta(key)
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// HasSave reports whether a game has been saved.
func (db *DB) HasSave() (bool, error) {
	_, err := db.GetMeta("seed")
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveWorldState performs a full replace of the saved game in one transaction.
func (db *DB) SaveWorldState(state engine.WorldState) error {
	slog.Info("saving world state",
		"owned", len(state.Owned),
		"listings", len(state.Listings),
		"loans", len(state.Loans),
		"day", state.Clock.Day(),
	)

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveProperties(tx, state.Owned, state.Listings); err != nil {
		return fmt.Errorf("save properties: %w", err)
	}
	if err := saveLoans(tx, state.Loans); err != nil {
		return fmt.Errorf("save loans: %w", err)
	}
	if err := saveLots(tx, state.Lots); err != nil {
		return fmt.Errorf("save lots: %w", err)
	}
	if err := saveProjects(tx, state.Projects); err != nil {
		return fmt.Errorf("save projects: %w", err)
	}
	if err := saveDistricts(tx, state.Districts); err != nil {
		return fmt.Errorf("save districts: %w", err)
	}
	if err := saveAchievements(tx, state.Achievements); err != nil {
		return fmt.Errorf("save achievements: %w", err)
	}
	if err := saveReports(tx, state.Reports); err != nil {
		return fmt.Errorf("save reports: %w", err)
	}

	if err := saveMeta(tx, "seed", strconv.FormatInt(state.Seed, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := saveMeta(tx, "last_boundary", strconv.Itoa(state.LastBoundary)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	for key, v := range map[string]any{"clock": state.Clock, "market": state.Market, "player": state.Player} {
		if err := saveMetaJSON(tx, key, v); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
	}
	if err := saveMeta(tx, "saved_at", formatTime(time.Now())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("world state saved")
	return nil
}

// LoadWorldState reads the saved game. Returns ErrNoSave if there is none.
func (db *DB) LoadWorldState() (engine.WorldState, error) {
	var state engine.WorldState

	ok, err := db.HasSave()
	if err != nil {
		return state, fmt.Errorf("load world: %w", err)
	}
	if !ok {
		return state, ErrNoSave
	}

	seed, err := db.GetMeta("seed")
	if err != nil {
		return state, fmt.Errorf("load seed: %w", err)
	}
	if state.Seed, err = strconv.ParseInt(seed, 10, 64); err != nil {
		return state, fmt.Errorf("parse seed: %w", err)
	}
	boundary, err := db.GetMeta("last_boundary")
	if err != nil {
		return state, fmt.Errorf("load last boundary: %w", err)
	}
	if state.LastBoundary, err = strconv.Atoi(boundary); err != nil {
		return state, fmt.Errorf("parse last boundary: %w", err)
	}
	if err := db.getMetaJSON("clock", &state.Clock); err != nil {
		return state, err
	}
	if err := db.getMetaJSON("market", &state.Market); err != nil {
		return state, err
	}
	if err := db.getMetaJSON("player", &state.Player); err != nil {
		return state, err
	}

	if state.Owned, err = db.loadProperties(collectionOwned); err != nil {
		return state, fmt.Errorf("load owned: %w", err)
	}
	if state.Listings, err = db.loadProperties(collectionListing); err != nil {
		return state, fmt.Errorf("load listings: %w", err)
	}
	if state.Loans, err = db.loadLoans(); err != nil {
		return state, fmt.Errorf("load loans: %w", err)
	}
	if state.Lots, err = db.loadLots(); err != nil {
		return state, fmt.Errorf("load lots: %w", err)
	}
	if state.Projects, err = db.loadProjects(); err != nil {
		return state, fmt.Errorf("load projects: %w", err)
	}
	if state.Districts, err = db.loadDistricts(); err != nil {
		return state, fmt.Errorf("load districts: %w", err)
	}
	if state.Achievements, err = db.loadAchievements(); err != nil {
		return state, fmt.Errorf("load achievements: %w", err)
	}
	if state.Reports, err = db.loadReports(); err != nil {
		return state, fmt.Errorf("load reports: %w", err)
	}
	return state, nil
}

// Times are stored as RFC 3339 text in UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

type propertyRow struct {
	ID              string          `db:"id"`
	Collection      string          `db:"collection"`
	Position        int             `db:"position"`
	Name            string          `db:"name"`
	Type            string          `db:"type"`
	District        string          `db:"district"`
	Price           float64         `db:"price"`
	MonthlyRent     float64         `db:"monthly_rent"`
	MaintenanceCost float64         `db:"maintenance_cost"`
	Condition       float64         `db:"condition_score"`
	X               float64         `db:"x"`
	Z               float64         `db:"z"`
	TenantName      sql.NullString  `db:"tenant_name"`
	TenantType      sql.NullString  `db:"tenant_type"`
	TenantRating    sql.NullFloat64 `db:"tenant_rating"`
	TenantMoveIn    sql.NullString  `db:"tenant_move_in"`
}

func saveProperties(tx *sqlx.Tx, owned, listings []*economy.Property) error {
	if _, err := tx.Exec("DELETE FROM properties"); err != nil {
		return err
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO properties
		(id, collection, position, name, type, district, price, monthly_rent,
		 maintenance_cost, condition_score, x, z,
		 tenant_name, tenant_type, tenant_rating, tenant_move_in)
		VALUES (:id, :collection, :position, :name, :type, :district, :price, :monthly_rent,
		 :maintenance_cost, :condition_score, :x, :z,
		 :tenant_name, :tenant_type, :tenant_rating, :tenant_move_in)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for collection, props := range map[string][]*economy.Property{collectionOwned: owned, collectionListing: listings} {
		for i, p := range props {
			row := propertyRow{
				ID: p.ID, Collection: collection, Position: i,
				Name: p.Name, Type: p.Type, District: p.District,
				Price: p.Price, MonthlyRent: p.MonthlyRent, MaintenanceCost: p.MaintenanceCost,
				Condition: p.Condition, X: p.X, Z: p.Z,
			}
			if t := p.Tenant; t != nil {
				row.TenantName = sql.NullString{String: t.Name, Valid: true}
				row.TenantType = sql.NullString{String: t.Type, Valid: true}
				row.TenantRating = sql.NullFloat64{Float64: t.Rating, Valid: true}
				row.TenantMoveIn = sql.NullString{String: formatTime(t.MoveInDate), Valid: true}
			}
			if _, err := stmt.Exec(row); err != nil {
				return fmt.Errorf("insert property %s: %w", p.ID, err)
			}
		}
	}
	return nil
}

func (db *DB) loadProperties(collection string) ([]*economy.Property, error) {
	var rows []propertyRow
	if err := db.conn.Select(&rows,
		"SELECT * FROM properties WHERE collection = ? ORDER BY position", collection); err != nil {
		return nil, err
	}

	out := make([]*economy.Property, 0, len(rows))
	for _, r := range rows {
		p := &economy.Property{
			ID: r.ID, Name: r.Name, Type: r.Type, District: r.District,
			Price: r.Price, MonthlyRent: r.MonthlyRent, MaintenanceCost: r.MaintenanceCost,
			Condition: r.Condition, X: r.X, Z: r.Z,
		}
		if r.TenantName.Valid {
			moveIn, err := parseTime(r.TenantMoveIn.String)
			if err != nil {
				return nil, fmt.Errorf("property %s tenant move-in: %w", r.ID, err)
			}
			p.Occupy(&economy.Tenant{
				Name:       r.TenantName.String,
				Type:       r.TenantType.String,
				Rating:     r.TenantRating.Float64,
				MoveInDate: moveIn,
			})
		}
		out = append(out, p)
	}
	return out, nil
}

type loanRow struct {
	ID                 string         `db:"id"`
	Position           int            `db:"position"`
	Principal          float64        `db:"principal"`
	RemainingAmount    float64        `db:"remaining_amount"`
	AnnualInterestRate float64        `db:"annual_interest_rate"`
	TermMonths         int            `db:"term_months"`
	MonthlyPayment     float64        `db:"monthly_payment"`
	StartDate          string         `db:"start_date"`
	PlannedEndDate     string         `db:"planned_end_date"`
	ActualEndDate      sql.NullString `db:"actual_end_date"`
	PaymentsMade       int            `db:"payments_made"`
	TotalInterestPaid  float64        `db:"total_interest_paid"`
}

func saveLoans(tx *sqlx.Tx, loans []*economy.Loan) error {
	if _, err := tx.Exec("DELETE FROM loans"); err != nil {
		return err
	}
	for i, l := range loans {
		row := loanRow{
			ID: l.ID, Position: i,
			Principal: l.Principal, RemainingAmount: l.RemainingAmount,
			AnnualInterestRate: l.AnnualInterestRate, TermMonths: l.TermMonths,
			MonthlyPayment: l.MonthlyPayment,
			StartDate:      formatTime(l.StartDate),
			PlannedEndDate: formatTime(l.PlannedEndDate),
			PaymentsMade:   l.PaymentsMade, TotalInterestPaid: l.TotalInterestPaid,
		}
		if l.ActualEndDate != nil {
			row.ActualEndDate = sql.NullString{String: formatTime(*l.ActualEndDate), Valid: true}
		}
		_, err := tx.NamedExec(`INSERT INTO loans
			(id, position, principal, remaining_amount, annual_interest_rate, term_months,
			 monthly_payment, start_date, planned_end_date, actual_end_date,
			 payments_made, total_interest_paid)
			VALUES (:id, :position, :principal, :remaining_amount, :annual_interest_rate, :term_months,
			 :monthly_payment, :start_date, :planned_end_date, :actual_end_date,
			 :payments_made, :total_interest_paid)`, row)
		if err != nil {
			return fmt.Errorf("insert loan %s: %w", l.ID, err)
		}
	}
	return nil
}

func (db *DB) loadLoans() ([]*economy.Loan, error) {
	var rows []loanRow
	if err := db.conn.Select(&rows, "SELECT * FROM loans ORDER BY position"); err != nil {
		return nil, err
	}

	out := make([]*economy.Loan, 0, len(rows))
	for _, r := range rows {
		start, err := parseTime(r.StartDate)
		if err != nil {
			return nil, fmt.Errorf("loan %s start: %w", r.ID, err)
		}
		planned, err := parseTime(r.PlannedEndDate)
		if err != nil {
			return nil, fmt.Errorf("loan %s planned end: %w", r.ID, err)
		}
		l := &economy.Loan{
			ID: r.ID, Principal: r.Principal, RemainingAmount: r.RemainingAmount,
			AnnualInterestRate: r.AnnualInterestRate, TermMonths: r.TermMonths,
			MonthlyPayment: r.MonthlyPayment, StartDate: start, PlannedEndDate: planned,
			PaymentsMade: r.PaymentsMade, TotalInterestPaid: r.TotalInterestPaid,
		}
		if r.ActualEndDate.Valid {
			end, err := parseTime(r.ActualEndDate.String)
			if err != nil {
				return nil, fmt.Errorf("loan %s actual end: %w", r.ID, err)
			}
			l.ActualEndDate = &end
		}
		out = append(out, l)
	}
	return out, nil
}

type lotRow struct {
	ID           string  `db:"id"`
	Position     int     `db:"position"`
	Size         float64 `db:"size"`
	PricePerSqm  float64 `db:"price_per_sqm"`
	TotalPrice   float64 `db:"total_price"`
	X            float64 `db:"x"`
	Z            float64 `db:"z"`
	Zoning       string  `db:"zoning"`
	HasUtilities bool    `db:"has_utilities"`
	District     string  `db:"district"`
}

func saveLots(tx *sqlx.Tx, lots []*realty.Lot) error {
	if _, err := tx.Exec("DELETE FROM lots"); err != nil {
		return err
	}
	for i, l := range lots {
		_, err := tx.Exec(`INSERT INTO lots
			(id, position, size, price_per_sqm, total_price, x, z, zoning, has_utilities, district)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, i, l.Size, l.PricePerSqm, l.TotalPrice, l.X, l.Z, string(l.Zoning), l.HasUtilities, l.District,
		)
		if err != nil {
			return fmt.Errorf("insert lot %s: %w", l.ID, err)
		}
	}
	return nil
}

func (db *DB) loadLots() ([]*realty.Lot, error) {
	var rows []lotRow
	if err := db.conn.Select(&rows, "SELECT * FROM lots ORDER BY position"); err != nil {
		return nil, err
	}
	out := make([]*realty.Lot, 0, len(rows))
	for _, r := range rows {
		out = append(out, &realty.Lot{
			ID: r.ID, Size: r.Size, PricePerSqm: r.PricePerSqm, TotalPrice: r.TotalPrice,
			X: r.X, Z: r.Z, Zoning: realty.Zoning(r.Zoning), HasUtilities: r.HasUtilities, District: r.District,
		})
	}
	return out, nil
}

type projectRow struct {
	ID           string  `db:"id"`
	Position     int     `db:"position"`
	LotID        string  `db:"lot_id"`
	BuildingType string  `db:"building_type"`
	District     string  `db:"district"`
	Progress     float64 `db:"progress"`
	TotalDays    int     `db:"total_days"`
	X            float64 `db:"x"`
	Z            float64 `db:"z"`
	StartedAt    string  `db:"started_at"`
}

func saveProjects(tx *sqlx.Tx, projects []*realty.Project) error {
	if _, err := tx.Exec("DELETE FROM projects"); err != nil {
		return err
	}
	for i, p := range projects {
		_, err := tx.Exec(`INSERT INTO projects
			(id, position, lot_id, building_type, district, progress, total_days, x, z, started_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i, p.LotID, p.BuildingType, p.District, p.Progress, p.TotalDays, p.X, p.Z, formatTime(p.StartedAt),
		)
		if err != nil {
			return fmt.Errorf("insert project %s: %w", p.ID, err)
		}
	}
	return nil
}

func (db *DB) loadProjects() ([]*realty.Project, error) {
	var rows []projectRow
	if err := db.conn.Select(&rows, "SELECT * FROM projects ORDER BY position"); err != nil {
		return nil, err
	}
	out := make([]*realty.Project, 0, len(rows))
	for _, r := range rows {
		started, err := parseTime(r.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("project %s start: %w", r.ID, err)
		}
		out = append(out, &realty.Project{
			ID: r.ID, LotID: r.LotID, BuildingType: r.BuildingType, District: r.District,
			Progress: r.Progress, TotalDays: r.TotalDays, X: r.X, Z: r.Z, StartedAt: started,
		})
	}
	return out, nil
}

func saveDistricts(tx *sqlx.Tx, districts []economy.District) error {
	if _, err := tx.Exec("DELETE FROM districts"); err != nil {
		return err
	}
	for i, d := range districts {
		if _, err := tx.Exec("INSERT INTO districts (name, position, popularity, growth) VALUES (?, ?, ?, ?)",
			d.Name, i, d.Popularity, d.Growth); err != nil {
			return fmt.Errorf("insert district %s: %w", d.Name, err)
		}
	}
	return nil
}

func (db *DB) loadDistricts() ([]economy.District, error) {
	var out []economy.District
	err := db.conn.Select(&out, "SELECT name, popularity, growth FROM districts ORDER BY position")
	return out, err
}

func saveAchievements(tx *sqlx.Tx, achievements []notify.Achievement) error {
	if _, err := tx.Exec("DELETE FROM achievements"); err != nil {
		return err
	}
	for _, a := range achievements {
		if _, err := tx.Exec("INSERT INTO achievements (id, progress, unlocked) VALUES (?, ?, ?)",
			a.ID, a.Progress, a.Unlocked); err != nil {
			return fmt.Errorf("insert achievement %s: %w", a.ID, err)
		}
	}
	return nil
}

// loadAchievements returns saved progress only; names and rewards come from
// the catalog the tracker is built with.
func (db *DB) loadAchievements() ([]notify.Achievement, error) {
	var out []notify.Achievement
	err := db.conn.Select(&out, "SELECT id, progress, unlocked FROM achievements ORDER BY id")
	return out, err
}

type reportRow struct {
	Month        int     `db:"month"`
	Date         string  `db:"date"`
	Rent         float64 `db:"rent"`
	Maintenance  float64 `db:"maintenance"`
	LoanPayments float64 `db:"loan_payments"`
	NetIncome    float64 `db:"net_income"`
	Cash         float64 `db:"cash"`
	Demand       float64 `db:"demand"`
	Events       int     `db:"events"`
}

func saveReports(tx *sqlx.Tx, reports []engine.MonthlyReport) error {
	if _, err := tx.Exec("DELETE FROM monthly_reports"); err != nil {
		return err
	}
	for _, r := range reports {
		_, err := tx.NamedExec(`INSERT INTO monthly_reports
			(month, date, rent, maintenance, loan_payments, net_income, cash, demand, events)
			VALUES (:month, :date, :rent, :maintenance, :loan_payments, :net_income, :cash, :demand, :events)`,
			reportRow{
				Month: r.Month, Date: formatTime(r.Date), Rent: r.Rent, Maintenance: r.Maintenance,
				LoanPayments: r.LoanPayments, NetIncome: r.NetIncome, Cash: r.Cash,
				Demand: r.Demand, Events: r.Events,
			})
		if err != nil {
			return fmt.Errorf("insert report %d: %w", r.Month, err)
		}
	}
	return nil
}

func (db *DB) loadReports() ([]engine.MonthlyReport, error) {
	var rows []reportRow
	if err := db.conn.Select(&rows, "SELECT * FROM monthly_reports ORDER BY month"); err != nil {
		return nil, err
	}
	var out []engine.MonthlyReport
	for _, r := range rows {
		date, err := parseTime(r.Date)
		if err != nil {
			return nil, fmt.Errorf("report %d date: %w", r.Month, err)
		}
		out = append(out, engine.MonthlyReport{
			Month: r.Month, Date: date, Rent: r.Rent, Maintenance: r.Maintenance,
			LoanPayments: r.LoanPayments, NetIncome: r.NetIncome, Cash: r.Cash,
			Demand: r.Demand, Events: r.Events,
		})
	}
	return out, nil
}
