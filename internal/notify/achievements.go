package notify

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Achievement IDs the simulation reports progress for.
const (
	LoanMaster     = "loan_master"
	RentalIncome   = "rental_income"
	TimeSurvivor   = "time_survivor"
	PropertyMogul  = "property_mogul"
	PropertyEmpire = "property_empire"
	FirstProperty  = "first_property"
	Millionaire    = "millionaire"
)

// Achievement is a one-shot goal with a cash reward.
type Achievement struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Reward      float64 `json:"reward"`
	MaxProgress float64 `json:"max_progress"`
	Progress    float64 `json:"progress"`
	Unlocked    bool    `json:"unlocked"`
}

// Rewarder credits achievement rewards.
type Rewarder interface {
	Credit(amount float64, memo string)
}

// DefaultAchievements is the built-in achievement catalog.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{ID: FirstProperty, Name: "Beginner Investor", Description: "Buy your first property", Reward: 1000, MaxProgress: 1},
		{ID: PropertyMogul, Name: "Property Mogul", Description: "Own 5 properties at once", Reward: 5000, MaxProgress: 5},
		{ID: PropertyEmpire, Name: "Property Empire", Description: "Own 10 properties", Reward: 15000, MaxProgress: 10},
		{ID: LoanMaster, Name: "Loan Master", Description: "Repay a loan ahead of schedule", Reward: 1500, MaxProgress: 1},
		{ID: RentalIncome, Name: "Passive Income", Description: "Reach a monthly income of 10,000", Reward: 3000, MaxProgress: 10000},
		{ID: TimeSurvivor, Name: "Long-Term Investor", Description: "Last 12 months", Reward: 2500, MaxProgress: 12},
		{ID: Millionaire, Name: "Millionaire", Description: "Hold 1,000,000 in cash", Reward: 25000, MaxProgress: 1000000},
	}
}

// Tracker records achievement progress and pays rewards on unlock.
type Tracker struct {
	achievements map[string]*Achievement
	order        []string
	wallet       Rewarder
	notifier     Notifier
}

// NewTracker creates a tracker over the given catalog.
func NewTracker(catalog []Achievement, wallet Rewarder, notifier Notifier) *Tracker {
	t := &Tracker{
		achievements: make(map[string]*Achievement, len(catalog)),
		wallet:       wallet,
		notifier:     notifier,
	}
	for _, a := range catalog {
		a := a
		t.achievements[a.ID] = &a
		t.order = append(t.order, a.ID)
	}
	return t
}

// ReportProgress sets an achievement's progress, unlocking it once the
// maximum is reached. Unknown or already unlocked IDs are ignored.
func (t *Tracker) ReportProgress(id string, value float64) {
	a, ok := t.achievements[id]
	if !ok || a.Unlocked {
		return
	}
	a.Progress = math.Min(value, a.MaxProgress)
	if a.Progress < a.MaxProgress {
		return
	}

	a.Unlocked = true
	if t.wallet != nil {
		t.wallet.Credit(a.Reward, "achievement: "+a.ID)
	}
	if t.notifier != nil {
		t.notifier.Notify(fmt.Sprintf("Achievement unlocked: %s (reward %s)", a.Name, humanize.Commaf(a.Reward)), Success)
	}
}

// List returns copies of all achievements in catalog order.
func (t *Tracker) List() []Achievement {
	out := make([]Achievement, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.achievements[id])
	}
	return out
}

// Unlocked reports whether an achievement has been earned.
func (t *Tracker) Unlocked(id string) bool {
	a, ok := t.achievements[id]
	return ok && a.Unlocked
}

// Restore overwrites progress and unlock state from a saved list. Entries
// not in the catalog are ignored.
func (t *Tracker) Restore(saved []Achievement) {
	for _, s := range saved {
		if a, ok := t.achievements[s.ID]; ok {
			a.Progress = s.Progress
			a.Unlocked = s.Unlocked
		}
	}
}
