package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/talgya/estate-world/internal/config"
)

// Speed presets. One real second is one in-game day at SpeedNormal.
const (
	SpeedPaused = 0.0
	SpeedNormal = 1.0
	SpeedFast   = 3.0
	SpeedMax    = config.MaxSpeed
)

// Clock is the in-game calendar.
type Clock struct {
	Start      time.Time `json:"start"`
	DaysPassed float64   `json:"days_passed"` // monotonic, fractional
	Speed      float64   `json:"speed"`
}

// NewClock creates a clock at day zero.
func NewClock(start time.Time, speed float64) *Clock {
	return &Clock{Start: start, Speed: speed}
}

// Day is the number of whole in-game days elapsed.
func (c *Clock) Day() int {
	return int(math.Floor(c.DaysPassed))
}

// Date is the current in-game calendar date.
func (c *Clock) Date() time.Time {
	return c.Start.AddDate(0, 0, c.Day())
}

// FormatDate renders the current month, e.g. "January 2024".
func (c *Clock) FormatDate() string {
	return c.Date().Format("January 2006")
}

// SetSpeed changes the game speed. Zero pauses; speeds outside
// [0, SpeedMax] are rejected.
func (c *Clock) SetSpeed(speed float64) error {
	if !(speed >= 0 && speed <= SpeedMax) {
		return fmt.Errorf("set speed %v: %w", speed, ErrInvalidSpeed)
	}
	c.Speed = speed
	return nil
}
