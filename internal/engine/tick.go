package engine

import (
	"context"
	"log/slog"
	"time"
)

// DefaultFrameInterval is how often the host loop feeds real time to the game.
const DefaultFrameInterval = 100 * time.Millisecond

// Stepper is advanced once per frame with the real time since the last frame.
type Stepper interface {
	Frame(elapsed time.Duration) bool
}

// Engine is the real-time host loop. Game speed lives on the clock; the
// engine only measures wall time.
type Engine struct {
	Interval time.Duration
	Frames   uint64 // frames run, monotonic
	Months   uint64 // monthly cycles observed

	target Stepper
	now    func() time.Time
}

// NewEngine creates an engine driving target.
func NewEngine(target Stepper, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Engine{
		Interval: interval,
		target:   target,
		now:      time.Now,
	}
}

// Run drives frames until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("simulation engine started", "interval", e.Interval)

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	last := e.now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "frames", e.Frames, "months", e.Months)
			return nil
		case <-ticker.C:
			now := e.now()
			e.step(now.Sub(last))
			last = now
		}
	}
}

// step advances the target by one frame.
func (e *Engine) step(elapsed time.Duration) {
	e.Frames++
	if e.target.Frame(elapsed) {
		e.Months++
	}
}
