package engine

import (
	"context"
	"testing"
	"time"
)

type countingStepper struct {
	frames  int
	elapsed time.Duration
}

func (c *countingStepper) Frame(elapsed time.Duration) bool {
	c.frames++
	c.elapsed += elapsed
	return c.frames%3 == 0
}

func TestEngineStepCountsMonths(t *testing.T) {
	target := &countingStepper{}
	e := NewEngine(target, 0)
	if e.Interval != DefaultFrameInterval {
		t.Fatalf("Interval = %v, want %v", e.Interval, DefaultFrameInterval)
	}

	for i := 0; i < 7; i++ {
		e.step(100 * time.Millisecond)
	}
	if e.Frames != 7 || e.Months != 2 {
		t.Fatalf("frames %d months %d, want 7 and 2", e.Frames, e.Months)
	}
	if target.elapsed != 700*time.Millisecond {
		t.Fatalf("elapsed = %v", target.elapsed)
	}
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	target := &countingStepper{}
	e := NewEngine(target, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	if err := e.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Frames == 0 || uint64(target.frames) != e.Frames {
		t.Fatalf("frames %d, stepper saw %d", e.Frames, target.frames)
	}
}

func TestEngineRunMeasuresWallTime(t *testing.T) {
	target := &countingStepper{}
	e := NewEngine(target, time.Millisecond)
	base := time.Unix(0, 0)
	calls := 0
	e.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 250 * time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := e.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if target.frames > 0 && target.elapsed != time.Duration(target.frames)*250*time.Millisecond {
		t.Fatalf("elapsed %v over %d frames, want 250ms each", target.elapsed, target.frames)
	}
}
