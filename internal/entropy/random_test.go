package entropy

import "testing"

func TestSeededSourceIsReproducible(t *testing.T) {
	a := NewSeeded(7)
	b := NewSeeded(7)
	for i := 0; i < 20; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d: %v != %v", i, x, y)
		}
	}
}

func TestJitterStaysWithinAmplitude(t *testing.T) {
	src := NewSeeded(1)
	for i := 0; i < 1000; i++ {
		v := Jitter(src, 0.05)
		if v < -0.05 || v >= 0.05 {
			t.Fatalf("Jitter = %v, want within [-0.05, 0.05)", v)
		}
	}
}

func TestSequenceReplaysAndCycles(t *testing.T) {
	seq := NewSequence(0.1, 0.9)
	got := []float64{seq.Float64(), seq.Float64(), seq.Float64()}
	want := []float64{0.1, 0.9, 0.1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("draw %d = %v, want %v", i, got[i], want[i])
		}
	}
	if seq.Draws() != 3 {
		t.Fatalf("Draws = %d, want 3", seq.Draws())
	}
}

func TestSequenceIntnMapsOntoRange(t *testing.T) {
	seq := NewSequence(0.0, 0.5, 0.99)
	for _, want := range []int{0, 2, 4} {
		if got := seq.Intn(5); got != want {
			t.Fatalf("Intn(5) = %d, want %d", got, want)
		}
	}
}

func TestChance(t *testing.T) {
	seq := NewSequence(0.3)
	if !Chance(seq, 0.31) {
		t.Fatal("Chance(0.31) with draw 0.3 should succeed")
	}
	if Chance(seq, 0.3) {
		t.Fatal("Chance(0.3) with draw 0.3 should fail")
	}
}

func TestNewSeedIsNonNegative(t *testing.T) {
	seed, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	if seed < 0 {
		t.Fatalf("NewSeed = %d, want non-negative", seed)
	}
}
