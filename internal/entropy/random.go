// Package entropy provides the randomness capability the simulation draws from.
// Every stochastic system receives a Source explicitly so runs can be replayed
// from a seed.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
)

// Source yields uniform random numbers. *math/rand.Rand satisfies it.
type Source interface {
	Float64() float64 // [0, 1)
	Intn(n int) int   // [0, n)
}

// NewSeeded returns a deterministic source for the given seed.
func NewSeeded(seed int64) *mrand.Rand {
	return mrand.New(mrand.NewSource(seed))
}

// NewSeed generates a seed from crypto/rand for runs that did not pin one.
func NewSeed() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	// Drop the sign bit so seeds print the same way they were configured.
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1), nil
}

// Uniform returns a value drawn uniformly from [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Jitter returns symmetric noise in [-amplitude, amplitude).
func Jitter(src Source, amplitude float64) float64 {
	return (src.Float64() - 0.5) * 2 * amplitude
}

// Chance performs one Bernoulli trial with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Pick returns a uniformly chosen element of items. items must be non-empty.
func Pick[T any](src Source, items []T) T {
	return items[src.Intn(len(items))]
}

// Sequence replays a fixed list of draws, cycling when exhausted.
// Used to script exact outcomes of Bernoulli trials and noise.
type Sequence struct {
	values []float64
	next   int
}

// NewSequence creates a Sequence over values. values must be non-empty and in [0, 1).
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

// Float64 returns the next scripted value.
func (s *Sequence) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Intn maps the next scripted value onto [0, n).
func (s *Sequence) Intn(n int) int {
	i := int(s.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Draws reports how many values have been consumed.
func (s *Sequence) Draws() int {
	return s.next
}
