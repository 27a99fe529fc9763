package random

import (
	"math/rand/v2"
)

// Source yields uniform values in [0,1).
// A single Source is shared by all models of one race and must be drawn from
// in a fixed order to keep races reproducible.
type Source interface {
	Float64() float64
}

// New returns a deterministic source for the given seed
func New(seed uint64) Source {
	//nolint:gosec // simulation, not crypto
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Uniform draws from [lo,hi)
func Uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}

// Fixed replays a predefined sequence of values.
// After the sequence is exhausted the last value is repeated.
type Fixed struct {
	values []float64
	idx    int
	n      int
}

func NewFixed(values ...float64) *Fixed {
	return &Fixed{values: values}
}

func (f *Fixed) Float64() float64 {
	f.n++
	if len(f.values) == 0 {
		return 0
	}
	if f.idx >= len(f.values) {
		return f.values[len(f.values)-1]
	}
	v := f.values[f.idx]
	f.idx++
	return v
}

// Draws returns the number of calls so far
func (f *Fixed) Draws() int {
	return f.n
}

// Counting wraps a Source and counts the draws
type Counting struct {
	Source
	n int
}

func NewCounting(src Source) *Counting {
	return &Counting{Source: src}
}

func (c *Counting) Float64() float64 {
	c.n++
	return c.Source.Float64()
}

func (c *Counting) Draws() int {
	return c.n
}
