// Package discretize maps continuous cart-pole observations onto the
// discrete cells of a value table.
//
// Each axis is split by N linearly spaced boundary values spanning
// [lower, upper]. An observation component falls into the bucket whose
// left boundary is the last boundary not greater than it, so buckets are
// left-closed. Indices are clamped to [0, N-1]: readings at or below the
// lower bound map to 0, readings at or above the upper bound map to N-1.
package discretize

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/CodeStranger-Fred/cartpole/mdp"
)

var ErrInvalidBounds = errors.New("discretize: invalid bounds")

// Bounds holds the (lower, upper) pair of each observation axis.
type Bounds [mdp.Dims]r1.Interval

// Discretizer holds the bin boundaries of every axis. It is immutable once
// built and safe to share.
type Discretizer struct {
	boundaries [mdp.Dims][]float64
}

// New derives the bin boundaries from bounds and per-axis bin counts.
// Every bound must be finite and every axis needs at least one bin.
func New(bounds Bounds, bins [mdp.Dims]int) (*Discretizer, error) {
	d := &Discretizer{}
	for axis := 0; axis < mdp.Dims; axis++ {
		b, n := bounds[axis], bins[axis]
		if n < 1 {
			return nil, fmt.Errorf("%w: axis %d has %d bins", ErrInvalidBounds, axis, n)
		}
		if math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) || math.IsNaN(b.Min) || math.IsNaN(b.Max) {
			return nil, fmt.Errorf("%w: axis %d bounds [%v, %v] are not finite", ErrInvalidBounds, axis, b.Min, b.Max)
		}
		if n > 1 && b.Min >= b.Max {
			return nil, fmt.Errorf("%w: axis %d lower %v is not below upper %v", ErrInvalidBounds, axis, b.Min, b.Max)
		}
		d.boundaries[axis] = linspace(b.Min, b.Max, n)
	}
	return d, nil
}

func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := floats.Span(make([]float64, n), lo, hi)
	// endpoint is exact so readings equal to hi land in the last bucket
	out[n-1] = hi
	return out
}

// Cell returns the discrete cell of an observation.
func (d *Discretizer) Cell(o mdp.Observation) mdp.Cell {
	var c mdp.Cell
	for axis := 0; axis < mdp.Dims; axis++ {
		c[axis] = index(d.boundaries[axis], o[axis])
	}
	return c
}

func index(boundaries []float64, x float64) int {
	// number of boundaries <= x
	n := sort.Search(len(boundaries), func(i int) bool { return boundaries[i] > x })
	i := n - 1
	if i < 0 {
		return 0
	}
	if i > len(boundaries)-1 {
		return len(boundaries) - 1
	}
	return i
}

// Bins returns the bin count of every axis.
func (d *Discretizer) Bins() [mdp.Dims]int {
	var bins [mdp.Dims]int
	for axis := range d.boundaries {
		bins[axis] = len(d.boundaries[axis])
	}
	return bins
}

// Boundaries returns a copy of the boundary values of one axis.
func (d *Discretizer) Boundaries(axis int) []float64 {
	out := make([]float64, len(d.boundaries[axis]))
	copy(out, d.boundaries[axis])
	return out
}
