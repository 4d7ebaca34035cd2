package qlearning

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/CodeStranger-Fred/cartpole/mdp"
)

// Shape is the table extent: the four bin counts followed by the action count.
type Shape [mdp.Dims + 1]int

// Size returns the number of entries of a table of this shape.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

func (s Shape) validate() error {
	for i, d := range s {
		if d < 1 {
			return fmt.Errorf("%w: dimension %d is %d", ErrInvalidShape, i, d)
		}
	}
	return nil
}

// Table is a dense state-action value table stored row-major with the
// action as the innermost dimension, so the values of one cell are
// contiguous. The shape never changes after construction.
type Table struct {
	shape   Shape
	strides Shape
	data    []float64
}

// NewTable allocates a table of shape (bins..., actions) with every entry
// drawn uniformly from [0, 1).
func NewTable(bins [mdp.Dims]int, actions int, rng *rand.Rand) (*Table, error) {
	var shape Shape
	copy(shape[:], bins[:])
	shape[mdp.Dims] = actions
	t, err := newTable(shape)
	if err != nil {
		return nil, err
	}
	for i := range t.data {
		t.data[i] = rng.Float64()
	}
	return t, nil
}

func newTable(shape Shape) (*Table, error) {
	if err := shape.validate(); err != nil {
		return nil, err
	}
	t := &Table{shape: shape, data: make([]float64, shape.Size())}
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		t.strides[i] = stride
		stride *= shape[i]
	}
	return t, nil
}

func (t *Table) Shape() Shape { return t.shape }

func (t *Table) Actions() int { return t.shape[mdp.Dims] }

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.data) }

func (t *Table) cellOffset(c mdp.Cell) int {
	off := 0
	for axis, idx := range c {
		if idx < 0 || idx >= t.shape[axis] {
			panic(fmt.Sprintf("qlearning: cell %v outside table shape %v", c, t.shape))
		}
		off += idx * t.strides[axis]
	}
	return off
}

func (t *Table) offset(c mdp.Cell, a mdp.Action) int {
	if a < 0 || int(a) >= t.Actions() {
		panic(fmt.Sprintf("qlearning: action %d outside [0, %d)", a, t.Actions()))
	}
	return t.cellOffset(c) + int(a)
}

// At returns the value of taking action a in cell c.
func (t *Table) At(c mdp.Cell, a mdp.Action) float64 {
	return t.data[t.offset(c, a)]
}

func (t *Table) Set(c mdp.Cell, a mdp.Action, v float64) {
	t.data[t.offset(c, a)] = v
}

// Values returns the action values of a cell. The slice aliases the table.
func (t *Table) Values(c mdp.Cell) []float64 {
	off := t.cellOffset(c)
	return t.data[off : off+t.Actions() : off+t.Actions()]
}

// Max returns the largest action value of a cell.
func (t *Table) Max(c mdp.Cell) float64 {
	return floats.Max(t.Values(c))
}

func (t *Table) Clone() *Table {
	out := &Table{shape: t.shape, strides: t.strides, data: make([]float64, len(t.data))}
	copy(out.data, t.data)
	return out
}

// Equal reports whether both tables have the same shape and bitwise
// identical contents.
func (t *Table) Equal(o *Table) bool {
	if t.shape != o.shape {
		return false
	}
	for i, v := range t.data {
		if math.Float64bits(v) != math.Float64bits(o.data[i]) {
			return false
		}
	}
	return true
}
