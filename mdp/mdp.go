// Package mdp holds the vocabulary shared by the cart-pole learner: the
// continuous observations produced by the simulator, the discrete cells the
// value table is indexed by, and the environment and policy contracts.
package mdp

import "gonum.org/v1/gonum/spatial/r1"

// Dims is the number of observation axes: cart position, cart velocity,
// pole angle and pole angular velocity.
const Dims = 4

type Action int

type Reward float64

// Observation is a continuous reading of the four observation axes.
type Observation [Dims]float64

// Cell is a discretized observation, one bin index per axis.
type Cell [Dims]int

// Environment is the simulator the training loop drives.
type Environment interface {
	Reset() Observation
	// Step applies the action. terminated reports a failure state,
	// truncated reports that the episode hit its step limit.
	Step(Action) (next Observation, reward Reward, terminated, truncated bool)
	ActionCount() int
	// ObservationBounds are the native per-axis bounds. Some of them
	// may be infinite.
	ObservationBounds() [Dims]r1.Interval
}

// Policy picks an action for a discretized state.
type Policy interface {
	Name() string
	Act(Cell) Action
}
