// Package cartpole simulates the classic cart-pole balancing task with the
// CartPole-v1 dynamics: a pole hinged on a cart that is pushed left or right
// with a fixed force. Every step the pole stays up earns a reward of 1.
package cartpole

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/CodeStranger-Fred/cartpole/mdp"
)

const (
	gravity        = 9.8
	massCart       = 1.0
	massPole       = 0.1
	totalMass      = massCart + massPole
	length         = 0.5 // half the pole length
	poleMassLength = massPole * length
	forceMag       = 10.0
	tau            = 0.02

	XThreshold     = 2.4
	ThetaThreshold = 12 * 2 * math.Pi / 360
	MaxSteps       = 500
)

const (
	PushLeft mdp.Action = iota
	PushRight
)

// Env is a single cart-pole simulation. It is not safe for concurrent use.
type Env struct {
	state      mdp.Observation
	steps      int
	terminated bool
	rng        *rand.Rand
}

var _ mdp.Environment = (*Env)(nil)

// NewEnv returns a reset environment. A zero seed seeds from the clock.
func NewEnv(seed int64) *Env {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e := &Env{rng: rand.New(rand.NewSource(seed))}
	e.Reset()
	return e
}

// Reset samples every state component uniformly from [-0.05, 0.05).
func (e *Env) Reset() mdp.Observation {
	for i := range e.state {
		e.state[i] = e.rng.Float64()*0.1 - 0.05
	}
	e.steps = 0
	e.terminated = false
	return e.state
}

func (e *Env) Step(action mdp.Action) (mdp.Observation, mdp.Reward, bool, bool) {
	if e.terminated {
		return e.state, 0, true, false
	}
	force := forceMag
	if action == PushLeft {
		force = -forceMag
	}

	x, xDot, theta, thetaDot := e.state[0], e.state[1], e.state[2], e.state[3]
	cosTheta := math.Cos(theta)
	sinTheta := math.Sin(theta)

	temp := (force + poleMassLength*thetaDot*thetaDot*sinTheta) / totalMass
	thetaAcc := (gravity*sinTheta - cosTheta*temp) / (length * (4.0/3.0 - massPole*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thetaAcc*cosTheta/totalMass

	x += tau * xDot
	xDot += tau * xAcc
	theta += tau * thetaDot
	thetaDot += tau * thetaAcc

	e.state = mdp.Observation{x, xDot, theta, thetaDot}
	e.steps++

	e.terminated = x < -XThreshold || x > XThreshold || theta < -ThetaThreshold || theta > ThetaThreshold
	truncated := !e.terminated && e.steps >= MaxSteps
	return e.state, 1, e.terminated, truncated
}

func (e *Env) ActionCount() int { return 2 }

// ObservationBounds returns twice the termination thresholds for position
// and angle. Both velocities are unbounded.
func (e *Env) ObservationBounds() [mdp.Dims]r1.Interval {
	inf := math.Inf(1)
	return [mdp.Dims]r1.Interval{
		{Min: -2 * XThreshold, Max: 2 * XThreshold},
		{Min: -inf, Max: inf},
		{Min: -2 * ThetaThreshold, Max: 2 * ThetaThreshold},
		{Min: -inf, Max: inf},
	}
}

// State returns the current observation.
func (e *Env) State() mdp.Observation { return e.state }

// Steps returns the number of steps since the last reset.
func (e *Env) Steps() int { return e.steps }
