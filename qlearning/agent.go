// Package qlearning implements a tabular Q-learning agent over a dense
// five-dimensional value table: four discretized observation axes and the
// action.
//
// Basic usage:
//
//	agent, err := qlearning.NewAgent(qlearning.DefaultSettings(2))
//	a := agent.SelectAction(cell, qlearning.EpsilonGreedy)
//	agent.Learn(reward, cell, next, a, done)
package qlearning

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/CodeStranger-Fred/cartpole/mdp"
)

// Settings configures an Agent.
type Settings struct {
	Actions int
	Bins    [mdp.Dims]int
	Alpha   float64 // learning rate
	Gamma   float64 // discount factor
	Epsilon float64 // initial exploration rate
	Seed    int64   // 0 seeds from the clock
}

// DefaultSettings returns the stock hyperparameters for a given action count:
// 30 bins per axis, Alpha=0.1, Gamma=0.99, Epsilon=0.2.
func DefaultSettings(actions int) Settings {
	return Settings{
		Actions: actions,
		Bins:    [mdp.Dims]int{30, 30, 30, 30},
		Alpha:   0.1,
		Gamma:   0.99,
		Epsilon: 0.2,
	}
}

func (s Settings) validate() error {
	if s.Alpha <= 0 || s.Alpha > 1 {
		return fmt.Errorf("%w: alpha = %v, want (0, 1]", ErrInvalidSettings, s.Alpha)
	}
	if s.Gamma < 0 || s.Gamma > 1 {
		return fmt.Errorf("%w: gamma = %v, want [0, 1]", ErrInvalidSettings, s.Gamma)
	}
	if s.Epsilon < 0 || s.Epsilon > 1 {
		return fmt.Errorf("%w: epsilon = %v, want [0, 1]", ErrInvalidSettings, s.Epsilon)
	}
	return nil
}

// Agent owns the value table and the mutable exploration rate. It is not
// safe for concurrent use.
type Agent struct {
	alpha   float64
	gamma   float64
	epsilon float64
	rng     *rand.Rand
	table   *Table
	ties    []int
}

func NewAgent(s Settings) (*Agent, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	seed := s.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	table, err := NewTable(s.Bins, s.Actions, rng)
	if err != nil {
		return nil, err
	}
	return &Agent{
		alpha:   s.Alpha,
		gamma:   s.Gamma,
		epsilon: s.Epsilon,
		rng:     rng,
		table:   table,
		ties:    make([]int, 0, s.Actions),
	}, nil
}

func (a *Agent) Table() *Table { return a.table }

func (a *Agent) Alpha() float64 { return a.alpha }

func (a *Agent) Gamma() float64 { return a.gamma }

func (a *Agent) Epsilon() float64 { return a.epsilon }

func (a *Agent) SetEpsilon(e float64) { a.epsilon = e }

// DecayEpsilon multiplies epsilon by factor and returns the new value.
// The training loop calls it at most once per episode.
func (a *Agent) DecayEpsilon(factor float64) float64 {
	a.epsilon *= factor
	return a.epsilon
}

// SelectRandom returns an action drawn uniformly from all actions.
func (a *Agent) SelectRandom() mdp.Action {
	return mdp.Action(a.rng.Intn(a.table.Actions()))
}

// SelectGreedy returns an action of maximal value in cell c. When several
// actions share the maximum one of them is picked uniformly.
func (a *Agent) SelectGreedy(c mdp.Cell) mdp.Action {
	values := a.table.Values(c)
	best := a.table.Max(c)
	a.ties = a.ties[:0]
	for i, v := range values {
		if v == best {
			a.ties = append(a.ties, i)
		}
	}
	if len(a.ties) == 0 {
		// only reachable with NaN entries
		return a.SelectRandom()
	}
	return mdp.Action(a.ties[a.rng.Intn(len(a.ties))])
}

// SelectEpsilonGreedy explores with probability epsilon and exploits
// otherwise.
func (a *Agent) SelectEpsilonGreedy(c mdp.Cell) mdp.Action {
	if a.rng.Float64() < a.epsilon {
		return a.SelectRandom()
	}
	return a.SelectGreedy(c)
}

func (a *Agent) SelectAction(c mdp.Cell, s ActionStrategy) mdp.Action {
	switch s {
	case Random:
		return a.SelectRandom()
	case Greedy:
		return a.SelectGreedy(c)
	case EpsilonGreedy:
		return a.SelectEpsilonGreedy(c)
	default:
		panic("qlearning: unhandled action strategy: " + s.String())
	}
}

// Learn applies the one-step Q-learning backup to (state, action):
//
//	Q(s,a) += alpha * (reward + gamma * max_a' Q(s',a') - Q(s,a))
//
// The bootstrap term is zero when done is set.
func (a *Agent) Learn(reward mdp.Reward, state, next mdp.Cell, action mdp.Action, done bool) {
	var nextMax float64
	if !done {
		nextMax = a.table.Max(next)
	}
	q := a.table.At(state, action)
	tdErr := float64(reward) + a.gamma*nextMax - q
	a.table.Set(state, action, q+a.alpha*tdErr)
}

// Observe learns from a recorded transition.
func (a *Agent) Observe(t mdp.Transition) {
	a.Learn(t.Reward, t.State0, t.State1, t.Action, t.Done)
}

func (a *Agent) Save(path string) error {
	return a.table.Save(path)
}

// Load replaces the value table with the one stored at path. It returns an
// error wrapping ErrTableNotFound when the file does not exist.
func (a *Agent) Load(path string) error {
	return a.table.Load(path)
}

// Policy returns the given strategy as an mdp.Policy bound to this agent.
func (a *Agent) Policy(s ActionStrategy) mdp.Policy {
	return agentPolicy{agent: a, strategy: s}
}

type agentPolicy struct {
	agent    *Agent
	strategy ActionStrategy
}

func (p agentPolicy) Name() string { return p.strategy.String() }

func (p agentPolicy) Act(c mdp.Cell) mdp.Action {
	return p.agent.SelectAction(c, p.strategy)
}
