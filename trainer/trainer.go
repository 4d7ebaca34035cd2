// Package trainer drives the Q-learning agent through cart-pole episodes:
// it discretizes observations, asks the agent for actions, steps the
// simulator and feeds every transition back into the value table.
package trainer

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"

	"github.com/CodeStranger-Fred/cartpole/config"
	"github.com/CodeStranger-Fred/cartpole/discretize"
	"github.com/CodeStranger-Fred/cartpole/mdp"
	"github.com/CodeStranger-Fred/cartpole/qlearning"
)

var ErrMismatch = errors.New("trainer: discretizer, agent and environment disagree")

// Schedule controls the temporal behaviour of a training run.
type Schedule struct {
	Episodes       int
	WarmupEpisodes int     // episodes 1..WarmupEpisodes act at random
	DecayAfter     int     // epsilon decays once per episode after this one
	EpsilonDecay   float64 // multiplicative decay factor
	ReportEvery    int     // log window statistics every n episodes, 0 disables
}

// FrameFunc receives the observation after every simulated step.
type FrameFunc func(o mdp.Observation, step int)

type Trainer struct {
	env      mdp.Environment
	disc     *discretize.Discretizer
	agent    *qlearning.Agent
	schedule Schedule
	log      *slog.Logger

	episode mdp.Episode
	rewards []float64
}

// New checks that the discretizer and the agent's table share bin counts
// and that the table has one column per environment action.
func New(env mdp.Environment, disc *discretize.Discretizer, agent *qlearning.Agent, schedule Schedule, logger *slog.Logger) (*Trainer, error) {
	shape := agent.Table().Shape()
	var tableBins [mdp.Dims]int
	copy(tableBins[:], shape[:mdp.Dims])
	if tableBins != disc.Bins() {
		return nil, fmt.Errorf("%w: discretizer bins %v, table bins %v", ErrMismatch, disc.Bins(), tableBins)
	}
	if agent.Table().Actions() != env.ActionCount() {
		return nil, fmt.Errorf("%w: table has %d actions, environment %d", ErrMismatch, agent.Table().Actions(), env.ActionCount())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{
		env:      env,
		disc:     disc,
		agent:    agent,
		schedule: schedule,
		log:      logger,
	}, nil
}

// Build wires a discretizer and an agent for env from loaded parameters.
func Build(p config.Parameters, env mdp.Environment, logger *slog.Logger) (*Trainer, error) {
	disc, err := discretize.New(p.Bounds(env.ObservationBounds()), p.Bins())
	if err != nil {
		return nil, err
	}
	agent, err := qlearning.NewAgent(qlearning.Settings{
		Actions: env.ActionCount(),
		Bins:    p.Bins(),
		Alpha:   p.Alpha,
		Gamma:   p.Gamma,
		Epsilon: p.Epsilon,
		Seed:    p.Seed,
	})
	if err != nil {
		return nil, err
	}
	return New(env, disc, agent, Schedule{
		Episodes:       p.Episodes,
		WarmupEpisodes: p.WarmupEpisodes,
		DecayAfter:     p.DecayAfter,
		EpsilonDecay:   p.EpsilonDecay,
		ReportEvery:    p.ReportEvery,
	}, logger)
}

func (t *Trainer) Agent() *qlearning.Agent { return t.agent }

func (t *Trainer) Discretizer() *discretize.Discretizer { return t.disc }

// Rewards returns the total reward of every training episode so far.
func (t *Trainer) Rewards() []float64 { return t.rewards }

// StrategyFor returns the action strategy used during a training episode.
func (t *Trainer) StrategyFor(episode int) qlearning.ActionStrategy {
	if episode <= t.schedule.WarmupEpisodes {
		return qlearning.Random
	}
	return qlearning.EpsilonGreedy
}

// anneal decays epsilon at the start of every episode past DecayAfter.
func (t *Trainer) anneal(episode int) {
	if t.schedule.EpsilonDecay > 0 && episode > t.schedule.DecayAfter {
		t.agent.DecayEpsilon(t.schedule.EpsilonDecay)
	}
}

// Train runs the scheduled number of episodes, learning from every step,
// and returns the reward history.
func (t *Trainer) Train() []float64 {
	t.log.Info("training started",
		"episodes", t.schedule.Episodes,
		"alpha", t.agent.Alpha(),
		"gamma", t.agent.Gamma(),
		"epsilon", t.agent.Epsilon())

	window := make([]float64, 0, t.schedule.ReportEvery)
	for ep := 1; ep <= t.schedule.Episodes; ep++ {
		strategy := t.StrategyFor(ep)
		t.anneal(ep)

		total := float64(t.run(t.agent.Policy(strategy), true, nil))
		t.rewards = append(t.rewards, total)
		t.log.Debug("episode done", "episode", ep, "strategy", strategy, "reward", total, "steps", t.episode.Len())

		if t.schedule.ReportEvery > 0 {
			window = append(window, total)
			if ep%t.schedule.ReportEvery == 0 {
				t.report(ep, window)
				window = window[:0]
			}
		}
	}
	return t.rewards
}

func (t *Trainer) report(episode int, window []float64) {
	if len(window) == 0 {
		return
	}
	t.log.Info("training progress",
		"episode", episode,
		"max_reward", floats.Max(window),
		"min_reward", floats.Min(window),
		"avg_reward", floats.Sum(window)/float64(len(window)),
		"epsilon", t.agent.Epsilon())
}

// run plays one episode with policy and returns its total reward. Only a
// failure state is treated as terminal by the update; an episode cut off
// by the step limit still bootstraps from its last state.
func (t *Trainer) run(policy mdp.Policy, learn bool, frame FrameFunc) mdp.Reward {
	t.episode.Reset()
	obs := t.env.Reset()
	if frame != nil {
		frame(obs, 0)
	}
	for {
		state := t.disc.Cell(obs)
		action := policy.Act(state)
		next, reward, terminated, truncated := t.env.Step(action)
		tr := t.episode.Step(state, action, t.disc.Cell(next), reward, terminated)
		if learn {
			t.agent.Observe(tr)
		}
		obs = next
		if frame != nil {
			frame(obs, t.episode.Len())
		}
		if terminated || truncated {
			return t.episode.Total
		}
	}
}

// Simulate prepares the agent according to s and plays a single episode
// without learning. LoadAndApply and TrainAndApply use modelPath.
func (t *Trainer) Simulate(s Strategy, modelPath string, frame FrameFunc) (mdp.Reward, error) {
	policy := t.agent.Policy(qlearning.Greedy)
	switch s {
	case RandomStrategy:
		policy = t.agent.Policy(qlearning.Random)
	case Trained:
	case LoadAndApply:
		if err := t.agent.Load(modelPath); err != nil {
			return 0, err
		}
	case TrainAndApply:
		t.Train()
		if err := t.agent.Save(modelPath); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnknownStrategy, s)
	}
	t.log.Info("simulating", "strategy", s, "policy", policy.Name())
	total := t.run(policy, false, frame)
	t.log.Info("simulation done", "strategy", s, "reward", float64(total), "steps", t.episode.Len())
	return total, nil
}
