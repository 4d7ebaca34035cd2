package qlearning

import (
	"errors"
	"math"
	"testing"

	"github.com/CodeStranger-Fred/cartpole/mdp"
)

func newTestAgent(t *testing.T, actions int, epsilon float64) *Agent {
	t.Helper()
	s := DefaultSettings(actions)
	s.Bins = [mdp.Dims]int{4, 4, 4, 4}
	s.Epsilon = epsilon
	s.Seed = 7
	a, err := NewAgent(s)
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	return a
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings(2)
	if s.Alpha != 0.1 || s.Gamma != 0.99 || s.Epsilon != 0.2 {
		t.Errorf("DefaultSettings hyperparameters = %+v", s)
	}
	a, err := NewAgent(s)
	if err != nil {
		t.Fatal(err)
	}
	if want := (Shape{30, 30, 30, 30, 2}); a.Table().Shape() != want {
		t.Errorf("table shape = %v, want %v", a.Table().Shape(), want)
	}
}

func TestNewAgentRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"zero alpha", func(s *Settings) { s.Alpha = 0 }},
		{"alpha above one", func(s *Settings) { s.Alpha = 1.5 }},
		{"negative gamma", func(s *Settings) { s.Gamma = -0.1 }},
		{"epsilon above one", func(s *Settings) { s.Epsilon = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings(2)
			tt.modify(&s)
			if _, err := NewAgent(s); !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("NewAgent error = %v, want ErrInvalidSettings", err)
			}
		})
	}
}

func TestSelectRandomInRange(t *testing.T) {
	a := newTestAgent(t, 3, 0.2)
	counts := make([]int, 3)
	for i := 0; i < 3000; i++ {
		act := a.SelectRandom()
		if act < 0 || act >= 3 {
			t.Fatalf("SelectRandom() = %d outside [0, 3)", act)
		}
		counts[act]++
	}
	for act, n := range counts {
		if n < 800 || n > 1200 {
			t.Errorf("action %d chosen %d/3000 times, want about 1000", act, n)
		}
	}
}

func TestSelectGreedyPicksMaximum(t *testing.T) {
	a := newTestAgent(t, 3, 0)
	c := mdp.Cell{1, 2, 3, 0}
	a.Table().Set(c, 0, 0.1)
	a.Table().Set(c, 1, 0.9)
	a.Table().Set(c, 2, 0.5)
	for i := 0; i < 100; i++ {
		if got := a.SelectGreedy(c); got != 1 {
			t.Fatalf("SelectGreedy() = %d, want 1", got)
		}
	}
}

func TestSelectGreedyBreaksTiesUniformly(t *testing.T) {
	a := newTestAgent(t, 4, 0)
	c := mdp.Cell{0, 1, 2, 3}
	for act := mdp.Action(0); act < 4; act++ {
		a.Table().Set(c, act, 0.5)
	}
	const trials = 4000
	counts := make([]int, 4)
	for i := 0; i < trials; i++ {
		counts[a.SelectGreedy(c)]++
	}
	for act, n := range counts {
		if n < 850 || n > 1150 {
			t.Errorf("tied action %d chosen %d/%d times, want about %d", act, n, trials, trials/4)
		}
	}
}

func TestSelectGreedyTieSubset(t *testing.T) {
	a := newTestAgent(t, 3, 0)
	c := mdp.Cell{0, 0, 0, 0}
	a.Table().Set(c, 0, 0.8)
	a.Table().Set(c, 1, 0.2)
	a.Table().Set(c, 2, 0.8)
	seen := map[mdp.Action]int{}
	for i := 0; i < 1000; i++ {
		seen[a.SelectGreedy(c)]++
	}
	if seen[1] != 0 {
		t.Errorf("non-maximal action picked %d times", seen[1])
	}
	if seen[0] < 400 || seen[2] < 400 {
		t.Errorf("tie split = %v, want roughly even between 0 and 2", seen)
	}
}

func TestEpsilonZeroMatchesGreedy(t *testing.T) {
	a := newTestAgent(t, 2, 0)
	c := mdp.Cell{2, 2, 2, 2}
	a.Table().Set(c, 0, 0.3)
	a.Table().Set(c, 1, 0.6)
	greedy := a.SelectGreedy(c)
	for i := 0; i < 500; i++ {
		if got := a.SelectEpsilonGreedy(c); got != greedy {
			t.Fatalf("epsilon-greedy with epsilon=0 chose %d, greedy chose %d", got, greedy)
		}
	}
}

func TestEpsilonOneIsUniform(t *testing.T) {
	a := newTestAgent(t, 2, 1)
	c := mdp.Cell{2, 2, 2, 2}
	a.Table().Set(c, 0, 0)
	a.Table().Set(c, 1, 1)
	const trials = 4000
	counts := make([]int, 2)
	for i := 0; i < trials; i++ {
		counts[a.SelectEpsilonGreedy(c)]++
	}
	for act, n := range counts {
		if n < 1800 || n > 2200 {
			t.Errorf("action %d chosen %d/%d times with epsilon=1, want about %d", act, n, trials, trials/2)
		}
	}
}

func TestSelectActionDispatch(t *testing.T) {
	a := newTestAgent(t, 2, 0)
	c := mdp.Cell{1, 1, 1, 1}
	a.Table().Set(c, 0, 1)
	a.Table().Set(c, 1, 0)
	for _, s := range []ActionStrategy{Greedy, EpsilonGreedy} {
		if got := a.SelectAction(c, s); got != 0 {
			t.Errorf("SelectAction(%v) = %d, want 0", s, got)
		}
		if got := a.Policy(s).Act(c); got != 0 {
			t.Errorf("Policy(%v).Act = %d, want 0", s, got)
		}
	}
	if got := a.SelectAction(c, Random); got < 0 || got > 1 {
		t.Errorf("SelectAction(Random) = %d", got)
	}
	if name := a.Policy(EpsilonGreedy).Name(); name != "epsilon_greedy" {
		t.Errorf("Policy name = %q", name)
	}
}

func TestLearnMovesTowardTarget(t *testing.T) {
	s := DefaultSettings(2)
	s.Alpha, s.Gamma, s.Seed = 0.1, 0.99, 3
	a, err := NewAgent(s)
	if err != nil {
		t.Fatal(err)
	}
	state := mdp.Cell{0, 0, 0, 0}
	next := mdp.Cell{0, 0, 0, 1}
	const action = mdp.Action(1)

	old := a.Table().At(state, action)
	maxNext := math.Max(a.Table().At(next, 0), a.Table().At(next, 1))
	want := old + 0.1*(1.0+0.99*maxNext-old)

	a.Learn(1.0, state, next, action, false)

	got := a.Table().At(state, action)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("after Learn: Q = %.17g, want %.17g", got, want)
	}
}

func TestLearnTerminalUsesRewardOnly(t *testing.T) {
	a := newTestAgent(t, 2, 0.2)
	state := mdp.Cell{1, 0, 3, 2}
	next := mdp.Cell{1, 0, 3, 3}
	a.Table().Set(next, 0, 100)
	a.Table().Set(next, 1, 100)
	old := a.Table().At(state, 0)

	a.Learn(2.0, state, next, 0, true)

	want := old + 0.1*(2.0-old)
	if got := a.Table().At(state, 0); math.Abs(got-want) > 1e-12 {
		t.Errorf("terminal Learn: Q = %v, want %v", got, want)
	}
}

func TestLearnChangesExactlyOneEntry(t *testing.T) {
	a := newTestAgent(t, 2, 0.2)
	before := a.Table().Clone()
	a.Learn(1, mdp.Cell{3, 2, 1, 0}, mdp.Cell{3, 2, 1, 1}, 1, false)
	changed := 0
	for i := range before.data {
		if before.data[i] != a.Table().data[i] {
			changed++
		}
	}
	if changed != 1 {
		t.Errorf("Learn changed %d entries, want 1", changed)
	}
}

func TestObserveMatchesLearn(t *testing.T) {
	a := newTestAgent(t, 2, 0.2)
	b := newTestAgent(t, 2, 0.2)
	tr := mdp.Transition{State0: mdp.Cell{1, 1, 1, 1}, Action: 1, State1: mdp.Cell{2, 1, 1, 1}, Reward: 1}
	a.Observe(tr)
	b.Learn(tr.Reward, tr.State0, tr.State1, tr.Action, tr.Done)
	if !a.Table().Equal(b.Table()) {
		t.Error("Observe and Learn diverged")
	}
}

func TestDecayEpsilon(t *testing.T) {
	a := newTestAgent(t, 2, 0.2)
	prev := a.Epsilon()
	for i := 0; i < 10; i++ {
		got := a.DecayEpsilon(0.999)
		if got >= prev {
			t.Fatalf("epsilon did not decrease: %v -> %v", prev, got)
		}
		prev = got
	}
	want := 0.2 * math.Pow(0.999, 10)
	if math.Abs(a.Epsilon()-want) > 1e-12 {
		t.Errorf("Epsilon() = %v, want %v", a.Epsilon(), want)
	}
	a.SetEpsilon(0.5)
	if a.Epsilon() != 0.5 {
		t.Errorf("SetEpsilon: Epsilon() = %v", a.Epsilon())
	}
}

func TestActionStrategyString(t *testing.T) {
	tests := []struct {
		s    ActionStrategy
		want string
	}{
		{Random, "random"},
		{Greedy, "greedy"},
		{EpsilonGreedy, "epsilon_greedy"},
		{ActionStrategy(9), "ActionStrategy(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
