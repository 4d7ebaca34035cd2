package qlearning

import "fmt"

// ActionStrategy selects which policy picks an action.
type ActionStrategy int

const (
	Random        ActionStrategy = iota + 1 // uniform over all actions
	Greedy                                  // best known action, ties broken at random
	EpsilonGreedy                           // Random with probability epsilon, Greedy otherwise
)

var strategyNames = [...]string{Random: "random", Greedy: "greedy", EpsilonGreedy: "epsilon_greedy"}

var _ fmt.Stringer = ActionStrategy(0)

func (s ActionStrategy) String() string {
	if s >= Random && s <= EpsilonGreedy {
		return strategyNames[s]
	}
	return fmt.Sprintf("ActionStrategy(%d)", int(s))
}
