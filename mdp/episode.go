package mdp

type Transition struct {
	State0 Cell
	Action Action
	State1 Cell
	Reward Reward
	Done   bool
}

// Episode is the trajectory of a single run from reset to termination.
type Episode struct {
	History []Transition
	Total   Reward
}

func (e *Episode) Step(state0 Cell, action Action, state1 Cell, reward Reward, done bool) Transition {
	t := Transition{
		State0: state0,
		Action: action,
		State1: state1,
		Reward: reward,
		Done:   done,
	}
	e.History = append(e.History, t)
	e.Total += reward
	return t
}

// Len returns the number of steps taken so far.
func (e *Episode) Len() int {
	return len(e.History)
}

// Reset empties the trajectory while keeping its backing storage.
func (e *Episode) Reset() {
	e.History = e.History[:0]
	e.Total = 0
}
