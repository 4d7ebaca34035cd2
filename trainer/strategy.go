package trainer

import (
	"errors"
	"fmt"
)

var ErrUnknownStrategy = errors.New("trainer: unknown strategy")

// Strategy selects what Simulate does before running its episode.
type Strategy int

const (
	RandomStrategy Strategy = iota + 1 // act at random
	Trained                            // act greedily with the current table
	LoadAndApply                       // load the table from disk, then act greedily
	TrainAndApply                      // train, save the table, then act greedily
)

var (
	strategyNames = [...]string{
		RandomStrategy: "random",
		Trained:        "trained",
		LoadAndApply:   "load_and_apply",
		TrainAndApply:  "train_and_apply",
	}
	strategyByName = map[string]Strategy{
		"random":          RandomStrategy,
		"trained":         Trained,
		"load_and_apply":  LoadAndApply,
		"train_and_apply": TrainAndApply,
	}
)

func (s Strategy) String() string {
	if s >= RandomStrategy && s <= TrainAndApply {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy returns the strategy with the given name.
func ParseStrategy(name string) (Strategy, error) {
	s, ok := strategyByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

// Set and Type let a Strategy be used as a command-line flag value.
func (s *Strategy) Set(name string) error {
	v, err := ParseStrategy(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s *Strategy) Type() string { return "strategy" }
