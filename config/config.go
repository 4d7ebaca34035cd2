// Package config loads the training parameters from a JSON file, falling
// back to built-in defaults for a missing file or missing keys.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"

	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/CodeStranger-Fred/cartpole/discretize"
	"github.com/CodeStranger-Fred/cartpole/mdp"
)

// DefaultPath is where the parameter file is looked up by default.
const DefaultPath = "./config/parameters.json"

// EnvPrefix prefixes environment variables overriding file values,
// e.g. CARTPOLE_ALPHA=0.2.
const EnvPrefix = "CARTPOLE"

var ErrInvalidParameters = errors.New("config: parameters out of range")

// Parameters are the environment, agent and training settings.
type Parameters struct {
	CartVelocityMin      float64 `mapstructure:"cart_velocity_min"`
	CartVelocityMax      float64 `mapstructure:"cart_velocity_max"`
	PoleAngleVelocityMin float64 `mapstructure:"pole_angle_velocity_min"`
	PoleAngleVelocityMax float64 `mapstructure:"pole_angle_velocity_max"`

	BinsPosition      int `mapstructure:"number_of_bin_position"`
	BinsVelocity      int `mapstructure:"number_of_bin_velocity"`
	BinsAngle         int `mapstructure:"number_of_bin_angle"`
	BinsAngleVelocity int `mapstructure:"number_of_bin_angle_velocity"`

	Alpha    float64 `mapstructure:"alpha"`
	Gamma    float64 `mapstructure:"gamma"`
	Epsilon  float64 `mapstructure:"epsilon"`
	Episodes int     `mapstructure:"number_of_epoch"`

	Seed           int64   `mapstructure:"seed"`
	WarmupEpisodes int     `mapstructure:"warmup_episodes"`
	DecayAfter     int     `mapstructure:"decay_after"`
	EpsilonDecay   float64 `mapstructure:"epsilon_decay"`
	ReportEvery    int     `mapstructure:"report_every"`
}

var defaults = map[string]any{
	"cart_velocity_min":       -3.0,
	"cart_velocity_max":       3.0,
	"pole_angle_velocity_min": -10.0,
	"pole_angle_velocity_max": 10.0,

	"number_of_bin_position":       30,
	"number_of_bin_velocity":       30,
	"number_of_bin_angle":          30,
	"number_of_bin_angle_velocity": 30,

	"alpha":           0.1,
	"gamma":           1.0,
	"epsilon":         0.2,
	"number_of_epoch": 15000,

	"seed":            0,
	"warmup_episodes": 500,
	"decay_after":     10000,
	"epsilon_decay":   0.999,
	"report_every":    500,
}

// Default returns the built-in parameters.
func Default() Parameters {
	p, err := decode(newViper())
	if err != nil {
		// defaults are static and always decode
		panic(err)
	}
	return p
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (Parameters, error) {
	var p Parameters
	if err := v.Unmarshal(&p); err != nil {
		return Parameters{}, fmt.Errorf("config: decode: %w", err)
	}
	return p, nil
}

// Load reads the parameter file at path. A missing file is not an error:
// found is false and the defaults are returned. Keys absent from the file
// keep their default values.
func Load(path string) (p Parameters, found bool, err error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return Parameters{}, false, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		found = true
	}
	p, err = decode(v)
	if err != nil {
		return Parameters{}, found, err
	}
	if err := p.Validate(); err != nil {
		return Parameters{}, found, fmt.Errorf("%s: %w", path, err)
	}
	return p, found, nil
}

// Bins returns the per-axis bin counts in observation order.
func (p Parameters) Bins() [mdp.Dims]int {
	return [mdp.Dims]int{p.BinsPosition, p.BinsVelocity, p.BinsAngle, p.BinsAngleVelocity}
}

// Bounds overrides the cart velocity and pole angular velocity axes of the
// simulator's native bounds, which are unbounded for those two axes.
func (p Parameters) Bounds(native [mdp.Dims]r1.Interval) discretize.Bounds {
	b := discretize.Bounds(native)
	b[1] = r1.Interval{Min: p.CartVelocityMin, Max: p.CartVelocityMax}
	b[3] = r1.Interval{Min: p.PoleAngleVelocityMin, Max: p.PoleAngleVelocityMax}
	return b
}

// Validate checks every parameter against its allowed range.
func (p Parameters) Validate() error {
	for name, b := range map[string][2]float64{
		"cart velocity":       {p.CartVelocityMin, p.CartVelocityMax},
		"pole angle velocity": {p.PoleAngleVelocityMin, p.PoleAngleVelocityMax},
	} {
		if !finite(b[0]) || !finite(b[1]) || b[0] >= b[1] {
			return fmt.Errorf("%w: %s bounds [%v, %v]", ErrInvalidParameters, name, b[0], b[1])
		}
	}
	for axis, n := range p.Bins() {
		if n < 1 {
			return fmt.Errorf("%w: axis %d has %d bins", ErrInvalidParameters, axis, n)
		}
	}
	switch {
	case p.Alpha <= 0 || p.Alpha > 1:
		return fmt.Errorf("%w: ALPHA = %v, want (0, 1]", ErrInvalidParameters, p.Alpha)
	case p.Gamma <= 0 || p.Gamma > 1:
		return fmt.Errorf("%w: GAMMA = %v, want (0, 1]", ErrInvalidParameters, p.Gamma)
	case p.Epsilon < 0 || p.Epsilon > 1:
		return fmt.Errorf("%w: EPSILON = %v, want [0, 1]", ErrInvalidParameters, p.Epsilon)
	case p.EpsilonDecay <= 0 || p.EpsilonDecay > 1:
		return fmt.Errorf("%w: EPSILON_DECAY = %v, want (0, 1]", ErrInvalidParameters, p.EpsilonDecay)
	case p.Episodes < 0:
		return fmt.Errorf("%w: NUMBER_OF_EPOCH = %d", ErrInvalidParameters, p.Episodes)
	case p.WarmupEpisodes < 0 || p.DecayAfter < 0 || p.ReportEvery < 0:
		return fmt.Errorf("%w: negative episode threshold", ErrInvalidParameters)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}
