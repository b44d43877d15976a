// Package gymwrap provides a uniform Go contract over OpenAI Gym style
// environments: classic control environments, vectorized environments
// and Atari frame environments all expose Seed, Reset, Step, Render and
// Close, while anything else on the underlying environment stays
// reachable through Attr.
//
// Observations and frames are *etensor.Float64 values and actions are
// *mat.VecDense values. A discrete action is a vector of length 1.
package gymwrap

import (
	"errors"
	"fmt"

	"github.com/emer/etable/etensor"
	"gonum.org/v1/gonum/mat"
)

// RenderMode selects how an environment renders itself
type RenderMode string

const (
	// Human renders to the environment's own display and returns no frame
	Human RenderMode = "human"

	// RGBArray returns the rendered frame as an (H, W, 3) tensor
	RGBArray RenderMode = "rgb_array"
)

// Info holds the auxiliary diagnostic information returned by Step
type Info map[string]interface{}

// Environment describes an OpenAI Gym style environment
type Environment interface {
	// Name gets the name of the environment
	Name() string

	// ContinuousAction returns whether or not the environment has
	// continuous actions
	ContinuousAction() bool

	// Seed seeds the Environment and returns the seeds used. A negative
	// seed lets the environment choose its own seed. It is equivalent
	// to calling env.seed(seed) in Python's OpenAI Gym.
	Seed(seed int) ([]int, error)

	// ActionSpace returns the action space as a Go data structure
	ActionSpace() Space

	// ObservationSpace returns the observation space as a Go data
	// structure
	ObservationSpace() Space

	// Reset resets the Environment and returns the starting
	// observation.
	Reset() (*etensor.Float64, error)

	// Step takes one environmental step given some action a and returns
	// the next observation, the reward, a flag indicating if the
	// episode has completed and the step info.
	Step(a *mat.VecDense) (*etensor.Float64, float64, bool, Info, error)

	// Render renders the environment. In RGBArray mode the frame is
	// returned, in Human mode the returned frame is nil.
	Render(mode RenderMode) (*etensor.Float64, error)

	// Close performs cleanup of environment resources. It should be
	// called once the environment is no longer needed.
	Close() error
}

// Attributer is implemented by environments that can look up
// attributes which are not part of the Environment interface, such as
// the attributes of a Python environment object.
type Attributer interface {
	Attr(name string) (interface{}, error)
}

// Unwrapper is implemented by wrappers to expose the environment they
// wrap
type Unwrapper interface {
	Unwrap() Environment
}

// Attr looks up the attribute name on env. If env cannot answer, the
// lookup falls through each wrapped environment in turn until one
// can. ErrNoAttribute is returned if nothing in the chain has the
// attribute.
func Attr(env Environment, name string) (interface{}, error) {
	for env != nil {
		if a, ok := env.(Attributer); ok {
			value, err := a.Attr(name)
			if err == nil {
				return value, nil
			}
			if !errors.Is(err, ErrNoAttribute) {
				return nil, fmt.Errorf("attr: %v: %w", name, err)
			}
		}

		u, ok := env.(Unwrapper)
		if !ok {
			break
		}
		env = u.Unwrap()
	}
	return nil, fmt.Errorf("attr: %v: %w", name, ErrNoAttribute)
}

// Unwrapped returns the innermost environment of a chain of wrappers
func Unwrapped(env Environment) Environment {
	for {
		u, ok := env.(Unwrapper)
		if !ok {
			return env
		}
		inner := u.Unwrap()
		if inner == nil {
			return env
		}
		env = inner
	}
}
