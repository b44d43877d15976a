// Package environments builds ready-to-use gymwrap environments: a
// Python Gym environment behind the uniform GymWrapper contract, an
// Atari environment with the standard preprocessing and frame
// stacking, and vectors of either.
package environments

import (
	"fmt"

	"github.com/samuelfneumann/gymwrap"
	"github.com/samuelfneumann/gymwrap/pygym"
	"github.com/samuelfneumann/gymwrap/wrappers"
	"go.uber.org/zap"
)

// DefaultStack is the number of frames stacked by AtariEnv
const DefaultStack = 4

// Maker creates the environment registered under name
type Maker func(name string, logger *zap.Logger) (gymwrap.Environment, error)

// PythonMaker creates environments with Python's gym.make
func PythonMaker(name string, logger *zap.Logger) (gymwrap.Environment,
	error) {
	return pygym.Make(name, logger)
}

// Wrap puts env behind a GymWrapper
func Wrap(env gymwrap.Environment, logger *zap.Logger) (*gymwrap.GymWrapper,
	error) {
	return gymwrap.NewGymWrapper(env, gymwrap.WithLogger(logger))
}

// WrapAtari applies Atari preprocessing to env, stacks the last k
// processed frames and puts the result behind a GymWrapper.
// Observations have shape (1, k, H, W).
func WrapAtari(env gymwrap.Environment, c wrappers.AtariConfig, k int,
	logger *zap.Logger) (*gymwrap.GymWrapper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	atari, err := wrappers.NewAtariPreprocessing(env, c, logger)
	if err != nil {
		return nil, fmt.Errorf("wrapAtari: %w", err)
	}
	stack, err := wrappers.NewFrameStack(atari, k,
		wrappers.WithStackLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("wrapAtari: %w", err)
	}
	return Wrap(stack, logger)
}

// GymEnv returns the Python Gym environment name behind a GymWrapper.
// It is the Go equivalent of GymWrapper(gym.make(name)).
func GymEnv(name string, logger *zap.Logger) (*gymwrap.GymWrapper, error) {
	env, err := pygym.Make(name, logger)
	if err != nil {
		return nil, fmt.Errorf("gymEnv: %w", err)
	}

	wrapped, err := Wrap(env, logger)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("gymEnv: %w", err)
	}
	return wrapped, nil
}

// AtariEnv returns the Python Atari environment name with Atari
// preprocessing and k stacked frames, behind a GymWrapper. The name
// should be a raw frame environment, such as "PongNoFrameskip-v4",
// since frames are skipped by the preprocessing.
func AtariEnv(name string, c wrappers.AtariConfig, k int,
	logger *zap.Logger) (*gymwrap.GymWrapper, error) {
	env, err := pygym.Make(name, logger)
	if err != nil {
		return nil, fmt.Errorf("atariEnv: %w", err)
	}

	wrapped, err := WrapAtari(env, c, k, logger)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("atariEnv: %w", err)
	}
	return wrapped, nil
}

// NewVec makes n environments with newEnv and returns them as a
// VecEnv. If any environment cannot be made, those already made are
// closed.
func NewVec(newEnv func() (gymwrap.Environment, error), n int, parallel bool,
	logger *zap.Logger) (*gymwrap.VecEnv, error) {
	if n <= 0 {
		return nil, fmt.Errorf("newVec: need at least one environment, "+
			"got %v", n)
	}

	envs := make([]gymwrap.Environment, 0, n)
	for i := 0; i < n; i++ {
		env, err := newEnv()
		if err != nil {
			for _, made := range envs {
				made.Close()
			}
			return nil, fmt.Errorf("newVec: environment %v: %w", i, err)
		}
		envs = append(envs, env)
	}

	return gymwrap.NewVecEnv(envs, parallel, logger)
}

// NewVecGymEnv returns n copies of the Python Gym environment name,
// each behind a GymWrapper, as a VecEnv
func NewVecGymEnv(name string, n int, parallel bool,
	logger *zap.Logger) (*gymwrap.VecEnv, error) {
	return NewVec(func() (gymwrap.Environment, error) {
		return GymEnv(name, logger)
	}, n, parallel, logger)
}
