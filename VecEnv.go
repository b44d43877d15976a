package gymwrap

import (
	"fmt"
	"maps"

	"github.com/emer/etable/etensor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// TerminalObservation is the Info key under which VecEnv stores the
// last observation of an episode that was automatically reset
const TerminalObservation = "terminal_observation"

// VecEnv steps a fixed set of environments together. When a
// sub-environment finishes an episode it is reset immediately: the
// returned observation is the first observation of the next episode
// and the final observation is stored in the step info under
// TerminalObservation.
//
// With parallel set, each sub-environment is reset and stepped on its
// own goroutine. Each sub-environment is still only ever used by one
// goroutine at a time.
type VecEnv struct {
	envs     []Environment
	parallel bool
	logger   *zap.Logger
}

// NewVecEnv returns a new VecEnv over envs. All environments should
// share observation and action spaces.
func NewVecEnv(envs []Environment, parallel bool,
	logger *zap.Logger) (*VecEnv, error) {
	if len(envs) == 0 {
		return nil, fmt.Errorf("newVecEnv: no environments")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VecEnv{
		envs:     envs,
		parallel: parallel,
		logger:   logger,
	}, nil
}

// Len returns the number of sub-environments
func (v *VecEnv) Len() int {
	return len(v.envs)
}

// Env returns the i-th sub-environment
func (v *VecEnv) Env(i int) Environment {
	return v.envs[i]
}

// ObservationSpace returns the observation space of a single
// sub-environment
func (v *VecEnv) ObservationSpace() Space {
	return v.envs[0].ObservationSpace()
}

// ActionSpace returns the action space of a single sub-environment
func (v *VecEnv) ActionSpace() Space {
	return v.envs[0].ActionSpace()
}

// each runs fn for every sub-environment, either serially or on one
// goroutine per sub-environment. The first error is returned.
func (v *VecEnv) each(fn func(i int, env Environment) error) error {
	if !v.parallel {
		for i, env := range v.envs {
			if err := fn(i, env); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	for i, env := range v.envs {
		i, env := i, env
		g.Go(func() error {
			return fn(i, env)
		})
	}
	return g.Wait()
}

// Seed seeds sub-environment i with seed+i. A negative seed lets every
// sub-environment choose its own seed.
func (v *VecEnv) Seed(seed int) ([][]int, error) {
	seeds := make([][]int, len(v.envs))
	err := v.each(func(i int, env Environment) error {
		s := seed
		if seed >= 0 {
			s = seed + i
		}
		var err error
		seeds[i], err = env.Seed(s)
		if err != nil {
			return fmt.Errorf("seed: environment %v: %w", i, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seeds, nil
}

// Reset resets every sub-environment and returns their starting
// observations
func (v *VecEnv) Reset() ([]*etensor.Float64, error) {
	obs := make([]*etensor.Float64, len(v.envs))
	err := v.each(func(i int, env Environment) error {
		var err error
		obs[i], err = env.Reset()
		if err != nil {
			return fmt.Errorf("reset: environment %v: %w", i, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obs, nil
}

// Step steps sub-environment i with actions[i]
func (v *VecEnv) Step(actions []*mat.VecDense) ([]*etensor.Float64,
	[]float64, []bool, []Info, error) {
	if len(actions) != len(v.envs) {
		return nil, nil, nil, nil, fmt.Errorf("step: got %v actions for %v "+
			"environments", len(actions), len(v.envs))
	}

	obs := make([]*etensor.Float64, len(v.envs))
	rewards := make([]float64, len(v.envs))
	dones := make([]bool, len(v.envs))
	infos := make([]Info, len(v.envs))

	err := v.each(func(i int, env Environment) error {
		o, r, done, info, err := env.Step(actions[i])
		if err != nil {
			return fmt.Errorf("step: environment %v: %w", i, err)
		}
		if done {
			// The sub-environment may still own info
			info = maps.Clone(info)
			if info == nil {
				info = Info{}
			}
			info[TerminalObservation] = o
			o, err = env.Reset()
			if err != nil {
				return fmt.Errorf("step: could not reset environment %v: %w",
					i, err)
			}
			v.logger.Debug("episode done", zap.Int("env", i))
		}

		if info == nil {
			info = Info{}
		}
		obs[i], rewards[i], dones[i], infos[i] = o, r, done, info
		return nil
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return obs, rewards, dones, infos, nil
}

// Render renders every sub-environment
func (v *VecEnv) Render(mode RenderMode) ([]*etensor.Float64, error) {
	frames := make([]*etensor.Float64, len(v.envs))
	for i, env := range v.envs {
		frame, err := env.Render(mode)
		if err != nil {
			return nil, fmt.Errorf("render: environment %v: %w", i, err)
		}
		frames[i] = frame
	}
	return frames, nil
}

// Close closes every sub-environment. All sub-environments are closed
// even if some fail; the first error is returned.
func (v *VecEnv) Close() error {
	var first error
	for i, env := range v.envs {
		if err := env.Close(); err != nil && first == nil {
			first = fmt.Errorf("close: environment %v: %w", i, err)
		}
	}
	return first
}
