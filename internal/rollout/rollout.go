// Package rollout runs a uniformly random policy in a vector of
// environments and records the return of every finished episode.
package rollout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samuelfneumann/gymwrap"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Result holds the outcome of a rollout
type Result struct {
	RunID string

	// Steps is the number of vector steps taken
	Steps int

	// Returns holds the undiscounted return of every finished episode,
	// in the order the episodes finished
	Returns []float64
}

// MeanReturn returns the mean episode return, or 0 if no episode
// finished
func (r *Result) MeanReturn() float64 {
	if len(r.Returns) == 0 {
		return 0
	}
	return stat.Mean(r.Returns, nil)
}

// Run seeds env with seed, resets it and takes steps random actions
// in every sub-environment. A negative seed leaves seeding to the
// environments. Run stops early if ctx is done.
func Run(ctx context.Context, env *gymwrap.VecEnv, steps, seed int,
	logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	res := &Result{RunID: uuid.New().String()}
	logger = logger.With(zap.String("run", res.RunID))

	if seed >= 0 {
		env.ActionSpace().Seed(uint64(seed))
		if _, err := env.Seed(seed); err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
	}
	if _, err := env.Reset(); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	running := make([]float64, env.Len())
	actions := make([]*mat.VecDense, env.Len())
	for res.Steps < steps {
		select {
		case <-ctx.Done():
			logger.Info("rollout cancelled", zap.Int("steps", res.Steps))
			return res, ctx.Err()
		default:
		}

		for i := range actions {
			actions[i] = env.ActionSpace().Sample()[0]
		}
		_, rewards, dones, _, err := env.Step(actions)
		if err != nil {
			return nil, fmt.Errorf("run: step %v: %w", res.Steps, err)
		}
		res.Steps++

		for i, done := range dones {
			running[i] += rewards[i]
			if !done {
				continue
			}
			logger.Debug("episode done", zap.Int("env", i),
				zap.Float64("return", running[i]))
			res.Returns = append(res.Returns, running[i])
			running[i] = 0
		}
	}

	logger.Info("rollout finished", zap.Int("steps", res.Steps),
		zap.Int("episodes", len(res.Returns)),
		zap.Float64("meanReturn", res.MeanReturn()))
	return res, nil
}
