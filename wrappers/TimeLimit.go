package wrappers

import (
	"fmt"

	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
	"gonum.org/v1/gonum/mat"
)

// TruncatedKey is the step info key set to true when an episode was
// ended by a TimeLimit rather than by the environment
const TruncatedKey = "TimeLimit.truncated"

// TimeLimit wraps a gymwrap.Environment and ends episodes after a
// fixed number of steps. Note that environments made through Gym
// usually carry their own default time limit, in which case the
// lower of the two limits is the effective one.
//
// https://github.com/openai/gym/blob/master/gym/wrappers/time_limit.py
type TimeLimit struct {
	gymwrap.Environment

	maxEpisodeSteps int
	elapsedSteps    int
}

// NewTimeLimit returns a new TimeLimit wrapper ending episodes of env
// after maxEpisodeSteps steps
func NewTimeLimit(env gymwrap.Environment,
	maxEpisodeSteps int) (*TimeLimit, error) {
	if maxEpisodeSteps <= 0 {
		return nil, fmt.Errorf("newTimeLimit: maxEpisodeSteps must be positive")
	}

	return &TimeLimit{
		Environment:     env,
		maxEpisodeSteps: maxEpisodeSteps,
	}, nil
}

// Unwrap returns the wrapped environment
func (t *TimeLimit) Unwrap() gymwrap.Environment {
	return t.Environment
}

// Name gets the name of the environment
func (t *TimeLimit) Name() string {
	return fmt.Sprintf("TimeLimit(steps: %v)(%v)", t.maxEpisodeSteps,
		t.Environment.Name())
}

// ElapsedSteps returns the number of steps taken in the current
// episode
func (t *TimeLimit) ElapsedSteps() int {
	return t.elapsedSteps
}

// Reset resets the wrapped environment and the step counter
func (t *TimeLimit) Reset() (*etensor.Float64, error) {
	t.elapsedSteps = 0
	return t.Environment.Reset()
}

// Step steps the wrapped environment and ends the episode once the
// step limit is reached
func (t *TimeLimit) Step(a *mat.VecDense) (*etensor.Float64, float64, bool,
	gymwrap.Info, error) {
	obs, reward, done, info, err := t.Environment.Step(a)
	if err != nil {
		return nil, 0, false, nil, err
	}

	t.elapsedSteps++
	if t.elapsedSteps >= t.maxEpisodeSteps {
		if info == nil {
			info = gymwrap.Info{}
		}
		info[TruncatedKey] = !done
		done = true
	}
	return obs, reward, done, info, nil
}
