package wrappers

import (
	"fmt"

	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
	"gonum.org/v1/gonum/mat"
)

// RescaleAction wraps a gymwrap.Environment and rescales the continuous
// action space of the environment to a range [a, b]. The action
// space should be a bounded Box.
//
// https://github.com/openai/gym/blob/master/gym/wrappers/rescale_action.py
type RescaleAction struct {
	gymwrap.Environment

	a, b        float64
	low, high   *mat.VecDense
	actionSpace *gymwrap.Box
}

// NewRescaleAction returns a new gymwrap.Environment that rescales the
// actions taken in env.
func NewRescaleAction(env gymwrap.Environment, a, b float64) (*RescaleAction,
	error) {
	if a >= b {
		return nil, fmt.Errorf("newRescaleAction: a must be below b (%v >= %v)",
			a, b)
	}
	box, ok := env.ActionSpace().(*gymwrap.Box)
	if !ok {
		return nil, fmt.Errorf("newRescaleAction: action space %T is not a "+
			"Box", env.ActionSpace())
	}
	for i := range box.BoundedBelow() {
		if !box.BoundedBelow()[i] || !box.BoundedAbove()[i] {
			return nil, fmt.Errorf("newRescaleAction: action space is "+
				"unbounded in dimension %v", i)
		}
	}

	// Create the new action space
	actionSpace, err := gymwrap.NewUniformBox(a, b, box.Shape())
	if err != nil {
		return nil, fmt.Errorf("newRescaleAction: could not create action "+
			"space: %v", err)
	}

	return &RescaleAction{
		Environment: env,
		a:           a,
		b:           b,
		low:         box.Low()[0],
		high:        box.High()[0],
		actionSpace: actionSpace,
	}, nil
}

// Unwrap returns the wrapped environment
func (r *RescaleAction) Unwrap() gymwrap.Environment {
	return r.Environment
}

// Name gets the name of the environment
func (r *RescaleAction) Name() string {
	return fmt.Sprintf("RescaleAction(%v)", r.Environment.Name())
}

// ActionSpace returns the rescaled action space
func (r *RescaleAction) ActionSpace() gymwrap.Space {
	return r.actionSpace
}

// Action maps action from [a, b] to the bounds of the wrapped
// environment's action space
func (r *RescaleAction) Action(action *mat.VecDense) (*mat.VecDense, error) {
	if action.Len() != r.low.Len() {
		return nil, fmt.Errorf("action: action has %v dimensions, action "+
			"space has %v", action.Len(), r.low.Len())
	}
	if !r.actionSpace.Contains(action) {
		return nil, fmt.Errorf("action: %v not in [%v, %v]",
			mat.Formatted(action.T()), r.a, r.b)
	}

	scaled := mat.NewVecDense(action.Len(), nil)
	for i := 0; i < action.Len(); i++ {
		low, high := r.low.AtVec(i), r.high.AtVec(i)
		scaled.SetVec(i, low+(high-low)*(action.AtVec(i)-r.a)/(r.b-r.a))
	}
	return scaled, nil
}

// Step rescales a and steps the wrapped environment
func (r *RescaleAction) Step(a *mat.VecDense) (*etensor.Float64, float64,
	bool, gymwrap.Info, error) {
	scaled, err := r.Action(a)
	if err != nil {
		return nil, 0, false, nil, fmt.Errorf("step: %w", err)
	}
	return r.Environment.Step(scaled)
}
