package wrappers

import (
	"fmt"

	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
	"gonum.org/v1/gonum/mat"
)

// ClipAction wraps a gymwrap.Environment and clips the continuous action
// within the valid bounds.
//
// https://github.com/openai/gym/blob/master/gym/wrappers/clip_action.py
type ClipAction struct {
	gymwrap.Environment

	box *gymwrap.Box
}

// NewClipAction returns a new gymwrap.Environment that clips the
// actions taken in env. The action space of env must be a *gymwrap.Box.
func NewClipAction(env gymwrap.Environment) (*ClipAction, error) {
	box, ok := env.ActionSpace().(*gymwrap.Box)
	if !ok {
		return nil, fmt.Errorf("newClipAction: action space %T is not a Box",
			env.ActionSpace())
	}

	return &ClipAction{
		Environment: env,
		box:         box,
	}, nil
}

// Unwrap returns the wrapped environment
func (c *ClipAction) Unwrap() gymwrap.Environment {
	return c.Environment
}

// Name gets the name of the environment
func (c *ClipAction) Name() string {
	return fmt.Sprintf("ClipAction(%v)", c.Environment.Name())
}

// Action returns action clipped to the bounds of the action space
func (c *ClipAction) Action(action *mat.VecDense) *mat.VecDense {
	return c.box.Clip(action)
}

// Step clips a and steps the wrapped environment
func (c *ClipAction) Step(a *mat.VecDense) (*etensor.Float64, float64, bool,
	gymwrap.Info, error) {
	if a.Len() != c.box.Low()[0].Len() {
		return nil, 0, false, nil, fmt.Errorf("step: action has %v "+
			"dimensions, action space has %v", a.Len(), c.box.Low()[0].Len())
	}
	return c.Environment.Step(c.Action(a))
}
