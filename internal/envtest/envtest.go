// Package envtest provides a scripted, pure-Go environment that stands
// in for a Gym environment in tests.
package envtest

import (
	"fmt"

	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
	"gonum.org/v1/gonum/mat"
)

// Env is a scripted environment producing RGB frames. The t-th frame
// of an episode (t = 0 at reset) is produced by Frame. Every step
// gives reward 1 and the episode ends after EpisodeLength steps.
type Env struct {
	Height, Width int
	EpisodeLength int
	NumActions    int

	// Frame returns the frame at step t. If nil, UniformFrame is used.
	Frame func(t int) *etensor.Float64

	// Attrs holds extra attributes reachable through Attr
	Attrs map[string]interface{}

	// Lives, if positive, is reported in the step info under
	// "ale.lives" and decremented every LifeEvery steps.
	Lives     int
	LifeEvery int

	t          int
	lives      int
	continuous bool

	// Recorded calls
	LastAction *mat.VecDense
	Resets     int
	Steps      int
	Seeds      []int
	Actions    []float64
	Renders    []gymwrap.RenderMode
	Closed     int

	obsSpace, actSpace gymwrap.Space
}

// New returns a scripted environment with frames of shape
// (height, width, 3)
func New(height, width int) *Env {
	obsSpace, err := gymwrap.NewUniformBox(0, 255, []int{height, width, 3})
	if err != nil {
		panic(fmt.Sprintf("new: %v", err))
	}
	actSpace, err := gymwrap.NewDiscrete(6)
	if err != nil {
		panic(fmt.Sprintf("new: %v", err))
	}

	return &Env{
		Height:        height,
		Width:         width,
		EpisodeLength: 1000,
		NumActions:    6,
		obsSpace:      obsSpace,
		actSpace:      actSpace,
	}
}

// NewContinuous returns a scripted environment with frames of shape
// (height, width, 3) and a continuous action space of the given
// dimension bounded by [low, high]
func NewContinuous(height, width, dims int, low, high float64) *Env {
	e := New(height, width)
	actSpace, err := gymwrap.NewUniformBox(low, high, []int{dims})
	if err != nil {
		panic(fmt.Sprintf("newContinuous: %v", err))
	}
	e.actSpace = actSpace
	e.continuous = true
	return e
}

// UniformFrame returns a (height, width, 3) frame whose every element
// is value
func UniformFrame(height, width int, value float64) *etensor.Float64 {
	frame := gymwrap.NewTensor([]int{height, width, 3}, nil)
	for i := range frame.Values {
		frame.Values[i] = value
	}
	return frame
}

func (e *Env) frame() *etensor.Float64 {
	if e.Frame != nil {
		return e.Frame(e.t)
	}
	return UniformFrame(e.Height, e.Width, float64(e.t%256))
}

// Name gets the name of the environment
func (e *Env) Name() string { return "Scripted-v0" }

// ContinuousAction returns whether actions are continuous
func (e *Env) ContinuousAction() bool { return e.continuous }

// ActionSpace returns the action space
func (e *Env) ActionSpace() gymwrap.Space { return e.actSpace }

// ObservationSpace returns the observation space
func (e *Env) ObservationSpace() gymwrap.Space { return e.obsSpace }

// Seed records the seed
func (e *Env) Seed(seed int) ([]int, error) {
	if e.Closed > 0 {
		return nil, gymwrap.ErrEnvironmentClosed
	}
	e.Seeds = append(e.Seeds, seed)
	return []int{seed}, nil
}

// Reset starts a new episode
func (e *Env) Reset() (*etensor.Float64, error) {
	if e.Closed > 0 {
		return nil, gymwrap.ErrEnvironmentClosed
	}
	e.t = 0
	e.lives = e.Lives
	e.Resets++
	return e.frame(), nil
}

// Step advances the episode by one frame
func (e *Env) Step(a *mat.VecDense) (*etensor.Float64, float64, bool,
	gymwrap.Info, error) {
	if e.Closed > 0 {
		return nil, 0, false, nil, gymwrap.ErrEnvironmentClosed
	}
	if a == nil || a.Len() != e.actSpace.Shape()[0] {
		return nil, 0, false, nil, fmt.Errorf("step: invalid action")
	}
	if !e.continuous && (int(a.AtVec(0)) >= e.NumActions || a.AtVec(0) < 0) {
		return nil, 0, false, nil, fmt.Errorf("step: action %v out of range",
			a.AtVec(0))
	}
	e.LastAction = mat.VecDenseCopyOf(a)

	e.t++
	e.Steps++
	e.Actions = append(e.Actions, a.AtVec(0))

	info := gymwrap.Info{"t": e.t}
	if e.Lives > 0 {
		if e.LifeEvery > 0 && e.t%e.LifeEvery == 0 && e.lives > 0 {
			e.lives--
		}
		info["ale.lives"] = e.lives
	}
	done := e.t >= e.EpisodeLength || (e.Lives > 0 && e.lives == 0)
	return e.frame(), 1.0, done, info, nil
}

// Render records the render call and returns the current frame in
// RGBArray mode
func (e *Env) Render(mode gymwrap.RenderMode) (*etensor.Float64, error) {
	if e.Closed > 0 {
		return nil, gymwrap.ErrEnvironmentClosed
	}
	e.Renders = append(e.Renders, mode)
	if mode == gymwrap.RGBArray {
		return e.frame(), nil
	}
	return nil, nil
}

// Close counts calls to Close
func (e *Env) Close() error {
	e.Closed++
	return nil
}

// Attr looks name up in Attrs
func (e *Env) Attr(name string) (interface{}, error) {
	if v, ok := e.Attrs[name]; ok {
		return v, nil
	}
	return nil, gymwrap.ErrNoAttribute
}
