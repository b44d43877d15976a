package wrappers

import (
	"fmt"

	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
	"gonum.org/v1/gonum/mat"
)

// PixelObservation wraps a gymwrap.Environment to provide pixel
// observations: the observation returned by Reset and Step is the
// frame returned by Render(gymwrap.RGBArray). This gives classic
// control environments frames which can be fed to a FrameStack.
//
// https://github.com/openai/gym/blob/master/gym/wrappers/pixel_observation.py
type PixelObservation struct {
	gymwrap.Environment

	observationSpace *gymwrap.Box
}

// NewPixelObservation returns a new gymwrap.Environment with pixel
// observations. The environment is reset and rendered once to find
// the frame shape.
func NewPixelObservation(env gymwrap.Environment) (*PixelObservation,
	error) {
	if _, err := env.Reset(); err != nil {
		return nil, fmt.Errorf("newPixelObservation: could not reset "+
			"environment: %w", err)
	}
	frame, err := env.Render(gymwrap.RGBArray)
	if err != nil {
		return nil, fmt.Errorf("newPixelObservation: could not render "+
			"environment: %w", err)
	} else if frame == nil {
		return nil, fmt.Errorf("newPixelObservation: environment rendered " +
			"no frame")
	}

	space, err := gymwrap.NewUniformBox(0, 255, frame.Shapes())
	if err != nil {
		return nil, fmt.Errorf("newPixelObservation: %v", err)
	}

	return &PixelObservation{
		Environment:      env,
		observationSpace: space,
	}, nil
}

// Unwrap returns the wrapped environment
func (p *PixelObservation) Unwrap() gymwrap.Environment {
	return p.Environment
}

// Name gets the name of the environment
func (p *PixelObservation) Name() string {
	return fmt.Sprintf("Pixel(%v)", p.Environment.Name())
}

// ObservationSpace returns the space of rendered frames
func (p *PixelObservation) ObservationSpace() gymwrap.Space {
	return p.observationSpace
}

func (p *PixelObservation) render() (*etensor.Float64, error) {
	frame, err := p.Environment.Render(gymwrap.RGBArray)
	if err != nil {
		return nil, err
	} else if frame == nil {
		return nil, fmt.Errorf("render: environment rendered no frame")
	}
	return frame, nil
}

// Reset resets the wrapped environment and returns the rendered frame
func (p *PixelObservation) Reset() (*etensor.Float64, error) {
	if _, err := p.Environment.Reset(); err != nil {
		return nil, err
	}
	frame, err := p.render()
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return frame, nil
}

// Step steps the wrapped environment and returns the rendered frame
func (p *PixelObservation) Step(a *mat.VecDense) (*etensor.Float64, float64,
	bool, gymwrap.Info, error) {
	_, reward, done, info, err := p.Environment.Step(a)
	if err != nil {
		return nil, 0, false, nil, err
	}
	frame, err := p.render()
	if err != nil {
		return nil, 0, false, nil, fmt.Errorf("step: %w", err)
	}
	return frame, reward, done, info, nil
}
