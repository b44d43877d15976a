package wrappers

import (
	"fmt"

	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
	"gonum.org/v1/gonum/mat"
)

// FlattenObservation wraps a gymwrap.Environment and flattens the
// observations into rank 1 tensors, in row-major order.
//
// The observation space of a FlattenObservation wrapper is always a
// Box.
//
// https://github.com/openai/gym/blob/master/gym/wrappers/flatten_observation.py
type FlattenObservation struct {
	gymwrap.Environment

	observationSpace *gymwrap.Box
}

// NewFlattenObservation returns a new gymwrap.Environment that flattens
// state observations
func NewFlattenObservation(env gymwrap.Environment) (*FlattenObservation,
	error) {
	space := env.ObservationSpace()
	if space == nil {
		return nil, fmt.Errorf("newFlattenObservation: environment has no " +
			"observation space")
	}

	low := space.Low()[0]
	high := space.High()[0]
	l := make([]float64, low.Len())
	h := make([]float64, high.Len())
	for i := range l {
		l[i] = low.AtVec(i)
		h[i] = high.AtVec(i)
	}
	obsSpace, err := gymwrap.NewBox(l, h, []int{len(l)})
	if err != nil {
		return nil, fmt.Errorf("newFlattenObservation: could not create "+
			"observation space: %v", err)
	}

	return &FlattenObservation{
		Environment:      env,
		observationSpace: obsSpace,
	}, nil
}

// Unwrap returns the wrapped environment
func (f *FlattenObservation) Unwrap() gymwrap.Environment {
	return f.Environment
}

// Name gets the name of the environment
func (f *FlattenObservation) Name() string {
	return fmt.Sprintf("FlattenObservation(%v)", f.Environment.Name())
}

// ObservationSpace returns the flattened observation space
func (f *FlattenObservation) ObservationSpace() gymwrap.Space {
	return f.observationSpace
}

// Observation returns a flattened copy of the observation x
func (f *FlattenObservation) Observation(x *etensor.Float64) *etensor.Float64 {
	if x == nil {
		return nil
	}
	return gymwrap.NewTensor([]int{len(x.Values)}, x.Values)
}

// Reset resets the wrapped environment and returns the flattened
// starting observation
func (f *FlattenObservation) Reset() (*etensor.Float64, error) {
	obs, err := f.Environment.Reset()
	if err != nil {
		return nil, err
	}
	return f.Observation(obs), nil
}

// Step steps the wrapped environment and returns the flattened
// observation
func (f *FlattenObservation) Step(a *mat.VecDense) (*etensor.Float64,
	float64, bool, gymwrap.Info, error) {
	obs, reward, done, info, err := f.Environment.Step(a)
	if err != nil {
		return nil, 0, false, nil, err
	}
	return f.Observation(obs), reward, done, info, nil
}
