package wrappers_test

import (
	"testing"

	"github.com/samuelfneumann/gymwrap"
	"github.com/samuelfneumann/gymwrap/internal/envtest"
	"github.com/samuelfneumann/gymwrap/wrappers"
	"gonum.org/v1/gonum/mat"
)

func TestNewFlattenObservation(t *testing.T) {
	// Create the environment
	env := envtest.New(3, 2)

	flat, err := wrappers.NewFlattenObservation(env)
	if err != nil {
		t.Fatal(err)
	}

	if shape := flat.ObservationSpace().Shape(); len(shape) != 1 ||
		shape[0] != 18 {
		t.Errorf("observationSpace: expected shape [18], got %v", shape)
	}

	// Reset the environment
	obs, err := flat.Reset()
	if err != nil {
		t.Errorf("reset: %v", err)
	}
	if obs.NumDims() != 1 || obs.Len() != 18 {
		t.Errorf("reset: expected flat observation of 18 values, got shape "+
			"%v", obs.Shapes())
	}

	// Seed the environment
	_, err = flat.Seed(10)
	if err != nil {
		t.Errorf("seed: %v", err)
	}

	// Take an environmental step
	obs, _, _, _, err = flat.Step(mat.NewVecDense(1, []float64{0.0}))
	if err != nil {
		t.Errorf("step: %v", err)
	}
	if !flat.ObservationSpace().Contains(obs) {
		t.Errorf("step: observation not in observation space")
	}

	// Test the observation function
	x := gymwrap.NewTensor([]int{3, 2, 3}, nil)
	if got := flat.Observation(x); got.Len() != 18 {
		t.Errorf("observation: expected 18 values, got %v", got.Len())
	}

	flat.Close()
}
