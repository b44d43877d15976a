package wrappers_test

import (
	"math"
	"testing"

	"github.com/samuelfneumann/gymwrap/internal/envtest"
	"github.com/samuelfneumann/gymwrap/wrappers"
	"gonum.org/v1/gonum/mat"
)

func TestNewRescaleAction(t *testing.T) {
	// Create the environment
	env := envtest.NewContinuous(2, 2, 1, -1, 1)

	rescaled, err := wrappers.NewRescaleAction(env, -0.5, 0.5)
	if err != nil {
		t.Fatalf("newRescaleAction: %v", err)
	}

	// Reset the environment
	_, err = rescaled.Reset()
	if err != nil {
		t.Errorf("reset: %v", err)
	}

	// Seed the environment
	_, err = rescaled.Seed(10)
	if err != nil {
		t.Errorf("seed: %v", err)
	}

	// Take an environmental step
	_, _, _, _, err = rescaled.Step(mat.NewVecDense(1, []float64{0.0}))
	if err != nil {
		t.Errorf("step: %v", err)
	}

	// Test the action scaling function
	action, err := rescaled.Action(mat.NewVecDense(1, []float64{0.1}))
	if err != nil {
		t.Errorf("action: %v", err)
	}

	threshold := 0.0000001
	if math.Abs(action.AtVec(0)-0.2) > threshold {
		t.Errorf("action: got %v expected 0.2", action.AtVec(0))
	}

	// The new action space replaces the old one
	if high := rescaled.ActionSpace().High()[0].AtVec(0); high != 0.5 {
		t.Errorf("actionSpace: expected upper bound 0.5, got %v", high)
	}

	// Actions outside [a, b] are rejected
	_, err = rescaled.Action(mat.NewVecDense(1, []float64{0.7}))
	if err == nil {
		t.Error("action: expected error for action outside [-0.5, 0.5]")
	}

	rescaled.Close()
}
