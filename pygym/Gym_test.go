package pygym_test

import (
	"errors"
	"os"
	"testing"

	"github.com/samuelfneumann/gymwrap"
	"github.com/samuelfneumann/gymwrap/pygym"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"
)

func TestMain(m *testing.M) {
	code := m.Run()
	pygym.Finalize()
	os.Exit(code)
}

// requireGym skips the test when Python gym cannot be imported
func requireGym(t *testing.T) {
	t.Helper()
	if err := pygym.Initialize(); err != nil {
		t.Skipf("python gym not available: %v", err)
	}
}

func TestMake(t *testing.T) {
	requireGym(t)

	tests := []struct {
		name       string
		continuous bool
	}{
		{"MountainCarContinuous-v0", true},
		{"CartPole-v1", false},
	}

	for _, test := range tests {
		// Create the environment
		env, err := pygym.Make(test.name, zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("make: %v", err)
		}

		if env.ContinuousAction() != test.continuous {
			t.Errorf("make: expected continuous action %v for %v",
				test.continuous, test.name)
		}

		// Reset the environment
		obs, err := env.Reset()
		if err != nil {
			t.Errorf("reset: %v", err)
		}
		if !env.ObservationSpace().Contains(obs) {
			t.Errorf("reset: observation not in observation space")
		}

		// Seed the environment
		_, err = env.Seed(10)
		if err != nil {
			t.Errorf("seed: %v", err)
		}

		// Take an environmental step
		action := env.ActionSpace().Sample()[0]
		_, _, _, info, err := env.Step(action)
		if err != nil {
			t.Errorf("step: %v", err)
		}
		if info == nil {
			t.Errorf("step: expected non-nil info")
		}

		if err := env.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	}
}

func TestClose(t *testing.T) {
	requireGym(t)

	env, err := pygym.Make("CartPole-v1", nil)
	if err != nil {
		t.Fatalf("make: %v", err)
	}

	if err := env.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if err := env.Close(); err != nil {
		t.Errorf("close: second close should have no effect: %v", err)
	}

	_, _, _, _, err = env.Step(mat.NewVecDense(1, []float64{0}))
	if !errors.Is(err, gymwrap.ErrEnvironmentClosed) {
		t.Errorf("step: expected ErrEnvironmentClosed, got %v", err)
	}
	_, err = env.Reset()
	if !errors.Is(err, gymwrap.ErrEnvironmentClosed) {
		t.Errorf("reset: expected ErrEnvironmentClosed, got %v", err)
	}
}

func TestSeedNone(t *testing.T) {
	requireGym(t)

	env, err := pygym.Make("CartPole-v1", nil)
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	defer env.Close()

	if _, err := env.Seed(-1); err != nil {
		t.Errorf("seed: %v", err)
	}
}

func TestAttr(t *testing.T) {
	requireGym(t)

	env, err := pygym.Make("CartPole-v1", nil)
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	defer env.Close()

	metadata, err := gymwrap.Attr(env, "metadata")
	if err != nil {
		t.Errorf("attr: %v", err)
	}
	if _, ok := metadata.(map[string]interface{}); !ok {
		t.Errorf("attr: expected metadata to be a map, got %T", metadata)
	}

	_, err = gymwrap.Attr(env, "no_such_attribute")
	if !errors.Is(err, gymwrap.ErrNoAttribute) {
		t.Errorf("attr: expected ErrNoAttribute, got %v", err)
	}
}

func TestMakeAtari(t *testing.T) {
	requireGym(t)

	env, err := pygym.Make("Pong-v0", nil)
	if errors.Is(err, gymwrap.ErrPython) {
		t.Skipf("atari environments not available: %v", err)
	} else if err != nil {
		t.Fatalf("make: %v", err)
	}
	defer env.Close()

	obs, err := env.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	want := []int{210, 160, 3}
	got := obs.Shapes()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] ||
		got[2] != want[2] {
		t.Errorf("reset: expected shape %v, got %v", want, got)
	}

	frame, err := env.Render(gymwrap.RGBArray)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if frame.Len() != 210*160*3 {
		t.Errorf("render: expected a 210x160 RGB frame, got shape %v",
			frame.Shapes())
	}
}
