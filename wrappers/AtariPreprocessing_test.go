package wrappers_test

import (
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
	"github.com/samuelfneumann/gymwrap/internal/envtest"
	"github.com/samuelfneumann/gymwrap/wrappers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestAtariPreprocessing(t *testing.T) {
	env := envtest.New(210, 160)
	atari, err := wrappers.NewAtariPreprocessing(env, wrappers.AtariConfig{},
		zaptest.NewLogger(t))
	require.NoError(t, err)

	state, err := atari.Reset()
	require.NoError(t, err)
	assert.Equal(t, []int{84, 84}, state.Shapes())
	assert.Equal(t, []int{84, 84}, atari.ObservationSpace().Shape())

	action := atari.ActionSpace().Sample()[0]
	state, reward, done, info, err := atari.Step(action)
	require.NoError(t, err)
	assert.Equal(t, []int{84, 84}, state.Shapes())
	assert.IsType(t, float64(0), reward)
	assert.False(t, done)
	assert.IsType(t, gymwrap.Info{}, info)

	// Frames 1 to 4 were seen, the maximum of the last two is 4
	assert.Equal(t, 4, env.Steps)
	assert.Equal(t, 4.0, reward)
	for _, v := range state.Values {
		if v != 4 {
			t.Fatalf("step: expected max pooled frame value 4, got %v", v)
		}
	}

	require.NoError(t, atari.Close())
	assert.Equal(t, 1, env.Closed)
}

func TestAtariPreprocessingFrameSkipStopsOnDone(t *testing.T) {
	env := envtest.New(8, 8)
	env.EpisodeLength = 2
	atari, err := wrappers.NewAtariPreprocessing(env, wrappers.AtariConfig{
		FrameSkip: 4,
		Processor: wrappers.FrameProcessorConfig{Height: 8, Width: 8},
	}, nil)
	require.NoError(t, err)

	_, err = atari.Reset()
	require.NoError(t, err)
	_, reward, done, _, err := atari.Step(atari.ActionSpace().Sample()[0])
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 2.0, reward)
	assert.Equal(t, 2, env.Steps)
}

func TestAtariPreprocessingNoopReset(t *testing.T) {
	for seed := uint64(1); seed < 20; seed++ {
		env := envtest.New(8, 8)
		atari, err := wrappers.NewAtariPreprocessing(env, wrappers.AtariConfig{
			NoopMax:    3,
			NoopAction: 0,
			Seed:       seed,
			Processor:  wrappers.FrameProcessorConfig{Height: 8, Width: 8},
		}, nil)
		require.NoError(t, err)

		_, err = atari.Reset()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, env.Steps, 1)
		assert.LessOrEqual(t, env.Steps, 3)
		for _, a := range env.Actions {
			assert.Equal(t, 0.0, a)
		}
	}
}

func TestAtariPreprocessingTerminalOnLifeLoss(t *testing.T) {
	env := envtest.New(8, 8)
	env.Lives = 3
	env.LifeEvery = 2
	atari, err := wrappers.NewAtariPreprocessing(env, wrappers.AtariConfig{
		FrameSkip:          1,
		TerminalOnLifeLoss: true,
		Processor:          wrappers.FrameProcessorConfig{Height: 8, Width: 8},
	}, nil)
	require.NoError(t, err)

	_, err = atari.Reset()
	require.NoError(t, err)

	_, _, done, info, err := atari.Step(atari.ActionSpace().Sample()[0])
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 3, info[wrappers.LivesKey])

	_, _, done, info, err = atari.Step(atari.ActionSpace().Sample()[0])
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 2, info[wrappers.LivesKey])
}

// grayFrame returns a single channel frame, which Atari
// preprocessing rejects
func grayFrame(int) *etensor.Float64 {
	return gymwrap.NewTensor([]int{8, 8}, nil)
}

func TestAtariPreprocessingInvalidFrame(t *testing.T) {
	env := envtest.New(8, 8)
	env.Frame = grayFrame
	atari, err := wrappers.NewAtariPreprocessing(env, wrappers.AtariConfig{},
		nil)
	require.NoError(t, err)

	_, err = atari.Reset()
	assert.ErrorIs(t, err, gymwrap.ErrInvalidFrameShape)
}

func TestAtariThenFrameStack(t *testing.T) {
	atari, err := wrappers.NewAtariPreprocessing(envtest.New(210, 160),
		wrappers.AtariConfig{}, nil)
	require.NoError(t, err)
	stack, err := wrappers.NewFrameStack(atari, 4)
	require.NoError(t, err)

	want := []int{1, 4, 84, 84}
	assert.Equal(t, want, stack.ObservationSpace().Shape())

	obs, err := stack.Reset()
	require.NoError(t, err)
	assert.Equal(t, want, obs.Shapes())
	obs, _, _, _, err = stack.Step(stack.ActionSpace().Sample()[0])
	require.NoError(t, err)
	assert.Equal(t, want, obs.Shapes())
	require.NoError(t, stack.Close())
}
