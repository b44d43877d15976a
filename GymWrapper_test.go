package gymwrap_test

import (
	"testing"

	"github.com/samuelfneumann/gymwrap"
	"github.com/samuelfneumann/gymwrap/internal/envtest"
	"github.com/samuelfneumann/gymwrap/wrappers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"
)

func TestGymWrapperDelegates(t *testing.T) {
	env := envtest.New(4, 4)
	wrapped, err := gymwrap.NewGymWrapper(env,
		gymwrap.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	seeds, err := wrapped.Seed(3)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, seeds)

	obs, err := wrapped.Reset()
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 3}, obs.Shapes())

	obs, reward, done, info, err := wrapped.Step(
		mat.NewVecDense(1, []float64{2}))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 3}, obs.Shapes())
	assert.Equal(t, 1.0, reward)
	assert.False(t, done)
	assert.Equal(t, 1, info["t"])
	assert.Equal(t, []float64{2}, env.Actions)

	frame, err := wrapped.Render(gymwrap.RGBArray)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 3}, frame.Shapes())

	assert.Equal(t, env.Name(), wrapped.Name())
	assert.Equal(t, env.ContinuousAction(), wrapped.ContinuousAction())

	require.NoError(t, wrapped.Close())
	assert.Equal(t, 1, env.Closed)
	_, err = wrapped.Reset()
	assert.ErrorIs(t, err, gymwrap.ErrEnvironmentClosed)
}

func TestGymWrapperSpacesCaptured(t *testing.T) {
	env := envtest.New(4, 4)
	wrapped, err := gymwrap.NewGymWrapper(env)
	require.NoError(t, err)

	obsSpace := wrapped.ObservationSpace()
	actSpace := wrapped.ActionSpace()
	assert.Same(t, env.ObservationSpace(), obsSpace)

	for i := 0; i < 5; i++ {
		_, err = wrapped.Reset()
		require.NoError(t, err)
		_, _, _, _, err = wrapped.Step(wrapped.ActionSpace().Sample()[0])
		require.NoError(t, err)
		assert.Same(t, obsSpace, wrapped.ObservationSpace())
		assert.Same(t, actSpace, wrapped.ActionSpace())
	}
}

func TestGymWrapperAttr(t *testing.T) {
	env := envtest.New(8, 8)
	env.Attrs = map[string]interface{}{
		"frameskip": 4,
		"game":      "pong",
	}

	limited, err := wrappers.NewTimeLimit(env, 100)
	require.NoError(t, err)
	stack, err := wrappers.NewFrameStack(limited, 2)
	require.NoError(t, err)
	wrapped, err := gymwrap.NewGymWrapper(stack)
	require.NoError(t, err)

	// Attributes fall through every wrapper to the base environment
	v, err := wrapped.Attr("frameskip")
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	v, err = gymwrap.Attr(wrapped, "game")
	require.NoError(t, err)
	assert.Equal(t, "pong", v)

	_, err = gymwrap.Attr(wrapped, "lives")
	assert.ErrorIs(t, err, gymwrap.ErrNoAttribute)

	// Wrapper methods are reachable too
	assert.Equal(t, 2, wrapped.Unwrap().(*wrappers.FrameStack).K())
	assert.Same(t, env, gymwrap.Unwrapped(wrapped))
}

func TestNewGymWrapperNil(t *testing.T) {
	_, err := gymwrap.NewGymWrapper(nil)
	assert.Error(t, err)
}
