package environments_test

import (
	"errors"
	"testing"

	"github.com/samuelfneumann/gymwrap"
	"github.com/samuelfneumann/gymwrap/environments"
	"github.com/samuelfneumann/gymwrap/internal/envtest"
	"github.com/samuelfneumann/gymwrap/wrappers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWrap(t *testing.T) {
	env := envtest.New(210, 160)
	env.Attrs = map[string]interface{}{"ale": "pong"}

	wrapped, err := environments.Wrap(env, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Same(t, env.ObservationSpace(), wrapped.ObservationSpace())

	obs, err := wrapped.Reset()
	require.NoError(t, err)
	assert.Equal(t, []int{210, 160, 3}, obs.Shapes())

	v, err := gymwrap.Attr(wrapped, "ale")
	require.NoError(t, err)
	assert.Equal(t, "pong", v)
}

func TestWrapAtari(t *testing.T) {
	env := envtest.New(210, 160)
	wrapped, err := environments.WrapAtari(env, wrappers.AtariConfig{},
		environments.DefaultStack, zaptest.NewLogger(t))
	require.NoError(t, err)

	want := []int{1, 4, 84, 84}
	assert.Equal(t, want, wrapped.ObservationSpace().Shape())

	obs, err := wrapped.Reset()
	require.NoError(t, err)
	assert.Equal(t, want, obs.Shapes())

	obs, reward, done, info, err := wrapped.Step(
		wrapped.ActionSpace().Sample()[0])
	require.NoError(t, err)
	assert.Equal(t, want, obs.Shapes())
	assert.Equal(t, 4.0, reward)
	assert.False(t, done)
	assert.NotNil(t, info)

	require.NoError(t, wrapped.Close())
	assert.Equal(t, 1, env.Closed)
	assert.Same(t, env, gymwrap.Unwrapped(wrapped))
}

func TestWrapAtariInvalid(t *testing.T) {
	_, err := environments.WrapAtari(envtest.New(210, 160),
		wrappers.AtariConfig{}, 0, nil)
	assert.Error(t, err)
}

func TestNewVec(t *testing.T) {
	var made []*envtest.Env
	vec, err := environments.NewVec(func() (gymwrap.Environment, error) {
		env := envtest.New(4, 4)
		made = append(made, env)
		return env, nil
	}, 3, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, vec.Len())

	obs, err := vec.Reset()
	require.NoError(t, err)
	assert.Len(t, obs, 3)
	for _, env := range made {
		assert.Equal(t, 1, env.Resets)
	}
	require.NoError(t, vec.Close())
}

func TestNewVecClosesOnError(t *testing.T) {
	var made []*envtest.Env
	errMake := errors.New("no more environments")
	_, err := environments.NewVec(func() (gymwrap.Environment, error) {
		if len(made) == 2 {
			return nil, errMake
		}
		env := envtest.New(4, 4)
		made = append(made, env)
		return env, nil
	}, 4, false, nil)
	assert.ErrorIs(t, err, errMake)

	for _, env := range made {
		assert.Equal(t, 1, env.Closed)
	}

	_, err = environments.NewVec(nil, 0, false, nil)
	assert.Error(t, err)
}
