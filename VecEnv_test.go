package gymwrap_test

import (
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
	"github.com/samuelfneumann/gymwrap/internal/envtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"
)

// newVec returns a VecEnv of n scripted environments whose i-th
// environment ends its episodes after i+2 steps
func newVec(t *testing.T, n int, parallel bool) (*gymwrap.VecEnv,
	[]*envtest.Env) {
	t.Helper()
	envs := make([]gymwrap.Environment, n)
	scripted := make([]*envtest.Env, n)
	for i := range envs {
		scripted[i] = envtest.New(2, 2)
		scripted[i].EpisodeLength = i + 2
		envs[i] = scripted[i]
	}

	vec, err := gymwrap.NewVecEnv(envs, parallel, zaptest.NewLogger(t))
	require.NoError(t, err)
	return vec, scripted
}

func actions(n int) []*mat.VecDense {
	out := make([]*mat.VecDense, n)
	for i := range out {
		out[i] = mat.NewVecDense(1, []float64{float64(i)})
	}
	return out
}

func TestVecEnvStep(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		vec, scripted := newVec(t, 3, parallel)

		seeds, err := vec.Seed(10)
		require.NoError(t, err)
		assert.Equal(t, [][]int{{10}, {11}, {12}}, seeds)

		obs, err := vec.Reset()
		require.NoError(t, err)
		require.Len(t, obs, 3)

		obs, rewards, dones, infos, err := vec.Step(actions(3))
		require.NoError(t, err)
		assert.Len(t, obs, 3)
		assert.Equal(t, []float64{1, 1, 1}, rewards)
		assert.Equal(t, []bool{false, false, false}, dones)
		for i, env := range scripted {
			assert.Equal(t, []float64{float64(i)}, env.Actions)
			assert.NotContains(t, infos[i], gymwrap.TerminalObservation)
		}

		require.NoError(t, vec.Close())
		for _, env := range scripted {
			assert.Equal(t, 1, env.Closed)
		}
	}
}

func TestVecEnvAutoReset(t *testing.T) {
	vec, scripted := newVec(t, 2, true)
	_, err := vec.Reset()
	require.NoError(t, err)

	// Environment 0 ends after two steps
	_, _, _, _, err = vec.Step(actions(2))
	require.NoError(t, err)
	obs, _, dones, infos, err := vec.Step(actions(2))
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, dones)

	// The returned observation starts the next episode, the last
	// observation of the finished one is kept in the info
	terminal, ok := infos[0][gymwrap.TerminalObservation]
	require.True(t, ok)
	assert.Equal(t, envtest.UniformFrame(2, 2, 2).Values,
		terminal.(*etensor.Float64).Values)
	assert.Equal(t, envtest.UniformFrame(2, 2, 0).Values, obs[0].Values)
	assert.Equal(t, 2, scripted[0].Resets)
	assert.Equal(t, 1, scripted[1].Resets)
}

func TestVecEnvSeedNegative(t *testing.T) {
	vec, scripted := newVec(t, 2, false)
	_, err := vec.Seed(-1)
	require.NoError(t, err)
	assert.Equal(t, []int{-1}, scripted[0].Seeds)
	assert.Equal(t, []int{-1}, scripted[1].Seeds)
}

func TestVecEnvErrors(t *testing.T) {
	vec, _ := newVec(t, 2, false)
	_, err := vec.Reset()
	require.NoError(t, err)

	_, _, _, _, err = vec.Step(actions(1))
	assert.Error(t, err)

	frames, err := vec.Render(gymwrap.RGBArray)
	require.NoError(t, err)
	assert.Len(t, frames, 2)

	require.NoError(t, vec.Close())
	_, err = vec.Reset()
	assert.ErrorIs(t, err, gymwrap.ErrEnvironmentClosed)

	_, err = gymwrap.NewVecEnv(nil, false, nil)
	assert.Error(t, err)
}

// sharedInfo returns the same info map from every step
type sharedInfo struct {
	*envtest.Env
	info gymwrap.Info
}

func (s *sharedInfo) Step(a *mat.VecDense) (*etensor.Float64, float64, bool,
	gymwrap.Info, error) {
	obs, reward, done, _, err := s.Env.Step(a)
	return obs, reward, done, s.info, err
}

func TestVecEnvAutoResetCopiesInfo(t *testing.T) {
	scripted := envtest.New(2, 2)
	scripted.EpisodeLength = 1
	env := &sharedInfo{Env: scripted, info: gymwrap.Info{"key": 1}}

	vec, err := gymwrap.NewVecEnv([]gymwrap.Environment{env}, false,
		zaptest.NewLogger(t))
	require.NoError(t, err)
	_, err = vec.Reset()
	require.NoError(t, err)

	_, _, dones, infos, err := vec.Step(actions(1))
	require.NoError(t, err)
	require.True(t, dones[0])
	assert.Contains(t, infos[0], gymwrap.TerminalObservation)
	assert.Equal(t, 1, infos[0]["key"])
	assert.Equal(t, gymwrap.Info{"key": 1}, env.info)
}
