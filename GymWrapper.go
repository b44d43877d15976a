package gymwrap

import (
	"fmt"

	"github.com/emer/etable/etensor"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// GymWrapper wraps any Environment behind the uniform Environment
// contract. The observation and action spaces are captured once, when
// the wrapper is created, and returned unchanged afterwards. Every
// call is forwarded to the wrapped environment unchanged, and any
// attribute the wrapper does not define can be reached with Attr.
type GymWrapper struct {
	Environment

	observationSpace Space
	actionSpace      Space
	logger           *zap.Logger
}

// WrapperOption configures a GymWrapper
type WrapperOption func(*GymWrapper)

// WithLogger sets the logger used by the wrapper
func WithLogger(logger *zap.Logger) WrapperOption {
	return func(g *GymWrapper) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGymWrapper returns a new GymWrapper around env
func NewGymWrapper(env Environment, opts ...WrapperOption) (*GymWrapper,
	error) {
	if env == nil {
		return nil, fmt.Errorf("newGymWrapper: nil environment")
	}

	g := &GymWrapper{
		Environment:      env,
		observationSpace: env.ObservationSpace(),
		actionSpace:      env.ActionSpace(),
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(zap.String("env", env.Name()))
	return g, nil
}

// Unwrap returns the wrapped environment
func (g *GymWrapper) Unwrap() Environment {
	return g.Environment
}

// Attr looks up an attribute on the wrapped environment chain
func (g *GymWrapper) Attr(name string) (interface{}, error) {
	return Attr(g.Environment, name)
}

// ObservationSpace returns the observation space of the wrapped
// environment at the time the wrapper was created
func (g *GymWrapper) ObservationSpace() Space {
	return g.observationSpace
}

// ActionSpace returns the action space of the wrapped environment at
// the time the wrapper was created
func (g *GymWrapper) ActionSpace() Space {
	return g.actionSpace
}

// Render renders the wrapped environment
func (g *GymWrapper) Render(mode RenderMode) (*etensor.Float64, error) {
	return g.Environment.Render(mode)
}

// Seed sets the seed of the wrapped environment
func (g *GymWrapper) Seed(seed int) ([]int, error) {
	g.logger.Debug("seed", zap.Int("seed", seed))
	return g.Environment.Seed(seed)
}

// Step steps the wrapped environment with action a
func (g *GymWrapper) Step(a *mat.VecDense) (*etensor.Float64, float64, bool,
	Info, error) {
	return g.Environment.Step(a)
}

// Reset resets the wrapped environment and returns the initial
// observation
func (g *GymWrapper) Reset() (*etensor.Float64, error) {
	g.logger.Debug("reset")
	return g.Environment.Reset()
}

// Close closes the wrapped environment
func (g *GymWrapper) Close() error {
	g.logger.Debug("close")
	return g.Environment.Close()
}
