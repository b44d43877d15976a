package wrappers

import (
	"fmt"
	"slices"

	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// FrameStack wraps a gymwrap.Environment and returns as observation
// the last K frames of the environment, oldest first.
//
// Observations have shape [1, K] ++ frame shape. For raw Atari frames
// with K = 4 this is (1, 4, 210, 160, 3); if the stack is configured
// with a FrameProcessor producing 84 x 84 frames it is (1, 4, 84, 84).
// The same shape is returned by Reset and Step.
//
// Right after Reset the history holds K copies of the first frame.
// Every observation returned is a new tensor which later calls do not
// modify.
//
// A FrameStack must not be used concurrently.
type FrameStack struct {
	gymwrap.Environment

	k                int
	processor        *FrameProcessor
	history          *frameHistory
	frameShape       []int
	observationSpace *gymwrap.Box
	logger           *zap.Logger
}

// FrameStackOption configures a FrameStack
type FrameStackOption func(*FrameStack)

// WithProcessor processes every frame with p before it is stacked
func WithProcessor(p *FrameProcessor) FrameStackOption {
	return func(f *FrameStack) {
		f.processor = p
	}
}

// WithStackLogger sets the logger of the FrameStack
func WithStackLogger(logger *zap.Logger) FrameStackOption {
	return func(f *FrameStack) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFrameStack returns a new FrameStack keeping the last k frames of
// env.
func NewFrameStack(env gymwrap.Environment, k int,
	opts ...FrameStackOption) (*FrameStack, error) {
	if env == nil {
		return nil, fmt.Errorf("newFrameStack: nil environment")
	}
	if k <= 0 {
		return nil, fmt.Errorf("newFrameStack: k must be positive, got %v", k)
	}

	f := &FrameStack{
		Environment: env,
		k:           k,
		history:     newFrameHistory(k),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	space, err := f.stackedSpace()
	if err != nil {
		return nil, fmt.Errorf("newFrameStack: %w", err)
	}
	f.observationSpace = space
	f.frameShape = space.Shape()[2:]

	f.logger.Debug("frame stack created",
		zap.String("env", env.Name()),
		zap.Int("k", k),
		zap.Ints("shape", space.Shape()),
	)
	return f, nil
}

// stackedSpace computes the observation space of stacked frames from
// the frame space
func (f *FrameStack) stackedSpace() (*gymwrap.Box, error) {
	var frameSpace gymwrap.Space
	if f.processor != nil {
		s, err := f.processor.ObservationSpace()
		if err != nil {
			return nil, err
		}
		frameSpace = s
	} else {
		frameSpace = f.Environment.ObservationSpace()
	}
	if frameSpace == nil {
		return nil, fmt.Errorf("environment has no observation space")
	}

	frameShape := frameSpace.Shape()
	n := gymwrap.ShapeSize(frameShape)
	frameLow, frameHigh := frameSpace.Low()[0], frameSpace.High()[0]
	if frameLow.Len() != n || frameHigh.Len() != n {
		return nil, fmt.Errorf("observation space bounds do not match "+
			"shape %v", frameShape)
	}

	low := make([]float64, f.k*n)
	high := make([]float64, f.k*n)
	for i := 0; i < f.k; i++ {
		for j := 0; j < n; j++ {
			low[i*n+j] = frameLow.AtVec(j)
			high[i*n+j] = frameHigh.AtVec(j)
		}
	}
	return gymwrap.NewBox(low, high, append([]int{1, f.k}, frameShape...))
}

// K returns the number of stacked frames
func (f *FrameStack) K() int {
	return f.k
}

// Unwrap returns the wrapped environment
func (f *FrameStack) Unwrap() gymwrap.Environment {
	return f.Environment
}

// ObservationSpace returns the space of stacked observations
func (f *FrameStack) ObservationSpace() gymwrap.Space {
	return f.observationSpace
}

// Name gets the name of the environment
func (f *FrameStack) Name() string {
	return fmt.Sprintf("FrameStack(k: %v)(%v)", f.k, f.Environment.Name())
}

// frame processes raw if the stack has a processor. The resulting
// frame must have the frame shape of the observation space.
func (f *FrameStack) frame(raw *etensor.Float64) (*etensor.Float64, error) {
	var frame *etensor.Float64
	if f.processor == nil {
		if raw == nil {
			return nil, fmt.Errorf("nil frame: %w", gymwrap.ErrInvalidFrameShape)
		}
		frame = gymwrap.CloneTensor(raw)
	} else {
		var err error
		if frame, err = f.processor.Process(raw); err != nil {
			return nil, err
		}
	}

	if !slices.Equal(frame.Shapes(), f.frameShape) {
		return nil, fmt.Errorf("frame shape %v, expected %v: %w",
			frame.Shapes(), f.frameShape, gymwrap.ErrInvalidFrameShape)
	}
	return frame, nil
}

// Reset resets the wrapped environment and fills the history with K
// copies of the first frame. If Reset fails the history stays empty
// and the FrameStack must be reset again before it can be stepped.
func (f *FrameStack) Reset() (*etensor.Float64, error) {
	f.history.clear()

	raw, err := f.Environment.Reset()
	if err != nil {
		return nil, err
	}

	frame, err := f.frame(raw)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	f.history.prime(frame)

	return f.history.stacked(), nil
}

// Step steps the wrapped environment with action a, which is passed
// on unvalidated. The new frame replaces the oldest one in the
// history. The reward, done flag and info of the wrapped environment
// are returned unchanged.
func (f *FrameStack) Step(a *mat.VecDense) (*etensor.Float64, float64, bool,
	gymwrap.Info, error) {
	if !f.history.primed {
		return nil, 0, false, nil, fmt.Errorf("step: %w",
			gymwrap.ErrEnvironmentNotReset)
	}

	raw, reward, done, info, err := f.Environment.Step(a)
	if err != nil {
		return nil, 0, false, nil, err
	}

	frame, err := f.frame(raw)
	if err != nil {
		return nil, 0, false, nil, fmt.Errorf("step: %w", err)
	}
	if err := f.history.push(frame); err != nil {
		return nil, 0, false, nil, fmt.Errorf("step: %w", err)
	}

	if info == nil {
		info = gymwrap.Info{}
	}
	return f.history.stacked(), reward, done, info, nil
}

// Close closes the wrapped environment and drops the frame history.
// The FrameStack must be reset again before it can be stepped.
func (f *FrameStack) Close() error {
	f.history.clear()
	return f.Environment.Close()
}
