package wrappers

import (
	"fmt"
	"math"
	"time"

	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// LivesKey is the step info key under which Atari environments report
// the number of lives left
const LivesKey = "ale.lives"

// AtariConfig configures an AtariPreprocessing wrapper
type AtariConfig struct {
	// Processor configures the frame processor
	Processor FrameProcessorConfig

	// FrameSkip is the number of environment steps taken per call to
	// Step, with the same action. Rewards are summed and the returned
	// frame is the elementwise maximum of the last two frames. 4 if
	// zero.
	FrameSkip int

	// NoopMax is the largest number of no-op actions taken after a
	// reset. The number taken is uniform in [1, NoopMax]. Zero
	// disables no-op resets.
	NoopMax int

	// NoopAction is the action index of the no-op action
	NoopAction int

	// TerminalOnLifeLoss ends the episode when a life is lost
	TerminalOnLifeLoss bool

	// Seed seeds the no-op sampler. The current time is used if zero.
	Seed uint64
}

// AtariPreprocessing wraps an Atari gymwrap.Environment producing raw
// RGB frames and returns processed grayscale frames instead, as
// described in "Human-level control through deep reinforcement
// learning" (Mnih et al., 2015).
//
// https://github.com/openai/gym/blob/master/gym/wrappers/atari_preprocessing.py
type AtariPreprocessing struct {
	gymwrap.Environment

	processor          *FrameProcessor
	frameSkip          int
	noopMax            int
	noopAction         *mat.VecDense
	terminalOnLifeLoss bool
	rng                *rand.Rand
	lives              int
	observationSpace   *gymwrap.Box
	logger             *zap.Logger
}

// NewAtariPreprocessing returns a new AtariPreprocessing wrapper
// around env
func NewAtariPreprocessing(env gymwrap.Environment, c AtariConfig,
	logger *zap.Logger) (*AtariPreprocessing, error) {
	if env == nil {
		return nil, fmt.Errorf("newAtariPreprocessing: nil environment")
	}
	if c.FrameSkip == 0 {
		c.FrameSkip = 4
	}
	if c.FrameSkip < 0 {
		return nil, fmt.Errorf("newAtariPreprocessing: frame skip must be "+
			"positive, got %v", c.FrameSkip)
	}
	if c.NoopMax < 0 {
		return nil, fmt.Errorf("newAtariPreprocessing: noop max must not be "+
			"negative, got %v", c.NoopMax)
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	processor, err := NewFrameProcessor(c.Processor)
	if err != nil {
		return nil, fmt.Errorf("newAtariPreprocessing: %w", err)
	}
	space, err := processor.ObservationSpace()
	if err != nil {
		return nil, fmt.Errorf("newAtariPreprocessing: %w", err)
	}

	return &AtariPreprocessing{
		Environment:        env,
		processor:          processor,
		frameSkip:          c.FrameSkip,
		noopMax:            c.NoopMax,
		noopAction:         mat.NewVecDense(1, []float64{float64(c.NoopAction)}),
		terminalOnLifeLoss: c.TerminalOnLifeLoss,
		rng:                rand.New(rand.NewSource(c.Seed)),
		lives:              -1,
		observationSpace:   space,
		logger:             logger,
	}, nil
}

// Unwrap returns the wrapped environment
func (a *AtariPreprocessing) Unwrap() gymwrap.Environment {
	return a.Environment
}

// Processor returns the frame processor used by the wrapper
func (a *AtariPreprocessing) Processor() *FrameProcessor {
	return a.processor
}

// ObservationSpace returns the space of processed frames
func (a *AtariPreprocessing) ObservationSpace() gymwrap.Space {
	return a.observationSpace
}

// Name gets the name of the environment
func (a *AtariPreprocessing) Name() string {
	return fmt.Sprintf("AtariPreprocessing(%v)", a.Environment.Name())
}

// Reset resets the wrapped environment, takes a random number of no-op
// actions and returns the processed frame
func (a *AtariPreprocessing) Reset() (*etensor.Float64, error) {
	obs, err := a.Environment.Reset()
	if err != nil {
		return nil, err
	}
	a.lives = -1

	if a.noopMax > 0 {
		noops := 1 + a.rng.Intn(a.noopMax)
		for i := 0; i < noops; i++ {
			var done bool
			var info gymwrap.Info
			obs, _, done, info, err = a.Environment.Step(a.noopAction)
			if err != nil {
				return nil, fmt.Errorf("reset: no-op step: %w", err)
			}
			a.updateLives(info)

			if done {
				obs, err = a.Environment.Reset()
				if err != nil {
					return nil, err
				}
				a.lives = -1
			}
		}
		a.logger.Debug("no-op reset", zap.Int("noops", noops))
	}

	frame, err := a.processor.Process(obs)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return frame, nil
}

// Step repeats action for the configured number of frames and returns
// the processed maximum of the last two frames together with the
// summed reward
func (a *AtariPreprocessing) Step(action *mat.VecDense) (*etensor.Float64,
	float64, bool, gymwrap.Info, error) {
	var reward float64
	var done bool
	var info gymwrap.Info
	var last, prev *etensor.Float64

	for t := 0; t < a.frameSkip; t++ {
		obs, r, d, i, err := a.Environment.Step(action)
		if err != nil {
			return nil, 0, false, nil, err
		}
		reward += r
		done, info = d, i
		prev, last = last, obs

		if a.updateLives(info) && a.terminalOnLifeLoss {
			done = true
		}
		if done {
			break
		}
	}

	frame := last
	if prev != nil {
		var err error
		frame, err = maxPool(prev, last)
		if err != nil {
			return nil, 0, false, nil, fmt.Errorf("step: %w", err)
		}
	}

	processed, err := a.processor.Process(frame)
	if err != nil {
		return nil, 0, false, nil, fmt.Errorf("step: %w", err)
	}
	if info == nil {
		info = gymwrap.Info{}
	}
	return processed, reward, done, info, nil
}

// updateLives records the lives reported in info and returns whether
// a life was lost
func (a *AtariPreprocessing) updateLives(info gymwrap.Info) bool {
	v, ok := info[LivesKey]
	if !ok {
		return false
	}

	var lives int
	switch l := v.(type) {
	case int:
		lives = l
	case int64:
		lives = int(l)
	case float64:
		lives = int(l)
	default:
		return false
	}

	lost := a.lives >= 0 && lives < a.lives
	a.lives = lives
	return lost
}

// maxPool returns the elementwise maximum of two frames
func maxPool(x, y *etensor.Float64) (*etensor.Float64, error) {
	if x == nil || y == nil {
		return nil, fmt.Errorf("maxPool: nil frame: %w",
			gymwrap.ErrInvalidFrameShape)
	}
	if len(x.Values) != len(y.Values) {
		return nil, fmt.Errorf("maxPool: frame shapes %v and %v differ: %w",
			x.Shapes(), y.Shapes(), gymwrap.ErrInvalidFrameShape)
	}

	out := gymwrap.NewTensor(y.Shapes(), nil)
	for i := range out.Values {
		out.Values[i] = math.Max(x.Values[i], y.Values[i])
	}
	return out, nil
}
