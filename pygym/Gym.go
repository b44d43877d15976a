// Package pygym provides a gymwrap.Environment backed by OpenAI's
// Python package Gym, running in an embedded CPython interpreter.
//
// Before running, ensure python-3.7.pc is in a directory pointed to
// by PKG_CONFIG_PATH. On Ubuntu:
// export PKG_CONFIG_PATH="$PKG_CONFIG_PATH":/usr/local/lib/pkgconfig
//
// The interpreter is started by Initialize, or by the first call to
// Make, and stopped by Finalize. Every call into Python holds the GIL
// on a locked OS thread, so environments may be used from different
// goroutines, though a single environment is not safe for concurrent
// use.
package pygym

// #cgo pkg-config: python-3.7
// #include <Python.h>
import "C"
import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	python "github.com/DataDog/go-python3"
	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// ErrFinalized is returned when using the package after Finalize
var ErrFinalized = errors.New("python interpreter finalized")

var (
	mu        sync.Mutex
	attempted bool
	initErr   error
	finalized bool

	// Thread state of the interpreter's main thread, saved so that
	// other OS threads can take the GIL
	mainThread *python.PyThreadState

	// Set of open environments
	openEnvironments = make(map[*GymEnv]struct{})
)

// Python modules and space types
var (
	gym           *python.PyObject
	numpy         *python.PyObject
	boxSpace      *python.PyObject
	discreteSpace *python.PyObject
)

// Initialize starts the Python interpreter and imports gym and numpy.
// It is safe to call more than once: later calls return the result of
// the first.
func Initialize() error {
	mu.Lock()
	defer mu.Unlock()

	if finalized {
		return fmt.Errorf("initialize: %w", ErrFinalized)
	}
	if attempted {
		return initErr
	}
	attempted = true

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	python.Py_Initialize()
	if !python.Py_IsInitialized() {
		initErr = fmt.Errorf("initialize: could not start the Python " +
			"interpreter")
		return initErr
	}

	initErr = importModules()

	// Release the GIL held since Py_Initialize
	mainThread = python.PyEval_SaveThread()
	return initErr
}

// importModules imports the Python modules used by the package
func importModules() error {
	gym = python.PyImport_ImportModule("gym")
	if gym == nil {
		return fmt.Errorf("initialize: could not import gym: %w",
			pythonError())
	}

	numpy = python.PyImport_ImportModule("numpy")
	if numpy == nil {
		return fmt.Errorf("initialize: could not import numpy: %w",
			pythonError())
	}

	spaces := gym.GetAttrString("spaces")
	if spaces == nil {
		return fmt.Errorf("initialize: could not get gym.spaces: %w",
			pythonError())
	}
	defer spaces.DecRef()

	boxSpace = spaces.GetAttrString("Box")
	if boxSpace == nil {
		return fmt.Errorf("initialize: could not get Python Box space "+
			"type: %w", pythonError())
	}

	discreteSpace = spaces.GetAttrString("Discrete")
	if discreteSpace == nil {
		return fmt.Errorf("initialize: could not get Python Discrete "+
			"space type: %w", pythonError())
	}
	return nil
}

// Finalize performs cleanup of package resources. Any environments that
// have not been closed will be closed. This should be called after
// the package is no longer needed or at the end of main. The
// interpreter cannot be restarted afterwards.
func Finalize() {
	mu.Lock()
	if finalized || !attempted {
		finalized = true
		mu.Unlock()
		return
	}
	open := make([]*GymEnv, 0, len(openEnvironments))
	for env := range openEnvironments {
		open = append(open, env)
	}
	mu.Unlock()

	// Close all open environments
	for _, env := range open {
		env.Close()
	}

	mu.Lock()
	defer mu.Unlock()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	python.PyEval_RestoreThread(mainThread)

	discreteSpace.DecRef()
	boxSpace.DecRef()
	numpy.DecRef()
	gym.DecRef()

	// Close Python interpreter
	python.Py_Finalize()
	finalized = true
}

// withGIL runs fn on a locked OS thread holding the GIL
func withGIL(fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	state := python.PyGILState_Ensure()
	defer python.PyGILState_Release(state)

	return fn()
}

// GymEnv wraps a Python gym environment and provides Go bindings for
// interacting with that environment
type GymEnv struct {
	env              *python.PyObject
	envName          string
	continuousAction bool
	closed           bool

	actionSpace      gymwrap.Space
	observationSpace gymwrap.Space

	logger *zap.Logger
}

// Make returns a new environment with the given name. It is equivalent
// to gym.make(envName) in Python's OpenAI Gym. If logger is nil,
// nothing is logged.
func Make(envName string, logger *zap.Logger) (*GymEnv, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("make: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mu.Lock()
	defer mu.Unlock()
	if finalized {
		return nil, fmt.Errorf("make: %w", ErrFinalized)
	}

	g := &GymEnv{
		envName: envName,
		logger:  logger.With(zap.String("env", envName)),
	}
	err := withGIL(func() error {
		makeEnv := gym.GetAttrString("make")
		if makeEnv == nil {
			return pythonError()
		}
		defer makeEnv.DecRef()

		// Construct the arguments to the gym.make function
		args := python.PyTuple_New(1)
		defer args.DecRef()
		python.PyTuple_SetItem(args, 0, python.PyUnicode_FromString(envName))

		// Create the gym environment
		env := makeEnv.CallObject(args)
		if env == nil {
			return pythonError()
		}

		if err := g.setSpaces(env); err != nil {
			env.DecRef()
			return err
		}
		g.env = env
		return nil
	})
	if err != nil {
		g.logger.Error("could not make environment", zap.Error(err))
		return nil, fmt.Errorf("make: could not create env %v: %w", envName,
			err)
	}

	// Register the environment with the list of all environments
	openEnvironments[g] = struct{}{}
	g.logger.Debug("made environment",
		zap.Bool("continuousAction", g.continuousAction),
		zap.Ints("observationShape", g.observationSpace.Shape()))

	return g, nil
}

// setSpaces converts the action and observation spaces of env
func (g *GymEnv) setSpaces(env *python.PyObject) error {
	actionSpace := env.GetAttrString("action_space")
	if actionSpace == nil {
		return pythonError()
	}
	defer actionSpace.DecRef()
	goActionSpace, err := FromPythonSpace(actionSpace)
	if err != nil {
		return fmt.Errorf("action space: %w", err)
	}
	_, g.continuousAction = goActionSpace.(*gymwrap.Box)

	observationSpace := env.GetAttrString("observation_space")
	if observationSpace == nil {
		return pythonError()
	}
	defer observationSpace.DecRef()
	goObservationSpace, err := FromPythonSpace(observationSpace)
	if err != nil {
		return fmt.Errorf("observation space: %w", err)
	}

	g.actionSpace = goActionSpace
	g.observationSpace = goObservationSpace
	return nil
}

// call runs fn holding the GIL, unless the environment is closed.
// Errors are logged.
func (g *GymEnv) call(op string, fn func() error) error {
	if g.closed {
		return fmt.Errorf("%v: %w", op, gymwrap.ErrEnvironmentClosed)
	}
	if err := withGIL(fn); err != nil {
		if !errors.Is(err, gymwrap.ErrNoAttribute) {
			g.logger.Error("python call failed", zap.String("op", op),
				zap.Error(err))
		}
		return fmt.Errorf("%v: %w", op, err)
	}
	return nil
}

// ActionSpace returns the action space as a Go data structure
func (g *GymEnv) ActionSpace() gymwrap.Space {
	return g.actionSpace
}

// ObservationSpace returns the observation space as a Go data structure
func (g *GymEnv) ObservationSpace() gymwrap.Space {
	return g.observationSpace
}

// Name gets the name of the environment
func (g *GymEnv) Name() string {
	return g.envName
}

// ContinuousAction returns whether the environment uses continuous
// actions or not
func (g *GymEnv) ContinuousAction() bool {
	return g.continuousAction
}

// Seed seeds the GymEnv and returns the seeds used. It is equivalent
// to calling env.seed(seed) in Python's OpenAI Gym, with a negative
// seed passed as None.
func (g *GymEnv) Seed(seed int) ([]int, error) {
	var seeds []int
	err := g.call("seed", func() error {
		// Create the Python arguments
		args := python.PyTuple_New(1)
		defer args.DecRef()
		if seed < 0 {
			python.Py_None.IncRef()
			python.PyTuple_SetItem(args, 0, python.Py_None)
		} else {
			python.PyTuple_SetItem(args, 0, python.PyLong_FromGoInt(seed))
		}

		// Seed the environment
		seedFunc := g.env.GetAttrString("seed")
		if seedFunc == nil {
			return pythonError()
		}
		defer seedFunc.DecRef()
		retVal := seedFunc.CallObject(args)
		if retVal == nil {
			return pythonError()
		}
		defer retVal.DecRef()
		if retVal == python.Py_None {
			return nil
		}

		s, err := IntSliceFromIter(retVal)
		if err != nil {
			return fmt.Errorf("could not convert seed to Go: %w", err)
		}
		seeds = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.logger.Debug("seeded", zap.Int("seed", seed), zap.Ints("seeds", seeds))
	return seeds, nil
}

// Reset resets the GymEnv and returns the starting state. It is
// equivalent to calling env.reset() in Python's OpenAI Gym.
func (g *GymEnv) Reset() (*etensor.Float64, error) {
	var obs *etensor.Float64
	err := g.call("reset", func() error {
		state := g.env.CallMethodArgs("reset")
		if state == nil {
			return pythonError()
		}
		defer state.DecRef()

		// Newer versions of gym return (observation, info)
		observation := state
		if python.PyTuple_Check(state) && state.Length() == 2 {
			observation = python.PyTuple_GetItem(state, 0)
		}

		var err error
		obs, err = tensorFromArray(observation)
		if err != nil {
			return fmt.Errorf("could not decode observation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.logger.Debug("reset")
	return obs, nil
}

// Step takes one environmental step given some action a and returns
// the next observation, reward, a flag indicating if the episode has
// completed and the step info. It is equivalent to calling env.step(a)
// in Python's OpenAI Gym.
func (g *GymEnv) Step(a *mat.VecDense) (*etensor.Float64, float64, bool,
	gymwrap.Info, error) {
	var obs *etensor.Float64
	var reward float64
	var done bool
	var info gymwrap.Info

	err := g.call("step", func() error {
		// Create the Python arguments
		args := python.PyTuple_New(1)
		defer args.DecRef()
		if g.continuousAction {
			arr, err := F64ToList(a.RawVector().Data)
			if err != nil {
				return fmt.Errorf("could not convert []float64 to Python "+
					"List: %w", err)
			}
			python.PyTuple_SetItem(args, 0, arr)
		} else {
			python.PyTuple_SetItem(args, 0,
				python.PyLong_FromGoInt(int(a.AtVec(0))))
		}

		// Call step in Python gym
		stepFunc := g.env.GetAttrString("step")
		if stepFunc == nil {
			return pythonError()
		}
		defer stepFunc.DecRef()
		retVal := stepFunc.CallObject(args)
		if retVal == nil {
			return pythonError()
		}
		defer retVal.DecRef()

		n := retVal.Length()
		if !python.PyTuple_Check(retVal) || (n != 4 && n != 5) {
			return fmt.Errorf("step returned %v", str(retVal))
		}

		// Get the observation
		var err error
		obs, err = tensorFromArray(python.PyTuple_GetItem(retVal, 0))
		if err != nil {
			return fmt.Errorf("could not decode observation: %w", err)
		}

		// Get the reward
		reward = python.PyFloat_AsDouble(python.PyTuple_GetItem(retVal, 1))
		if python.PyErr_Occurred() != nil {
			return fmt.Errorf("could not decode reward: %w", pythonError())
		}

		// Figure out if the episode is done. Newer versions of gym
		// split done into terminated and truncated.
		done = truthy(python.PyTuple_GetItem(retVal, 2))
		if n == 5 {
			done = done || truthy(python.PyTuple_GetItem(retVal, 3))
		}

		info, err = dictToInfo(python.PyTuple_GetItem(retVal, n-1))
		if err != nil {
			return fmt.Errorf("could not decode info: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, false, nil, err
	}
	if done {
		g.logger.Debug("episode done")
	}
	return obs, reward, done, info, nil
}

// Render renders the environment. It is equivalent to
// env.render(mode=mode) in Python's OpenAI Gym. Only the RGBArray mode
// returns a frame.
func (g *GymEnv) Render(mode gymwrap.RenderMode) (*etensor.Float64, error) {
	var frame *etensor.Float64
	err := g.call("render", func() error {
		renderFunc := g.env.GetAttrString("render")
		if renderFunc == nil {
			return pythonError()
		}
		defer renderFunc.DecRef()

		args := python.PyTuple_New(0)
		defer args.DecRef()
		kwargs := python.PyDict_New()
		defer kwargs.DecRef()
		pyMode := python.PyUnicode_FromString(string(mode))
		defer pyMode.DecRef()
		python.PyDict_SetItemString(kwargs, "mode", pyMode)

		rendered := renderFunc.Call(args, kwargs)
		if rendered == nil {
			return pythonError()
		}
		defer rendered.DecRef()

		if mode != gymwrap.RGBArray || rendered == python.Py_None {
			return nil
		}
		var err error
		frame, err = tensorFromArray(rendered)
		if err != nil {
			return fmt.Errorf("could not decode frame: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// Attr returns the attribute name of the Python environment converted
// to Go. See gymwrap.Attr.
func (g *GymEnv) Attr(name string) (interface{}, error) {
	var value interface{}
	err := g.call("attr", func() error {
		if !g.env.HasAttrString(name) {
			return gymwrap.ErrNoAttribute
		}
		attr := g.env.GetAttrString(name)
		if attr == nil {
			return pythonError()
		}
		defer attr.DecRef()

		var err error
		value, err = toGo(attr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Close performs cleanup of environment resources. It calls env.close()
// in Python and releases the environment. Closing an environment more
// than once has no effect.
func (g *GymEnv) Close() error {
	if g.closed {
		return nil
	}

	err := g.call("close", func() error {
		defer g.env.DecRef()
		retVal := g.env.CallMethodArgs("close")
		if retVal == nil {
			return pythonError()
		}
		retVal.DecRef()
		return nil
	})
	g.closed = true

	// Remove g from the list of all open environments
	mu.Lock()
	delete(openEnvironments, g)
	mu.Unlock()

	g.logger.Debug("closed")
	return err
}
