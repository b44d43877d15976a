package pygym

import (
	"fmt"

	python "github.com/DataDog/go-python3"
	"github.com/samuelfneumann/gymwrap"
)

// FromPythonSpace converts a Python OpenAI Gym space to its Go
// equivalent. Only Box and Discrete spaces are supported. The GIL
// must be held.
func FromPythonSpace(space *python.PyObject) (gymwrap.Space, error) {
	spaceType := space.Type()
	defer spaceType.DecRef()

	var value gymwrap.Space
	var err error
	switch spaceType {
	case boxSpace:
		value, err = newBox(space)

	case discreteSpace:
		value, err = newDiscrete(space)

	default:
		return nil, fmt.Errorf("fromPythonSpace: space %v not yet "+
			"implemented", str(spaceType))
	}
	if err != nil {
		return nil, fmt.Errorf("fromPythonSpace: could not convert space: %w",
			err)
	}
	return value, nil
}

// newBox takes a Python gym.spaces.Box and converts it into its Go
// counterpart
func newBox(space *python.PyObject) (*gymwrap.Box, error) {
	// Lower bounds
	low := space.GetAttrString("low")
	if low == nil {
		return nil, fmt.Errorf("newBox: %w", pythonError())
	}
	defer low.DecRef()
	goLow, err := tensorFromArray(low)
	if err != nil {
		return nil, fmt.Errorf("newBox: could not compute lower bound: %w",
			err)
	}

	// Upper bounds
	high := space.GetAttrString("high")
	if high == nil {
		return nil, fmt.Errorf("newBox: %w", pythonError())
	}
	defer high.DecRef()
	goHigh, err := tensorFromArray(high)
	if err != nil {
		return nil, fmt.Errorf("newBox: could not compute upper bound: %w",
			err)
	}

	return gymwrap.NewBox(goLow.Values, goHigh.Values, goLow.Shapes())
}

// newDiscrete takes a Python gym.spaces.Discrete and converts it into
// its Go counterpart
func newDiscrete(space *python.PyObject) (*gymwrap.Discrete, error) {
	pythonN := space.GetAttrString("n")
	if pythonN == nil {
		return nil, fmt.Errorf("newDiscrete: %w", pythonError())
	}
	defer pythonN.DecRef()

	return gymwrap.NewDiscrete(python.PyLong_AsLong(pythonN))
}
