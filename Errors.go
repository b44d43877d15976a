package gymwrap

import "errors"

var (
	// ErrInvalidFrameShape is returned when a frame does not have the
	// (H, W, 3) shape of an RGB image
	ErrInvalidFrameShape = errors.New("invalid frame shape")

	// ErrEnvironmentNotReset is returned when stepping an environment
	// that has not been reset since it was created or closed
	ErrEnvironmentNotReset = errors.New("environment not reset")

	// ErrEnvironmentClosed is returned when using a closed environment
	ErrEnvironmentClosed = errors.New("environment closed")

	// ErrNoAttribute is returned when an attribute lookup fails
	ErrNoAttribute = errors.New("no such attribute")

	// ErrPython is returned when the Python interpreter raises an
	// exception
	ErrPython = errors.New("python error")
)
