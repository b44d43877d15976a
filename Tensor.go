package gymwrap

import (
	"github.com/emer/etable/etensor"
)

// NewTensor returns a new tensor of the given shape. If values is not
// nil it is copied into the tensor in row-major order.
func NewTensor(shape []int, values []float64) *etensor.Float64 {
	t := etensor.NewFloat64(append([]int(nil), shape...), nil, nil)
	if values != nil {
		copy(t.Values, values)
	}
	return t
}

// CloneTensor returns a deep copy of t
func CloneTensor(t *etensor.Float64) *etensor.Float64 {
	if t == nil {
		return nil
	}
	return NewTensor(t.Shapes(), t.Values)
}

// TensorShape returns a copy of the shape of t
func TensorShape(t *etensor.Float64) []int {
	if t == nil {
		return nil
	}
	return append([]int(nil), t.Shapes()...)
}
