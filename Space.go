package gymwrap

import (
	"github.com/emer/etable/etensor"
	"gonum.org/v1/gonum/mat"
)

// Space describes a space of actions, observations, etc. It is the Go
// equivalent of a description of the gym.spaces package.
type Space interface {
	// Sample takes a sample from within the spaces bounds
	Sample() []*mat.VecDense

	// Contains returns whether x is in the space
	Contains(x interface{}) bool

	// Seed seeds the sampler for the space
	Seed(uint64)

	// Low returns the lower bounds of the space
	Low() []*mat.VecDense

	// High returns the upper bounds of the space
	High() []*mat.VecDense

	// Shape returns the shape of a single element of the space
	Shape() []int
}

// ShapeSize returns the number of elements in a tensor of the given
// shape
func ShapeSize(shape []int) int {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}

// values returns the flat data of a []float64, *mat.VecDense or
// *etensor.Float64 and whether in was one of these
func values(in interface{}) ([]float64, bool) {
	switch x := in.(type) {
	case []float64:
		return x, true

	case *mat.VecDense:
		if x == nil {
			return nil, false
		}
		out := make([]float64, x.Len())
		for i := range out {
			out[i] = x.AtVec(i)
		}
		return out, true

	case *etensor.Float64:
		if x == nil {
			return nil, false
		}
		return x.Values, true
	}
	return nil, false
}
