package gymwrap

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// Box represents a (possibly unbounded) box in R^n. Specifically, a
// Box represents the Cartesian product of n closed intervals. Each
// interval has the form of one of [a, b], (-∞, b], [a, ∞), or
// (-∞, ∞) for a, b ϵ R.
//
// Elements of a Box have a shape, such as (210, 160, 3) for an Atari
// frame. The bounds are stored flattened in row-major order.
type Box struct {
	src                        rand.Source
	rng                        *distmv.Uniform
	low, high                  *mat.VecDense
	shape                      []int
	boundedBelow, boundedAbove []bool
}

// NewBox returns a Box with the given flattened bounds and element
// shape.
func NewBox(low, high []float64, shape []int) (*Box, error) {
	if len(low) != len(high) {
		return nil, fmt.Errorf("newBox: low and high bounds differ in "+
			"length (%v != %v)", len(low), len(high))
	}
	if len(low) == 0 {
		return nil, fmt.Errorf("newBox: empty bounds")
	}
	if ShapeSize(shape) != len(low) {
		return nil, fmt.Errorf("newBox: shape %v does not match %v bounds",
			shape, len(low))
	}

	boundedBelow := make([]bool, len(low))
	boundedAbove := make([]bool, len(high))
	for i := range low {
		if low[i] > high[i] {
			return nil, fmt.Errorf("newBox: low bound %v above high bound "+
				"%v at index %v", low[i], high[i], i)
		}
		boundedBelow[i] = math.Inf(-1) < low[i]
		boundedAbove[i] = math.Inf(1) > high[i]
	}

	b := &Box{
		low:          mat.NewVecDense(len(low), append([]float64(nil), low...)),
		high:         mat.NewVecDense(len(high), append([]float64(nil), high...)),
		shape:        append([]int(nil), shape...),
		boundedBelow: boundedBelow,
		boundedAbove: boundedAbove,
	}
	b.Seed(uint64(time.Now().UnixNano()))
	return b, nil
}

// NewUniformBox returns a Box of the given shape whose every
// dimension lies in [low, high]
func NewUniformBox(low, high float64, shape []int) (*Box, error) {
	n := ShapeSize(shape)
	if n <= 0 {
		return nil, fmt.Errorf("newUniformBox: invalid shape %v", shape)
	}
	l := make([]float64, n)
	h := make([]float64, n)
	for i := range l {
		l[i] = low
		h[i] = high
	}
	return NewBox(l, h, shape)
}

// Seed seeds the sampler for the space
func (b *Box) Seed(seed uint64) {
	b.src = rand.NewSource(seed)
	b.rng = nil

	if !b.bounded() {
		return
	}
	bounds := make([]r1.Interval, b.low.Len())
	for i := range bounds {
		bounds[i] = r1.Interval{Min: b.low.AtVec(i), Max: b.high.AtVec(i)}
	}
	b.rng = distmv.NewUniform(bounds, b.src)
}

// bounded returns whether every dimension is bounded on both sides
func (b *Box) bounded() bool {
	for i := range b.boundedBelow {
		if !b.boundedBelow[i] || !b.boundedAbove[i] {
			return false
		}
	}
	return true
}

// Sample takes a sample from within the spaces bounds. Dimensions
// bounded on both sides are sampled uniformly, dimensions bounded on
// one side from a shifted exponential and unbounded dimensions from a
// standard normal, as gym.spaces.Box does.
func (b *Box) Sample() []*mat.VecDense {
	if b.rng != nil {
		sample := b.rng.Rand(nil)
		return []*mat.VecDense{mat.NewVecDense(len(sample), sample)}
	}

	sample := make([]float64, b.low.Len())
	for i := range sample {
		low, high := b.low.AtVec(i), b.high.AtVec(i)
		switch {
		case b.boundedBelow[i] && b.boundedAbove[i]:
			sample[i] = distuv.Uniform{Min: low, Max: high, Src: b.src}.Rand()

		case b.boundedBelow[i]:
			sample[i] = low + distuv.Exponential{Rate: 1, Src: b.src}.Rand()

		case b.boundedAbove[i]:
			sample[i] = high - distuv.Exponential{Rate: 1, Src: b.src}.Rand()

		default:
			sample[i] = distuv.Normal{Mu: 0, Sigma: 1, Src: b.src}.Rand()
		}
	}
	return []*mat.VecDense{mat.NewVecDense(len(sample), sample)}
}

// Contains returns whether in is in the space. The argument in must
// be a []float64, *mat.VecDense or *etensor.Float64
func (b *Box) Contains(in interface{}) bool {
	x, ok := values(in)
	if !ok {
		return false
	}
	if len(x) != b.low.Len() {
		return false
	}

	for i := range x {
		if x[i] < b.low.AtVec(i) || x[i] > b.high.AtVec(i) {
			return false
		}
	}
	return true
}

// Clip clips x to the bounds of the space
func (b *Box) Clip(x *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(x.Len(), nil)
	for i := 0; i < x.Len(); i++ {
		out.SetVec(i, math.Min(math.Max(x.AtVec(i), b.low.AtVec(i)),
			b.high.AtVec(i)))
	}
	return out
}

// High returns the upper bounds of the space
func (b *Box) High() []*mat.VecDense {
	return []*mat.VecDense{b.high}
}

// Low returns the lower bounds of the space
func (b *Box) Low() []*mat.VecDense {
	return []*mat.VecDense{b.low}
}

// Shape returns the shape of an element of the space
func (b *Box) Shape() []int {
	return append([]int(nil), b.shape...)
}

// BoundedAbove returns whether the space is bounded above
func (b *Box) BoundedAbove() []bool {
	return b.boundedAbove
}

// BoundedBelow returns whether the space is bounded below
func (b *Box) BoundedBelow() []bool {
	return b.boundedBelow
}
