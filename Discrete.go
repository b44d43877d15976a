package gymwrap

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Discrete represents a space of discrete numbers: (0, 1, 2, ..., n-1).
// Elements of the space are vectors of length 1.
type Discrete struct {
	src rand.Source
	rng distuv.Categorical
	n   int // Number of actions, actions in (0, 1, ..., n-1)
}

// NewDiscrete returns a Discrete space with n elements
func NewDiscrete(n int) (*Discrete, error) {
	if n <= 0 {
		return nil, fmt.Errorf("newDiscrete: n must be positive, got %v", n)
	}
	d := &Discrete{n: n}
	d.Seed(uint64(time.Now().UnixNano()))
	return d, nil
}

// Seed seeds the sampler for the space
func (d *Discrete) Seed(seed uint64) {
	d.src = rand.NewSource(seed)
	weights := make([]float64, d.n)
	for i := range weights {
		weights[i] = 1.0
	}
	d.rng = distuv.NewCategorical(weights, d.src)
}

// N returns the number of elements in the space
func (d *Discrete) N() int {
	return d.n
}

// Sample takes a sample from within the spaces bounds
func (d *Discrete) Sample() []*mat.VecDense {
	return []*mat.VecDense{
		mat.NewVecDense(1, []float64{float64(int(d.rng.Rand()) % d.n)}),
	}
}

// Contains returns whether in is in the space. The argument in must
// be an int, a []float64 or a *mat.VecDense of length 1
func (d *Discrete) Contains(in interface{}) bool {
	if i, ok := in.(int); ok {
		return i >= 0 && i < d.n
	}

	x, ok := values(in)
	if !ok || len(x) != 1 {
		return false
	}
	intX := int(x[0])
	return float64(intX) == x[0] && intX < d.n && intX >= 0
}

// High returns the upper bounds of the space
func (d *Discrete) High() []*mat.VecDense {
	return []*mat.VecDense{mat.NewVecDense(1, []float64{float64(d.n - 1)})}
}

// Low returns the lower bounds of the space
func (d *Discrete) Low() []*mat.VecDense {
	return []*mat.VecDense{mat.NewVecDense(1, []float64{0.0})}
}

// Shape returns the shape of an element of the space
func (d *Discrete) Shape() []int {
	return []int{1}
}
