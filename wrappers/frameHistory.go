package wrappers

import (
	"fmt"
	"slices"

	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
)

// frameHistory is a fixed capacity FIFO of frames. Once primed it
// always holds exactly capacity frames; pushing a frame evicts the
// oldest one.
type frameHistory struct {
	frames []*etensor.Float64
	start  int // index of the oldest frame
	shape  []int
	primed bool
}

func newFrameHistory(capacity int) *frameHistory {
	return &frameHistory{frames: make([]*etensor.Float64, capacity)}
}

// prime replaces the whole history with capacity copies of frame
func (h *frameHistory) prime(frame *etensor.Float64) {
	for i := range h.frames {
		h.frames[i] = frame
	}
	h.start = 0
	h.shape = gymwrap.TensorShape(frame)
	h.primed = true
}

// push appends frame as the newest entry and evicts the oldest
func (h *frameHistory) push(frame *etensor.Float64) error {
	if !h.primed {
		return gymwrap.ErrEnvironmentNotReset
	}
	if !slices.Equal(frame.Shapes(), h.shape) {
		return fmt.Errorf("push: frame shape %v differs from history shape "+
			"%v: %w", frame.Shapes(), h.shape, gymwrap.ErrInvalidFrameShape)
	}
	h.frames[h.start] = frame
	h.start = (h.start + 1) % len(h.frames)
	return nil
}

// clear drops every frame
func (h *frameHistory) clear() {
	for i := range h.frames {
		h.frames[i] = nil
	}
	h.start = 0
	h.primed = false
}

// at returns the i-th oldest frame
func (h *frameHistory) at(i int) *etensor.Float64 {
	return h.frames[(h.start+i)%len(h.frames)]
}

// stacked returns a new tensor of shape [1, capacity] ++ frame shape
// holding the frames oldest first
func (h *frameHistory) stacked() *etensor.Float64 {
	shape := append([]int{1, len(h.frames)}, h.shape...)
	out := gymwrap.NewTensor(shape, nil)

	n := gymwrap.ShapeSize(h.shape)
	for i := range h.frames {
		copy(out.Values[i*n:(i+1)*n], h.at(i).Values)
	}
	return out
}
