package wrappers

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
	"golang.org/x/image/draw"
)

// Interpolation names the resampling policy used to resize frames
type Interpolation string

const (
	// Nearest resizes with draw.NearestNeighbor
	Nearest Interpolation = "nearest"

	// ApproxBiLinear resizes with draw.ApproxBiLinear
	ApproxBiLinear Interpolation = "approx-bilinear"

	// BiLinear resizes with the draw.BiLinear kernel
	BiLinear Interpolation = "bilinear"

	// CatmullRom resizes with the draw.CatmullRom kernel
	CatmullRom Interpolation = "catmull-rom"
)

// interpolator returns the x/image/draw interpolator for i
func (i Interpolation) interpolator() (draw.Interpolator, error) {
	switch i {
	case Nearest, "":
		return draw.NearestNeighbor, nil
	case ApproxBiLinear:
		return draw.ApproxBiLinear, nil
	case BiLinear:
		return draw.BiLinear, nil
	case CatmullRom:
		return draw.CatmullRom, nil
	}
	return nil, fmt.Errorf("unknown interpolation %q", string(i))
}

// FrameProcessorConfig configures a FrameProcessor
type FrameProcessorConfig struct {
	// Height and Width of the processed frame, 84 x 84 if zero
	Height, Width int

	// Interpolation is the resampling policy, Nearest if empty
	Interpolation Interpolation

	// Scale maps the output from [0, 255] to [0, 1]
	Scale bool
}

// FrameProcessor converts RGB frames of shape (H, W, 3) into
// grayscale frames of shape (Height, Width).
//
// Each element of the input is clipped to [0, 255] and rounded to a
// byte. The luminance is the ITU-R BT.601 luma computed by
// color.GrayModel: Y = 0.299 R + 0.587 G + 0.114 B. The grayscale
// image is then resized with the configured interpolator. Processing
// holds no state, so the same frame always gives the same output.
type FrameProcessor struct {
	height, width int
	interp        draw.Interpolator
	interpName    Interpolation
	scale         bool
}

// NewFrameProcessor returns a new FrameProcessor
func NewFrameProcessor(c FrameProcessorConfig) (*FrameProcessor, error) {
	if c.Height == 0 {
		c.Height = 84
	}
	if c.Width == 0 {
		c.Width = 84
	}
	if c.Height < 0 || c.Width < 0 {
		return nil, fmt.Errorf("newFrameProcessor: invalid target size "+
			"(%v, %v)", c.Height, c.Width)
	}
	if c.Interpolation == "" {
		c.Interpolation = Nearest
	}

	interp, err := c.Interpolation.interpolator()
	if err != nil {
		return nil, fmt.Errorf("newFrameProcessor: %v", err)
	}

	return &FrameProcessor{
		height:     c.Height,
		width:      c.Width,
		interp:     interp,
		interpName: c.Interpolation,
		scale:      c.Scale,
	}, nil
}

// Shape returns the shape of a processed frame
func (f *FrameProcessor) Shape() []int {
	return []int{f.height, f.width}
}

// High returns the largest value of a processed frame
func (f *FrameProcessor) High() float64 {
	if f.scale {
		return 1.0
	}
	return 255.0
}

// Interpolation returns the resampling policy
func (f *FrameProcessor) Interpolation() Interpolation {
	return f.interpName
}

// ObservationSpace returns the space of processed frames
func (f *FrameProcessor) ObservationSpace() (*gymwrap.Box, error) {
	return gymwrap.NewUniformBox(0, f.High(), f.Shape())
}

// Process converts raw, a frame of shape (H, W, 3), into a grayscale
// frame of shape (Height, Width). If raw is not a rank 3 tensor with 3
// channels, an error wrapping gymwrap.ErrInvalidFrameShape is returned.
func (f *FrameProcessor) Process(raw *etensor.Float64) (*etensor.Float64,
	error) {
	gray, err := grayscale(raw)
	if err != nil {
		return nil, fmt.Errorf("process: %w", err)
	}

	resized := gray
	if gray.Rect.Dx() != f.width || gray.Rect.Dy() != f.height {
		resized = image.NewGray(image.Rect(0, 0, f.width, f.height))
		f.interp.Scale(resized, resized.Rect, gray, gray.Rect, draw.Src, nil)
	}

	out := gymwrap.NewTensor(f.Shape(), nil)
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			v := float64(resized.GrayAt(x, y).Y)
			if f.scale {
				v /= 255.0
			}
			out.Values[y*f.width+x] = v
		}
	}
	return out, nil
}

// grayscale validates raw and converts it to a grayscale image
func grayscale(raw *etensor.Float64) (*image.Gray, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil frame: %w", gymwrap.ErrInvalidFrameShape)
	}
	shape := raw.Shapes()
	if len(shape) != 3 || shape[2] != 3 || shape[0] <= 0 || shape[1] <= 0 {
		return nil, fmt.Errorf("expected shape (H, W, 3), got %v: %w", shape,
			gymwrap.ErrInvalidFrameShape)
	}
	h, w := shape[0], shape[1]
	if len(raw.Values) != h*w*3 {
		return nil, fmt.Errorf("%v values for shape %v: %w", len(raw.Values),
			shape, gymwrap.ErrInvalidFrameShape)
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			c := color.RGBA{
				R: toByte(raw.Values[i]),
				G: toByte(raw.Values[i+1]),
				B: toByte(raw.Values[i+2]),
				A: 255,
			}
			gray.SetGray(x, y, color.GrayModel.Convert(c).(color.Gray))
		}
	}
	return gray, nil
}

// toByte clips v to [0, 255] and rounds it to the nearest byte. NaN
// maps to 0.
func toByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
