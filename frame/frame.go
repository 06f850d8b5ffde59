package frame

import (
	"errors"
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Errors returned by frame operations.
var (
	ErrUnsupportedFormat = errors.New("frame: unsupported image format")
	ErrBadDimensions     = errors.New("frame: dimensions do not match sample count")
	ErrBadSwath          = errors.New("frame: swath outside frame bounds")
)

// Frame is a row-major 2D array of intensity samples.
type Frame struct {
	data   []float64
	width  int
	height int
}

// New creates a frame from row-major samples.
func New(samples []float64, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 || len(samples) != width*height {
		return nil, ErrBadDimensions
	}

	return &Frame{data: samples, width: width, height: height}, nil
}

// Width returns the number of columns.
func (f *Frame) Width() int { return f.width }

// Height returns the number of rows.
func (f *Frame) Height() int { return f.height }

// At returns the sample at row r, column c.
func (f *Frame) At(r, c int) float64 {
	return f.data[r*f.width+c]
}

// Row returns a copy of row r.
func (f *Frame) Row(r int) []float64 {
	out := make([]float64, f.width)
	copy(out, f.data[r*f.width:(r+1)*f.width])

	return out
}

// Samples returns a copy of all samples in row-major order.
func (f *Frame) Samples() []float64 {
	out := make([]float64, len(f.data))
	copy(out, f.data)

	return out
}

// SwathMean returns the mean lineout over size consecutive rows starting at
// start. This is the lineout-extraction method used by all three calibration
// tools: averaging a swath suppresses single-row noise that would otherwise
// register as spurious peaks.
func (f *Frame) SwathMean(start, size int) ([]float64, error) {
	if start < 0 || size <= 0 || start+size > f.height {
		return nil, fmt.Errorf("%w: rows [%d, %d) of %d", ErrBadSwath, start, start+size, f.height)
	}

	out := make([]float64, f.width)
	for r := start; r < start+size; r++ {
		vecmath.AddBlockInPlace(out, f.data[r*f.width:(r+1)*f.width])
	}

	vecmath.ScaleBlockInPlace(out, 1/float64(size))

	return out, nil
}

// Rotate90 returns the frame rotated a quarter turn clockwise. The analyzers
// use this when an image was recorded with the sweep axis vertical instead of
// horizontal.
func (f *Frame) Rotate90() *Frame {
	out := make([]float64, len(f.data))
	// (r, c) -> (c, height-1-r)
	for r := 0; r < f.height; r++ {
		for c := 0; c < f.width; c++ {
			out[c*f.height+(f.height-1-r)] = f.data[r*f.width+c]
		}
	}

	return &Frame{data: out, width: f.height, height: f.width}
}

// SubtractOffset returns a copy with v subtracted from every sample,
// clamped at zero. Used for background removal before fitting.
func (f *Frame) SubtractOffset(v float64) *Frame {
	out := make([]float64, len(f.data))
	for i, s := range f.data {
		d := s - v
		if d < 0 {
			d = 0
		}

		out[i] = d
	}

	return &Frame{data: out, width: f.width, height: f.height}
}
