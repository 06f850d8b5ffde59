// Package testutil generates deterministic synthetic calibration images for
// tests: comb-pulse lineouts, Ronchi-ruling flatfields, and slit frames.
package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/streakcal/frame"
)

// CombLineout builds a lineout containing Gaussian pulses of the given
// amplitude and sigma centered at positions.
func CombLineout(length int, positions []int, sigma, amplitude float64) []float64 {
	out := make([]float64, length)
	for _, p := range positions {
		for i := range out {
			d := (float64(i) - float64(p)) / sigma
			out[i] += amplitude * math.Exp(-d*d/2)
		}
	}

	return out
}

// UniformCombPositions returns count positions starting at start with the
// given spacing.
func UniformCombPositions(start, spacing, count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = start + i*spacing
	}

	return out
}

// DriftCombPositions returns count positions whose spacing grows by drift
// samples per interval, modeling a nonlinear sweep.
func DriftCombPositions(start, spacing, count int, drift float64) []int {
	out := make([]int, count)
	pos := float64(start)
	for i := range out {
		out[i] = int(math.Round(pos))
		pos += float64(spacing) + drift*float64(i)
	}

	return out
}

// FrameFromLineout replicates a lineout over height rows.
func FrameFromLineout(line []float64, height int) *frame.Frame {
	data := make([]float64, len(line)*height)
	for r := 0; r < height; r++ {
		copy(data[r*len(line):], line)
	}

	f, err := frame.New(data, len(line), height)
	if err != nil {
		panic(err)
	}

	return f
}

// SineRulingFrame builds a flatfield with a sinusoidal ruling pattern along
// the width: offset + amplitude*sin(2*pi*x/period), identical on every row.
// Its ideal contrast transfer ratio is amplitude/offset.
func SineRulingFrame(width, height, period int, offset, amplitude float64) *frame.Frame {
	line := make([]float64, width)
	for x := range line {
		line[x] = offset + amplitude*math.Sin(2*math.Pi*float64(x)/float64(period))
	}

	return FrameFromLineout(line, height)
}

// SlitFrame builds a slit image: every row carries the same Gaussian profile
// plus a constant background.
func SlitFrame(width, height int, center, sigma, amplitude, background float64) *frame.Frame {
	line := make([]float64, width)
	for x := range line {
		d := (float64(x) - center) / sigma
		line[x] = background + amplitude*math.Exp(-d*d/2)
	}

	return FrameFromLineout(line, height)
}

// FlatFrame builds a constant-valued frame.
func FlatFrame(width, height int, value float64) *frame.Frame {
	data := make([]float64, width*height)
	for i := range data {
		data[i] = value
	}

	f, err := frame.New(data, width, height)
	if err != nil {
		panic(err)
	}

	return f
}

// DeterministicNoise generates white noise with a fixed seed for
// reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}
